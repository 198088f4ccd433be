package dto

import (
	"github.com/studyhall/tutoring-api/internal/models"
)

// SubjectSelectionRequest is one (student, subject) demand line.
type SubjectSelectionRequest struct {
	StudentID    string             `json:"studentId" validate:"required"`
	SubjectID    string             `json:"subjectId" validate:"required"`
	TeachingType models.SessionType `json:"teachingType" validate:"required,oneof=ONE_TO_ONE GROUP BOOKING_FIRST"`
	Hours        int                `json:"hours" validate:"required,min=1"`
}

// PreferredTimeRange restricts candidate slots to a daily time-of-day
// window.
type PreferredTimeRange struct {
	Start string `json:"start" validate:"required,datetime=15:04"`
	End   string `json:"end" validate:"required,datetime=15:04"`
}

// SmartSlotsRequest asks for a recommended schedule over a date range.
// Dates are calendar days; the window is half-open on the day after
// EndDate. PreferredDays and PreferredTimeRange are optional hard
// filters on the candidate universe.
type SmartSlotsRequest struct {
	Selections         []SubjectSelectionRequest `json:"selections" validate:"required,min=1,dive"`
	StartDate          string                    `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate            string                    `json:"endDate" validate:"required,datetime=2006-01-02"`
	PreferredDays      []int                     `json:"preferredDays,omitempty" validate:"omitempty,dive,min=0,max=6"`
	PreferredTimeRange *PreferredTimeRange       `json:"preferredTimeRange,omitempty"`
	DraftID            string                    `json:"draftId,omitempty"`
}

// SubjectIssue records a per-subject failure that did not abort the
// rest of the computation, such as an unresolvable academic term.
type SubjectIssue struct {
	SubjectID string `json:"subjectId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// SmartSlotsResponse carries the advisory schedule plus its audit.
type SmartSlotsResponse struct {
	RecommendedSchedule models.RecommendedSchedule `json:"recommendedSchedule"`
	Summary             models.ScheduleSummary     `json:"summary"`
	SubjectIssues       []SubjectIssue             `json:"subjectIssues,omitempty"`
}
