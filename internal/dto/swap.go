package dto

import "github.com/studyhall/tutoring-api/internal/models"

// AlternativesQuery scopes a replacement-slot search to one tutor and
// subject. ExcludeSlotIDs removes the availability slots the student
// is swapping away from. SessionToken lets an in-flight reservation
// see past its own holds.
type AlternativesQuery struct {
	TeacherID      string             `form:"teacherId" validate:"required"`
	SubjectID      string             `form:"subjectId" validate:"required"`
	TeachingType   models.SessionType `form:"teachingType" validate:"required,oneof=ONE_TO_ONE GROUP BOOKING_FIRST"`
	AcademicTermID string             `form:"academicTermId"`
	StartDate      string             `form:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate        string             `form:"endDate" validate:"required,datetime=2006-01-02"`
	ExcludeSlotIDs string             `form:"excludeSlotIds"`
	SessionToken   string             `form:"sessionToken"`
}

// AlternativesResponse lists candidate replacement slots. An empty
// list is an ordinary outcome, not an error.
type AlternativesResponse struct {
	Alternatives []models.DatedSlotInstance `json:"alternatives"`
	Total        int                        `json:"total"`
}
