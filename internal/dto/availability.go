package dto

import "github.com/studyhall/tutoring-api/internal/models"

// CreateAvailabilityRequest registers a recurring weekly slot.
type CreateAvailabilityRequest struct {
	TeacherID   string             `json:"teacherId" validate:"required"`
	DayOfWeek   int                `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime   string             `json:"startTime" validate:"required,datetime=15:04"`
	EndTime     string             `json:"endTime" validate:"required,datetime=15:04"`
	SessionType models.SessionType `json:"sessionType" validate:"required,oneof=ONE_TO_ONE GROUP BOOKING_FIRST"`
	MaxStudents int                `json:"maxStudents" validate:"omitempty,min=2,max=10"`
	SubjectID   *string            `json:"subjectId,omitempty"`
}

// UpdateAvailabilityRequest patches a recurring slot. Nil fields are
// left untouched.
type UpdateAvailabilityRequest struct {
	DayOfWeek   *int                `json:"dayOfWeek,omitempty" validate:"omitempty,min=0,max=6"`
	StartTime   *string             `json:"startTime,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime     *string             `json:"endTime,omitempty" validate:"omitempty,datetime=15:04"`
	SessionType *models.SessionType `json:"sessionType,omitempty" validate:"omitempty,oneof=ONE_TO_ONE GROUP BOOKING_FIRST"`
	MaxStudents *int                `json:"maxStudents,omitempty" validate:"omitempty,min=2,max=10"`
	SubjectID   *string             `json:"subjectId,omitempty"`
	IsActive    *bool               `json:"isActive,omitempty"`
}

// ListAvailabilityQuery filters the availability listing.
type ListAvailabilityQuery struct {
	TeacherID string `form:"teacherId"`
	SubjectID string `form:"subjectId"`
	DayOfWeek *int   `form:"dayOfWeek" validate:"omitempty,min=0,max=6"`
}
