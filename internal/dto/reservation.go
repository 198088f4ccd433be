package dto

import (
	"time"

	"github.com/studyhall/tutoring-api/internal/models"
)

// ReserveSlotRequest names one slot instance to hold.
type ReserveSlotRequest struct {
	AvailabilityID string    `json:"availabilityId" validate:"required"`
	TeacherID      string    `json:"teacherId" validate:"required"`
	SubjectID      string    `json:"subjectId" validate:"required"`
	StudentID      string    `json:"studentId" validate:"required"`
	StartsAt       time.Time `json:"startsAt" validate:"required"`
}

// ReserveRequest asks for an all-or-nothing hold over a slot set.
type ReserveRequest struct {
	Slots             []ReserveSlotRequest `json:"slots" validate:"required,min=1,dive"`
	ExpirationMinutes int                  `json:"expirationMinutes" validate:"omitempty,min=1,max=60"`
}

// FailedSlot explains why one requested slot could not be held.
type FailedSlot struct {
	AvailabilityID string    `json:"availabilityId"`
	StartsAt       time.Time `json:"startsAt"`
	Reason         string    `json:"reason"`
}

// ReserveResponse reports the hold outcome. Conflicts are data, not
// errors: success=false with FailedSlots populated and nothing held.
type ReserveResponse struct {
	Success       bool                  `json:"success"`
	SessionToken  string                `json:"sessionToken,omitempty"`
	ExpiresAt     time.Time             `json:"expiresAt,omitempty"`
	ReservedSlots []models.ReservedSlot `json:"reservedSlots,omitempty"`
	FailedSlots   []FailedSlot          `json:"failedSlots,omitempty"`
}

// ExtendRequest pushes a token's expiry forward.
type ExtendRequest struct {
	AdditionalMinutes int `json:"additionalMinutes" validate:"required,min=1,max=60"`
}

// ExtendResponse reports the new deadline.
type ExtendResponse struct {
	Success      bool      `json:"success"`
	NewExpiresAt time.Time `json:"newExpiresAt,omitempty"`
}

// CancelResponse acknowledges a cancellation. Cancel is idempotent.
type CancelResponse struct {
	Success bool `json:"success"`
}

// CheckAvailabilityResponse is the read-only slot probe.
type CheckAvailabilityResponse struct {
	IsAvailable bool       `json:"isAvailable"`
	ReservedBy  string     `json:"reservedBy,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// ConsumeRequest finalizes a reservation into confirmed bookings.
type ConsumeRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// ConsumeResponse reports finalization.
type ConsumeResponse struct {
	Success    bool             `json:"success"`
	BookingIDs []string         `json:"bookingIds,omitempty"`
	Bookings   []models.Booking `json:"bookings,omitempty"`
}
