package models

import "time"

// BookingStatus tracks the lifecycle of a confirmed booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is a confirmed, paid-for occupation of a dated slot
// instance. Bookings are what the slot generator excludes from the
// candidate universe.
type Booking struct {
	ID             string        `db:"id" json:"id"`
	OrderID        string        `db:"order_id" json:"order_id"`
	AvailabilityID string        `db:"availability_id" json:"availability_id"`
	TeacherID      string        `db:"teacher_id" json:"teacher_id"`
	StudentID      string        `db:"student_id" json:"student_id"`
	SubjectID      string        `db:"subject_id" json:"subject_id"`
	StartsAt       time.Time     `db:"starts_at" json:"starts_at"`
	EndsAt         time.Time     `db:"ends_at" json:"ends_at"`
	Status         BookingStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// Key returns the booked slot's identity key.
func (b Booking) Key() SlotKey {
	return NewSlotKey(b.AvailabilityID, b.StartsAt)
}

// BookedSlot is the lightweight projection used for exclusion checks.
type BookedSlot struct {
	AvailabilityID string    `db:"availability_id" json:"availability_id"`
	StartsAt       time.Time `db:"starts_at" json:"starts_at"`
}
