package models

import "time"

// ReservationState is the lifecycle of a reservation token. Terminal
// states have no outgoing transitions.
type ReservationState string

const (
	ReservationActive    ReservationState = "ACTIVE"
	ReservationExpired   ReservationState = "EXPIRED"
	ReservationCancelled ReservationState = "CANCELLED"
	ReservationConsumed  ReservationState = "CONSUMED"
)

// ReservedSlot is one held slot under a reservation token.
type ReservedSlot struct {
	ReservationID  string    `json:"reservation_id"`
	AvailabilityID string    `json:"availability_id"`
	StartsAt       time.Time `json:"starts_at"`
	TeacherID      string    `json:"teacher_id"`
	SubjectID      string    `json:"subject_id"`
	StudentID      string    `json:"student_id"`
}

// Key returns the held slot's identity key.
func (r ReservedSlot) Key() SlotKey {
	return NewSlotKey(r.AvailabilityID, r.StartsAt)
}

// ReservationToken is a time-bounded exclusive hold over a set of
// slots. The session token is opaque to clients.
type ReservationToken struct {
	SessionToken  string           `json:"session_token"`
	State         ReservationState `json:"state"`
	ExpiresAt     time.Time        `json:"expires_at"`
	ReservedSlots []ReservedSlot   `json:"reserved_slots"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ActiveAt applies the passive expiry check: a token past its deadline
// is treated as expired even before the sweep runs.
func (t ReservationToken) ActiveAt(now time.Time) bool {
	return t.State == ReservationActive && now.Before(t.ExpiresAt)
}

// SlotHold records who holds a concrete slot instance right now.
type SlotHold struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
