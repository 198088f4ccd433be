package models

import "time"

// DatedSlotInstance is one concrete calendar occurrence of an
// availability slot. Instances are derived per request and never
// persisted; identity is (AvailabilityID, StartsAt).
type DatedSlotInstance struct {
	AvailabilityID string      `json:"availability_id"`
	TeacherID      string      `json:"teacher_id"`
	SubjectID      *string     `json:"subject_id,omitempty"`
	SessionType    SessionType `json:"session_type"`
	MaxStudents    int         `json:"max_students"`
	StartsAt       time.Time   `json:"starts_at"`
	EndsAt         time.Time   `json:"ends_at"`
}

// Key returns the slot's identity key.
func (d DatedSlotInstance) Key() SlotKey {
	return NewSlotKey(d.AvailabilityID, d.StartsAt)
}

// Capacity returns the number of students the instance can hold.
func (d DatedSlotInstance) Capacity() int {
	if d.SessionType == SessionGroup && d.MaxStudents > 1 {
		return d.MaxStudents
	}
	return 1
}

// SlotKey identifies a dated slot instance. A dedicated value type is
// used instead of string concatenation so keys cannot collide on
// separator characters and remain usable as map keys.
type SlotKey struct {
	AvailabilityID string
	StartUnix      int64
}

// NewSlotKey builds a key, normalising the timestamp to UTC seconds so
// equal instants compare equal regardless of wall-clock location.
func NewSlotKey(availabilityID string, startsAt time.Time) SlotKey {
	return SlotKey{AvailabilityID: availabilityID, StartUnix: startsAt.UTC().Unix()}
}

// Time returns the slot start as a UTC time.
func (k SlotKey) Time() time.Time {
	return time.Unix(k.StartUnix, 0).UTC()
}

// DateRange is the half-open scheduling window [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the span length in calendar days, rounded up.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24 + 0.999)
}
