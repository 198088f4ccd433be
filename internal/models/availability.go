package models

import "time"

// SessionType is the teaching mode offered by an availability slot.
type SessionType string

const (
	SessionOneToOne     SessionType = "ONE_TO_ONE"
	SessionGroup        SessionType = "GROUP"
	SessionBookingFirst SessionType = "BOOKING_FIRST"
)

// Valid reports whether the session type is one of the known modes.
func (s SessionType) Valid() bool {
	switch s {
	case SessionOneToOne, SessionGroup, SessionBookingFirst:
		return true
	}
	return false
}

// AvailabilitySlot is a recurring weekly time window a teacher offers.
// SubjectID is nil when the slot accepts any subject.
type AvailabilitySlot struct {
	ID          string      `db:"id" json:"id"`
	TeacherID   string      `db:"teacher_id" json:"teacher_id"`
	DayOfWeek   int         `db:"day_of_week" json:"day_of_week"`
	StartTime   string      `db:"start_time" json:"start_time"`
	EndTime     string      `db:"end_time" json:"end_time"`
	SessionType SessionType `db:"session_type" json:"session_type"`
	MaxStudents int         `db:"max_students" json:"max_students"`
	SubjectID   *string     `db:"subject_id" json:"subject_id,omitempty"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// AcceptsSubject reports whether the slot can host the given subject.
func (a AvailabilitySlot) AcceptsSubject(subjectID string) bool {
	return a.SubjectID == nil || *a.SubjectID == subjectID
}

// Capacity returns the number of students a single dated instance can hold.
func (a AvailabilitySlot) Capacity() int {
	if a.SessionType == SessionGroup && a.MaxStudents > 1 {
		return a.MaxStudents
	}
	return 1
}

// AvailabilityFilter captures filtering options for listing availability.
type AvailabilityFilter struct {
	TeacherID string
	SubjectID string
	DayOfWeek *int
	Active    *bool
}
