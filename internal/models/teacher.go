package models

import "time"

// Teacher represents a tutor offering availability on the platform.
// Priority (1-10, 10 highest) biases allocation toward preferred
// teachers.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Bio       *string   `db:"bio" json:"bio,omitempty"`
	Priority  int       `db:"priority" json:"priority"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
