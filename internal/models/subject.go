package models

import "time"

// Subject is a catalog entry students can book tutoring for.
// Term-bound subjects only schedule inside their academic term's date
// range; the rest are global.
type Subject struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	TermBound      bool      `db:"term_bound" json:"term_bound"`
	AcademicTermID *string   `db:"academic_term_id" json:"academic_term_id,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Scope derives the subject's term scope once, at the boundary.
func (s Subject) Scope() TermScope {
	if s.TermBound && s.AcademicTermID != nil && *s.AcademicTermID != "" {
		return BoundScope(*s.AcademicTermID)
	}
	return GlobalScope()
}
