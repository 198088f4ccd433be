package models

// TermScopeKind tags the TermScope union.
type TermScopeKind string

const (
	TermScopeGlobal TermScopeKind = "GLOBAL"
	TermScopeBound  TermScopeKind = "TERM_BOUND"
)

// TermScope says whether scheduling for a subject is bounded to an
// academic term's date range or unrestricted. The tag is decided once
// at the API boundary; downstream code never type-sniffs.
type TermScope struct {
	Kind           TermScopeKind `json:"kind"`
	AcademicTermID string        `json:"academic_term_id,omitempty"`
}

// GlobalScope is the unbounded scope sentinel.
func GlobalScope() TermScope {
	return TermScope{Kind: TermScopeGlobal}
}

// BoundScope ties scheduling to an academic term.
func BoundScope(academicTermID string) TermScope {
	return TermScope{Kind: TermScopeBound, AcademicTermID: academicTermID}
}

// IsBound reports whether the scope references an academic term.
func (t TermScope) IsBound() bool {
	return t.Kind == TermScopeBound && t.AcademicTermID != ""
}

// DemandItem is one (student, subject) selection. One session equals
// one hour in this domain, so RequestedSessions mirrors Hours.
type DemandItem struct {
	StudentID         string      `json:"student_id"`
	SubjectID         string      `json:"subject_id"`
	TeachingType      SessionType `json:"teaching_type"`
	Hours             int         `json:"hours"`
	RequestedSessions int         `json:"requested_sessions"`
	Scope             TermScope   `json:"scope"`
}

// Key returns the demand's identity key.
func (d DemandItem) Key() StudentSubjectKey {
	return StudentSubjectKey{StudentID: d.StudentID, SubjectID: d.SubjectID}
}

// StudentSubjectKey identifies a (student, subject) pair.
type StudentSubjectKey struct {
	StudentID string
	SubjectID string
}
