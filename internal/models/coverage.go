package models

// CoverageRecord summarises how much of one demand item the matcher
// could actually place. Partial coverage is ordinary data, not an
// error.
type CoverageRecord struct {
	StudentID         string      `json:"student_id"`
	SubjectID         string      `json:"subject_id"`
	TeachingType      SessionType `json:"teaching_type"`
	RequestedSessions int         `json:"requested_sessions"`
	AvailableSessions int         `json:"available_sessions"`
	IsFullyCovered    bool        `json:"is_fully_covered"`
	Message           string      `json:"message"`
}
