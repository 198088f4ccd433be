package models

// SubjectSchedule carries the slots assigned to one (student, subject)
// pair by a single teacher. AssignedSessions never exceeds
// TotalSessions; slots are chronologically sorted and non-overlapping.
type SubjectSchedule struct {
	StudentID        string              `json:"student_id"`
	SubjectID        string              `json:"subject_id"`
	TeachingType     SessionType         `json:"teaching_type"`
	TotalSessions    int                 `json:"total_sessions"`
	AssignedSessions int                 `json:"assigned_sessions"`
	Slots            []DatedSlotInstance `json:"slots"`
}

// TeacherSchedule groups subject schedules under one teacher.
type TeacherSchedule struct {
	TeacherID        string            `json:"teacher_id"`
	Priority         int               `json:"priority"`
	SubjectSchedules []SubjectSchedule `json:"subject_schedules"`
}

// RecommendedSchedule is the matcher's output. It is advisory: nothing
// is held until the slots are reserved.
type RecommendedSchedule struct {
	Teachers []TeacherSchedule `json:"teachers"`
}

// AssignedForDemand sums assigned sessions across teachers for a
// (student, subject) pair.
func (r RecommendedSchedule) AssignedForDemand(key StudentSubjectKey) int {
	total := 0
	for _, teacher := range r.Teachers {
		for _, subj := range teacher.SubjectSchedules {
			if subj.StudentID == key.StudentID && subj.SubjectID == key.SubjectID {
				total += subj.AssignedSessions
			}
		}
	}
	return total
}

// ScheduleSummary aggregates matcher output for the API response.
type ScheduleSummary struct {
	TotalSessions               int              `json:"total_sessions"`
	MatchedSessions             int              `json:"matched_sessions"`
	UnmatchedSessions           int              `json:"unmatched_sessions"`
	ConsistentTeacherPerSubject bool             `json:"consistent_teacher_per_subject"`
	SplitSubjects               []string         `json:"split_subjects"`
	SubjectAvailability         []CoverageRecord `json:"subject_availability"`
}
