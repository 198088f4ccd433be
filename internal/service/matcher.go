package service

import (
	"fmt"
	"sort"

	"github.com/studyhall/tutoring-api/internal/models"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

// matchSchedule is the core allocation algorithm: greedy,
// priority-ordered and continuity-preferring. It is a pure function
// over its inputs; callers re-run it with a fresh slot universe when
// availability changes. Partial coverage is not an error; the
// schedule simply carries fewer assigned sessions and the auditor
// reports the shortfall.
func matchSchedule(demand []models.DemandItem, teachers []models.Teacher, universe []models.DatedSlotInstance) (models.RecommendedSchedule, error) {
	state := newMatcherState(teachers, universe)

	for _, subjectID := range subjectOrder(demand) {
		items := demandForSubject(demand, subjectID)
		eligible := state.eligibleTeachers(subjectID, items)
		if len(eligible) == 0 {
			return models.RecommendedSchedule{}, appErrors.Clone(appErrors.ErrNoEligibleTeacher,
				fmt.Sprintf("no tutors currently offer subject %s in the requested mode", subjectID))
		}

		// Fill the whole subject from the top-ranked teacher before
		// spilling to the next, so one teacher covers a subject across
		// the term whenever capacity allows.
		remaining := newRemaining(items)
		for _, teacherID := range eligible {
			if remaining.done() {
				break
			}
			for _, item := range items {
				need := remaining.get(item.Key())
				if need == 0 {
					continue
				}
				assigned := state.assignFromTeacher(teacherID, item, need)
				remaining.sub(item.Key(), len(assigned))
			}
		}
	}

	return state.export(), nil
}

// auditCoverage classifies each demand item against the schedule.
// Missing entries count as zero assigned; the audit never fails.
func auditCoverage(demand []models.DemandItem, schedule models.RecommendedSchedule) []models.CoverageRecord {
	records := make([]models.CoverageRecord, 0, len(demand))
	for _, item := range demand {
		assigned := schedule.AssignedForDemand(item.Key())
		if assigned > item.RequestedSessions {
			assigned = item.RequestedSessions
		}
		record := models.CoverageRecord{
			StudentID:         item.StudentID,
			SubjectID:         item.SubjectID,
			TeachingType:      item.TeachingType,
			RequestedSessions: item.RequestedSessions,
			AvailableSessions: assigned,
			IsFullyCovered:    assigned == item.RequestedSessions,
		}
		switch {
		case record.IsFullyCovered:
			record.Message = fmt.Sprintf("All %d requested sessions scheduled for subject %s", item.RequestedSessions, item.SubjectID)
		case assigned == 0:
			record.Message = fmt.Sprintf("No sessions available for subject %s in the selected date range", item.SubjectID)
		default:
			record.Message = fmt.Sprintf("Only %d of %d requested sessions available for subject %s", assigned, item.RequestedSessions, item.SubjectID)
		}
		records = append(records, record)
	}
	return records
}

// summarize folds the schedule and coverage into the response summary.
func summarize(demand []models.DemandItem, schedule models.RecommendedSchedule, coverage []models.CoverageRecord) models.ScheduleSummary {
	total := 0
	for _, item := range demand {
		total += item.RequestedSessions
	}
	matched := 0
	for _, record := range coverage {
		matched += record.AvailableSessions
	}

	split := splitSubjects(schedule)
	return models.ScheduleSummary{
		TotalSessions:               total,
		MatchedSessions:             matched,
		UnmatchedSessions:           total - matched,
		ConsistentTeacherPerSubject: len(split) == 0,
		SplitSubjects:               split,
		SubjectAvailability:         coverage,
	}
}

func splitSubjects(schedule models.RecommendedSchedule) []string {
	teachersPerSubject := make(map[string]map[string]struct{})
	for _, teacher := range schedule.Teachers {
		for _, subj := range teacher.SubjectSchedules {
			if subj.AssignedSessions == 0 {
				continue
			}
			if teachersPerSubject[subj.SubjectID] == nil {
				teachersPerSubject[subj.SubjectID] = make(map[string]struct{})
			}
			teachersPerSubject[subj.SubjectID][teacher.TeacherID] = struct{}{}
		}
	}
	var split []string
	for subjectID, set := range teachersPerSubject {
		if len(set) > 1 {
			split = append(split, subjectID)
		}
	}
	sort.Strings(split)
	return split
}

// --- Matcher state ---

type slotClaim struct {
	sessionType models.SessionType
	subjectID   string
	maxStudents int
	students    map[models.StudentSubjectKey]struct{}
}

type matcherState struct {
	priorities map[string]int
	// slots per teacher, chronologically sorted
	teacherSlots map[string][]models.DatedSlotInstance
	claims       map[models.SlotKey]*slotClaim
	assignments  map[string]map[models.StudentSubjectKey]*models.SubjectSchedule
}

func newMatcherState(teachers []models.Teacher, universe []models.DatedSlotInstance) *matcherState {
	state := &matcherState{
		priorities:   make(map[string]int, len(teachers)),
		teacherSlots: make(map[string][]models.DatedSlotInstance),
		claims:       make(map[models.SlotKey]*slotClaim),
		assignments:  make(map[string]map[models.StudentSubjectKey]*models.SubjectSchedule),
	}
	for _, teacher := range teachers {
		state.priorities[teacher.ID] = teacher.Priority
	}
	for _, slot := range universe {
		if _, known := state.priorities[slot.TeacherID]; !known {
			continue
		}
		state.teacherSlots[slot.TeacherID] = append(state.teacherSlots[slot.TeacherID], slot)
	}
	for teacherID := range state.teacherSlots {
		slots := state.teacherSlots[teacherID]
		sort.Slice(slots, func(i, j int) bool {
			if slots[i].StartsAt.Equal(slots[j].StartsAt) {
				return slots[i].AvailabilityID < slots[j].AvailabilityID
			}
			return slots[i].StartsAt.Before(slots[j].StartsAt)
		})
	}
	return state
}

func slotMatches(slot models.DatedSlotInstance, subjectID string, teachingType models.SessionType) bool {
	if slot.SessionType != teachingType {
		return false
	}
	return slot.SubjectID == nil || *slot.SubjectID == subjectID
}

// eligibleTeachers ranks teachers for a subject: priority descending,
// matching slot count descending, then teacher id ascending so reruns
// are deterministic.
func (s *matcherState) eligibleTeachers(subjectID string, items []models.DemandItem) []string {
	counts := make(map[string]int)
	for teacherID, slots := range s.teacherSlots {
		for _, slot := range slots {
			for _, item := range items {
				if slotMatches(slot, subjectID, item.TeachingType) {
					counts[teacherID]++
					break
				}
			}
		}
	}

	ranked := make([]string, 0, len(counts))
	for teacherID, count := range counts {
		if count > 0 {
			ranked = append(ranked, teacherID)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if s.priorities[a] != s.priorities[b] {
			return s.priorities[a] > s.priorities[b]
		}
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return a < b
	})
	return ranked
}

// assignFromTeacher places up to need sessions for the demand item out
// of the teacher's candidate slots, earliest first. A OneToOne or
// BookingFirst instance is exclusive; a Group instance is shared up to
// its capacity by students of the same subject.
func (s *matcherState) assignFromTeacher(teacherID string, item models.DemandItem, need int) []models.DatedSlotInstance {
	var placed []models.DatedSlotInstance
	key := item.Key()
	for _, slot := range s.teacherSlots[teacherID] {
		if len(placed) >= need {
			break
		}
		if !slotMatches(slot, item.SubjectID, item.TeachingType) {
			continue
		}
		if !s.claimSlot(slot, item) {
			continue
		}
		if s.overlapsExisting(key, slot) {
			s.unclaimSlot(slot, item)
			continue
		}
		s.record(teacherID, item, slot)
		placed = append(placed, slot)
	}
	return placed
}

func (s *matcherState) claimSlot(slot models.DatedSlotInstance, item models.DemandItem) bool {
	slotKey := slot.Key()
	claim, exists := s.claims[slotKey]
	if !exists {
		claim = &slotClaim{
			sessionType: slot.SessionType,
			subjectID:   item.SubjectID,
			maxStudents: slot.Capacity(),
			students:    make(map[models.StudentSubjectKey]struct{}),
		}
		claim.students[item.Key()] = struct{}{}
		s.claims[slotKey] = claim
		return true
	}
	if claim.sessionType != models.SessionGroup {
		return false
	}
	// Group instances only mix students studying the same subject.
	if claim.subjectID != item.SubjectID {
		return false
	}
	if _, already := claim.students[item.Key()]; already {
		return false
	}
	if len(claim.students) >= claim.maxStudents {
		return false
	}
	claim.students[item.Key()] = struct{}{}
	return true
}

func (s *matcherState) unclaimSlot(slot models.DatedSlotInstance, item models.DemandItem) {
	slotKey := slot.Key()
	claim, exists := s.claims[slotKey]
	if !exists {
		return
	}
	delete(claim.students, item.Key())
	if len(claim.students) == 0 {
		delete(s.claims, slotKey)
	}
}

// overlapsExisting guards the chronological non-overlap invariant for
// a student. Assignments across all of the student's subjects count: a
// student cannot sit a math and a physics session at the same hour.
func (s *matcherState) overlapsExisting(key models.StudentSubjectKey, slot models.DatedSlotInstance) bool {
	for _, perTeacher := range s.assignments {
		for entryKey, entry := range perTeacher {
			if entryKey.StudentID != key.StudentID {
				continue
			}
			for _, assigned := range entry.Slots {
				if slot.StartsAt.Before(assigned.EndsAt) && assigned.StartsAt.Before(slot.EndsAt) {
					return true
				}
			}
		}
	}
	return false
}

func (s *matcherState) record(teacherID string, item models.DemandItem, slot models.DatedSlotInstance) {
	if s.assignments[teacherID] == nil {
		s.assignments[teacherID] = make(map[models.StudentSubjectKey]*models.SubjectSchedule)
	}
	key := item.Key()
	entry, ok := s.assignments[teacherID][key]
	if !ok {
		entry = &models.SubjectSchedule{
			StudentID:     item.StudentID,
			SubjectID:     item.SubjectID,
			TeachingType:  item.TeachingType,
			TotalSessions: item.RequestedSessions,
		}
		s.assignments[teacherID][key] = entry
	}
	entry.Slots = append(entry.Slots, slot)
	entry.AssignedSessions = len(entry.Slots)
}

func (s *matcherState) export() models.RecommendedSchedule {
	teacherIDs := make([]string, 0, len(s.assignments))
	for teacherID := range s.assignments {
		teacherIDs = append(teacherIDs, teacherID)
	}
	sort.Slice(teacherIDs, func(i, j int) bool {
		if s.priorities[teacherIDs[i]] != s.priorities[teacherIDs[j]] {
			return s.priorities[teacherIDs[i]] > s.priorities[teacherIDs[j]]
		}
		return teacherIDs[i] < teacherIDs[j]
	})

	schedule := models.RecommendedSchedule{}
	for _, teacherID := range teacherIDs {
		perTeacher := s.assignments[teacherID]
		keys := make([]models.StudentSubjectKey, 0, len(perTeacher))
		for key := range perTeacher {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].StudentID != keys[j].StudentID {
				return keys[i].StudentID < keys[j].StudentID
			}
			return keys[i].SubjectID < keys[j].SubjectID
		})

		teacherSchedule := models.TeacherSchedule{
			TeacherID: teacherID,
			Priority:  s.priorities[teacherID],
		}
		for _, key := range keys {
			entry := *perTeacher[key]
			sort.Slice(entry.Slots, func(i, j int) bool {
				return entry.Slots[i].StartsAt.Before(entry.Slots[j].StartsAt)
			})
			teacherSchedule.SubjectSchedules = append(teacherSchedule.SubjectSchedules, entry)
		}
		schedule.Teachers = append(schedule.Teachers, teacherSchedule)
	}
	return schedule
}

// --- Demand helpers ---

func subjectOrder(demand []models.DemandItem) []string {
	seen := make(map[string]struct{})
	var order []string
	for _, item := range demand {
		if _, ok := seen[item.SubjectID]; ok {
			continue
		}
		seen[item.SubjectID] = struct{}{}
		order = append(order, item.SubjectID)
	}
	return order
}

func demandForSubject(demand []models.DemandItem, subjectID string) []models.DemandItem {
	var items []models.DemandItem
	for _, item := range demand {
		if item.SubjectID == subjectID {
			items = append(items, item)
		}
	}
	return items
}

type remainingDemand struct {
	need map[models.StudentSubjectKey]int
}

func newRemaining(items []models.DemandItem) *remainingDemand {
	r := &remainingDemand{need: make(map[models.StudentSubjectKey]int, len(items))}
	for _, item := range items {
		r.need[item.Key()] = item.RequestedSessions
	}
	return r
}

func (r *remainingDemand) get(key models.StudentSubjectKey) int {
	return r.need[key]
}

func (r *remainingDemand) sub(key models.StudentSubjectKey, n int) {
	r.need[key] -= n
	if r.need[key] < 0 {
		r.need[key] = 0
	}
}

func (r *remainingDemand) done() bool {
	for _, n := range r.need {
		if n > 0 {
			return false
		}
	}
	return true
}
