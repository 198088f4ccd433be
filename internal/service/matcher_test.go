package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/tutoring-api/internal/models"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

var matcherEpoch = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC) // a Monday

func instanceAt(availabilityID, teacherID, subjectID string, sessionType models.SessionType, maxStudents int, startsAt time.Time) models.DatedSlotInstance {
	var subject *string
	if subjectID != "" {
		subject = &subjectID
	}
	return models.DatedSlotInstance{
		AvailabilityID: availabilityID,
		TeacherID:      teacherID,
		SubjectID:      subject,
		SessionType:    sessionType,
		MaxStudents:    maxStudents,
		StartsAt:       startsAt,
		EndsAt:         startsAt.Add(time.Hour),
	}
}

func weeklyInstances(availabilityID, teacherID, subjectID string, sessionType models.SessionType, weeks int) []models.DatedSlotInstance {
	instances := make([]models.DatedSlotInstance, 0, weeks)
	for week := 0; week < weeks; week++ {
		instances = append(instances,
			instanceAt(availabilityID, teacherID, subjectID, sessionType, 1, matcherEpoch.AddDate(0, 0, 7*week)))
	}
	return instances
}

func tutor(id string, priority int) models.Teacher {
	return models.Teacher{ID: id, Priority: priority, Active: true}
}

func demandOf(studentID, subjectID string, sessionType models.SessionType, sessions int) models.DemandItem {
	return models.DemandItem{
		StudentID:         studentID,
		SubjectID:         subjectID,
		TeachingType:      sessionType,
		Hours:             sessions,
		RequestedSessions: sessions,
		Scope:             models.GlobalScope(),
	}
}

func TestMatchScheduleFillsFromSingleTeacherEarliestFirst(t *testing.T) {
	universe := weeklyInstances("av-1", "t-1", "math", models.SessionOneToOne, 4)
	demand := []models.DemandItem{demandOf("s-1", "math", models.SessionOneToOne, 3)}

	schedule, err := matchSchedule(demand, []models.Teacher{tutor("t-1", 5)}, universe)
	require.NoError(t, err)

	require.Len(t, schedule.Teachers, 1)
	require.Len(t, schedule.Teachers[0].SubjectSchedules, 1)
	entry := schedule.Teachers[0].SubjectSchedules[0]
	assert.Equal(t, 3, entry.AssignedSessions)
	assert.Equal(t, 3, entry.TotalSessions)
	require.Len(t, entry.Slots, 3)
	assert.Equal(t, matcherEpoch, entry.Slots[0].StartsAt)
	assert.Equal(t, matcherEpoch.AddDate(0, 0, 14), entry.Slots[2].StartsAt)
}

func TestMatchScheduleExclusiveSlotIsNeverDoubleAssigned(t *testing.T) {
	universe := []models.DatedSlotInstance{
		instanceAt("av-1", "t-1", "math", models.SessionOneToOne, 1, matcherEpoch),
	}
	demand := []models.DemandItem{
		demandOf("s-1", "math", models.SessionOneToOne, 1),
		demandOf("s-2", "math", models.SessionOneToOne, 1),
	}

	schedule, err := matchSchedule(demand, []models.Teacher{tutor("t-1", 5)}, universe)
	require.NoError(t, err)

	total := 0
	for _, item := range demand {
		total += schedule.AssignedForDemand(item.Key())
	}
	assert.Equal(t, 1, total, "one exclusive instance can only host one student")
}

func TestMatchScheduleCrossSubjectSlotExclusivity(t *testing.T) {
	// The same physical slot expanded once per subject keeps a single
	// identity for claiming.
	universe := []models.DatedSlotInstance{
		instanceAt("av-1", "t-1", "math", models.SessionOneToOne, 1, matcherEpoch),
		instanceAt("av-1", "t-1", "chemistry", models.SessionOneToOne, 1, matcherEpoch),
	}
	demand := []models.DemandItem{
		demandOf("s-1", "math", models.SessionOneToOne, 1),
		demandOf("s-2", "chemistry", models.SessionOneToOne, 1),
	}

	schedule, err := matchSchedule(demand, []models.Teacher{tutor("t-1", 5)}, universe)
	require.NoError(t, err)

	assigned := schedule.AssignedForDemand(demand[0].Key()) + schedule.AssignedForDemand(demand[1].Key())
	assert.Equal(t, 1, assigned)
}

func TestMatchScheduleGroupSlotSharedWithinSubjectOnly(t *testing.T) {
	universe := []models.DatedSlotInstance{
		instanceAt("av-1", "t-1", "", models.SessionGroup, 3, matcherEpoch),
	}
	demand := []models.DemandItem{
		demandOf("s-1", "math", models.SessionGroup, 1),
		demandOf("s-2", "math", models.SessionGroup, 1),
		demandOf("s-3", "biology", models.SessionGroup, 1),
	}

	schedule, err := matchSchedule(demand, []models.Teacher{tutor("t-1", 5)}, universe)
	require.NoError(t, err)

	assert.Equal(t, 1, schedule.AssignedForDemand(demand[0].Key()))
	assert.Equal(t, 1, schedule.AssignedForDemand(demand[1].Key()))
	assert.Equal(t, 0, schedule.AssignedForDemand(demand[2].Key()),
		"group instances never mix subjects")
}

func TestMatchScheduleGroupCapacityBound(t *testing.T) {
	universe := []models.DatedSlotInstance{
		instanceAt("av-1", "t-1", "math", models.SessionGroup, 2, matcherEpoch),
	}
	demand := []models.DemandItem{
		demandOf("s-1", "math", models.SessionGroup, 1),
		demandOf("s-2", "math", models.SessionGroup, 1),
		demandOf("s-3", "math", models.SessionGroup, 1),
	}

	schedule, err := matchSchedule(demand, []models.Teacher{tutor("t-1", 5)}, universe)
	require.NoError(t, err)

	total := 0
	for _, item := range demand {
		total += schedule.AssignedForDemand(item.Key())
	}
	assert.Equal(t, 2, total)
}

func TestMatchScheduleNoEligibleTeacher(t *testing.T) {
	universe := weeklyInstances("av-1", "t-1", "math", models.SessionOneToOne, 2)
	demand := []models.DemandItem{demandOf("s-1", "physics", models.SessionOneToOne, 1)}

	_, err := matchSchedule(demand, []models.Teacher{tutor("t-1", 5)}, universe)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoEligibleTeacher.Code, appErrors.FromError(err).Code)
}

func TestMatchSchedulePrefersHigherPriorityTeacher(t *testing.T) {
	universe := append(
		weeklyInstances("av-low", "t-low", "math", models.SessionOneToOne, 4),
		weeklyInstances("av-high", "t-high", "math", models.SessionOneToOne, 4)...)
	demand := []models.DemandItem{demandOf("s-1", "math", models.SessionOneToOne, 2)}

	schedule, err := matchSchedule(demand,
		[]models.Teacher{tutor("t-low", 3), tutor("t-high", 9)}, universe)
	require.NoError(t, err)

	require.Len(t, schedule.Teachers, 1)
	assert.Equal(t, "t-high", schedule.Teachers[0].TeacherID)
	assert.Empty(t, splitSubjects(schedule))
}

func TestMatchScheduleSpillsOnShortageAndRecordsSplit(t *testing.T) {
	universe := append(
		weeklyInstances("av-high", "t-high", "math", models.SessionOneToOne, 2),
		weeklyInstances("av-low", "t-low", "math", models.SessionOneToOne, 5)...)
	// Shift the low-priority slots so they never overlap the high ones.
	for i := range universe[2:] {
		universe[2+i].StartsAt = universe[2+i].StartsAt.Add(2 * time.Hour)
		universe[2+i].EndsAt = universe[2+i].EndsAt.Add(2 * time.Hour)
	}
	demand := []models.DemandItem{demandOf("s-1", "math", models.SessionOneToOne, 4)}

	schedule, err := matchSchedule(demand,
		[]models.Teacher{tutor("t-high", 9), tutor("t-low", 3)}, universe)
	require.NoError(t, err)

	assert.Equal(t, 4, schedule.AssignedForDemand(demand[0].Key()))
	assert.Equal(t, []string{"math"}, splitSubjects(schedule))
}

func TestMatchScheduleSlotCountBreaksPriorityTies(t *testing.T) {
	universe := append(
		weeklyInstances("av-a", "t-a", "math", models.SessionOneToOne, 1),
		weeklyInstances("av-b", "t-b", "math", models.SessionOneToOne, 3)...)
	demand := []models.DemandItem{demandOf("s-1", "math", models.SessionOneToOne, 1)}

	schedule, err := matchSchedule(demand,
		[]models.Teacher{tutor("t-a", 5), tutor("t-b", 5)}, universe)
	require.NoError(t, err)

	require.Len(t, schedule.Teachers, 1)
	assert.Equal(t, "t-b", schedule.Teachers[0].TeacherID)
}

func TestMatchScheduleAvoidsOverlappingSessionsForOneStudent(t *testing.T) {
	universe := []models.DatedSlotInstance{
		instanceAt("av-1", "t-1", "math", models.SessionOneToOne, 1, matcherEpoch),
		instanceAt("av-2", "t-2", "physics", models.SessionOneToOne, 1, matcherEpoch),
	}
	demand := []models.DemandItem{
		demandOf("s-1", "math", models.SessionOneToOne, 1),
		demandOf("s-1", "physics", models.SessionOneToOne, 1),
	}

	schedule, err := matchSchedule(demand,
		[]models.Teacher{tutor("t-1", 5), tutor("t-2", 5)}, universe)
	require.NoError(t, err)

	assert.Equal(t, 1, schedule.AssignedForDemand(demand[0].Key()))
	assert.Equal(t, 0, schedule.AssignedForDemand(demand[1].Key()),
		"a student cannot sit two sessions at the same time")
}

func TestMatchScheduleSkipsPastOverlapToLaterSlot(t *testing.T) {
	universe := []models.DatedSlotInstance{
		instanceAt("av-1", "t-1", "math", models.SessionOneToOne, 1, matcherEpoch),
		instanceAt("av-2", "t-2", "physics", models.SessionOneToOne, 1, matcherEpoch),
		instanceAt("av-3", "t-2", "physics", models.SessionOneToOne, 1, matcherEpoch.Add(2*time.Hour)),
	}
	demand := []models.DemandItem{
		demandOf("s-1", "math", models.SessionOneToOne, 1),
		demandOf("s-1", "physics", models.SessionOneToOne, 1),
	}

	schedule, err := matchSchedule(demand,
		[]models.Teacher{tutor("t-1", 5), tutor("t-2", 5)}, universe)
	require.NoError(t, err)

	assert.Equal(t, 1, schedule.AssignedForDemand(demand[0].Key()))
	assert.Equal(t, 1, schedule.AssignedForDemand(demand[1].Key()))

	// The physics session lands on the later instance, clear of math.
	for _, teacher := range schedule.Teachers {
		for _, subj := range teacher.SubjectSchedules {
			if subj.SubjectID == "physics" {
				require.Len(t, subj.Slots, 1)
				assert.Equal(t, matcherEpoch.Add(2*time.Hour), subj.Slots[0].StartsAt)
			}
		}
	}
}

func TestAuditCoverageMessages(t *testing.T) {
	universe := weeklyInstances("av-1", "t-1", "math", models.SessionOneToOne, 2)
	demand := []models.DemandItem{
		demandOf("s-1", "math", models.SessionOneToOne, 2),
		demandOf("s-2", "math", models.SessionOneToOne, 3),
		demandOf("s-3", "history", models.SessionOneToOne, 2),
	}
	// history has a single instance, so s-3 is only partially covered.
	universe = append(universe, instanceAt("av-h", "t-2", "history", models.SessionOneToOne, 1, matcherEpoch.AddDate(0, 0, 1)))

	schedule, err := matchSchedule(demand,
		[]models.Teacher{tutor("t-1", 5), tutor("t-2", 5)}, universe)
	require.NoError(t, err)

	records := auditCoverage(demand, schedule)
	require.Len(t, records, 3)

	assert.True(t, records[0].IsFullyCovered)
	assert.Equal(t, "All 2 requested sessions scheduled for subject math", records[0].Message)

	assert.False(t, records[1].IsFullyCovered)
	assert.Equal(t, 0, records[1].AvailableSessions)
	assert.Equal(t, "No sessions available for subject math in the selected date range", records[1].Message)

	assert.False(t, records[2].IsFullyCovered)
	assert.Equal(t, 1, records[2].AvailableSessions)
	assert.Equal(t, "Only 1 of 2 requested sessions available for subject history", records[2].Message)
}

func TestSummarizeTotals(t *testing.T) {
	universe := weeklyInstances("av-1", "t-1", "math", models.SessionOneToOne, 2)
	demand := []models.DemandItem{demandOf("s-1", "math", models.SessionOneToOne, 5)}

	schedule, err := matchSchedule(demand, []models.Teacher{tutor("t-1", 5)}, universe)
	require.NoError(t, err)

	summary := summarize(demand, schedule, auditCoverage(demand, schedule))
	assert.Equal(t, 5, summary.TotalSessions)
	assert.Equal(t, 2, summary.MatchedSessions)
	assert.Equal(t, 3, summary.UnmatchedSessions)
	assert.True(t, summary.ConsistentTeacherPerSubject)
	assert.Empty(t, summary.SplitSubjects)
	require.Len(t, summary.SubjectAvailability, 1)
}
