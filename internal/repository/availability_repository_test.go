package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/tutoring-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func availabilityRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "teacher_id", "day_of_week", "start_time", "end_time", "session_type", "max_students", "subject_id", "is_active", "created_at", "updated_at"})
}

func TestAvailabilityRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	rows := availabilityRows().
		AddRow("av-1", "t-1", 1, "09:00", "10:00", "ONE_TO_ONE", 1, nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM availability_slots WHERE is_active = TRUE AND teacher_id = $1 AND (subject_id IS NULL OR subject_id = $2)")).
		WithArgs("t-1", "math").
		WillReturnRows(rows)

	slots, err := repo.ListActive(context.Background(), models.AvailabilityFilter{TeacherID: "t-1", SubjectID: "math"})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "av-1", slots[0].ID)
	assert.Equal(t, 1, slots[0].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListActiveByDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	day := 3
	mock.ExpectQuery(regexp.QuoteMeta("FROM availability_slots WHERE is_active = TRUE AND day_of_week = $1")).
		WithArgs(day).
		WillReturnRows(availabilityRows())

	slots, err := repo.ListActive(context.Background(), models.AvailabilityFilter{DayOfWeek: &day})
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery("FROM availability_slots WHERE id =").
		WithArgs("av-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "av-missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("INSERT INTO availability_slots").
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := &models.AvailabilitySlot{
		TeacherID:   "t-1",
		DayOfWeek:   1,
		StartTime:   "09:00",
		EndTime:     "10:00",
		SessionType: models.SessionOneToOne,
		MaxStudents: 1,
		IsActive:    true,
	}
	require.NoError(t, repo.Create(context.Background(), slot))
	assert.NotEmpty(t, slot.ID)
	assert.False(t, slot.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_slots WHERE id = $1")).
		WithArgs("av-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "av-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
