package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/tutoring-api/internal/models"
)

func teacherRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "full_name", "phone", "bio", "priority", "active", "created_at", "updated_at"})
}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := teacherRows().
		AddRow("t-1", "tutor@example.com", "Tutor One", nil, nil, 5, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE 1=1 ORDER BY priority DESC, id ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teachers, total, err := repo.List(context.Background(), models.TeacherFilter{})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	// An unknown sort column falls back to priority instead of being
	// interpolated into the query.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY priority DESC")).
		WillReturnRows(teacherRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.TeacherFilter{SortBy: "priority; DROP TABLE teachers"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := teacherRows().
		AddRow("t-1", "one@example.com", "Tutor One", nil, nil, 5, true, time.Now(), time.Now()).
		AddRow("t-2", "two@example.com", "Tutor Two", nil, nil, 3, true, time.Now(), time.Now())
	mock.ExpectQuery("FROM teachers WHERE active = TRUE AND id IN").
		WithArgs("t-1", "t-2").
		WillReturnRows(rows)

	teachers, err := repo.ListByIDs(context.Background(), []string{"t-1", "t-2"})
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListByIDsEmptyShortCircuits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	teachers, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, teachers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryUpdatePriority(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE teachers SET priority = $2")).
		WithArgs("t-1", 9, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdatePriority(context.Background(), "t-1", 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}
