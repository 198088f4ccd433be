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

func TestBookingRepositoryListBookedSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 14)
	rows := sqlmock.NewRows([]string{"availability_id", "starts_at"}).
		AddRow("av-1", from.Add(9*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_id, starts_at FROM bookings")).
		WithArgs(from, to).
		WillReturnRows(rows)

	slots, err := repo.ListBookedSlots(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "av-1", slots[0].AvailabilityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryIsBooked(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	startsAt := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE status = 'CONFIRMED'")).
		WithArgs("av-1", startsAt).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	booked, err := repo.IsBooked(context.Background(), "av-1", startsAt)
	require.NoError(t, err)
	assert.True(t, booked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateBatchInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	startsAt := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := repo.BeginTxx(context.Background())
	require.NoError(t, err)

	bookings := []models.Booking{
		{OrderID: "order-1", AvailabilityID: "av-1", TeacherID: "t-1", StudentID: "s-1", SubjectID: "math", StartsAt: startsAt, EndsAt: startsAt.Add(time.Hour)},
		{OrderID: "order-1", AvailabilityID: "av-1", TeacherID: "t-1", StudentID: "s-1", SubjectID: "math", StartsAt: startsAt.AddDate(0, 0, 7), EndsAt: startsAt.AddDate(0, 0, 7).Add(time.Hour)},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), tx, bookings))
	require.NoError(t, tx.Commit())

	for _, booking := range bookings {
		assert.NotEmpty(t, booking.ID)
		assert.Equal(t, models.BookingConfirmed, booking.Status)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateBatchEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	require.NoError(t, repo.CreateBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	startsAt := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "order_id", "availability_id", "teacher_id", "student_id", "subject_id", "starts_at", "ends_at", "status", "created_at"}).
		AddRow("b-1", "order-1", "av-1", "t-1", "s-1", "math", startsAt, startsAt.Add(time.Hour), "CONFIRMED", time.Now())
	mock.ExpectQuery("FROM bookings WHERE order_id =").
		WithArgs("order-1").
		WillReturnRows(rows)

	bookings, err := repo.ListByOrder(context.Background(), "order-1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.BookingConfirmed, bookings[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
