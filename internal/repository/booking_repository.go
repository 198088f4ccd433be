package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyhall/tutoring-api/internal/models"
)

// BookingRepository handles confirmed slot bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository instantiates a booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListBookedSlots returns the (availability, start) pairs already
// consumed by confirmed bookings inside the window. The slot generator
// excludes these from the candidate universe.
func (r *BookingRepository) ListBookedSlots(ctx context.Context, from, to time.Time) ([]models.BookedSlot, error) {
	const query = `SELECT availability_id, starts_at FROM bookings
WHERE status = 'CONFIRMED' AND starts_at >= $1 AND starts_at < $2
ORDER BY starts_at ASC`
	var slots []models.BookedSlot
	if err := r.db.SelectContext(ctx, &slots, query, from, to); err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}
	return slots, nil
}

// IsBooked checks a single slot instance.
func (r *BookingRepository) IsBooked(ctx context.Context, availabilityID string, startsAt time.Time) (bool, error) {
	const query = `SELECT COUNT(*) FROM bookings WHERE status = 'CONFIRMED' AND availability_id = $1 AND starts_at = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, availabilityID, startsAt); err != nil {
		return false, fmt.Errorf("check booked slot: %w", err)
	}
	return count > 0, nil
}

// CreateBatch inserts bookings inside the supplied transaction. Used
// when a reservation token is consumed at order finalization.
func (r *BookingRepository) CreateBatch(ctx context.Context, tx *sqlx.Tx, bookings []models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	now := time.Now().UTC()

	const query = `INSERT INTO bookings (id, order_id, availability_id, teacher_id, student_id, subject_id, starts_at, ends_at, status, created_at)
VALUES (:id, :order_id, :availability_id, :teacher_id, :student_id, :subject_id, :starts_at, :ends_at, :status, :created_at)`

	for i := range bookings {
		booking := &bookings[i]
		if booking.ID == "" {
			booking.ID = uuid.NewString()
		}
		if booking.Status == "" {
			booking.Status = models.BookingConfirmed
		}
		if booking.CreatedAt.IsZero() {
			booking.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, tx, query, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
	}
	return nil
}

// ListByOrder returns bookings attached to an order.
func (r *BookingRepository) ListByOrder(ctx context.Context, orderID string) ([]models.Booking, error) {
	const query = `SELECT id, order_id, availability_id, teacher_id, student_id, subject_id, starts_at, ends_at, status, created_at
FROM bookings WHERE order_id = $1 ORDER BY starts_at ASC`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, orderID); err != nil {
		return nil, fmt.Errorf("list bookings by order: %w", err)
	}
	return bookings, nil
}

// BeginTxx exposes transactions for multi-step consume flows.
func (r *BookingRepository) BeginTxx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}
