package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyhall/tutoring-api/internal/models"
)

// AvailabilityRepository handles persistence for recurring teacher
// availability slots.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository instantiates an availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `id, teacher_id, day_of_week, start_time, end_time, session_type, max_students, subject_id, is_active, created_at, updated_at`

// ListActive returns active availability slots matching the filter.
func (r *AvailabilityRepository) ListActive(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilitySlot, error) {
	base := fmt.Sprintf("SELECT %s FROM availability_slots WHERE is_active = TRUE", availabilityColumns)
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("(subject_id IS NULL OR subject_id = $%d)", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY teacher_id ASC, day_of_week ASC, start_time ASC"

	var slots []models.AvailabilitySlot
	if err := r.db.SelectContext(ctx, &slots, base, args...); err != nil {
		return nil, fmt.Errorf("list availability slots: %w", err)
	}
	return slots, nil
}

// FindByID loads a single availability slot.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.AvailabilitySlot, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_slots WHERE id = $1", availabilityColumns)
	var slot models.AvailabilitySlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a new availability slot.
func (r *AvailabilityRepository) Create(ctx context.Context, slot *models.AvailabilitySlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO availability_slots (id, teacher_id, day_of_week, start_time, end_time, session_type, max_students, subject_id, is_active, created_at, updated_at)
VALUES (:id, :teacher_id, :day_of_week, :start_time, :end_time, :session_type, :max_students, :subject_id, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create availability slot: %w", err)
	}
	return nil
}

// Update modifies an existing availability slot.
func (r *AvailabilityRepository) Update(ctx context.Context, slot *models.AvailabilitySlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availability_slots SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, session_type = :session_type, max_students = :max_students, subject_id = :subject_id, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update availability slot: %w", err)
	}
	return nil
}

// Delete removes an availability slot permanently. Future dated
// instances disappear with it; confirmed bookings are untouched.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete availability slot: %w", err)
	}
	return nil
}
