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

// TeacherRepository handles persistence for tutors.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository instantiates a teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = `id, email, full_name, phone, bio, priority, active, created_at, updated_at`

// List returns teachers matching the provided filters.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("id IN (SELECT teacher_id FROM availability_slots WHERE is_active = TRUE AND (subject_id IS NULL OR subject_id = $%d))", len(args)+1))
		args = append(args, filter.SubjectID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":  true,
		"priority":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "priority"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", teacherColumns, base, sortBy, order, size, offset)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return teachers, total, nil
}

// FindByID loads a teacher by identifier.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ListByIDs loads the teacher pool handed to the matcher.
func (r *TeacherRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM teachers WHERE active = TRUE AND id IN (?)", teacherColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build teacher pool query: %w", err)
	}
	query = r.db.Rebind(query)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher pool: %w", err)
	}
	return teachers, nil
}

// Create inserts a teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	if teacher.Priority < 1 {
		teacher.Priority = 1
	}

	const query = `INSERT INTO teachers (id, email, full_name, phone, bio, priority, active, created_at, updated_at)
VALUES (:id, :email, :full_name, :phone, :bio, :priority, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// UpdatePriority adjusts the allocation ranking for a teacher.
func (r *TeacherRepository) UpdatePriority(ctx context.Context, id string, priority int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE teachers SET priority = $2, updated_at = $3 WHERE id = $1`, id, priority, time.Now().UTC()); err != nil {
		return fmt.Errorf("update teacher priority: %w", err)
	}
	return nil
}
