package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/studyhall/tutoring-api/internal/models"
)

// TermRepository handles persistence for academic terms and acts as
// the term-scope resolver consumed by the slot generator.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = `id, name, academic_year, start_date, end_date, is_active, created_at, updated_at`

// FindByID loads a term by identifier.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindActive returns the currently active term.
func (r *TermRepository) FindActive(ctx context.Context) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE is_active = TRUE LIMIT 1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query); err != nil {
		return nil, err
	}
	return &term, nil
}

// ResolveTermDates returns the scheduling window for an academic term.
func (r *TermRepository) ResolveTermDates(ctx context.Context, academicTermID string) (models.TermDates, error) {
	term, err := r.FindByID(ctx, academicTermID)
	if err != nil {
		return models.TermDates{}, err
	}
	return models.TermDates{StartDate: term.StartDate, EndDate: term.EndDate}, nil
}
