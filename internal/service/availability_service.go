package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/dto"
	"github.com/studyhall/tutoring-api/internal/models"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

type availabilityStore interface {
	ListActive(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilitySlot, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilitySlot, error)
	Create(ctx context.Context, slot *models.AvailabilitySlot) error
	Update(ctx context.Context, slot *models.AvailabilitySlot) error
	Delete(ctx context.Context, id string) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AvailabilityService manages recurring weekly availability. Mutations
// invalidate cached smart-slot responses since they change the
// universe future generations draw from.
type AvailabilityService struct {
	store  availabilityStore
	cache  cacheInvalidator
	logger *zap.Logger
}

// NewAvailabilityService wires the CRUD service.
func NewAvailabilityService(store availabilityStore, cache cacheInvalidator, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{store: store, cache: cache, logger: logger}
}

// List returns active slots matching the filter.
func (s *AvailabilityService) List(ctx context.Context, query dto.ListAvailabilityQuery) ([]models.AvailabilitySlot, error) {
	slots, err := s.store.ListActive(ctx, models.AvailabilityFilter{
		TeacherID: query.TeacherID,
		SubjectID: query.SubjectID,
		DayOfWeek: query.DayOfWeek,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	return slots, nil
}

// Get loads one slot.
func (s *AvailabilityService) Get(ctx context.Context, id string) (*models.AvailabilitySlot, error) {
	slot, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability slot")
	}
	return slot, nil
}

// Create registers a new recurring slot.
func (s *AvailabilityService) Create(ctx context.Context, req dto.CreateAvailabilityRequest) (*models.AvailabilitySlot, error) {
	slot := &models.AvailabilitySlot{
		TeacherID:   req.TeacherID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SessionType: req.SessionType,
		MaxStudents: req.MaxStudents,
		SubjectID:   req.SubjectID,
		IsActive:    true,
	}
	if err := validateSlotShape(slot); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability slot")
	}
	s.invalidateSchedules(ctx)
	s.logger.Info("availability slot created",
		zap.String("availability_id", slot.ID),
		zap.String("teacher_id", slot.TeacherID))
	return slot, nil
}

// Update patches an existing slot. Nil request fields keep their
// current values.
func (s *AvailabilityService) Update(ctx context.Context, id string, req dto.UpdateAvailabilityRequest) (*models.AvailabilitySlot, error) {
	slot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DayOfWeek != nil {
		slot.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		slot.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		slot.EndTime = *req.EndTime
	}
	if req.SessionType != nil {
		slot.SessionType = *req.SessionType
	}
	if req.MaxStudents != nil {
		slot.MaxStudents = *req.MaxStudents
	}
	if req.SubjectID != nil {
		slot.SubjectID = req.SubjectID
	}
	if req.IsActive != nil {
		slot.IsActive = *req.IsActive
	}
	if err := validateSlotShape(slot); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability slot")
	}
	s.invalidateSchedules(ctx)
	return slot, nil
}

// Delete removes a slot permanently.
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability slot")
	}
	s.invalidateSchedules(ctx)
	s.logger.Info("availability slot deleted", zap.String("availability_id", id))
	return nil
}

func (s *AvailabilityService) invalidateSchedules(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, smartSlotsCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate schedule cache", zap.Error(err))
	}
}

// validateSlotShape enforces the cross-field rules the request tags
// cannot express.
func validateSlotShape(slot *models.AvailabilitySlot) error {
	start, err := parseClock(slot.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "startTime must be formatted HH:MM")
	}
	end, err := parseClock(slot.EndTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be formatted HH:MM")
	}
	if !start.before(end) {
		return appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
	}
	if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
		return appErrors.Clone(appErrors.ErrValidation, "dayOfWeek must be between 0 (Sunday) and 6 (Saturday)")
	}

	switch slot.SessionType {
	case models.SessionGroup:
		if slot.MaxStudents < 2 || slot.MaxStudents > 10 {
			return appErrors.Clone(appErrors.ErrValidation, "group slots require maxStudents between 2 and 10")
		}
	case models.SessionOneToOne, models.SessionBookingFirst:
		slot.MaxStudents = 1
	default:
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("unknown session type %q", slot.SessionType))
	}
	return nil
}
