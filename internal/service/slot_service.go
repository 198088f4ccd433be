package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/models"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

type availabilityLister interface {
	ListActive(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilitySlot, error)
}

type bookedSlotLister interface {
	ListBookedSlots(ctx context.Context, from, to time.Time) ([]models.BookedSlot, error)
}

type termDateResolver interface {
	ResolveTermDates(ctx context.Context, academicTermID string) (models.TermDates, error)
}

type holdReader interface {
	HoldOwner(ctx context.Context, key models.SlotKey) (*models.SlotHold, error)
}

// SlotGeneratorConfig bounds generation.
type SlotGeneratorConfig struct {
	MaxRangeDays int
}

// SlotService expands recurring availability into concrete dated slot
// instances, excluding dates already consumed by confirmed bookings or
// active reservation holds.
type SlotService struct {
	availability availabilityLister
	bookings     bookedSlotLister
	terms        termDateResolver
	holds        holdReader
	logger       *zap.Logger
	maxRangeDays int
}

// NewSlotService wires generator dependencies.
func NewSlotService(availability availabilityLister, bookings bookedSlotLister, terms termDateResolver, holds holdReader, logger *zap.Logger, cfg SlotGeneratorConfig) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 366
	}
	return &SlotService{
		availability: availability,
		bookings:     bookings,
		terms:        terms,
		holds:        holds,
		logger:       logger,
		maxRangeDays: cfg.MaxRangeDays,
	}
}

// GenerateParams scopes one generation run. When SubjectID is set,
// emitted instances are stamped with that subject so downstream
// allocation treats open (any-subject) availability uniformly. A
// bound Scope clips the window to the academic term. AllowSession
// lets a session see its own holds, which the swap flow relies on.
type GenerateParams struct {
	TeacherID    string
	SubjectID    string
	Scope        models.TermScope
	Range        models.DateRange
	NotBefore    time.Time
	AllowSession string
}

// Generate expands availability into dated instances, ascending by
// start time. Term resolution failures surface as ErrTermResolution so
// the caller can fail just the affected subject.
func (s *SlotService) Generate(ctx context.Context, params GenerateParams) ([]models.DatedSlotInstance, error) {
	window, err := s.effectiveWindow(ctx, params)
	if err != nil {
		return nil, err
	}
	if window == nil {
		// Term and requested range do not intersect.
		return []models.DatedSlotInstance{}, nil
	}

	slots, err := s.availability.ListActive(ctx, models.AvailabilityFilter{
		TeacherID: params.TeacherID,
		SubjectID: params.SubjectID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	booked, err := s.bookings.ListBookedSlots(ctx, window.Start, window.End)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booked slots")
	}
	taken := make(map[models.SlotKey]struct{}, len(booked))
	for _, b := range booked {
		taken[models.NewSlotKey(b.AvailabilityID, b.StartsAt)] = struct{}{}
	}

	var instances []models.DatedSlotInstance
	for _, slot := range slots {
		expanded, err := expandAvailability(slot, *window, params)
		if err != nil {
			s.logger.Warn("skipping malformed availability slot",
				zap.String("availability_id", slot.ID), zap.Error(err))
			continue
		}
		for _, instance := range expanded {
			key := instance.Key()
			if _, isBooked := taken[key]; isBooked {
				continue
			}
			held, err := s.holds.HoldOwner(ctx, key)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot holds")
			}
			if held != nil && held.SessionToken != params.AllowSession {
				continue
			}
			instances = append(instances, instance)
		}
	}

	sort.Slice(instances, func(i, j int) bool {
		if instances[i].StartsAt.Equal(instances[j].StartsAt) {
			return instances[i].AvailabilityID < instances[j].AvailabilityID
		}
		return instances[i].StartsAt.Before(instances[j].StartsAt)
	})
	return instances, nil
}

func (s *SlotService) effectiveWindow(ctx context.Context, params GenerateParams) (*models.DateRange, error) {
	window := params.Range
	if !window.Start.Before(window.End) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "date range start must precede end")
	}
	if window.Days() > s.maxRangeDays {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange,
			fmt.Sprintf("date range exceeds the %d day maximum, please narrow it", s.maxRangeDays))
	}

	if params.Scope.IsBound() {
		dates, err := s.terms.ResolveTermDates(ctx, params.Scope.AcademicTermID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrTermResolution,
					fmt.Sprintf("academic term %s not found", params.Scope.AcademicTermID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrTermResolution.Code, appErrors.ErrTermResolution.Status, "failed to resolve academic term")
		}
		if dates.StartDate.After(window.Start) {
			window.Start = dates.StartDate
		}
		termEnd := dates.EndDate.AddDate(0, 0, 1) // inclusive end date
		if termEnd.Before(window.End) {
			window.End = termEnd
		}
		if !window.Start.Before(window.End) {
			return nil, nil
		}
	}
	return &window, nil
}

// expandAvailability emits one instance per calendar date in the
// window whose weekday matches the recurring slot.
func expandAvailability(slot models.AvailabilitySlot, window models.DateRange, params GenerateParams) ([]models.DatedSlotInstance, error) {
	startClock, err := parseClock(slot.StartTime)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	endClock, err := parseClock(slot.EndTime)
	if err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}
	if !startClock.before(endClock) {
		return nil, fmt.Errorf("start time %s is not before end time %s", slot.StartTime, slot.EndTime)
	}
	if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
		return nil, fmt.Errorf("day of week %d out of range", slot.DayOfWeek)
	}

	subjectID := slot.SubjectID
	if params.SubjectID != "" {
		subjectID = &params.SubjectID
	}

	var instances []models.DatedSlotInstance
	day := time.Date(window.Start.Year(), window.Start.Month(), window.Start.Day(), 0, 0, 0, 0, time.UTC)
	for ; day.Before(window.End); day = day.AddDate(0, 0, 1) {
		if int(day.Weekday()) != slot.DayOfWeek {
			continue
		}
		startsAt := day.Add(startClock.duration())
		if startsAt.Before(window.Start) || !startsAt.Before(window.End) {
			continue
		}
		if !params.NotBefore.IsZero() && startsAt.Before(params.NotBefore) {
			continue
		}
		instances = append(instances, models.DatedSlotInstance{
			AvailabilityID: slot.ID,
			TeacherID:      slot.TeacherID,
			SubjectID:      subjectID,
			SessionType:    slot.SessionType,
			MaxStudents:    slot.MaxStudents,
			StartsAt:       startsAt,
			EndsAt:         day.Add(endClock.duration()),
		})
	}
	return instances, nil
}

// --- Clock times ---

type clockTime struct {
	hour   int
	minute int
}

func parseClock(raw string) (clockTime, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return clockTime{}, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	return clockTime{hour: parsed.Hour(), minute: parsed.Minute()}, nil
}

func (c clockTime) before(other clockTime) bool {
	if c.hour != other.hour {
		return c.hour < other.hour
	}
	return c.minute < other.minute
}

func (c clockTime) duration() time.Duration {
	return time.Duration(c.hour)*time.Hour + time.Duration(c.minute)*time.Minute
}
