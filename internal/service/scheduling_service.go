package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/dto"
	"github.com/studyhall/tutoring-api/internal/models"
	"github.com/studyhall/tutoring-api/pkg/config"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

const smartSlotsCachePrefix = "smartslots:"

type subjectCatalog interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
}

type teacherPool interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

type slotGenerator interface {
	Generate(ctx context.Context, params GenerateParams) ([]models.DatedSlotInstance, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SchedulingService orchestrates the smart-slots flow: resolve each
// subject's term scope, build a per-subject slot universe, merge them
// and run the matcher once over the combined demand.
type SchedulingService struct {
	subjects subjectCatalog
	teachers teacherPool
	slots    slotGenerator
	cache    resultCache
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      config.SchedulingConfig
	now      func() time.Time
}

// NewSchedulingService wires the orchestrator.
func NewSchedulingService(subjects subjectCatalog, teachers teacherPool, slots slotGenerator, cache resultCache, metrics *MetricsService, logger *zap.Logger, cfg config.SchedulingConfig) *SchedulingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulingService{
		subjects: subjects,
		teachers: teachers,
		slots:    slots,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SmartSlots computes an advisory schedule for the requested
// selections. Subjects whose academic term cannot be resolved are
// reported as issues without aborting their siblings; a subject with
// zero eligible tutors fails the whole request.
func (s *SchedulingService) SmartSlots(ctx context.Context, req dto.SmartSlotsRequest) (*dto.SmartSlotsResponse, error) {
	window, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if len(req.Selections) > s.cfg.MaxSelections {
		return nil, appErrors.Clone(appErrors.ErrValidation, "too many subject selections in one request")
	}

	if cached := s.cachedResponse(ctx, req); cached != nil {
		return cached, nil
	}

	demand, err := s.buildDemand(ctx, req.Selections)
	if err != nil {
		return nil, err
	}

	universe, issues, err := s.buildUniverse(ctx, demand, window)
	if err != nil {
		return nil, err
	}
	universe, err = applyPreferences(universe, req.PreferredDays, req.PreferredTimeRange)
	if err != nil {
		return nil, err
	}

	// Subjects that failed term resolution are dropped from the demand
	// handed to the matcher so the rest still schedules.
	failed := make(map[string]struct{}, len(issues))
	for _, issue := range issues {
		failed[issue.SubjectID] = struct{}{}
	}
	matchable := demand[:0:0]
	for _, item := range demand {
		if _, bad := failed[item.SubjectID]; !bad {
			matchable = append(matchable, item)
		}
	}

	pool, err := s.loadTeacherPool(ctx, universe)
	if err != nil {
		return nil, err
	}

	started := s.now()
	schedule, err := matchSchedule(matchable, pool, universe)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveMatcherRun(s.now().Sub(started))

	coverage := auditCoverage(matchable, schedule)
	resp := &dto.SmartSlotsResponse{
		RecommendedSchedule: schedule,
		Summary:             summarize(matchable, schedule, coverage),
		SubjectIssues:       issues,
	}
	s.storeResponse(ctx, req, resp)
	return resp, nil
}

func (s *SchedulingService) buildDemand(ctx context.Context, selections []dto.SubjectSelectionRequest) ([]models.DemandItem, error) {
	uniqueIDs := make([]string, 0, len(selections))
	seen := make(map[string]struct{}, len(selections))
	for _, sel := range selections {
		if _, ok := seen[sel.SubjectID]; !ok {
			seen[sel.SubjectID] = struct{}{}
			uniqueIDs = append(uniqueIDs, sel.SubjectID)
		}
	}

	subjects, err := s.subjects.ListByIDs(ctx, uniqueIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	byID := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		byID[subject.ID] = subject
	}

	demand := make([]models.DemandItem, 0, len(selections))
	for _, sel := range selections {
		subject, ok := byID[sel.SubjectID]
		if !ok || !subject.Active {
			return nil, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("subject %s is not available for booking", sel.SubjectID))
		}
		demand = append(demand, models.DemandItem{
			StudentID:         sel.StudentID,
			SubjectID:         sel.SubjectID,
			TeachingType:      sel.TeachingType,
			Hours:             sel.Hours,
			RequestedSessions: sel.Hours,
			Scope:             subject.Scope(),
		})
	}
	return demand, nil
}

// buildUniverse generates one slot universe per distinct subject and
// merges them. Instances from open availability are stamped per
// subject, so the same physical slot can appear under several
// subjects; the matcher's per-slot claims keep it exclusive.
func (s *SchedulingService) buildUniverse(ctx context.Context, demand []models.DemandItem, window models.DateRange) ([]models.DatedSlotInstance, []dto.SubjectIssue, error) {
	scopes := make(map[string]models.TermScope)
	for _, item := range demand {
		scopes[item.SubjectID] = item.Scope
	}

	notBefore := s.now()
	var universe []models.DatedSlotInstance
	var issues []dto.SubjectIssue
	for _, subjectID := range subjectOrder(demand) {
		instances, err := s.slots.Generate(ctx, GenerateParams{
			SubjectID: subjectID,
			Scope:     scopes[subjectID],
			Range:     window,
			NotBefore: notBefore,
		})
		if err != nil {
			var typed *appErrors.Error
			if errors.As(err, &typed) && typed.Code == appErrors.ErrTermResolution.Code {
				issues = append(issues, dto.SubjectIssue{
					SubjectID: subjectID,
					Code:      typed.Code,
					Message:   typed.Message,
				})
				s.logger.Warn("term resolution failed for subject",
					zap.String("subject_id", subjectID), zap.Error(err))
				continue
			}
			return nil, nil, err
		}
		universe = append(universe, instances...)
	}
	return universe, issues, nil
}

func (s *SchedulingService) loadTeacherPool(ctx context.Context, universe []models.DatedSlotInstance) ([]models.Teacher, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, instance := range universe {
		if _, ok := seen[instance.TeacherID]; !ok {
			seen[instance.TeacherID] = struct{}{}
			ids = append(ids, instance.TeacherID)
		}
	}
	pool, err := s.teachers.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher pool")
	}
	return pool, nil
}

// cachedResponse serves a recent identical request from Redis. The TTL
// is short because the universe shifts with every hold and booking.
func (s *SchedulingService) cachedResponse(ctx context.Context, req dto.SmartSlotsRequest) *dto.SmartSlotsResponse {
	if !s.cfg.CacheEnabled || s.cache == nil {
		return nil
	}
	var cached dto.SmartSlotsResponse
	if err := s.cache.Get(ctx, smartSlotsCacheKey(req), &cached); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("smart slots cache read failed", zap.Error(err))
		}
		return nil
	}
	return &cached
}

func (s *SchedulingService) storeResponse(ctx context.Context, req dto.SmartSlotsRequest, resp *dto.SmartSlotsResponse) {
	if !s.cfg.CacheEnabled || s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, smartSlotsCacheKey(req), resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("smart slots cache write failed", zap.Error(err))
	}
}

// applyPreferences narrows the universe to the requested weekdays and
// daily time window. Preferences are hard filters; a universe emptied
// by them surfaces as a no-eligible-teacher result downstream.
func applyPreferences(universe []models.DatedSlotInstance, days []int, window *dto.PreferredTimeRange) ([]models.DatedSlotInstance, error) {
	if len(days) == 0 && window == nil {
		return universe, nil
	}

	allowedDays := make(map[time.Weekday]struct{}, len(days))
	for _, day := range days {
		allowedDays[time.Weekday(day)] = struct{}{}
	}

	var earliest, latest clockTime
	if window != nil {
		var err error
		if earliest, err = parseClock(window.Start); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "preferredTimeRange.start must be formatted HH:MM")
		}
		if latest, err = parseClock(window.End); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "preferredTimeRange.end must be formatted HH:MM")
		}
		if !earliest.before(latest) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "preferredTimeRange.start must be before preferredTimeRange.end")
		}
	}

	filtered := universe[:0:0]
	for _, instance := range universe {
		if len(allowedDays) > 0 {
			if _, ok := allowedDays[instance.StartsAt.Weekday()]; !ok {
				continue
			}
		}
		if window != nil {
			start := clockTime{hour: instance.StartsAt.Hour(), minute: instance.StartsAt.Minute()}
			if start.before(earliest) || !start.before(latest) {
				continue
			}
		}
		filtered = append(filtered, instance)
	}
	return filtered, nil
}

func smartSlotsCacheKey(req dto.SmartSlotsRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return smartSlotsCachePrefix + hex.EncodeToString(sum[:])
}

// parseDateRange turns inclusive calendar dates into the half-open
// scheduling window [start, end+1d).
func parseDateRange(startDate, endDate string) (models.DateRange, error) {
	start, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
	if err != nil {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "startDate must be formatted YYYY-MM-DD")
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, time.UTC)
	if err != nil {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "endDate must be formatted YYYY-MM-DD")
	}
	if end.Before(start) {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrInvalidRange, "startDate must not be after endDate")
	}
	return models.DateRange{Start: start, End: end.AddDate(0, 0, 1)}, nil
}
