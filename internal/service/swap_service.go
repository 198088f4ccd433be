package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/dto"
	"github.com/studyhall/tutoring-api/internal/models"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

// SwapService finds replacement slots when a student wants to move a
// session. It is read-only: committing a swap is an explicit two-phase
// flow where the client reserves the substitute first and cancels the
// original only after the new hold succeeds.
type SwapService struct {
	slots  slotGenerator
	logger *zap.Logger
	now    func() time.Time
}

// NewSwapService wires the resolver.
func NewSwapService(slots slotGenerator, logger *zap.Logger) *SwapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapService{
		slots:  slots,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FindAlternatives lists candidate replacement slots for one tutor and
// subject, excluding the availability slots being swapped away from
// and anything held by other sessions. A window that produces nothing,
// including an invalid or out-of-term range, is an empty list rather
// than an error so the swap UI can degrade gracefully.
func (s *SwapService) FindAlternatives(ctx context.Context, query dto.AlternativesQuery) (*dto.AlternativesResponse, error) {
	window, err := parseDateRange(query.StartDate, query.EndDate)
	if err != nil {
		return emptyAlternatives(), nil
	}

	scope := models.GlobalScope()
	if query.AcademicTermID != "" {
		scope = models.BoundScope(query.AcademicTermID)
	}

	instances, err := s.slots.Generate(ctx, GenerateParams{
		TeacherID:    query.TeacherID,
		SubjectID:    query.SubjectID,
		Scope:        scope,
		Range:        window,
		NotBefore:    s.now(),
		AllowSession: query.SessionToken,
	})
	if err != nil {
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			switch typed.Code {
			case appErrors.ErrInvalidRange.Code, appErrors.ErrTermResolution.Code:
				s.logger.Debug("alternatives search degraded to empty",
					zap.String("teacher_id", query.TeacherID),
					zap.String("subject_id", query.SubjectID),
					zap.Error(err))
				return emptyAlternatives(), nil
			}
		}
		return nil, err
	}

	excluded := excludedSlotIDs(query.ExcludeSlotIDs)
	alternatives := make([]models.DatedSlotInstance, 0, len(instances))
	for _, instance := range instances {
		if _, skip := excluded[instance.AvailabilityID]; skip {
			continue
		}
		if instance.SessionType != query.TeachingType {
			continue
		}
		alternatives = append(alternatives, instance)
	}
	return &dto.AlternativesResponse{Alternatives: alternatives, Total: len(alternatives)}, nil
}

func emptyAlternatives() *dto.AlternativesResponse {
	return &dto.AlternativesResponse{Alternatives: []models.DatedSlotInstance{}}
}

func excludedSlotIDs(raw string) map[string]struct{} {
	excluded := make(map[string]struct{})
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			excluded[id] = struct{}{}
		}
	}
	return excluded
}
