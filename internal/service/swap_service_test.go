package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/dto"
	"github.com/studyhall/tutoring-api/internal/models"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

type stubSlotGenerator struct {
	instances []models.DatedSlotInstance
	err       error
	calls     []GenerateParams
}

func (s *stubSlotGenerator) Generate(_ context.Context, params GenerateParams) ([]models.DatedSlotInstance, error) {
	s.calls = append(s.calls, params)
	if s.err != nil {
		return nil, s.err
	}
	return s.instances, nil
}

func newSwapFixture(generator *stubSlotGenerator) *SwapService {
	svc := NewSwapService(generator, zap.NewNop())
	svc.now = func() time.Time { return matcherEpoch }
	return svc
}

func TestSwapServiceFiltersExclusionsAndTeachingType(t *testing.T) {
	generator := &stubSlotGenerator{instances: []models.DatedSlotInstance{
		instanceAt("av-1", "t-1", "math", models.SessionOneToOne, 1, matcherEpoch),
		instanceAt("av-2", "t-1", "math", models.SessionGroup, 5, matcherEpoch.Add(2*time.Hour)),
		instanceAt("av-3", "t-1", "math", models.SessionOneToOne, 1, matcherEpoch.Add(4*time.Hour)),
	}}
	svc := newSwapFixture(generator)

	resp, err := svc.FindAlternatives(context.Background(), dto.AlternativesQuery{
		TeacherID:      "t-1",
		SubjectID:      "math",
		TeachingType:   models.SessionOneToOne,
		AcademicTermID: "term-1",
		StartDate:      "2026-01-05",
		EndDate:        "2026-01-19",
		ExcludeSlotIDs: "av-1, av-9",
		SessionToken:   "session-a",
	})
	require.NoError(t, err)

	require.Len(t, resp.Alternatives, 1)
	assert.Equal(t, "av-3", resp.Alternatives[0].AvailabilityID)
	assert.Equal(t, 1, resp.Total)

	require.Len(t, generator.calls, 1)
	params := generator.calls[0]
	assert.Equal(t, "t-1", params.TeacherID)
	assert.Equal(t, "session-a", params.AllowSession)
	assert.Equal(t, models.BoundScope("term-1"), params.Scope)
	assert.Equal(t, matcherEpoch, params.NotBefore)
}

func TestSwapServiceBadDatesDegradeToEmpty(t *testing.T) {
	generator := &stubSlotGenerator{}
	svc := newSwapFixture(generator)

	resp, err := svc.FindAlternatives(context.Background(), dto.AlternativesQuery{
		TeacherID:    "t-1",
		SubjectID:    "math",
		TeachingType: models.SessionOneToOne,
		StartDate:    "not-a-date",
		EndDate:      "2026-01-19",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Alternatives)
	assert.Zero(t, resp.Total)
	assert.Empty(t, generator.calls, "generator is never consulted for an unparseable window")
}

func TestSwapServiceTermResolutionDegradesToEmpty(t *testing.T) {
	generator := &stubSlotGenerator{err: appErrors.Clone(appErrors.ErrTermResolution, "academic term not found")}
	svc := newSwapFixture(generator)

	resp, err := svc.FindAlternatives(context.Background(), dto.AlternativesQuery{
		TeacherID:      "t-1",
		SubjectID:      "math",
		TeachingType:   models.SessionOneToOne,
		AcademicTermID: "term-missing",
		StartDate:      "2026-01-05",
		EndDate:        "2026-01-19",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Alternatives)
}

func TestSwapServiceUnexpectedErrorsPropagate(t *testing.T) {
	generator := &stubSlotGenerator{err: appErrors.Clone(appErrors.ErrInternal, "redis down")}
	svc := newSwapFixture(generator)

	_, err := svc.FindAlternatives(context.Background(), dto.AlternativesQuery{
		TeacherID:    "t-1",
		SubjectID:    "math",
		TeachingType: models.SessionOneToOne,
		StartDate:    "2026-01-05",
		EndDate:      "2026-01-19",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestSwapServiceDefaultsToGlobalScope(t *testing.T) {
	generator := &stubSlotGenerator{}
	svc := newSwapFixture(generator)

	_, err := svc.FindAlternatives(context.Background(), dto.AlternativesQuery{
		TeacherID:    "t-1",
		SubjectID:    "math",
		TeachingType: models.SessionOneToOne,
		StartDate:    "2026-01-05",
		EndDate:      "2026-01-19",
	})
	require.NoError(t, err)
	require.Len(t, generator.calls, 1)
	assert.Equal(t, models.GlobalScope(), generator.calls[0].Scope)
}
