package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/models"
	"github.com/studyhall/tutoring-api/pkg/config"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

const draftKeyPrefix = "draft_v1:"

type draftStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DraftService snapshots an in-progress booking flow to Redis so the
// student can resume it later. The payload is versioned; loading an
// older draft applies forward-compatible defaults instead of failing.
type DraftService struct {
	store  draftStore
	logger *zap.Logger
	cfg    config.DraftConfig
	now    func() time.Time
}

// NewDraftService wires the draft store.
func NewDraftService(store draftStore, logger *zap.Logger, cfg config.DraftConfig) *DraftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &DraftService{
		store:  store,
		logger: logger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save persists the user's draft, replacing any previous one.
func (s *DraftService) Save(ctx context.Context, draft models.DemandDraft) error {
	if !s.cfg.Enabled {
		return nil
	}
	draft.SchemaVersion = models.DemandDraftSchemaVersion
	draft.UpdatedAt = s.now()
	if err := s.store.Set(ctx, draftKeyPrefix+draft.UserID, draft, s.cfg.TTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return nil
}

// Load returns the user's draft, or nil when none exists. Drafts
// written under an older schema are normalised on the way out.
func (s *DraftService) Load(ctx context.Context, userID string) (*models.DemandDraft, error) {
	if !s.cfg.Enabled {
		return nil, nil
	}
	var draft models.DemandDraft
	if err := s.store.Get(ctx, draftKeyPrefix+userID, &draft); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	draft.Normalize()
	return &draft, nil
}

// Discard removes the user's draft. Discarding a missing draft is not
// an error.
func (s *DraftService) Discard(ctx context.Context, userID string) error {
	if !s.cfg.Enabled {
		return nil
	}
	if err := s.store.Delete(ctx, draftKeyPrefix+userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to discard draft")
	}
	return nil
}
