package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/dto"
	"github.com/studyhall/tutoring-api/internal/models"
	"github.com/studyhall/tutoring-api/pkg/config"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

// tokenGrace keeps the token record alive a little past its deadline
// so a late cancel or consume still resolves to a friendly response
// instead of an unknown token.
const tokenGrace = 5 * time.Minute

// terminalTokenTTL bounds how long cancelled and consumed records stay
// readable.
const terminalTokenTTL = 10 * time.Minute

type holdStore interface {
	TryAcquire(ctx context.Context, key models.SlotKey, sessionToken string, ttl time.Duration) (bool, error)
	HoldOwner(ctx context.Context, key models.SlotKey) (*models.SlotHold, error)
	Release(ctx context.Context, key models.SlotKey, sessionToken string) error
	ExtendHold(ctx context.Context, key models.SlotKey, sessionToken string, ttl time.Duration) (bool, error)
	SaveToken(ctx context.Context, token *models.ReservationToken, ttl time.Duration) error
	GetToken(ctx context.Context, sessionToken string) (*models.ReservationToken, error)
	SweepOrphanHolds(ctx context.Context) (int, error)
}

type bookingStore interface {
	IsBooked(ctx context.Context, availabilityID string, startsAt time.Time) (bool, error)
	CreateBatch(ctx context.Context, tx *sqlx.Tx, bookings []models.Booking) error
	BeginTxx(ctx context.Context) (*sqlx.Tx, error)
}

// ReservationService manages time-bounded exclusive holds over dated
// slot instances. Holds live in Redis with a TTL, so an abandoned
// checkout releases itself; the token record is the source of truth
// for what one session is holding.
type ReservationService struct {
	holds        holdStore
	bookings     bookingStore
	availability availabilityLister
	metrics      *MetricsService
	logger       *zap.Logger
	cfg          config.ReservationConfig
	now          func() time.Time
}

// NewReservationService wires the reservation manager.
func NewReservationService(holds holdStore, bookings bookingStore, availability availabilityLister, metrics *MetricsService, logger *zap.Logger, cfg config.ReservationConfig) *ReservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 15 * time.Minute
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = time.Hour
	}
	if cfg.MaxSlots <= 0 {
		cfg.MaxSlots = 50
	}
	return &ReservationService{
		holds:        holds,
		bookings:     bookings,
		availability: availability,
		metrics:      metrics,
		logger:       logger,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Reserve takes an all-or-nothing hold over the requested slots. When
// any slot is unavailable nothing stays held and the response carries
// every failed slot with its reason; races are data, not errors.
func (s *ReservationService) Reserve(ctx context.Context, req dto.ReserveRequest) (*dto.ReserveResponse, error) {
	if len(req.Slots) > s.cfg.MaxSlots {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			"too many slots in a single reservation")
	}

	now := s.now()
	ttl := time.Duration(req.ExpirationMinutes) * time.Minute
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}
	if ttl > s.cfg.MaxTTL {
		ttl = s.cfg.MaxTTL
	}
	expiresAt := now.Add(ttl)
	sessionToken := uuid.NewString()

	var (
		reserved []models.ReservedSlot
		acquired []models.SlotKey
		failed   []dto.FailedSlot
	)
	for _, slot := range req.Slots {
		key := models.NewSlotKey(slot.AvailabilityID, slot.StartsAt)

		booked, err := s.bookings.IsBooked(ctx, slot.AvailabilityID, slot.StartsAt)
		if err != nil {
			s.releaseAll(ctx, acquired, sessionToken)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check bookings")
		}
		if booked {
			failed = append(failed, dto.FailedSlot{AvailabilityID: slot.AvailabilityID, StartsAt: slot.StartsAt, Reason: "slot already booked"})
			continue
		}

		ok, err := s.holds.TryAcquire(ctx, key, sessionToken, ttl)
		if err != nil {
			s.releaseAll(ctx, acquired, sessionToken)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire slot hold")
		}
		if !ok {
			owner, err := s.holds.HoldOwner(ctx, key)
			if err != nil {
				s.releaseAll(ctx, acquired, sessionToken)
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read slot hold")
			}
			if owner != nil && owner.SessionToken == sessionToken {
				// Duplicate slot within the same request.
				continue
			}
			failed = append(failed, dto.FailedSlot{AvailabilityID: slot.AvailabilityID, StartsAt: slot.StartsAt, Reason: "slot reserved by another session"})
			continue
		}

		acquired = append(acquired, key)
		reserved = append(reserved, models.ReservedSlot{
			ReservationID:  sessionToken,
			AvailabilityID: slot.AvailabilityID,
			StartsAt:       slot.StartsAt.UTC(),
			TeacherID:      slot.TeacherID,
			SubjectID:      slot.SubjectID,
			StudentID:      slot.StudentID,
		})
	}

	if len(failed) > 0 {
		s.releaseAll(ctx, acquired, sessionToken)
		s.metrics.ReservationConflict()
		return &dto.ReserveResponse{Success: false, FailedSlots: failed}, nil
	}

	token := &models.ReservationToken{
		SessionToken:  sessionToken,
		State:         models.ReservationActive,
		ExpiresAt:     expiresAt,
		ReservedSlots: reserved,
		CreatedAt:     now,
	}
	if err := s.holds.SaveToken(ctx, token, ttl+tokenGrace); err != nil {
		s.releaseAll(ctx, acquired, sessionToken)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save reservation")
	}

	s.metrics.ReservationHeld(len(reserved))
	s.logger.Info("reservation held",
		zap.String("session_token", sessionToken),
		zap.Int("slots", len(reserved)),
		zap.Time("expires_at", expiresAt))
	return &dto.ReserveResponse{
		Success:       true,
		SessionToken:  sessionToken,
		ExpiresAt:     expiresAt,
		ReservedSlots: reserved,
	}, nil
}

// Extend pushes an active reservation's deadline forward. The new
// deadline is the previous one plus the requested minutes, so repeated
// extensions are strictly monotonic. Expired or unknown tokens report
// success=false without error.
func (s *ReservationService) Extend(ctx context.Context, sessionToken string, additionalMinutes int) (*dto.ExtendResponse, error) {
	token, err := s.holds.GetToken(ctx, sessionToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}
	now := s.now()
	if token == nil || !token.ActiveAt(now) {
		return &dto.ExtendResponse{Success: false}, nil
	}

	newExpiresAt := token.ExpiresAt.Add(time.Duration(additionalMinutes) * time.Minute)
	ttl := newExpiresAt.Sub(now)
	for _, slot := range token.ReservedSlots {
		ok, err := s.holds.ExtendHold(ctx, slot.Key(), sessionToken, ttl)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to extend slot hold")
		}
		if !ok {
			s.logger.Warn("hold missing during extension",
				zap.String("session_token", sessionToken),
				zap.String("availability_id", slot.AvailabilityID),
				zap.Time("starts_at", slot.StartsAt))
		}
	}

	token.ExpiresAt = newExpiresAt
	if err := s.holds.SaveToken(ctx, token, ttl+tokenGrace); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save reservation")
	}
	return &dto.ExtendResponse{Success: true, NewExpiresAt: newExpiresAt}, nil
}

// Cancel releases a reservation's holds. Cancelling an unknown or
// already cancelled token succeeds, so retried cancellations are safe;
// a consumed reservation stays consumed.
func (s *ReservationService) Cancel(ctx context.Context, sessionToken string) (*dto.CancelResponse, error) {
	token, err := s.holds.GetToken(ctx, sessionToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}
	if token == nil || token.State == models.ReservationCancelled {
		return &dto.CancelResponse{Success: true}, nil
	}
	if token.State == models.ReservationConsumed {
		return &dto.CancelResponse{Success: false}, nil
	}

	for _, slot := range token.ReservedSlots {
		if err := s.holds.Release(ctx, slot.Key(), sessionToken); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release slot hold")
		}
	}
	s.metrics.HoldsReleased(len(token.ReservedSlots))

	token.State = models.ReservationCancelled
	if err := s.holds.SaveToken(ctx, token, terminalTokenTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save reservation")
	}
	s.logger.Info("reservation cancelled", zap.String("session_token", sessionToken))
	return &dto.CancelResponse{Success: true}, nil
}

// CheckAvailability probes whether a tutor's slot covering the given
// instant is free right now, held, or simply not offered. Mid-slot
// timestamps resolve to the instance that started the window, so a
// 09:30 query sees the 09:00 hold.
func (s *ReservationService) CheckAvailability(ctx context.Context, teacherID string, at time.Time) (*dto.CheckAvailabilityResponse, error) {
	at = at.UTC()
	slots, err := s.availability.ListActive(ctx, models.AvailabilityFilter{TeacherID: teacherID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	atClock := clockTime{hour: at.Hour(), minute: at.Minute()}
	var matched *models.AvailabilitySlot
	var instanceStart time.Time
	for i := range slots {
		if slots[i].DayOfWeek != int(at.Weekday()) {
			continue
		}
		start, err := parseClock(slots[i].StartTime)
		if err != nil {
			continue
		}
		end, err := parseClock(slots[i].EndTime)
		if err != nil {
			continue
		}
		if atClock.before(start) || !atClock.before(end) {
			continue
		}
		matched = &slots[i]
		instanceStart = time.Date(at.Year(), at.Month(), at.Day(), start.hour, start.minute, 0, 0, time.UTC)
		break
	}
	if matched == nil {
		return &dto.CheckAvailabilityResponse{IsAvailable: false}, nil
	}

	booked, err := s.bookings.IsBooked(ctx, matched.ID, instanceStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check bookings")
	}
	if booked {
		return &dto.CheckAvailabilityResponse{IsAvailable: false}, nil
	}

	hold, err := s.holds.HoldOwner(ctx, models.NewSlotKey(matched.ID, instanceStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read slot hold")
	}
	if hold != nil {
		return &dto.CheckAvailabilityResponse{
			IsAvailable: false,
			ReservedBy:  hold.SessionToken,
			ExpiresAt:   &hold.ExpiresAt,
		}, nil
	}
	return &dto.CheckAvailabilityResponse{IsAvailable: true}, nil
}

// Consume finalizes an active reservation into confirmed bookings
// inside one transaction, then releases the holds. The booking rows
// take over guarding the slots from the moment the transaction
// commits. An expired token reports success=false without error.
func (s *ReservationService) Consume(ctx context.Context, sessionToken, orderID string) (*dto.ConsumeResponse, error) {
	token, err := s.holds.GetToken(ctx, sessionToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}
	now := s.now()
	if token == nil || !token.ActiveAt(now) {
		return &dto.ConsumeResponse{Success: false}, nil
	}

	bookings := make([]models.Booking, 0, len(token.ReservedSlots))
	ids := make([]string, 0, len(token.ReservedSlots))
	for _, slot := range token.ReservedSlots {
		id := uuid.NewString()
		ids = append(ids, id)
		bookings = append(bookings, models.Booking{
			ID:             id,
			OrderID:        orderID,
			AvailabilityID: slot.AvailabilityID,
			TeacherID:      slot.TeacherID,
			StudentID:      slot.StudentID,
			SubjectID:      slot.SubjectID,
			StartsAt:       slot.StartsAt,
			EndsAt:         slot.StartsAt.Add(time.Hour),
			Status:         models.BookingConfirmed,
			CreatedAt:      now,
		})
	}

	tx, err := s.bookings.BeginTxx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	if err := s.bookings.CreateBatch(ctx, tx, bookings); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bookings")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit bookings")
	}

	token.State = models.ReservationConsumed
	if err := s.holds.SaveToken(ctx, token, terminalTokenTTL); err != nil {
		s.logger.Warn("failed to mark reservation consumed", zap.String("session_token", sessionToken), zap.Error(err))
	}
	for _, slot := range token.ReservedSlots {
		if err := s.holds.Release(ctx, slot.Key(), sessionToken); err != nil {
			s.logger.Warn("failed to release consumed hold",
				zap.String("session_token", sessionToken),
				zap.String("availability_id", slot.AvailabilityID),
				zap.Error(err))
		}
	}
	s.metrics.HoldsReleased(len(token.ReservedSlots))
	s.metrics.BookingConfirmed(len(bookings))

	s.logger.Info("reservation consumed",
		zap.String("session_token", sessionToken),
		zap.String("order_id", orderID),
		zap.Int("bookings", len(bookings)))
	return &dto.ConsumeResponse{Success: true, BookingIDs: ids, Bookings: bookings}, nil
}

// Sweep removes holds stranded without a token record. The hold TTLs
// already enforce expiry; this is reconciliation for partial failures.
func (s *ReservationService) Sweep(ctx context.Context) (int, error) {
	removed, err := s.holds.SweepOrphanHolds(ctx)
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		s.metrics.HoldsReleased(removed)
		s.logger.Info("swept orphan slot holds", zap.Int("removed", removed))
	}
	return removed, nil
}

func (s *ReservationService) releaseAll(ctx context.Context, keys []models.SlotKey, sessionToken string) {
	for _, key := range keys {
		if err := s.holds.Release(ctx, key, sessionToken); err != nil {
			s.logger.Warn("failed to release slot hold during rollback",
				zap.String("session_token", sessionToken),
				zap.String("availability_id", key.AvailabilityID),
				zap.Error(err))
		}
	}
}
