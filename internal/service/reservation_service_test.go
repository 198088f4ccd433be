package service

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/dto"
	"github.com/studyhall/tutoring-api/internal/models"
	"github.com/studyhall/tutoring-api/pkg/config"
)

type fakeHold struct {
	sessionToken string
	expiresAt    time.Time
}

// fakeHoldStore mimics the Redis hold semantics in memory.
type fakeHoldStore struct {
	now    func() time.Time
	holds  map[models.SlotKey]fakeHold
	tokens map[string]models.ReservationToken
}

func newFakeHoldStore(now func() time.Time) *fakeHoldStore {
	return &fakeHoldStore{
		now:    now,
		holds:  make(map[models.SlotKey]fakeHold),
		tokens: make(map[string]models.ReservationToken),
	}
}

func (f *fakeHoldStore) TryAcquire(_ context.Context, key models.SlotKey, sessionToken string, ttl time.Duration) (bool, error) {
	if hold, ok := f.holds[key]; ok && f.now().Before(hold.expiresAt) {
		return false, nil
	}
	f.holds[key] = fakeHold{sessionToken: sessionToken, expiresAt: f.now().Add(ttl)}
	return true, nil
}

func (f *fakeHoldStore) HoldOwner(_ context.Context, key models.SlotKey) (*models.SlotHold, error) {
	hold, ok := f.holds[key]
	if !ok || !f.now().Before(hold.expiresAt) {
		return nil, nil
	}
	return &models.SlotHold{SessionToken: hold.sessionToken, ExpiresAt: hold.expiresAt}, nil
}

func (f *fakeHoldStore) Release(_ context.Context, key models.SlotKey, sessionToken string) error {
	if hold, ok := f.holds[key]; ok && hold.sessionToken == sessionToken {
		delete(f.holds, key)
	}
	return nil
}

func (f *fakeHoldStore) ExtendHold(_ context.Context, key models.SlotKey, sessionToken string, ttl time.Duration) (bool, error) {
	hold, ok := f.holds[key]
	if !ok || hold.sessionToken != sessionToken {
		return false, nil
	}
	hold.expiresAt = f.now().Add(ttl)
	f.holds[key] = hold
	return true, nil
}

func (f *fakeHoldStore) SaveToken(_ context.Context, token *models.ReservationToken, _ time.Duration) error {
	f.tokens[token.SessionToken] = *token
	return nil
}

func (f *fakeHoldStore) GetToken(_ context.Context, sessionToken string) (*models.ReservationToken, error) {
	token, ok := f.tokens[sessionToken]
	if !ok {
		return nil, nil
	}
	return &token, nil
}

func (f *fakeHoldStore) SweepOrphanHolds(context.Context) (int, error) {
	removed := 0
	for key, hold := range f.holds {
		if _, ok := f.tokens[hold.sessionToken]; !ok {
			delete(f.holds, key)
			removed++
		}
	}
	return removed, nil
}

type fakeBookingStore struct {
	db      *sqlx.DB
	booked  map[models.SlotKey]bool
	created []models.Booking
}

func newFakeBookingStore(t *testing.T) (*fakeBookingStore, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })
	return &fakeBookingStore{
		db:     sqlx.NewDb(rawDB, "sqlmock"),
		booked: make(map[models.SlotKey]bool),
	}, mock
}

func (f *fakeBookingStore) IsBooked(_ context.Context, availabilityID string, startsAt time.Time) (bool, error) {
	return f.booked[models.NewSlotKey(availabilityID, startsAt)], nil
}

func (f *fakeBookingStore) CreateBatch(_ context.Context, _ *sqlx.Tx, bookings []models.Booking) error {
	f.created = append(f.created, bookings...)
	return nil
}

func (f *fakeBookingStore) BeginTxx(ctx context.Context) (*sqlx.Tx, error) {
	return f.db.BeginTxx(ctx, nil)
}

var reservationNow = time.Date(2026, time.January, 5, 12, 0, 0, 0, time.UTC)

func newReservationFixture(t *testing.T) (*ReservationService, *fakeHoldStore, *fakeBookingStore, sqlmock.Sqlmock) {
	t.Helper()
	holds := newFakeHoldStore(func() time.Time { return reservationNow })
	bookings, mock := newFakeBookingStore(t)
	svc := NewReservationService(holds, bookings, stubAvailabilityLister{}, nil, zap.NewNop(), config.ReservationConfig{
		DefaultTTL: 15 * time.Minute,
		MaxTTL:     time.Hour,
		MaxSlots:   50,
	})
	svc.now = func() time.Time { return reservationNow }
	return svc, holds, bookings, mock
}

func reserveSlots(startOffsets ...time.Duration) []dto.ReserveSlotRequest {
	slots := make([]dto.ReserveSlotRequest, 0, len(startOffsets))
	for _, offset := range startOffsets {
		slots = append(slots, dto.ReserveSlotRequest{
			AvailabilityID: "av-1",
			TeacherID:      "t-1",
			SubjectID:      "math",
			StudentID:      "s-1",
			StartsAt:       reservationNow.Add(24*time.Hour + offset),
		})
	}
	return slots
}

func TestReservationServiceReserveSuccess(t *testing.T) {
	svc, holds, _, _ := newReservationFixture(t)

	resp, err := svc.Reserve(context.Background(), dto.ReserveRequest{Slots: reserveSlots(0, time.Hour)})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SessionToken)
	assert.Equal(t, reservationNow.Add(15*time.Minute), resp.ExpiresAt)
	assert.Len(t, resp.ReservedSlots, 2)
	assert.Len(t, holds.holds, 2)

	token, err := svc.holds.GetToken(context.Background(), resp.SessionToken)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, models.ReservationActive, token.State)
}

func TestReservationServiceReserveAllOrNothing(t *testing.T) {
	svc, holds, _, _ := newReservationFixture(t)

	taken := reserveSlots(time.Hour)[0]
	_, err := holds.TryAcquire(context.Background(), models.NewSlotKey(taken.AvailabilityID, taken.StartsAt), "other-session", time.Hour)
	require.NoError(t, err)

	resp, err := svc.Reserve(context.Background(), dto.ReserveRequest{Slots: reserveSlots(0, time.Hour)})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Empty(t, resp.SessionToken)
	require.Len(t, resp.FailedSlots, 1)
	assert.Equal(t, "slot reserved by another session", resp.FailedSlots[0].Reason)
	assert.Len(t, holds.holds, 1, "only the pre-existing foreign hold remains")
}

func TestReservationServiceReserveRejectsBookedSlot(t *testing.T) {
	svc, _, bookings, _ := newReservationFixture(t)

	slot := reserveSlots(0)[0]
	bookings.booked[models.NewSlotKey(slot.AvailabilityID, slot.StartsAt)] = true

	resp, err := svc.Reserve(context.Background(), dto.ReserveRequest{Slots: reserveSlots(0)})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.Len(t, resp.FailedSlots, 1)
	assert.Equal(t, "slot already booked", resp.FailedSlots[0].Reason)
}

func TestReservationServiceReserveClampsTTL(t *testing.T) {
	svc, _, _, _ := newReservationFixture(t)

	resp, err := svc.Reserve(context.Background(), dto.ReserveRequest{
		Slots:             reserveSlots(0),
		ExpirationMinutes: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, reservationNow.Add(45*time.Minute), resp.ExpiresAt)
}

func TestReservationServiceExtendIsMonotonic(t *testing.T) {
	svc, _, _, _ := newReservationFixture(t)

	reserved, err := svc.Reserve(context.Background(), dto.ReserveRequest{Slots: reserveSlots(0)})
	require.NoError(t, err)
	require.True(t, reserved.Success)

	first, err := svc.Extend(context.Background(), reserved.SessionToken, 10)
	require.NoError(t, err)
	require.True(t, first.Success)
	assert.Equal(t, reserved.ExpiresAt.Add(10*time.Minute), first.NewExpiresAt)

	second, err := svc.Extend(context.Background(), reserved.SessionToken, 5)
	require.NoError(t, err)
	require.True(t, second.Success)
	assert.Equal(t, first.NewExpiresAt.Add(5*time.Minute), second.NewExpiresAt)
	assert.True(t, second.NewExpiresAt.After(first.NewExpiresAt))
}

func TestReservationServiceExtendExpiredToken(t *testing.T) {
	svc, holds, _, _ := newReservationFixture(t)

	holds.tokens["expired"] = models.ReservationToken{
		SessionToken: "expired",
		State:        models.ReservationActive,
		ExpiresAt:    reservationNow.Add(-time.Minute),
	}

	resp, err := svc.Extend(context.Background(), "expired", 10)
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestReservationServiceCancelIsIdempotent(t *testing.T) {
	svc, holds, _, _ := newReservationFixture(t)

	unknown, err := svc.Cancel(context.Background(), "never-existed")
	require.NoError(t, err)
	assert.True(t, unknown.Success)

	reserved, err := svc.Reserve(context.Background(), dto.ReserveRequest{Slots: reserveSlots(0)})
	require.NoError(t, err)
	require.True(t, reserved.Success)

	first, err := svc.Cancel(context.Background(), reserved.SessionToken)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Empty(t, holds.holds)

	second, err := svc.Cancel(context.Background(), reserved.SessionToken)
	require.NoError(t, err)
	assert.True(t, second.Success)
}

func TestReservationServiceCancelConsumedIsRejected(t *testing.T) {
	svc, holds, _, _ := newReservationFixture(t)

	holds.tokens["done"] = models.ReservationToken{
		SessionToken: "done",
		State:        models.ReservationConsumed,
		ExpiresAt:    reservationNow.Add(10 * time.Minute),
	}

	resp, err := svc.Cancel(context.Background(), "done")
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestReservationServiceConsumeCreatesBookings(t *testing.T) {
	svc, holds, bookings, mock := newReservationFixture(t)

	reserved, err := svc.Reserve(context.Background(), dto.ReserveRequest{Slots: reserveSlots(0, time.Hour)})
	require.NoError(t, err)
	require.True(t, reserved.Success)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Consume(context.Background(), reserved.SessionToken, "order-77")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Len(t, resp.BookingIDs, 2)
	require.Len(t, bookings.created, 2)
	assert.Equal(t, "order-77", bookings.created[0].OrderID)
	assert.Equal(t, models.BookingConfirmed, bookings.created[0].Status)
	assert.Equal(t, bookings.created[0].StartsAt.Add(time.Hour), bookings.created[0].EndsAt)
	assert.Empty(t, holds.holds, "holds released after finalization")
	assert.Equal(t, models.ReservationConsumed, holds.tokens[reserved.SessionToken].State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationServiceConsumeExpiredToken(t *testing.T) {
	svc, holds, bookings, _ := newReservationFixture(t)

	holds.tokens["stale"] = models.ReservationToken{
		SessionToken: "stale",
		State:        models.ReservationActive,
		ExpiresAt:    reservationNow.Add(-time.Second),
	}

	resp, err := svc.Consume(context.Background(), "stale", "order-1")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Empty(t, bookings.created)
}

func TestReservationServiceSweepRemovesOrphans(t *testing.T) {
	svc, holds, _, _ := newReservationFixture(t)

	holds.holds[models.NewSlotKey("av-9", reservationNow)] = fakeHold{
		sessionToken: "vanished",
		expiresAt:    reservationNow.Add(time.Hour),
	}

	removed, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, holds.holds)
}

func TestReservationServiceCheckAvailability(t *testing.T) {
	slot := mondayMorning("t-1")
	holds := newFakeHoldStore(func() time.Time { return reservationNow })
	bookings, _ := newFakeBookingStore(t)
	svc := NewReservationService(holds, bookings,
		stubAvailabilityLister{slots: []models.AvailabilitySlot{slot}},
		nil, zap.NewNop(), config.ReservationConfig{})
	svc.now = func() time.Time { return reservationNow }

	at := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC) // a Monday at 09:00

	free, err := svc.CheckAvailability(context.Background(), "t-1", at)
	require.NoError(t, err)
	assert.True(t, free.IsAvailable)

	freeMidSlot, err := svc.CheckAvailability(context.Background(), "t-1", at.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, freeMidSlot.IsAvailable)

	_, err = holds.TryAcquire(context.Background(), models.NewSlotKey(slot.ID, at), "session-z", time.Hour)
	require.NoError(t, err)

	held, err := svc.CheckAvailability(context.Background(), "t-1", at)
	require.NoError(t, err)
	assert.False(t, held.IsAvailable)
	assert.Equal(t, "session-z", held.ReservedBy)
	require.NotNil(t, held.ExpiresAt)

	// A query inside the window resolves to the instance that opened it,
	// so 09:30 sees the hold placed on the 09:00 occurrence.
	midSlot, err := svc.CheckAvailability(context.Background(), "t-1", at.Add(30*time.Minute))
	require.NoError(t, err)
	assert.False(t, midSlot.IsAvailable)
	assert.Equal(t, "session-z", midSlot.ReservedBy)

	missing, err := svc.CheckAvailability(context.Background(), "t-1", at.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, missing.IsAvailable, "no availability window at that time")
}
