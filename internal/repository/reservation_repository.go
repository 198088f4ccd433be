package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/models"
)

const (
	holdKeyPrefix  = "hold:"
	tokenKeyPrefix = "resv:"
)

// releaseScript deletes a hold only when it is still owned by the
// given session token, so a racing re-acquisition is never clobbered.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// extendScript refreshes a hold's TTL only for its current owner.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// ReservationRepository keeps slot holds and reservation tokens in
// Redis. A hold is a short-lived lock per (availability, start) pair;
// its TTL is the expiry mechanism, so an abandoned checkout releases
// itself without client action.
type ReservationRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewReservationRepository constructs the repository.
func NewReservationRepository(client *redis.Client, logger *zap.Logger) *ReservationRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationRepository{client: client, logger: logger}
}

func holdKey(key models.SlotKey) string {
	return fmt.Sprintf("%s%s:%d", holdKeyPrefix, key.AvailabilityID, key.StartUnix)
}

func tokenKey(sessionToken string) string {
	return tokenKeyPrefix + sessionToken
}

// TryAcquire attempts to take the hold for a slot. Returns false when
// another session already owns it. SET NX makes two concurrent calls
// for the same slot mutually exclusive.
func (r *ReservationRepository) TryAcquire(ctx context.Context, key models.SlotKey, sessionToken string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, holdKey(key), sessionToken, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire hold %s: %w", holdKey(key), err)
	}
	return ok, nil
}

// HoldOwner returns the session currently holding the slot, or nil
// when the slot is free.
func (r *ReservationRepository) HoldOwner(ctx context.Context, key models.SlotKey) (*models.SlotHold, error) {
	k := holdKey(key)
	owner, err := r.client.Get(ctx, k).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("read hold %s: %w", k, err)
	}
	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return nil, fmt.Errorf("read hold ttl %s: %w", k, err)
	}
	return &models.SlotHold{SessionToken: owner, ExpiresAt: time.Now().UTC().Add(ttl)}, nil
}

// Release frees a hold if it is still owned by the session.
func (r *ReservationRepository) Release(ctx context.Context, key models.SlotKey, sessionToken string) error {
	if err := releaseScript.Run(ctx, r.client, []string{holdKey(key)}, sessionToken).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release hold %s: %w", holdKey(key), err)
	}
	return nil
}

// ExtendHold pushes a hold's expiry forward for its owner. Returns
// false when the hold is gone or owned by someone else.
func (r *ReservationRepository) ExtendHold(ctx context.Context, key models.SlotKey, sessionToken string, ttl time.Duration) (bool, error) {
	res, err := extendScript.Run(ctx, r.client, []string{holdKey(key)}, sessionToken, ttl.Milliseconds()).Int64()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("extend hold %s: %w", holdKey(key), err)
	}
	return res == 1, nil
}

// SaveToken stores the reservation token payload with the given TTL.
func (r *ReservationRepository) SaveToken(ctx context.Context, token *models.ReservationToken, ttl time.Duration) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal reservation token: %w", err)
	}
	if err := r.client.Set(ctx, tokenKey(token.SessionToken), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save reservation token: %w", err)
	}
	return nil
}

// GetToken loads a reservation token. Returns nil when unknown or
// already expired out of Redis.
func (r *ReservationRepository) GetToken(ctx context.Context, sessionToken string) (*models.ReservationToken, error) {
	raw, err := r.client.Get(ctx, tokenKey(sessionToken)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("read reservation token: %w", err)
	}
	var token models.ReservationToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("unmarshal reservation token: %w", err)
	}
	return &token, nil
}

// DeleteToken removes a token record.
func (r *ReservationRepository) DeleteToken(ctx context.Context, sessionToken string) error {
	if err := r.client.Del(ctx, tokenKey(sessionToken)).Err(); err != nil {
		return fmt.Errorf("delete reservation token: %w", err)
	}
	return nil
}

// SweepOrphanHolds scans for holds whose owning token no longer
// exists and deletes them. Hold TTLs already enforce expiry; the sweep
// only reconciles holds stranded by partial failures.
func (r *ReservationRepository) SweepOrphanHolds(ctx context.Context) (int, error) {
	removed := 0
	iter := r.client.Scan(ctx, 0, holdKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		owner, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return removed, fmt.Errorf("sweep read %s: %w", key, err)
		}
		exists, err := r.client.Exists(ctx, tokenKey(owner)).Result()
		if err != nil {
			return removed, fmt.Errorf("sweep check token for %s: %w", key, err)
		}
		if exists == 0 {
			if err := r.client.Del(ctx, key).Err(); err != nil {
				return removed, fmt.Errorf("sweep delete %s: %w", key, err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("sweep scan holds: %w", err)
	}
	return removed, nil
}
