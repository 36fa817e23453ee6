package redislock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Lock is an advisory per-booking issuance lock. It narrows the window in
// which two callers issue tickets for the same booking at once; the unique
// (booking_id, seat_number) index remains the actual invariant.
type Lock struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Lock{Client: client, TTL: ttl}
}

func key(bookingID string) string {
	return "issue_lock:" + bookingID
}

// Acquire takes the lock for a booking. It returns an owner token and whether
// the lock was obtained; the token is required to release.
func (l *Lock) Acquire(ctx context.Context, bookingID string) (string, bool, error) {
	token := uuid.New().String()
	ok, err := l.Client.SetNX(ctx, key(bookingID), token, l.TTL).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release drops the lock if this caller still owns it. A lock taken over by
// someone else (after TTL expiry) is left alone.
func (l *Lock) Release(ctx context.Context, bookingID, token string) error {
	val, err := l.Client.Get(ctx, key(bookingID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err = l.Client.Del(ctx, key(bookingID)).Result()
	}
	return err
}
