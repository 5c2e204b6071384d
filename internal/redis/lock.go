package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("day lock not acquired")
)

// Locker serializes booking writes for one calendar day. Admission runs
// against a snapshot of the day's appointments, so two concurrent requests
// for overlapping slots must not both pass the check; the day lock keeps
// one of them out of the critical section.
type Locker interface {
	WithDayLock(ctx context.Context, date time.Time, fn func(ctx context.Context) error) error
}

type redisDayLocker struct {
	client   *redis.Client
	clientID string
	ttl      time.Duration
}

// NewRedisDayLocker creates a locker keyed by (business, date).
func NewRedisDayLocker(client *redis.Client, clientID string, ttl time.Duration) Locker {
	return &redisDayLocker{
		client:   client,
		clientID: clientID,
		ttl:      ttl,
	}
}

func (l *redisDayLocker) WithDayLock(ctx context.Context, date time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:day:%s:%s", l.clientID, date.Format("2006-01-02"))
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire day lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release day lock: %w", err)
	}
	return nil
}
