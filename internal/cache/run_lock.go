package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultRunLockTTL = 10 * time.Minute

// RunLocker is a redis lock ensuring a single forecast run across server and CLI processes.
type RunLocker struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

// NewRunLocker creates a run lock on client. The ttl should exceed the run timeout so the
// lock cannot expire under a healthy run.
func NewRunLocker(client *redis.Client, keyPrefix string, ttlSeconds int) *RunLocker {
	if keyPrefix == "" {
		keyPrefix = "lock:forecast"
	}
	return &RunLocker{
		locker: redislock.New(client),
		key:    keyPrefix + ":run",
		ttl:    ttlFromSeconds(ttlSeconds, defaultRunLockTTL),
	}
}

// Acquire obtains the lock without waiting. acquired is false when another process holds it.
func (l *RunLocker) Acquire(ctx context.Context) (func(context.Context) error, bool, error) {
	lock, err := l.locker.Obtain(ctx, l.key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtain redis lock %s: %w", l.key, err)
	}

	log.Debug().Str("key", l.key).Dur("ttl", l.ttl).Msg("forecast run lock obtained")

	release := func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release redis lock %s: %w", l.key, err)
		}
		return nil
	}

	return release, true, nil
}
