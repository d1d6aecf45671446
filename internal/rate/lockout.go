package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockoutConfig controls the failed-login tracker.
type LockoutConfig struct {
	KeyPrefix string
	// Threshold is the failure count at which the account locks.
	Threshold int
	// Duration is how long the lock flag lives.
	Duration time.Duration
	// CounterTTL bounds how long stale failures count toward the threshold.
	CounterTTL time.Duration
}

func (c *LockoutConfig) applyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "auth"
	}
	if c.Threshold <= 0 {
		c.Threshold = 5
	}
	if c.Duration <= 0 {
		c.Duration = 15 * time.Minute
	}
	if c.CounterTTL <= 0 {
		c.CounterTTL = time.Hour
	}
}

// Lockout counts failed logins per account and flips a separate lock flag,
// with its own TTL, once the threshold is reached. The counter and the flag
// expire independently.
type Lockout struct {
	rdb redis.UniversalClient
	cfg LockoutConfig
}

// NewLockout builds a lockout tracker on the given redis client.
func NewLockout(rdb redis.UniversalClient, cfg LockoutConfig) *Lockout {
	cfg.applyDefaults()
	return &Lockout{rdb: rdb, cfg: cfg}
}

func (l *Lockout) counterKey(identity string) string {
	return l.cfg.KeyPrefix + ":failed_login:" + identity
}

func (l *Lockout) lockKey(identity string) string {
	return l.cfg.KeyPrefix + ":locked:" + identity
}

// RecordFailure increments the failure counter, refreshing its TTL, and sets
// the lock flag when the running count reaches the threshold. It returns the
// count and whether the identity is now locked.
func (l *Lockout) RecordFailure(ctx context.Context, identity string) (int64, bool, error) {
	key := l.counterKey(identity)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := l.rdb.Expire(ctx, key, l.cfg.CounterTTL).Err(); err != nil {
		return count, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if count < int64(l.cfg.Threshold) {
		return count, false, nil
	}
	if err := l.rdb.Set(ctx, l.lockKey(identity), "locked", l.cfg.Duration).Err(); err != nil {
		return count, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count, true, nil
}

// IsLocked reports the lock flag and the remaining lock time in seconds.
// A flag that somehow has no expiry counts as locked for the full duration.
func (l *Lockout) IsLocked(ctx context.Context, identity string) (bool, int64, error) {
	ttl, err := l.rdb.TTL(ctx, l.lockKey(identity)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	switch {
	case ttl == -2:
		return false, 0, nil
	case ttl == -1:
		return true, int64(l.cfg.Duration / time.Second), nil
	default:
		return true, int64(ttl / time.Second), nil
	}
}

// Reset clears the failure counter after a successful login. An existing
// lock flag is left to expire on its own.
func (l *Lockout) Reset(ctx context.Context, identity string) error {
	if err := l.rdb.Del(ctx, l.counterKey(identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
