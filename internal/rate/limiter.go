package rate

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the window limiter thresholds. All four named limits share a
// single window length and key prefix.
type Config struct {
	KeyPrefix              string
	Window                 time.Duration
	LoginAttempts          int
	RegisterAttempts       int
	RefreshAttempts        int
	PasswordChangeAttempts int
}

func (c *Config) applyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "auth"
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	if c.LoginAttempts <= 0 {
		c.LoginAttempts = 5
	}
	if c.RegisterAttempts <= 0 {
		c.RegisterAttempts = 3
	}
	if c.RefreshAttempts <= 0 {
		c.RefreshAttempts = 10
	}
	if c.PasswordChangeAttempts <= 0 {
		c.PasswordChangeAttempts = 5
	}
}

// Decision is the outcome of one window check.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetAt is the unix-seconds instant when a fresh window opens.
	ResetAt int64
}

// Limiter enforces a sliding window over a redis sorted set per key. Each
// attempt is a set member scored by its unix timestamp; pruning members older
// than the window makes the count the number of attempts inside it.
type Limiter struct {
	rdb redis.UniversalClient
	cfg Config
	now func() time.Time
}

// NewLimiter builds a window limiter on the given redis client.
func NewLimiter(rdb redis.UniversalClient, cfg Config) *Limiter {
	cfg.applyDefaults()
	return &Limiter{rdb: rdb, cfg: cfg, now: time.Now}
}

// AllowLogin checks and records one login attempt for the client IP.
func (l *Limiter) AllowLogin(ctx context.Context, clientIP string) Decision {
	return l.allow(ctx, l.key("login", clientIP), l.cfg.LoginAttempts)
}

// AllowRegister checks and records one registration attempt for the client IP.
func (l *Limiter) AllowRegister(ctx context.Context, clientIP string) Decision {
	return l.allow(ctx, l.key("register", clientIP), l.cfg.RegisterAttempts)
}

// AllowRefresh checks and records one token refresh attempt for the client IP.
func (l *Limiter) AllowRefresh(ctx context.Context, clientIP string) Decision {
	return l.allow(ctx, l.key("refresh", clientIP), l.cfg.RefreshAttempts)
}

// AllowPasswordChange checks and records one password change attempt for the
// user. Unlike the other limits this one is keyed per account, not per IP.
func (l *Limiter) AllowPasswordChange(ctx context.Context, userID string) Decision {
	return l.allow(ctx, l.key("password_change", userID), l.cfg.PasswordChangeAttempts)
}

func (l *Limiter) key(operation, identity string) string {
	return l.cfg.KeyPrefix + ":" + operation + ":" + identity
}

// allow prunes, counts, records, and refreshes the key TTL in one
// transaction. The verdict uses the count before the current attempt is
// added, so a window grants at most limit requests.
func (l *Limiter) allow(ctx context.Context, key string, limit int) Decision {
	now := l.now()
	window := l.cfg.Window
	reset := now.Add(window).Unix()

	var card *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		cutoff := float64(now.Add(-window).UnixNano()) / 1e9
		pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatFloat(cutoff, 'f', 6, 64))
		card = pipe.ZCard(ctx, key)
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(now.UnixNano()) / 1e9,
			Member: strconv.FormatInt(now.UnixNano(), 10),
		})
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		// Fail open: an unreachable limiter store must not take logins down
		// with it.
		return Decision{Allowed: true, Remaining: limit, ResetAt: reset}
	}

	count := int(card.Val())
	remaining := limit - count - 1
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count < limit, Remaining: remaining, ResetAt: reset}
}
