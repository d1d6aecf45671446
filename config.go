package authcore

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the engine configuration. Zero values in nested sections fall
// back to the defaults applied by their packages.
type Config struct {
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Lockout   LockoutConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// JWTConfig controls token signing and lifetimes.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// RateLimitConfig controls the per-operation sliding windows.
type RateLimitConfig struct {
	KeyPrefix              string
	Window                 time.Duration
	LoginAttempts          int
	RegisterAttempts       int
	RefreshAttempts        int
	PasswordChangeAttempts int
}

// LockoutConfig controls the failed-login lockout.
type LockoutConfig struct {
	Threshold  int
	Duration   time.Duration
	CounterTTL time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the default in-process metrics registry. Ignored
// when a custom Recorder is injected.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig mirrors production defaults: 30-minute access tokens,
// 7-day refresh tokens, one-minute rate windows, five-failure lockout for
// fifteen minutes. The JWT secret has no default.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			KeyPrefix:              "auth",
			Window:                 time.Minute,
			LoginAttempts:          5,
			RegisterAttempts:       3,
			RefreshAttempts:        10,
			PasswordChangeAttempts: 5,
		},
		Lockout: LockoutConfig{
			Threshold:  5,
			Duration:   15 * time.Minute,
			CounterTTL: time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate checks the fields the engine cannot default.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("authcore: JWT secret is required")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("authcore: access token TTL must be positive")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("authcore: refresh token TTL must be positive")
	}
	return nil
}

// ConfigFromEnv builds a Config from the environment, loading a .env file
// when one is present. Unset variables keep the defaults.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(os.Getenv("JWT_SECRET_KEY"))
	cfg.JWT.AccessTTL = envMinutesOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", cfg.JWT.AccessTTL)
	cfg.JWT.RefreshTTL = envDaysOrDefault("REFRESH_TOKEN_EXPIRE_DAYS", cfg.JWT.RefreshTTL)

	cfg.RateLimit.Window = envSecondsOrDefault("RATE_LIMIT_WINDOW_SECONDS", cfg.RateLimit.Window)
	cfg.RateLimit.LoginAttempts = envIntOrDefault("LOGIN_ATTEMPTS_PER_WINDOW", cfg.RateLimit.LoginAttempts)
	cfg.RateLimit.RegisterAttempts = envIntOrDefault("REGISTER_ATTEMPTS_PER_WINDOW", cfg.RateLimit.RegisterAttempts)
	cfg.RateLimit.RefreshAttempts = envIntOrDefault("REFRESH_ATTEMPTS_PER_WINDOW", cfg.RateLimit.RefreshAttempts)
	cfg.RateLimit.PasswordChangeAttempts = envIntOrDefault("PASSWORD_CHANGE_ATTEMPTS_PER_WINDOW", cfg.RateLimit.PasswordChangeAttempts)

	cfg.Lockout.Threshold = envIntOrDefault("FAILED_LOGIN_THRESHOLD", cfg.Lockout.Threshold)
	cfg.Lockout.Duration = envMinutesOrDefault("ACCOUNT_LOCKOUT_MINUTES", cfg.Lockout.Duration)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envIntOrDefault(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envSecondsOrDefault(key string, fallback time.Duration) time.Duration {
	if v := envIntOrDefault(key, 0); v > 0 {
		return time.Duration(v) * time.Second
	}
	return fallback
}

func envMinutesOrDefault(key string, fallback time.Duration) time.Duration {
	if v := envIntOrDefault(key, 0); v > 0 {
		return time.Duration(v) * time.Minute
	}
	return fallback
}

func envDaysOrDefault(key string, fallback time.Duration) time.Duration {
	if v := envIntOrDefault(key, 0); v > 0 {
		return time.Duration(v) * 24 * time.Hour
	}
	return fallback
}
