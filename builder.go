package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nimbusapi/authcore/audit"
	"github.com/nimbusapi/authcore/internal/rate"
	"github.com/nimbusapi/authcore/metrics"
	"github.com/nimbusapi/authcore/password"
	"github.com/nimbusapi/authcore/store"
	"github.com/nimbusapi/authcore/token"
)

// Builder assembles a Service. User and token stores are required; redis is
// optional and its absence disables rate limiting and lockout.
type Builder struct {
	config    Config
	rdb       redis.UniversalClient
	users     store.UserStore
	tokens    store.TokenStore
	hasher    password.Hasher
	recorder  metrics.Recorder
	auditSink audit.Sink
	built     bool
}

// New starts a builder with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis enables the window limiter and account lockout.
func (b *Builder) WithRedis(rdb redis.UniversalClient) *Builder {
	b.rdb = rdb
	return b
}

// WithUserStore sets the account persistence.
func (b *Builder) WithUserStore(users store.UserStore) *Builder {
	b.users = users
	return b
}

// WithTokenStore sets the refresh token persistence.
func (b *Builder) WithTokenStore(tokens store.TokenStore) *Builder {
	b.tokens = tokens
	return b
}

// WithPasswordHasher overrides the default bcrypt hasher.
func (b *Builder) WithPasswordHasher(hasher password.Hasher) *Builder {
	b.hasher = hasher
	return b
}

// WithMetricsRecorder overrides the default in-process registry, e.g. with
// the OTel recorder.
func (b *Builder) WithMetricsRecorder(recorder metrics.Recorder) *Builder {
	b.recorder = recorder
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and wires the service. A builder builds
// at most once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("authcore: builder already used")
	}
	if b.users == nil {
		return nil, errors.New("authcore: user store is required")
	}
	if b.tokens == nil {
		return nil, errors.New("authcore: token store is required")
	}
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		hasher = password.NewBcrypt(0)
	}

	recorder := b.recorder
	var registry *metrics.Registry
	if recorder == nil {
		if cfg.Metrics.Enabled {
			registry = metrics.NewRegistry()
			recorder = registry
		} else {
			recorder = metrics.Nop{}
		}
	}

	svc := &Service{
		config:   cfg,
		users:    b.users,
		tokens:   b.tokens,
		codec:    codec,
		hasher:   hasher,
		recorder: recorder,
		registry: registry,
		now:      time.Now,
	}

	if b.rdb != nil {
		svc.limiter = rate.NewLimiter(b.rdb, rate.Config{
			KeyPrefix:              cfg.RateLimit.KeyPrefix,
			Window:                 cfg.RateLimit.Window,
			LoginAttempts:          cfg.RateLimit.LoginAttempts,
			RegisterAttempts:       cfg.RateLimit.RegisterAttempts,
			RefreshAttempts:        cfg.RateLimit.RefreshAttempts,
			PasswordChangeAttempts: cfg.RateLimit.PasswordChangeAttempts,
		})
		svc.lockout = rate.NewLockout(b.rdb, rate.LockoutConfig{
			KeyPrefix:  cfg.RateLimit.KeyPrefix,
			Threshold:  cfg.Lockout.Threshold,
			Duration:   cfg.Lockout.Duration,
			CounterTTL: cfg.Lockout.CounterTTL,
		})
	}

	svc.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true
	return svc, nil
}
