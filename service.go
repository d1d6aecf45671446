package authcore

import (
	"context"
	"time"

	"github.com/nimbusapi/authcore/audit"
	"github.com/nimbusapi/authcore/internal/rate"
	"github.com/nimbusapi/authcore/metrics"
	"github.com/nimbusapi/authcore/password"
	"github.com/nimbusapi/authcore/store"
	"github.com/nimbusapi/authcore/token"
)

// Service is the authentication engine. It owns credential verification,
// token issuance and rotation, abuse controls, and the metric and audit
// signals the flows produce. All methods are safe for concurrent use.
type Service struct {
	config   Config
	users    store.UserStore
	tokens   store.TokenStore
	codec    *token.Codec
	hasher   password.Hasher
	limiter  *rate.Limiter
	lockout  *rate.Lockout
	recorder metrics.Recorder
	registry *metrics.Registry
	audit    *audit.Dispatcher
	now      func() time.Time
}

// Close flushes the audit dispatcher. Safe to call more than once.
func (s *Service) Close() {
	if s != nil {
		s.audit.Close()
	}
}

// MetricsSnapshot exposes the default registry for exporters. Returns a zero
// snapshot when a custom recorder was injected.
func (s *Service) MetricsSnapshot() metrics.Snapshot {
	if s.registry == nil {
		return metrics.Snapshot{}
	}
	return s.registry.Snapshot()
}

// observe records the single metric observation every flow makes on exit.
func (s *Service) observe(operation string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	s.recorder.RecordOperation(operation, outcome, s.now().Sub(start))
}

func (s *Service) emit(ctx context.Context, eventType, userID string, success bool, reason string) {
	s.audit.Emit(ctx, audit.Event{
		Timestamp: s.now(),
		Type:      eventType,
		UserID:    userID,
		ClientIP:  ClientIPFromContext(ctx),
		Success:   success,
		Reason:    reason,
	})
}

// Rate pre-checks. Each check consumes one slot in its window and returns
// the decision so transports can set X-RateLimit headers; a denied decision
// is also returned as a *RateLimitError. Without redis every check allows.

func (s *Service) CheckLoginRate(ctx context.Context, clientIP string) (rate.Decision, error) {
	if s.limiter == nil {
		return rate.Decision{Allowed: true}, nil
	}
	return decide(opLogin, s.limiter.AllowLogin(ctx, clientIP))
}

func (s *Service) CheckRegisterRate(ctx context.Context, clientIP string) (rate.Decision, error) {
	if s.limiter == nil {
		return rate.Decision{Allowed: true}, nil
	}
	return decide(opRegister, s.limiter.AllowRegister(ctx, clientIP))
}

func (s *Service) CheckRefreshRate(ctx context.Context, clientIP string) (rate.Decision, error) {
	if s.limiter == nil {
		return rate.Decision{Allowed: true}, nil
	}
	return decide(opRefresh, s.limiter.AllowRefresh(ctx, clientIP))
}

func (s *Service) CheckPasswordChangeRate(ctx context.Context, userID string) (rate.Decision, error) {
	if s.limiter == nil {
		return rate.Decision{Allowed: true}, nil
	}
	return decide(opChangePassword, s.limiter.AllowPasswordChange(ctx, userID))
}

func decide(operation string, d rate.Decision) (rate.Decision, error) {
	if !d.Allowed {
		return d, &RateLimitError{Operation: operation, Remaining: d.Remaining, ResetAt: d.ResetAt}
	}
	return d, nil
}
