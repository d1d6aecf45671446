package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestLimiterGrantsUpToLimit(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewLimiter(rdb, Config{Window: time.Minute, LoginAttempts: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := l.AllowLogin(ctx, "10.0.0.1")
		if !d.Allowed {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
		if want := 3 - i - 1; d.Remaining != want {
			t.Errorf("attempt %d: Remaining = %d, want %d", i+1, d.Remaining, want)
		}
	}

	d := l.AllowLogin(ctx, "10.0.0.1")
	if d.Allowed {
		t.Fatal("attempt 4: expected denied")
	}
	if d.Remaining != 0 {
		t.Errorf("denied decision Remaining = %d, want 0", d.Remaining)
	}
	if d.ResetAt <= time.Now().Unix() {
		t.Errorf("ResetAt = %d, want a future instant", d.ResetAt)
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewLimiter(rdb, Config{Window: time.Minute, LoginAttempts: 1, RegisterAttempts: 1})
	ctx := context.Background()

	if d := l.AllowLogin(ctx, "10.0.0.1"); !d.Allowed {
		t.Fatal("first login for ip 1 denied")
	}
	if d := l.AllowLogin(ctx, "10.0.0.1"); d.Allowed {
		t.Fatal("second login for ip 1 allowed")
	}
	// Other IPs and other operations keep their own windows.
	if d := l.AllowLogin(ctx, "10.0.0.2"); !d.Allowed {
		t.Error("login for ip 2 denied")
	}
	if d := l.AllowRegister(ctx, "10.0.0.1"); !d.Allowed {
		t.Error("register for ip 1 denied")
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewLimiter(rdb, Config{Window: 50 * time.Millisecond, LoginAttempts: 2})
	ctx := context.Background()

	l.AllowLogin(ctx, "10.0.0.1")
	l.AllowLogin(ctx, "10.0.0.1")
	if d := l.AllowLogin(ctx, "10.0.0.1"); d.Allowed {
		t.Fatal("third attempt inside window allowed")
	}

	time.Sleep(60 * time.Millisecond)

	if d := l.AllowLogin(ctx, "10.0.0.1"); !d.Allowed {
		t.Fatal("attempt after window elapsed denied")
	}
}

func TestLimiterFailsOpenOnStoreError(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLimiter(rdb, Config{Window: time.Minute, LoginAttempts: 2})
	ctx := context.Background()

	mr.Close()

	d := l.AllowLogin(ctx, "10.0.0.1")
	if !d.Allowed {
		t.Fatal("expected allowed when store is down")
	}
	if d.Remaining != 2 {
		t.Errorf("Remaining = %d, want full limit 2", d.Remaining)
	}
}

func TestLimiterDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	if cfg.KeyPrefix != "auth" || cfg.Window != time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.LoginAttempts != 5 || cfg.RegisterAttempts != 3 || cfg.RefreshAttempts != 10 || cfg.PasswordChangeAttempts != 5 {
		t.Errorf("unexpected threshold defaults: %+v", cfg)
	}
}
