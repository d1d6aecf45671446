package rate

import (
	"context"
	"testing"
	"time"
)

func TestLockoutLocksAtThreshold(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLockout(rdb, LockoutConfig{Threshold: 3, Duration: 15 * time.Minute})
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		count, locked, err := l.RecordFailure(ctx, "user-1")
		if err != nil {
			t.Fatalf("RecordFailure %d: %v", i, err)
		}
		if count != int64(i) || locked {
			t.Fatalf("RecordFailure %d: count=%d locked=%v", i, count, locked)
		}
	}

	count, locked, err := l.RecordFailure(ctx, "user-1")
	if err != nil {
		t.Fatalf("RecordFailure 3: %v", err)
	}
	if count != 3 || !locked {
		t.Fatalf("RecordFailure 3: count=%d locked=%v, want 3 true", count, locked)
	}

	if ttl := mr.TTL("auth:locked:user-1"); ttl != 15*time.Minute {
		t.Errorf("lock TTL = %v, want 15m", ttl)
	}

	isLocked, remaining, err := l.IsLocked(ctx, "user-1")
	if err != nil {
		t.Fatalf("IsLocked: %v", err)
	}
	if !isLocked {
		t.Fatal("expected locked")
	}
	if remaining <= 0 || remaining > 15*60 {
		t.Errorf("remaining = %d, want within (0, 900]", remaining)
	}
}

func TestLockoutClearWhenNoFlag(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewLockout(rdb, LockoutConfig{})
	locked, remaining, err := l.IsLocked(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("IsLocked: %v", err)
	}
	if locked || remaining != 0 {
		t.Errorf("IsLocked = (%v, %d), want (false, 0)", locked, remaining)
	}
}

func TestLockoutFlagWithoutExpiryCountsFullDuration(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLockout(rdb, LockoutConfig{Duration: 15 * time.Minute})

	// A flag with no TTL should never read as unlocked.
	if err := mr.Set("auth:locked:user-1", "locked"); err != nil {
		t.Fatal(err)
	}

	locked, remaining, err := l.IsLocked(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("IsLocked: %v", err)
	}
	if !locked || remaining != 15*60 {
		t.Errorf("IsLocked = (%v, %d), want (true, 900)", locked, remaining)
	}
}

func TestLockoutFlagExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLockout(rdb, LockoutConfig{Threshold: 1, Duration: time.Minute})
	ctx := context.Background()

	if _, locked, err := l.RecordFailure(ctx, "user-1"); err != nil || !locked {
		t.Fatalf("RecordFailure: locked=%v err=%v", locked, err)
	}

	mr.FastForward(2 * time.Minute)

	locked, _, err := l.IsLocked(ctx, "user-1")
	if err != nil {
		t.Fatalf("IsLocked: %v", err)
	}
	if locked {
		t.Error("expected lock to expire")
	}
}

func TestLockoutResetClearsCounter(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLockout(rdb, LockoutConfig{Threshold: 3})
	ctx := context.Background()

	l.RecordFailure(ctx, "user-1")
	l.RecordFailure(ctx, "user-1")
	if err := l.Reset(ctx, "user-1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if mr.Exists("auth:failed_login:user-1") {
		t.Fatal("counter key still present after reset")
	}

	// The count starts over.
	count, locked, err := l.RecordFailure(ctx, "user-1")
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if count != 1 || locked {
		t.Errorf("RecordFailure after reset: count=%d locked=%v", count, locked)
	}
}

func TestLockoutStoreErrorSurfaces(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLockout(rdb, LockoutConfig{})
	mr.Close()

	if _, _, err := l.RecordFailure(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error when store is down")
	}
	if _, _, err := l.IsLocked(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error when store is down")
	}
}
