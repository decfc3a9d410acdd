package middleware

import (
	"testing"
	"time"
)

func testProtection() *LoginProtection {
	return NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:     100,
		IPBurst:         2,
		MaxFailures:     3,
		LockoutDuration: time.Minute,
		AttemptWindow:   time.Minute,
	})
}

func TestLoginProtection_IPRateLimit(t *testing.T) {
	lp := testProtection()

	if !lp.AllowIP("10.0.0.1") || !lp.AllowIP("10.0.0.1") {
		t.Fatal("burst requests rejected")
	}
	if lp.AllowIP("10.0.0.1") {
		t.Error("request above burst allowed")
	}
	// Other IPs are unaffected.
	if !lp.AllowIP("10.0.0.2") {
		t.Error("separate IP shares a limiter")
	}
}

func TestLoginProtection_LockoutAfterFailures(t *testing.T) {
	lp := testProtection()
	email := "admin@propcrest.ng"

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailure(email); locked {
			t.Fatalf("locked after %d failures", i+1)
		}
	}
	locked, lockFor := lp.RecordFailure(email)
	if !locked {
		t.Fatal("not locked after reaching the failure limit")
	}
	if lockFor != time.Minute {
		t.Errorf("first lockout = %v, want 1m", lockFor)
	}

	isLocked, remaining := lp.IsLocked(email)
	if !isLocked || remaining <= 0 {
		t.Errorf("IsLocked = %v, %v", isLocked, remaining)
	}
}

func TestLoginProtection_SuccessClearsFailures(t *testing.T) {
	lp := testProtection()
	email := "admin@propcrest.ng"

	lp.RecordFailure(email)
	lp.RecordFailure(email)
	lp.RecordSuccess(email)

	// The counter starts over.
	if locked, _ := lp.RecordFailure(email); locked {
		t.Error("locked despite cleared history")
	}
	if isLocked, _ := lp.IsLocked(email); isLocked {
		t.Error("IsLocked after success")
	}
}

func TestLoginProtection_RepeatLockoutsBackOff(t *testing.T) {
	lp := testProtection()
	email := "admin@propcrest.ng"

	lockout := func() time.Duration {
		t.Helper()
		for {
			if locked, d := lp.RecordFailure(email); locked {
				return d
			}
		}
	}

	first := lockout()
	// Simulate the first lockout elapsing.
	lp.attemptsMu.Lock()
	lp.attempts[email].lockedUntil = time.Now().Add(-time.Second)
	lp.attemptsMu.Unlock()

	second := lockout()
	if second != 2*first {
		t.Errorf("second lockout = %v, want %v", second, 2*first)
	}
}

func TestLoginProtection_UnknownAccountNotLocked(t *testing.T) {
	lp := testProtection()
	if locked, _ := lp.IsLocked("nobody@example.com"); locked {
		t.Error("unknown account reported locked")
	}
}
