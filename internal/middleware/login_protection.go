// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginProtection combines per-IP rate limiting with per-account
// lockout for the sign-in endpoint.
type LoginProtection struct {
	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
	ipRate     rate.Limit
	ipBurst    int

	attemptsMu sync.RWMutex
	attempts   map[string]*loginAttempt

	maxFailures     int
	lockoutDuration time.Duration
	attemptWindow   time.Duration
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds the protection parameters.
type LoginProtectionConfig struct {
	IPRateLimit     float64
	IPBurst         int
	MaxFailures     int
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
}

// DefaultLoginProtectionConfig returns sensible defaults: one request
// per two seconds per IP, lockout after five failures in fifteen
// minutes.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:     0.5,
		IPBurst:         5,
		MaxFailures:     5,
		LockoutDuration: 15 * time.Minute,
		AttemptWindow:   15 * time.Minute,
	}
}

// NewLoginProtection creates a LoginProtection, backfilling zero
// config values with the defaults.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}

	return &LoginProtection{
		limiters:        make(map[string]*rate.Limiter),
		ipRate:          rate.Limit(cfg.IPRateLimit),
		ipBurst:         cfg.IPBurst,
		attempts:        make(map[string]*loginAttempt),
		maxFailures:     cfg.MaxFailures,
		lockoutDuration: cfg.LockoutDuration,
		attemptWindow:   cfg.AttemptWindow,
	}
}

// AllowIP reports whether a sign-in request from ip is within the
// rate limit.
func (lp *LoginProtection) AllowIP(ip string) bool {
	lp.limitersMu.Lock()
	limiter, ok := lp.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(lp.ipRate, lp.ipBurst)
		lp.limiters[ip] = limiter
	}
	lp.limitersMu.Unlock()
	return limiter.Allow()
}

// IsLocked reports whether the account is locked and for how much
// longer.
func (lp *LoginProtection) IsLocked(email string) (bool, time.Duration) {
	lp.attemptsMu.RLock()
	attempt, ok := lp.attempts[email]
	lp.attemptsMu.RUnlock()

	if !ok {
		return false, 0
	}
	if time.Now().Before(attempt.lockedUntil) {
		return true, time.Until(attempt.lockedUntil)
	}
	return false, 0
}

// RecordFailure records a failed sign-in. When the failure count
// reaches the limit the account locks, doubling the duration on each
// repeat lockout up to 24 hours.
func (lp *LoginProtection) RecordFailure(email string) (locked bool, lockFor time.Duration) {
	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()

	now := time.Now()
	attempt, ok := lp.attempts[email]
	if !ok || now.Sub(attempt.firstFailed) > lp.attemptWindow {
		lp.attempts[email] = &loginAttempt{count: 1, firstFailed: now, lockouts: lockoutsOf(attempt)}
		return false, 0
	}

	attempt.count++
	if attempt.count < lp.maxFailures {
		return false, 0
	}

	lockFor = lp.lockoutDuration
	for i := 0; i < attempt.lockouts; i++ {
		lockFor *= 2
		if lockFor > 24*time.Hour {
			lockFor = 24 * time.Hour
			break
		}
	}
	attempt.lockedUntil = now.Add(lockFor)
	attempt.lockouts++
	attempt.count = 0

	slog.Warn("account locked after repeated sign-in failures",
		"email", email,
		"lockouts", attempt.lockouts,
		"duration", lockFor,
	)
	return true, lockFor
}

// RecordSuccess clears failure tracking for the account.
func (lp *LoginProtection) RecordSuccess(email string) {
	lp.attemptsMu.Lock()
	delete(lp.attempts, email)
	lp.attemptsMu.Unlock()
}

func lockoutsOf(attempt *loginAttempt) int {
	if attempt == nil {
		return 0
	}
	return attempt.lockouts
}
