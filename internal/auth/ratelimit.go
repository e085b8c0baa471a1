package auth

import (
	"sync"
	"time"
)

// LoginLimiter throttles failed login attempts per IP+login combination
// using a sliding window with a lockout once the limit is hit.
type LoginLimiter struct {
	mu              sync.RWMutex
	attempts        map[string]*loginAttempts
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	stopCleanup     chan struct{}
}

type loginAttempts struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// NewLoginLimiter creates a limiter allowing maxAttempts failures within
// window before locking the IP+login pair out for lockout. A background
// goroutine prunes expired records; call Stop to release it.
func NewLoginLimiter(maxAttempts int, window, lockout time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if lockout <= 0 {
		lockout = 30 * time.Minute
	}

	ll := &LoginLimiter{
		attempts:        make(map[string]*loginAttempts),
		maxAttempts:     maxAttempts,
		windowDuration:  window,
		lockoutDuration: lockout,
		stopCleanup:     make(chan struct{}),
	}
	go ll.cleanupLoop()
	return ll
}

// Stop stops the background cleanup goroutine.
func (ll *LoginLimiter) Stop() {
	close(ll.stopCleanup)
}

// Allow reports whether a login attempt for this IP+login pair may proceed.
// When locked out, retryAfter says how long until the lockout expires.
func (ll *LoginLimiter) Allow(ip, login string) (allowed bool, retryAfter time.Duration) {
	now := time.Now()

	ll.mu.RLock()
	record, exists := ll.attempts[ip+":"+login]
	ll.mu.RUnlock()

	if !exists {
		return true, 0
	}
	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > ll.windowDuration {
		return true, 0
	}
	if record.count < ll.maxAttempts {
		return true, 0
	}
	return false, ll.lockoutDuration
}

// RecordFailure records a failed login attempt.
func (ll *LoginLimiter) RecordFailure(ip, login string) {
	key := ip + ":" + login
	now := time.Now()

	ll.mu.Lock()
	defer ll.mu.Unlock()

	record, exists := ll.attempts[key]
	if !exists {
		record = &loginAttempts{firstAttempt: now}
		ll.attempts[key] = record
	}

	if now.Sub(record.firstAttempt) > ll.windowDuration {
		record.count = 0
		record.firstAttempt = now
		record.lockedUntil = time.Time{}
	}

	record.count++
	if record.count >= ll.maxAttempts {
		record.lockedUntil = now.Add(ll.lockoutDuration)
	}
}

// RecordSuccess clears the failure record after a successful login.
func (ll *LoginLimiter) RecordSuccess(ip, login string) {
	ll.mu.Lock()
	delete(ll.attempts, ip+":"+login)
	ll.mu.Unlock()
}

func (ll *LoginLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ll.cleanup()
		case <-ll.stopCleanup:
			return
		}
	}
}

func (ll *LoginLimiter) cleanup() {
	now := time.Now()
	expiry := ll.windowDuration + ll.lockoutDuration

	ll.mu.Lock()
	defer ll.mu.Unlock()

	for key, record := range ll.attempts {
		windowExpired := now.Sub(record.firstAttempt) > expiry
		lockoutExpired := record.lockedUntil.IsZero() || now.After(record.lockedUntil)
		if windowExpired && lockoutExpired {
			delete(ll.attempts, key)
		}
	}
}
