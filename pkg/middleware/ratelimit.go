package middleware

import (
	"context"
	"sync"
	"time"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max attempts allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the fixed window length
	WindowDuration time.Duration
}

// LoginRateLimitConfig returns the per-email login attempt limit
func LoginRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
	}
}

// Limiter counts attempts per key
type Limiter interface {
	// Allow consumes one attempt for key and reports whether it is within the limit
	Allow(ctx context.Context, key string) (bool, error)
	// Config returns the limit being enforced
	Config() *RateLimitConfig
}

// RateLimiter is an in-process fixed-window limiter for single-instance
// deployments and tests
type RateLimiter struct {
	config  *RateLimitConfig
	windows map[string]*window
	now     func() time.Time
	mu      sync.Mutex
}

type window struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = LoginRateLimitConfig()
	}
	return &RateLimiter{
		config:  config,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Config returns the limit being enforced
func (rl *RateLimiter) Config() *RateLimitConfig {
	return rl.config
}

// Allow checks if an attempt is allowed for the given key
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(rl.config.WindowDuration)}
		rl.windows[key] = w
	}
	w.count++
	return w.count <= rl.config.RequestsPerWindow, nil
}

// Remaining returns the attempts left in the current window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !rl.now().Before(w.resetAt) {
		return rl.config.RequestsPerWindow
	}
	if remaining := rl.config.RequestsPerWindow - w.count; remaining > 0 {
		return remaining
	}
	return 0
}

// Cleanup removes expired windows
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

// StartCleanup removes expired windows every window length until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.config.WindowDuration)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}
