package notifier

import (
	"sync"
	"time"
)

// RateLimitConfig bounds how many alert dispatches may start per window.
type RateLimitConfig struct {
	MaxPerWindow int
	Window       time.Duration
	Enabled      bool
}

// DefaultRateLimitConfig returns the default limit: 30 dispatches per minute.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxPerWindow: 30,
		Window:       time.Minute,
		Enabled:      true,
	}
}

// RateLimiter is a sliding-window limiter over dispatch starts. A consumed
// token can be refunded with Release when the dispatch produced no delivery
// attempts, so empty fan-outs do not starve real ones.
type RateLimiter struct {
	mu           sync.Mutex
	maxPerWindow int
	window       time.Duration
	starts       []time.Time
	dropped      int64
	enabled      bool
}

// NewRateLimiter creates a limiter; zero or negative config fields fall back
// to the defaults.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.MaxPerWindow <= 0 {
		config.MaxPerWindow = DefaultRateLimitConfig().MaxPerWindow
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimitConfig().Window
	}
	return &RateLimiter{
		maxPerWindow: config.MaxPerWindow,
		window:       config.Window,
		starts:       make([]time.Time, 0, config.MaxPerWindow),
		enabled:      config.Enabled,
	}
}

// Allow consumes a token if one is available in the current window.
func (r *RateLimiter) Allow() bool {
	if !r.enabled {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.expire(now.Add(-r.window))

	if len(r.starts) >= r.maxPerWindow {
		r.dropped++
		return false
	}

	r.starts = append(r.starts, now)
	return true
}

// Release refunds the most recently consumed token.
func (r *RateLimiter) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.starts); n > 0 {
		r.starts = r.starts[:n-1]
	}
}

// InWindow returns how many tokens are currently consumed.
func (r *RateLimiter) InWindow() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expire(time.Now().Add(-r.window))
	return len(r.starts)
}

// Dropped returns how many dispatches were rejected so far.
func (r *RateLimiter) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// expire drops starts older than cutoff. Caller holds the mutex.
func (r *RateLimiter) expire(cutoff time.Time) {
	i := 0
	for i < len(r.starts) && r.starts[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		copy(r.starts, r.starts[i:])
		r.starts = r.starts[:len(r.starts)-i]
	}
}
