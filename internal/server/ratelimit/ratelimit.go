// Package ratelimit provides per-client rate limiting using the token
// bucket algorithm.
package ratelimit

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Limit           int
	RefillPerSecond float64
	CleanupInterval time.Duration
}

// LoadConfig reads rate limit settings from the environment.
// RATE_LIMIT_ENABLED=false disables limiting entirely.
func LoadConfig() *Config {
	cfg := &Config{
		Enabled:         true,
		Limit:           60,
		RefillPerSecond: 1.0,
		CleanupInterval: 5 * time.Minute,
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = enabled
		}
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			cfg.Limit = limit
		}
	}
	return cfg
}

// Info describes the rate limit state returned with each decision.
type Info struct {
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

// Limiter manages token buckets keyed by client id.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	stop    chan struct{}
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup loop.
func NewLimiter(config *Config) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		config:  config,
		stop:    make(chan struct{}),
	}
	if config.Enabled {
		go l.cleanupLoop()
	}
	return l
}

// Allow reports whether the client may proceed, consuming one token when it
// can.
func (l *Limiter) Allow(clientID string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{tokens: float64(l.config.Limit), lastRefill: now}
		l.buckets[clientID] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(float64(l.config.Limit), b.tokens+elapsed*l.config.RefillPerSecond)
	b.lastRefill = now
	b.lastAccess = now

	info := Info{Limit: l.config.Limit}
	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		info.Remaining = int(b.tokens)
		info.ResetTime = refillTime(b.tokens, l.config, now)
		return true, info
	}

	wait := (1.0 - b.tokens) / l.config.RefillPerSecond
	info.RetryAfter = time.Duration(wait * float64(time.Second))
	info.ResetTime = refillTime(b.tokens, l.config, now)
	return false, info
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	if l.config.Enabled {
		close(l.stop)
	}
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-l.config.CleanupInterval)
			l.mu.Lock()
			for id, b := range l.buckets {
				if b.lastAccess.Before(cutoff) {
					delete(l.buckets, id)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

func refillTime(tokens float64, cfg *Config, now time.Time) time.Time {
	if tokens >= float64(cfg.Limit) {
		return now
	}
	needed := float64(cfg.Limit) - tokens
	return now.Add(time.Duration(needed / cfg.RefillPerSecond * float64(time.Second)))
}
