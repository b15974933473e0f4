// Package ratelimit guards the public HTTP endpoints with a per-client
// request quota.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	BackendLocal    = "local"
	BackendPostgres = "postgres"

	// maxTrackedKeys caps the local key map so rotating source IPs cannot
	// exhaust memory.
	maxTrackedKeys = 4096
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Config struct {
	Requests int
	Window   time.Duration
}

func (c Config) Validate() error {
	if c.Requests <= 0 {
		return fmt.Errorf("rate limit requests must be positive, got %d", c.Requests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.Window)
	}
	return nil
}

type localEntry struct {
	windowStart time.Time
	hits        int
}

// Local is an in-process fixed window counter per key. Windows are aligned to
// Window boundaries, the same way Postgres aligns them, so both backends
// reject the N+1-th request of a window.
type Local struct {
	cfg Config
	now func() time.Time

	// sweep drops idle keys at most once per window.
	sweep rate.Sometimes

	mu      sync.Mutex
	entries map[string]*localEntry
}

func NewLocal(cfg Config) *Local {
	return &Local{
		cfg:     cfg,
		now:     time.Now,
		sweep:   rate.Sometimes{Interval: cfg.Window},
		entries: make(map[string]*localEntry),
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Truncate(l.cfg.Window)

	l.sweep.Do(func() { l.dropStale(windowStart) })

	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= maxTrackedKeys {
			l.evict(windowStart)
		}
		e = &localEntry{windowStart: windowStart}
		l.entries[key] = e
	}
	if e.windowStart.Before(windowStart) {
		e.windowStart = windowStart
		e.hits = 0
	}

	e.hits++
	return e.hits <= l.cfg.Requests, nil
}

// dropStale forgets keys whose window has ended; their next request starts a
// fresh count anyway.
func (l *Local) dropStale(current time.Time) {
	for k, e := range l.entries {
		if e.windowStart.Before(current) {
			delete(l.entries, k)
		}
	}
}

// evict makes room for a new key, dropping stale keys first and arbitrary
// ones past the cap.
func (l *Local) evict(current time.Time) {
	l.dropStale(current)
	for k := range l.entries {
		if len(l.entries) < maxTrackedKeys {
			break
		}
		delete(l.entries, k)
	}
}
