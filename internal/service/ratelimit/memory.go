package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MemoryLimiter keeps one fixed-window counter per account key, created
// lazily on first use. Entries idle for longer than idleTTL are evicted by
// a background sweep so the registry does not grow without bound.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*accountWindow

	window  time.Duration
	limit   int64
	idleTTL time.Duration
	now     func() time.Time
}

type accountWindow struct {
	mu          sync.Mutex
	windowStart time.Time
	used        int64
	lastSeen    time.Time
	evicted     bool
}

func NewMemoryLimiter(window time.Duration, limit int64, idleTTL time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultMaxRequests
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if idleTTL < window {
		idleTTL = window
	}

	return &MemoryLimiter{
		entries: make(map[string]*accountWindow),
		window:  window,
		limit:   limit,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Acquire(ctx context.Context, accountID string, permits int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if permits <= 0 {
		permits = 1
	}

	entry := l.getOrCreate(accountID)
	now := l.now()

	entry.mu.Lock()
	// The sweep may have removed this entry between the registry lookup and
	// taking its lock. Consuming on the orphan would let a fresh entry hand
	// out a second full quota, so re-fetch the registered one instead.
	for entry.evicted {
		entry.mu.Unlock()
		entry = l.getOrCreate(accountID)
		entry.mu.Lock()
	}
	defer entry.mu.Unlock()

	if now.Sub(entry.windowStart) >= l.window {
		entry.windowStart = now
		entry.used = 0
	}
	entry.lastSeen = now

	if entry.used+permits > l.limit {
		return false, nil
	}

	entry.used += permits

	return true, nil
}

func (l *MemoryLimiter) getOrCreate(accountID string) *accountWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[accountID]
	if !ok {
		entry = &accountWindow{windowStart: l.now(), lastSeen: l.now()}
		l.entries[accountID] = entry
	}

	return entry
}

// StartEviction sweeps idle account entries until the context is cancelled.
func (l *MemoryLimiter) StartEviction(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(l.window)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				evicted := l.evictIdle()
				if evicted > 0 {
					logrus.WithField("evicted", evicted).Debug("rate limiter entries evicted")
				}
			}
		}
	}()
}

func (l *MemoryLimiter) evictIdle() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for accountID, entry := range l.entries {
		entry.mu.Lock()
		if now.Sub(entry.lastSeen) > l.idleTTL {
			// Marked under the entry lock so an Acquire holding a stale
			// pointer sees the tombstone and re-fetches.
			entry.evicted = true
			delete(l.entries, accountID)
			evicted++
		}
		entry.mu.Unlock()
	}

	return evicted
}
