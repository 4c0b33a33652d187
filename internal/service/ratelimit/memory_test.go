package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiterQuotaExhaustion(t *testing.T) {
	limiter := NewMemoryLimiter(time.Hour, 2, 2*time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Acquire(ctx, "acc-1", 1)
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("acquire %d should succeed within quota", i)
		}
	}

	allowed, err := limiter.Acquire(ctx, "acc-1", 1)
	if err != nil {
		t.Fatalf("acquire over quota: %v", err)
	}
	if allowed {
		t.Fatal("acquire over quota should fail")
	}

	// another account has its own quota
	allowed, err = limiter.Acquire(ctx, "acc-2", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !allowed {
		t.Fatal("different account should not share quota")
	}
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	limiter := NewMemoryLimiter(time.Hour, 2, 2*time.Hour)
	ctx := context.Background()

	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if allowed, _ := limiter.Acquire(ctx, "acc-1", 1); !allowed {
			t.Fatalf("acquire %d should succeed", i)
		}
	}

	if allowed, _ := limiter.Acquire(ctx, "acc-1", 1); allowed {
		t.Fatal("quota should be exhausted inside the window")
	}

	now = now.Add(61 * time.Minute)

	if allowed, _ := limiter.Acquire(ctx, "acc-1", 1); !allowed {
		t.Fatal("quota should reset after the window elapses")
	}
}

func TestMemoryLimiterConcurrentAcquire(t *testing.T) {
	const quota = 2
	const attempts = 50

	limiter := NewMemoryLimiter(time.Hour, quota, 2*time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := limiter.Acquire(ctx, "acc-1", 1)
			if err != nil {
				t.Error(err)
				return
			}
			if allowed {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != quota {
		t.Fatalf("expected exactly %d successful acquisitions; got %d", quota, succeeded)
	}
}

func TestMemoryLimiterEviction(t *testing.T) {
	limiter := NewMemoryLimiter(time.Hour, 2, 2*time.Hour)
	ctx := context.Background()

	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if allowed, _ := limiter.Acquire(ctx, "acc-idle", 1); !allowed {
		t.Fatal("first acquire should succeed")
	}

	now = now.Add(3 * time.Hour)
	if evicted := limiter.evictIdle(); evicted != 1 {
		t.Fatalf("expected 1 evicted entry; got %d", evicted)
	}

	limiter.mu.Lock()
	_, exists := limiter.entries["acc-idle"]
	limiter.mu.Unlock()
	if exists {
		t.Fatal("idle entry should have been removed")
	}

	// a fresh entry gets a full quota again
	if allowed, _ := limiter.Acquire(ctx, "acc-idle", 1); !allowed {
		t.Fatal("acquire after eviction should succeed")
	}
}

// An eviction sweep landing between the registry lookup and the entry lock
// must not let an acquire consume on the removed entry, or the replacement
// entry would hand out a second full quota in the same window.
func TestMemoryLimiterEvictionDuringAcquireKeepsQuota(t *testing.T) {
	const quota = 2

	limiter := NewMemoryLimiter(time.Hour, quota, 2*time.Hour)
	ctx := context.Background()

	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if allowed, _ := limiter.Acquire(ctx, "acc-1", 1); !allowed {
		t.Fatal("seed acquire should succeed")
	}

	// Idle past the TTL, then arm the clock so the sweep fires inside the
	// next Acquire, after it has fetched the entry but before it locks it.
	now = now.Add(3 * time.Hour)
	armed := true
	sweeping := false
	limiter.now = func() time.Time {
		if armed && !sweeping {
			armed = false
			sweeping = true
			limiter.evictIdle()
			sweeping = false
		}
		return now
	}

	succeeded := 0
	for i := 0; i < quota+1; i++ {
		allowed, err := limiter.Acquire(ctx, "acc-1", 1)
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		if allowed {
			succeeded++
		}
	}

	if succeeded != quota {
		t.Fatalf("expected exactly %d successful acquisitions in the window; got %d", quota, succeeded)
	}
}
