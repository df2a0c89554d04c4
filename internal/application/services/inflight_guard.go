package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
)

// InFlightGuard prevents duplicate submission of the same action while one is pending
type InFlightGuard interface {
	// Acquire returns ok=false when key is already held
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// InFlightKey scopes the guard to one action type on one screen
func InFlightKey(screen *Screen, action entities.Action) string {
	return fmt.Sprintf("inflight:%s:%s:%s", screen.SessionID, screen.Role, action)
}

// MemoryInFlightGuard is a process-local guard
type MemoryInFlightGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryInFlightGuard creates an empty guard
func NewMemoryInFlightGuard() *MemoryInFlightGuard {
	return &MemoryInFlightGuard{held: make(map[string]struct{})}
}

// Acquire implements InFlightGuard
func (g *MemoryInFlightGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, false, nil
	}
	g.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true, nil
}

// CacheInFlightGuard shares the guard across instances through the cache.
// Markers expire after ttl so a crashed request cannot block an action forever.
type CacheInFlightGuard struct {
	cache providers.CacheProvider
	ttl   time.Duration
}

// NewCacheInFlightGuard creates a cache-backed guard
func NewCacheInFlightGuard(cache providers.CacheProvider, ttl time.Duration) *CacheInFlightGuard {
	if ttl < time.Second {
		ttl = time.Second
	}
	return &CacheInFlightGuard{cache: cache, ttl: ttl}
}

// Acquire implements InFlightGuard
func (g *CacheInFlightGuard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	ok, err := g.cache.SetIfAbsent(ctx, key, []byte("1"), int(g.ttl/time.Second))
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire in-flight marker: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be cancelled
			_ = g.cache.Delete(context.WithoutCancel(ctx), key)
		})
	}, true, nil
}
