// Package dedupe remembers which events have already been processed so that a
// redelivered event is handled at most once.
package dedupe

import (
	"context"
	"sync"
	"time"
)

// Guard records event keys.
type Guard interface {
	// FirstSeen marks key as seen and reports whether it was new.
	FirstSeen(ctx context.Context, key string) (bool, error)
}

// MemoryGuard is a process-local Guard used when no Redis is configured.
// Keys expire after the configured TTL.
type MemoryGuard struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryGuard creates a MemoryGuard. A ttl <= 0 keeps keys forever.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

// FirstSeen implements Guard.
func (g *MemoryGuard) FirstSeen(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.ttl > 0 {
		for k, expires := range g.seen {
			if !now.Before(expires) {
				delete(g.seen, k)
			}
		}
	}
	if _, ok := g.seen[key]; ok {
		return false, nil
	}

	expires := time.Time{}
	if g.ttl > 0 {
		expires = now.Add(g.ttl)
	}
	g.seen[key] = expires
	return true, nil
}
