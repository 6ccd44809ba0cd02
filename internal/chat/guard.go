package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inflightEntry struct {
	token string
	since time.Time
}

// in-process InflightGuard. entries older than ttl are treated as
// abandoned and can be acquired again; a release only frees the slot it
// acquired.
type MemoryGuard struct {
	mu       sync.Mutex
	inflight map[string]inflightEntry
	ttl      time.Duration
	done     chan struct{}
	closed   bool
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	g := &MemoryGuard{
		inflight: make(map[string]inflightEntry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}

	go g.cleanupLoop()

	return g
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if entry, ok := g.inflight[key]; ok && now.Sub(entry.since) < g.ttl {
		return "", false, nil
	}

	token := uuid.NewString()
	g.inflight[key] = inflightEntry{token: token, since: now}

	return token, true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if entry, ok := g.inflight[key]; ok && entry.token == token {
		delete(g.inflight, key)
	}

	return nil
}

// stops the cleanup goroutine
func (g *MemoryGuard) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	g.closed = true
	close(g.done)

	return nil
}

func (g *MemoryGuard) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

func (g *MemoryGuard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, entry := range g.inflight {
		if now.Sub(entry.since) >= g.ttl {
			delete(g.inflight, key)
		}
	}
}
