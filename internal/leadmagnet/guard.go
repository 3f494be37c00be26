package leadmagnet

import (
	"sync"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultWindow      = time.Minute
	pruneThreshold     = 4096
)

// Guard counts accepted submissions per client. A client is blocked once it
// has MaxAttempts attempts and the latest is inside the window; the count
// starts over once a full window has passed since the latest attempt.
type Guard struct {
	mu          sync.Mutex
	clients     map[string]*attempts
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

type attempts struct {
	count int
	last  time.Time
}

func NewGuard(maxAttempts int, window time.Duration) *Guard {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{
		clients:     make(map[string]*attempts),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Allow reports whether key may submit now.
func (g *Guard) Allow(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.clients[key]
	if !ok {
		return true
	}
	since := g.now().Sub(a.last)
	if a.count >= g.maxAttempts && since < g.window {
		return false
	}
	if since > g.window {
		a.count = 0
	}
	return true
}

// Record counts one submission attempt for key.
func (g *Guard) Record(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if len(g.clients) >= pruneThreshold {
		g.prune(now)
	}
	a, ok := g.clients[key]
	if !ok {
		a = &attempts{}
		g.clients[key] = a
	}
	a.count++
	a.last = now
}

func (g *Guard) prune(now time.Time) {
	for key, a := range g.clients {
		if now.Sub(a.last) > g.window {
			delete(g.clients, key)
		}
	}
}
