package segment

import (
	"fmt"
	"sync"
)

// Generator hands out segment IDs numbered per session.
type Generator struct {
	mu       sync.Mutex
	counters map[string]uint64
}

func New() *Generator {
	return &Generator{counters: make(map[string]uint64)}
}

// Next returns the next ID for sessionId, e.g. "abc-seg-3".
func (g *Generator) Next(sessionId string) string {
	g.mu.Lock()
	g.counters[sessionId]++
	n := g.counters[sessionId]
	g.mu.Unlock()
	return fmt.Sprintf("%s-seg-%d", sessionId, n)
}

// Count returns how many IDs were issued for sessionId.
func (g *Generator) Count(sessionId string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counters[sessionId]
}

// Forget drops the counter of a finished session.
func (g *Generator) Forget(sessionId string) {
	g.mu.Lock()
	delete(g.counters, sessionId)
	g.mu.Unlock()
}
