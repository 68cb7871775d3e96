package chat

import "sync"

// threadGuard serializes generation per thread. A thread admits at most
// one in-flight turn; a second caller is rejected rather than queued so
// clients get an immediate conflict instead of an unbounded wait.
//
// All methods are safe for concurrent access.
type threadGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newThreadGuard() *threadGuard {
	return &threadGuard{
		active: make(map[string]struct{}),
	}
}

// TryBegin marks the thread as generating. Returns false if a
// generation is already in flight for it.
func (g *threadGuard) TryBegin(threadID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[threadID]; busy {
		return false
	}
	g.active[threadID] = struct{}{}
	return true
}

// End releases the thread. Called when the turn finishes, successfully
// or not.
func (g *threadGuard) End(threadID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, threadID)
}
