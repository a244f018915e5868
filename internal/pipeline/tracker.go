package pipeline

import (
	"sync"
	"time"
)

// Tracker deduplicates filesystem events. A path is accepted when it is not
// already queued or in flight and its last acceptance is older than the
// debounce window. Release must be called exactly once per accepted path,
// after processing finishes, so a later change to the same file can be
// picked up again.
type Tracker struct {
	mu           sync.Mutex
	debounce     time.Duration
	pending      map[string]struct{}
	lastAccepted map[string]time.Time
}

// NewTracker creates a tracker with the given debounce window.
func NewTracker(debounce time.Duration) *Tracker {
	return &Tracker{
		debounce:     debounce,
		pending:      map[string]struct{}{},
		lastAccepted: map[string]time.Time{},
	}
}

// Accept reports whether the path should be enqueued now. An accepted path
// stays pending until Release.
func (t *Tracker) Accept(path string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, inFlight := t.pending[path]; inFlight {
		return false
	}
	if last, seen := t.lastAccepted[path]; seen && now.Sub(last) < t.debounce {
		return false
	}
	t.pending[path] = struct{}{}
	t.lastAccepted[path] = now
	return true
}

// Release marks the path as no longer in flight.
func (t *Tracker) Release(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, path)
}

// Pending returns how many paths are queued or in flight.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
