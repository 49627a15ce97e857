package screenshot

import (
	"context"
	"sync"
	"time"
)

// idleTracker counts in-flight network requests so capture can wait for the
// page to go quiet.
type idleTracker struct {
	mu         sync.Mutex
	inflight   map[string]struct{}
	lastChange time.Time
	now        func() time.Time
	poll       time.Duration
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight:   make(map[string]struct{}),
		lastChange: time.Now(),
		now:        time.Now,
		poll:       25 * time.Millisecond,
	}
}

func (t *idleTracker) started(id string) {
	t.mu.Lock()
	t.inflight[id] = struct{}{}
	t.lastChange = t.now()
	t.mu.Unlock()
}

func (t *idleTracker) finished(id string) {
	t.mu.Lock()
	if _, ok := t.inflight[id]; ok {
		delete(t.inflight, id)
		t.lastChange = t.now()
	}
	t.mu.Unlock()
}

func (t *idleTracker) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

func (t *idleTracker) quietFor() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) > 0 {
		return 0
	}
	return t.now().Sub(t.lastChange)
}

// waitIdle returns true once nothing has been in flight for window, or false
// when ceiling elapses first. Reaching the ceiling is not an error.
func (t *idleTracker) waitIdle(ctx context.Context, window, ceiling time.Duration) bool {
	deadline := time.NewTimer(ceiling)
	defer deadline.Stop()
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		if t.quietFor() >= window {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
}
