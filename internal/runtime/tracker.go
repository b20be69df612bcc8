package runtime

import (
	"errors"
	"io"
	"sync"
)

// Tracker holds the live stream handles a session has handed out, so they
// can be released when the session is destroyed.
type Tracker struct {
	mu      sync.Mutex
	handles map[uint64]io.Closer
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{handles: make(map[uint64]io.Closer)}
}

// Add registers h under the pass ID.
func (t *Tracker) Add(id uint64, h io.Closer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handles[id] = h
}

// Remove forgets the handle for id.
func (t *Tracker) Remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handles, id)
}

// Len returns the number of open handles.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

// CloseAll closes and forgets every handle. Handles are closed outside the
// lock because Close usually calls Remove.
func (t *Tracker) CloseAll() error {
	t.mu.Lock()
	open := make([]io.Closer, 0, len(t.handles))
	for id, h := range t.handles {
		open = append(open, h)
		delete(t.handles, id)
	}
	t.mu.Unlock()

	var errs []error
	for _, h := range open {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
