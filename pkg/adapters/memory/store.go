// Package memory provides in-memory document stores and loaders, for tests
// and single-process hosts.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// Store implements ports.DocumentStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Element
	mu   sync.RWMutex
}

var _ ports.DocumentStore = (*Store)(nil)

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Element),
	}
}

// Save persists a copy of the description. Callbacks are dropped, as any
// serializing store would.
func (s *Store) Save(ctx context.Context, id string, doc domain.Element) error {
	copied := detach(doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = copied
	return nil
}

// Load retrieves a copy of the description.
func (s *Store) Load(ctx context.Context, id string) (domain.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[id]
	if !ok {
		return domain.Element{}, domain.ErrDocumentNotFound
	}
	// Copy on read so callers cannot mutate stored props.
	return doc.Clone(), nil
}

// Delete removes the description.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// detach deep-copies e without its function fields.
func detach(e domain.Element) domain.Element {
	out := e.Clone()
	var strip func(*domain.Element)
	strip = func(el *domain.Element) {
		el.OnRender = nil
		el.Paint = nil
		for i := range el.Children {
			strip(&el.Children[i])
		}
	}
	strip(&out)
	return out
}
