package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/schema"
)

// Loader implements ports.DocumentLoader over a fixed set of descriptions.
type Loader struct {
	docs map[string]domain.Element
}

var _ ports.DocumentLoader = (*Loader)(nil)

// NewLoader parses raw YAML (or JSON) descriptions keyed by ID.
func NewLoader(data map[string]string) (*Loader, error) {
	docs := make(map[string]domain.Element, len(data))
	for id, raw := range data {
		doc, err := schema.Parse([]byte(raw), schema.FormatYAML)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		docs[id] = doc
	}
	return &Loader{docs: docs}, nil
}

// NewFromElements creates a Loader from descriptions built in code.
// Callbacks on the descriptions are kept.
func NewFromElements(docs map[string]domain.Element) *Loader {
	l := &Loader{docs: make(map[string]domain.Element, len(docs))}
	for id, doc := range docs {
		l.docs[id] = doc.Clone()
	}
	return l
}

// Load returns a copy of the description identified by id.
func (l *Loader) Load(ctx context.Context, id string) (domain.Element, error) {
	doc, ok := l.docs[id]
	if !ok {
		return domain.Element{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return doc.Clone(), nil
}

// IDs returns all available document IDs.
func (l *Loader) IDs() []string {
	ids := make([]string, 0, len(l.docs))
	for id := range l.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids
}
