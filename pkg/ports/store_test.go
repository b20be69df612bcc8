package ports_test

import (
	"context"
	"sort"
	"testing"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// MockStore is a map-backed DocumentStore used to exercise the contract suite itself.
type MockStore struct {
	data map[string]domain.Element
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.Element)}
}

func (m *MockStore) Save(ctx context.Context, id string, doc domain.Element) error {
	m.data[id] = doc.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, id string) (domain.Element, error) {
	doc, ok := m.data[id]
	if !ok {
		return domain.Element{}, domain.ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	delete(m.data, id)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestDocumentStore_Contract(t *testing.T) {
	ports.RunDocumentStoreContract(t, NewMockStore())
}
