package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunDocumentStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	doc := domain.Element{
		Kind:     domain.KindDocument,
		Props:    map[string]any{"title": "before"},
		OnRender: func(context.Context, domain.RenderResult) error { return nil },
	}
	require.NoError(t, store.Save(ctx, "a", doc))

	doc.Props["title"] = "after"
	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "before", loaded.Props["title"])
	assert.Nil(t, loaded.OnRender, "callbacks are not persisted")

	loaded.Props["title"] = "mutated"
	again, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "before", again.Props["title"])
}

func TestMemoryStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Save(ctx, id, domain.Element{Kind: domain.KindDocument}))
	}
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
