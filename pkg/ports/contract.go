package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore implementation
// adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-test-doc-" + time.Now().Format("20060102150405")

	sample := func(text string) domain.Element {
		return domain.Element{
			Kind:  domain.KindDocument,
			Props: map[string]any{"title": "Contract"},
			Children: []domain.Element{
				{
					Kind:  domain.KindPage,
					Props: map[string]any{"size": "A4"},
					Children: []domain.Element{
						{Kind: domain.KindText, Text: text, Props: map[string]any{"fontSize": 14}},
					},
				},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, docID, sample("hello"))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.KindDocument, loaded.Kind)
		assert.Equal(t, "Contract", loaded.Props["title"])
		require.Len(t, loaded.Children, 1)
		require.Len(t, loaded.Children[0].Children, 1)
		assert.Equal(t, domain.KindText, loaded.Children[0].Children[0].Kind)
		assert.Equal(t, "hello", loaded.Children[0].Children[0].Text)
		// Numeric prop types depend on the encoding (JSON turns ints into float64).
		assert.NotNil(t, loaded.Children[0].Children[0].Props["fontSize"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, docID, sample("second")))
		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Children[0].Children[0].Text)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, docID, sample("bye"))
		require.NoError(t, err)

		err = store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		_ = store.Save(ctx, id1, sample("one"))
		_ = store.Save(ctx, id2, sample("two"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
