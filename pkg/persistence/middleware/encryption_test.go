package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func invoice(amount string) domain.Element {
	return domain.Element{
		Kind:  domain.KindDocument,
		Props: map[string]any{"title": "Invoice"},
		Children: []domain.Element{{
			Kind: domain.KindPage,
			Children: []domain.Element{
				{Kind: domain.KindText, Key: "amount", Text: amount},
			},
		}},
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secure := mw(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "inv-1", invoice("4200.00")))

	// The backing store only holds the envelope.
	stored, err := underlying.Load(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.KindDocument, stored.Kind)
	assert.Empty(t, stored.Children)
	assert.NotContains(t, stored.Props, "title")
	assert.Contains(t, stored.Props, "__encrypted__")

	loaded, err := secure.Load(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, invoice("4200.00"), loaded)

	ids, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"inv-1"}, ids)

	require.NoError(t, secure.Delete(ctx, "inv-1"))
	_, err = secure.Load(ctx, "inv-1")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	storeOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, storeOld.Save(ctx, "inv", invoice("old")))

	storeNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := storeNew.Load(ctx, "inv")
	require.NoError(t, err, "fallback key decrypts")
	assert.Equal(t, "old", loaded.Children[0].Children[0].Text)

	// Re-saving seals with the new key only.
	require.NoError(t, storeNew.Save(ctx, "inv", invoice("new")))
	_, err = storeOld.Load(ctx, "inv")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainDescriptions(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", invoice("1")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestWrap_Order(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	store := middleware.Wrap(underlying,
		middleware.NewPIIMiddleware([]string{"^amount$"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	require.NoError(t, store.Save(ctx, "inv", invoice("99")))

	stored, err := underlying.Load(ctx, "inv")
	require.NoError(t, err)
	assert.Contains(t, stored.Props, "__encrypted__")

	loaded, err := store.Load(ctx, "inv")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Children[0].Children[0].Text)
}
