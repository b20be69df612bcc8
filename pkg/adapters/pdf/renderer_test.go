package pdf_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire/internal/reconciler"
	"github.com/aretw0/quire/pkg/adapters/pdf"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/tree"
)

func mounted(t *testing.T, doc domain.Element) *tree.Container {
	t.Helper()
	r := reconciler.New()
	c := tree.NewContainer()
	h, err := r.CreateMount(c)
	require.NoError(t, err)
	require.NoError(t, r.ApplyUpdate(doc, h))
	return c
}

func hello() domain.Element {
	return domain.Element{Kind: domain.KindDocument, Children: []domain.Element{
		{Kind: domain.KindPage, Children: []domain.Element{{Kind: domain.KindText, Text: "hello"}}},
	}}
}

func TestRenderer_StreamsPDF(t *testing.T) {
	c := mounted(t, hello())
	rc, err := pdf.New(pdf.WithCompression(false)).Render(context.Background(), c)
	require.NoError(t, err)

	// Layout is recorded before any byte is read.
	require.Len(t, c.LayoutData().Pages, 1)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	out := string(data)
	assert.True(t, strings.HasPrefix(out, "%PDF-1.4"))
	assert.Contains(t, out, "(hello) Tj")
}

func TestRenderer_LayoutError(t *testing.T) {
	doc := hello()
	doc.Children[0].Props = map[string]any{"size": "B12"}
	_, err := pdf.New().Render(context.Background(), mounted(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout")
}

func TestRenderer_CloseEarlyStopsWriter(t *testing.T) {
	rc, err := pdf.New().Render(context.Background(), mounted(t, hello()))
	require.NoError(t, err)
	buf := make([]byte, 8)
	_, err = io.ReadFull(rc, buf)
	require.NoError(t, err)
	assert.NoError(t, rc.Close())

	_, err = rc.Read(buf)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestRenderer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc, err := pdf.New().Render(ctx, mounted(t, hello()))
	require.NoError(t, err)
	_, err = io.ReadAll(rc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderer_Clock(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rc, err := pdf.New(pdf.WithClock(func() time.Time { return at })).Render(context.Background(), mounted(t, hello()))
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/CreationDate (D:20250102030405Z)")
}

func TestRenderer_EmptyContainer(t *testing.T) {
	rc, err := pdf.New().Render(context.Background(), tree.NewContainer())
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/Count 0")
}
