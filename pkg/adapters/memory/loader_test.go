package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/domain"
)

func TestLoader_ParsesDescriptions(t *testing.T) {
	loader, err := memory.NewLoader(map[string]string{
		"hello": `
type: DOCUMENT
children:
  - type: PAGE
    children:
      - type: TEXT
        text: hi
`,
		"json": `{"type": "DOCUMENT", "props": {"title": "J"}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "json"}, loader.IDs())

	doc, err := loader.Load(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.KindDocument, doc.Kind)
	assert.Equal(t, "hi", doc.Children[0].Children[0].Text)

	doc, err = loader.Load(context.Background(), "json")
	require.NoError(t, err)
	assert.Equal(t, "J", doc.Props["title"])
}

func TestLoader_Errors(t *testing.T) {
	_, err := memory.NewLoader(map[string]string{"bad": "type: DOCUMENT\nbogus: 1\n"})
	assert.Error(t, err)

	loader := memory.NewFromElements(nil)
	_, err = loader.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestLoader_FromElementsKeepsCallbacks(t *testing.T) {
	called := false
	loader := memory.NewFromElements(map[string]domain.Element{
		"doc": {Kind: domain.KindDocument, OnRender: func(context.Context, domain.RenderResult) error {
			called = true
			return nil
		}},
	})
	doc, err := loader.Load(context.Background(), "doc")
	require.NoError(t, err)
	require.NotNil(t, doc.OnRender)
	require.NoError(t, doc.OnRender(context.Background(), domain.RenderResult{}))
	assert.True(t, called)
}
