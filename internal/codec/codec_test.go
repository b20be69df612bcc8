package codec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire/pkg/domain"
)

func sample() domain.Element {
	return domain.Element{
		Kind:  domain.KindDocument,
		Props: map[string]any{"title": "T", "author": "A"},
		Children: []domain.Element{{
			Kind:  domain.KindPage,
			Props: map[string]any{"size": []any{"100", 200}},
			Children: []domain.Element{
				{Kind: domain.KindText, Key: "intro", Text: "hi", Props: map[string]any{"style": map[string]any{"color": "red"}}},
			},
		}},
		OnRender: func(context.Context, domain.RenderResult) error { return nil },
	}
}

func TestElementRoundTrip(t *testing.T) {
	data, err := EncodeElement(sample())
	require.NoError(t, err)

	got, err := DecodeElement(data)
	require.NoError(t, err)
	assert.Equal(t, domain.KindDocument, got.Kind)
	assert.Nil(t, got.OnRender)
	text := got.Children[0].Children[0]
	assert.Equal(t, "intro", text.Key)
	assert.Equal(t, "hi", text.Text)
	style, ok := text.Props["style"].(map[string]any)
	require.True(t, ok, "nested props decode as map[string]any")
	assert.Equal(t, "red", style["color"])
}

func TestDecodeElement_Invalid(t *testing.T) {
	_, err := DecodeElement([]byte{0xff, 0x00})
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint(sample())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, err := Fingerprint(sample())
	require.NoError(t, err)
	assert.Equal(t, a, b, "map order and callbacks do not affect the fingerprint")

	changed := sample()
	changed.Children[0].Children[0].Text = "hello"
	c, err := Fingerprint(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
