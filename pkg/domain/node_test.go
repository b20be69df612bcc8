package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for k := domain.KindRoot; k <= domain.KindCanvas; k++ {
		parsed, err := domain.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	k, err := domain.ParseKind(" page ")
	require.NoError(t, err)
	assert.Equal(t, domain.KindPage, k)

	_, err = domain.ParseKind("TABLE")
	assert.Error(t, err)
}

func TestKind_JSON(t *testing.T) {
	el := domain.Element{
		Kind: domain.KindDocument,
		Children: []domain.Element{
			{Kind: domain.KindPage, Children: []domain.Element{{Kind: domain.KindText, Text: "hi"}}},
		},
	}

	data, err := json.Marshal(el)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"DOCUMENT"`)

	var decoded domain.Element
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, domain.KindText, decoded.Children[0].Children[0].Kind)
	assert.Equal(t, "hi", decoded.Children[0].Children[0].Text)

	_, err = json.Marshal(domain.Element{})
	assert.Error(t, err, "zero kind must not serialize")
}

func TestKind_CanContain(t *testing.T) {
	assert.True(t, domain.KindDocument.CanContain(domain.KindPage))
	assert.False(t, domain.KindDocument.CanContain(domain.KindText))
	assert.True(t, domain.KindPage.CanContain(domain.KindCanvas))
	assert.True(t, domain.KindText.CanContain(domain.KindLink))
	assert.False(t, domain.KindText.CanContain(domain.KindView))
	assert.False(t, domain.KindImage.CanContain(domain.KindText))
}

func TestElement_WalkAndClone(t *testing.T) {
	el := domain.Element{
		Kind:  domain.KindDocument,
		Props: map[string]any{"title": "t"},
		Children: []domain.Element{
			{Kind: domain.KindPage, Children: []domain.Element{{Kind: domain.KindText, Text: "a"}, {Kind: domain.KindText, Text: "b"}}},
		},
	}

	var paths [][]int
	el.Walk(func(path []int, e domain.Element) bool {
		paths = append(paths, path)
		return true
	})
	assert.Equal(t, [][]int{nil, {0}, {0, 0}, {0, 1}}, paths)

	clone := el.Clone()
	clone.Props["title"] = "changed"
	clone.Children[0].Children[0].Text = "z"
	assert.Equal(t, "t", el.Props["title"])
	assert.Equal(t, "a", el.Children[0].Children[0].Text)
}

func TestErrors_Unwrap(t *testing.T) {
	err := &domain.InvalidTreeError{Kind: domain.KindView, Reason: "root must be DOCUMENT"}
	assert.True(t, errors.Is(err, domain.ErrInvalidTree))
	assert.Contains(t, err.Error(), "VIEW")

	cause := errors.New("boom")
	assert.ErrorIs(t, &domain.StreamError{Output: domain.OutputText, Err: cause}, cause)
	assert.ErrorIs(t, &domain.CallbackError{Output: domain.OutputBlob, Err: cause}, cause)
}
