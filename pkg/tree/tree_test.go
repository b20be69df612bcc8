package tree_test

import (
	"testing"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInstance(t *testing.T) {
	n, err := tree.CreateInstance(domain.KindPage)
	require.NoError(t, err)
	assert.Equal(t, domain.KindPage, n.Kind)

	_, err = tree.CreateInstance(domain.KindInvalid)
	assert.Error(t, err)
	_, err = tree.CreateInstance(domain.Kind(42))
	assert.Error(t, err)
}

func TestNode_PathAndContent(t *testing.T) {
	c := tree.NewContainer()
	doc, _ := tree.CreateInstance(domain.KindDocument)
	page, _ := tree.CreateInstance(domain.KindPage)
	text, _ := tree.CreateInstance(domain.KindText)
	span, _ := tree.CreateInstance(domain.KindText)

	c.Root.AppendChild(doc)
	doc.AppendChild(page)
	page.AppendChild(&tree.Node{Kind: domain.KindView})
	page.AppendChild(text)
	text.Text = "Hello, "
	span.Text = "world"
	text.AppendChild(span)

	assert.Equal(t, "", doc.Path())
	assert.Equal(t, "0", page.Path())
	assert.Equal(t, "0.1", text.Path())
	assert.Equal(t, "0.1.0", span.Path())
	assert.Equal(t, "Hello, world", text.Content())
	assert.Same(t, doc, c.Document())
}

func TestContainer_DirtyGenerations(t *testing.T) {
	c := tree.NewContainer()
	assert.False(t, c.IsDirty())

	gen := c.MarkDirty()
	assert.True(t, c.IsDirty())

	// A newer mutation wins over a pass that started before it.
	c.MarkDirty()
	assert.False(t, c.ClearDirty(gen))
	assert.True(t, c.IsDirty())

	assert.True(t, c.ClearDirty(c.Generation()))
	assert.False(t, c.IsDirty())
}

func TestContainer_LayoutCopy(t *testing.T) {
	c := tree.NewContainer()
	assert.Zero(t, c.LayoutData().PageCount())

	c.SetLayout(domain.LayoutData{Pages: []domain.PageLayout{{Number: 1, Nodes: []domain.NodeLayout{{Path: "0"}}}}})
	got := c.LayoutData()
	got.Pages[0].Nodes[0].Path = "mutated"
	assert.Equal(t, "0", c.LayoutData().Pages[0].Nodes[0].Path)
}

func TestContainer_RemoveChild(t *testing.T) {
	c := tree.NewContainer()
	doc, _ := tree.CreateInstance(domain.KindDocument)
	c.Root.AppendChild(doc)

	c.RemoveChild()
	assert.Nil(t, c.Document())
	assert.Nil(t, doc.Parent)
}
