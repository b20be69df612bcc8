package reconciler

import (
	"context"
	"testing"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(children ...domain.Element) domain.Element {
	return domain.Element{Kind: domain.KindDocument, Children: children}
}

func page(children ...domain.Element) domain.Element {
	return domain.Element{Kind: domain.KindPage, Children: children}
}

func text(s string) domain.Element {
	return domain.Element{Kind: domain.KindText, Text: s}
}

func mount(t *testing.T) (*Reconciler, *tree.Container, func(domain.Element) error) {
	t.Helper()
	r := New()
	c := tree.NewContainer()
	h, err := r.CreateMount(c)
	require.NoError(t, err)
	return r, c, func(el domain.Element) error { return r.ApplyUpdate(el, h) }
}

func TestApplyUpdate_BuildsTree(t *testing.T) {
	_, c, apply := mount(t)

	require.NoError(t, apply(doc(page(text("hi")))))

	d := c.Document()
	require.NotNil(t, d)
	assert.Equal(t, domain.KindDocument, d.Kind)
	require.Len(t, d.Children, 1)
	assert.Equal(t, "hi", d.Children[0].Children[0].Text)
	assert.Same(t, d, d.Children[0].Parent)
	assert.True(t, c.IsDirty())
	assert.Equal(t, uint64(1), c.Generation())
}

func TestApplyUpdate_IdempotentForUnchangedDescription(t *testing.T) {
	_, c, apply := mount(t)
	desc := doc(page(text("hi")))

	require.NoError(t, apply(desc))
	before := c.Document().Children[0]
	c.ClearDirty(c.Generation())

	require.NoError(t, apply(desc))
	assert.False(t, c.IsDirty(), "no-op diff must not dirty the tree")
	assert.Equal(t, uint64(1), c.Generation())
	assert.Same(t, before, c.Document().Children[0], "unchanged subtree keeps its identity")
}

func TestApplyUpdate_CallbacksRefreshWithoutDirtying(t *testing.T) {
	_, c, apply := mount(t)
	desc := doc(page(text("hi")))
	require.NoError(t, apply(desc))
	c.ClearDirty(c.Generation())

	called := false
	desc.OnRender = func(context.Context, domain.RenderResult) error {
		called = true
		return nil
	}
	require.NoError(t, apply(desc))
	assert.False(t, c.IsDirty())
	require.NotNil(t, c.Document().OnRender)
	require.NoError(t, c.Document().OnRender(context.Background(), domain.RenderResult{}))
	assert.True(t, called)
}

func TestApplyUpdate_PatchReplaceTrim(t *testing.T) {
	_, c, apply := mount(t)
	require.NoError(t, apply(doc(page(text("a"), text("b"), text("c")))))
	p := c.Document().Children[0]
	first := p.Children[0]

	// Kind change at index 1 replaces, removal of index 2 trims, text change patches.
	require.NoError(t, apply(doc(page(text("A"), domain.Element{Kind: domain.KindView}))))

	require.Len(t, p.Children, 2)
	assert.Same(t, first, p.Children[0])
	assert.Equal(t, "A", p.Children[0].Text)
	assert.Equal(t, domain.KindView, p.Children[1].Kind)
	assert.Equal(t, uint64(2), c.Generation())
}

func TestApplyUpdate_KeyMismatchReplaces(t *testing.T) {
	_, c, apply := mount(t)
	a := text("x")
	a.Key = "a"
	require.NoError(t, apply(doc(page(a))))
	old := c.Document().Children[0].Children[0]

	b := text("x")
	b.Key = "b"
	require.NoError(t, apply(doc(page(b))))
	assert.NotSame(t, old, c.Document().Children[0].Children[0])
	assert.Nil(t, old.Parent)
}

func TestApplyUpdate_PropsChangeDirties(t *testing.T) {
	_, c, apply := mount(t)
	p := page(text("x"))
	p.Props = map[string]any{"size": "A4"}
	require.NoError(t, apply(doc(p)))
	c.ClearDirty(c.Generation())

	p.Props = map[string]any{"size": "A4"}
	require.NoError(t, apply(doc(p)))
	assert.False(t, c.IsDirty())

	p.Props = map[string]any{"size": "LETTER"}
	require.NoError(t, apply(doc(p)))
	assert.True(t, c.IsDirty())
	assert.Equal(t, "LETTER", c.Document().Children[0].Props["size"])
}

func TestApplyUpdate_InvalidTreeLeavesTreeUntouched(t *testing.T) {
	_, c, apply := mount(t)
	require.NoError(t, apply(doc(page(text("keep")))))

	err := apply(domain.Element{Kind: domain.KindView})
	var invalid *domain.InvalidTreeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.KindView, invalid.Kind)

	err = apply(doc(page(text("new"), domain.Element{Kind: domain.KindPage})))
	require.ErrorIs(t, err, domain.ErrInvalidTree)
	assert.Equal(t, "keep", c.Document().Children[0].Children[0].Text)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		el   domain.Element
		ok   bool
	}{
		{"valid", doc(page(text("x"))), true},
		{"empty document", doc(), true},
		{"text under document", doc(text("x")), false},
		{"text on view", doc(page(domain.Element{Kind: domain.KindView, Text: "x"})), false},
		{"child under image", doc(page(domain.Element{Kind: domain.KindImage, Children: []domain.Element{text("x")}})), false},
		{"nested spans", doc(page(domain.Element{Kind: domain.KindText, Children: []domain.Element{text("a"), {Kind: domain.KindLink, Text: "b"}}})), true},
		{"root kind", doc(page(domain.Element{Kind: domain.KindRoot})), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.el)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidTree)
			}
		})
	}
}

func TestMountLifecycle(t *testing.T) {
	r := New()
	c := tree.NewContainer()
	h, err := r.CreateMount(c)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Mounts())

	require.NoError(t, r.Unmount(h))
	assert.ErrorIs(t, r.Unmount(h), domain.ErrUnknownMount)
	assert.ErrorIs(t, r.ApplyUpdate(doc(), h), domain.ErrUnknownMount)

	_, err = r.CreateMount(&tree.Container{})
	assert.Error(t, err)
}
