package tree

import (
	"sync"

	"github.com/aretw0/quire/pkg/domain"
)

// Container is the ROOT node of a session plus the bookkeeping a render
// pass needs: the dirty flag, a generation counter and the last layout.
//
// The tree itself is not synchronized; a session has a single logical owner.
// The bookkeeping is, because a buffer stream may complete on another goroutine.
type Container struct {
	Root *Node

	mu         sync.RWMutex
	dirty      bool
	generation uint64
	layout     domain.LayoutData
	hasLayout  bool
}

// NewContainer allocates an empty ROOT.
func NewContainer() *Container {
	root, _ := CreateInstance(domain.KindRoot)
	return &Container{Root: root}
}

// Document returns the mounted DOCUMENT node, or nil for an empty container.
func (c *Container) Document() *Node {
	if c.Root == nil || len(c.Root.Children) == 0 {
		return nil
	}
	return c.Root.Children[0]
}

// IsDirty reports whether a mutation is pending relative to the last completed render pass.
func (c *Container) IsDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// MarkDirty records an applied mutation and returns the new generation.
func (c *Container) MarkDirty() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = true
	c.generation++
	return c.generation
}

// Generation returns the number of mutations applied so far.
func (c *Container) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// ClearDirty clears the flag if no mutation arrived after generation.
// It reports whether the flag was cleared.
func (c *Container) ClearDirty(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	c.dirty = false
	return true
}

// SetLayout stores the layout computed by the latest render pass.
func (c *Container) SetLayout(l domain.LayoutData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layout = l
	c.hasLayout = true
}

// LayoutData returns a copy of the latest layout. It is zero until a render pass has started.
func (c *Container) LayoutData() domain.LayoutData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasLayout {
		return domain.LayoutData{}
	}
	return c.layout.Clone()
}

// RemoveChild detaches the whole document from the root.
func (c *Container) RemoveChild() {
	if c.Root == nil {
		return
	}
	c.Root.TruncateChildren(0)
}
