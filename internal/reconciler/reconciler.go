package reconciler

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/tree"
)

// Reconciler is the default diff engine. It patches the owned tree in place
// so unchanged subtrees keep their node identity across updates.
type Reconciler struct {
	mu     sync.Mutex
	next   ports.MountHandle
	mounts map[ports.MountHandle]*tree.Container
	logger *slog.Logger
}

var _ ports.Reconciler = (*Reconciler)(nil)

// Option configures the Reconciler.
type Option func(*Reconciler)

// WithLogger configures a logger for the Reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// New creates a reconciler with no mounts.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		mounts: make(map[ports.MountHandle]*tree.Container),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateMount registers root under a fresh handle.
func (r *Reconciler) CreateMount(root *tree.Container) (ports.MountHandle, error) {
	if root == nil || root.Root == nil || root.Root.Kind != domain.KindRoot {
		return 0, fmt.Errorf("cannot mount: container has no ROOT node")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.mounts[r.next] = root
	return r.next, nil
}

// Unmount forgets handle. Unmounting twice returns domain.ErrUnknownMount.
func (r *Reconciler) Unmount(handle ports.MountHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mounts[handle]; !ok {
		return domain.ErrUnknownMount
	}
	delete(r.mounts, handle)
	return nil
}

// Mounts returns the number of live mounts.
func (r *Reconciler) Mounts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mounts)
}

// ApplyUpdate validates doc and reconciles it into the mounted container.
// Nothing is mutated when validation fails.
func (r *Reconciler) ApplyUpdate(doc domain.Element, handle ports.MountHandle) error {
	r.mu.Lock()
	c, ok := r.mounts[handle]
	r.mu.Unlock()
	if !ok {
		return domain.ErrUnknownMount
	}

	if err := Validate(doc); err != nil {
		return err
	}

	changed, err := reconcileChildren(c.Root, []domain.Element{doc})
	if err != nil {
		return err
	}
	if changed {
		gen := c.MarkDirty()
		r.logger.Debug("Tree reconciled", "mount", handle, "generation", gen)
	}
	return nil
}

// Validate checks the structural rules of a description.
func Validate(doc domain.Element) error {
	if doc.Kind != domain.KindDocument {
		return &domain.InvalidTreeError{Kind: doc.Kind, Reason: "root must be DOCUMENT"}
	}
	var err error
	doc.Walk(func(path []int, el domain.Element) bool {
		if err != nil {
			return false
		}
		if !el.Kind.Valid() || el.Kind == domain.KindRoot {
			err = &domain.InvalidTreeError{Path: formatPath(path), Kind: el.Kind, Reason: "unsupported node kind"}
			return false
		}
		for _, child := range el.Children {
			if !el.Kind.CanContain(child.Kind) {
				err = &domain.InvalidTreeError{
					Path:   formatPath(path),
					Kind:   el.Kind,
					Reason: fmt.Sprintf("cannot contain %s", child.Kind),
				}
				return false
			}
		}
		if el.Text != "" && !el.Kind.IsTextual() {
			err = &domain.InvalidTreeError{Path: formatPath(path), Kind: el.Kind, Reason: "text is only allowed on TEXT, LINK and NOTE"}
			return false
		}
		return true
	})
	return err
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// reconcileChildren makes parent's children match els and reports whether anything changed.
func reconcileChildren(parent *tree.Node, els []domain.Element) (bool, error) {
	changed := false
	for i, el := range els {
		if i < len(parent.Children) {
			existing := parent.Children[i]
			if existing.Kind == el.Kind && existing.Key == el.Key {
				c, err := patch(existing, el)
				if err != nil {
					return false, err
				}
				changed = changed || c
				continue
			}
			node, err := build(el)
			if err != nil {
				return false, err
			}
			parent.ReplaceChild(i, node)
			changed = true
			continue
		}
		node, err := build(el)
		if err != nil {
			return false, err
		}
		parent.AppendChild(node)
		changed = true
	}
	if len(parent.Children) > len(els) {
		parent.TruncateChildren(len(els))
		changed = true
	}
	return changed, nil
}

// patch updates node in place. Function fields are refreshed but never count as a change:
// Go funcs cannot be compared.
func patch(node *tree.Node, el domain.Element) (bool, error) {
	node.OnRender = el.OnRender
	node.Paint = el.Paint

	changed := false
	if node.Text != el.Text {
		node.Text = el.Text
		changed = true
	}
	if !propsEqual(node.Props, el.Props) {
		node.Props = copyProps(el.Props)
		changed = true
	}
	c, err := reconcileChildren(node, el.Children)
	if err != nil {
		return false, err
	}
	return changed || c, nil
}

// build creates a fresh subtree for el through the node factory.
func build(el domain.Element) (*tree.Node, error) {
	node, err := tree.CreateInstance(el.Kind)
	if err != nil {
		return nil, err
	}
	node.Key = el.Key
	node.Text = el.Text
	node.Props = copyProps(el.Props)
	node.OnRender = el.OnRender
	node.Paint = el.Paint
	for _, child := range el.Children {
		c, err := build(child)
		if err != nil {
			return nil, err
		}
		node.AppendChild(c)
	}
	return node, nil
}

func propsEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func copyProps(props map[string]any) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
