package domain

// Element is a declarative description of a document tree.
// Callers build one (by hand, with the dsl package or by parsing a file) and
// submit it to a session, which reconciles it into the tree it owns.
// A session reads an Element once per submission and never retains it.
type Element struct {
	Kind     Kind           `json:"type" yaml:"type" cbor:"type"`
	Key      string         `json:"key,omitempty" yaml:"key,omitempty" cbor:"key,omitempty"`
	Text     string         `json:"text,omitempty" yaml:"text,omitempty" cbor:"text,omitempty"`
	Props    map[string]any `json:"props,omitempty" yaml:"props,omitempty" cbor:"props,omitempty"`
	Children []Element      `json:"children,omitempty" yaml:"children,omitempty" cbor:"children,omitempty"`

	// OnRender is invoked once per completed render pass. Only read on the DOCUMENT root.
	OnRender RenderFunc `json:"-" yaml:"-" cbor:"-"`

	// Paint draws the contents of a CANVAS node.
	Paint CanvasFunc `json:"-" yaml:"-" cbor:"-"`
}

// Prop returns a single property value.
func (e Element) Prop(key string) (any, bool) {
	v, ok := e.Props[key]
	return v, ok
}

// Walk visits e and its descendants depth-first, passing the index path of each element.
// Returning false from fn skips the element's children.
func (e Element) Walk(fn func(path []int, el Element) bool) {
	walkElement(nil, e, fn)
}

func walkElement(path []int, e Element, fn func([]int, Element) bool) {
	if !fn(path, e) {
		return
	}
	for i, child := range e.Children {
		childPath := make([]int, len(path)+1)
		copy(childPath, path)
		childPath[len(path)] = i
		walkElement(childPath, child, fn)
	}
}

// Clone returns a deep copy of the element's structure.
// Prop values are copied shallowly; function fields are shared.
func (e Element) Clone() Element {
	out := e
	if e.Props != nil {
		out.Props = make(map[string]any, len(e.Props))
		for k, v := range e.Props {
			out.Props[k] = v
		}
	}
	if e.Children != nil {
		out.Children = make([]Element, len(e.Children))
		for i, child := range e.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}
