package domain

// Rect is an axis-aligned box in points, origin at the top-left corner of the page.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayoutData carries the pagination and geometry facts computed by a render pass.
type LayoutData struct {
	Pages []PageLayout `json:"pages"`
}

// PageLayout describes one physical page.
type PageLayout struct {
	Number int          `json:"number"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Nodes  []NodeLayout `json:"nodes,omitempty"`
}

// NodeLayout places one node (or one fragment of a node split across pages).
type NodeLayout struct {
	Kind  Kind   `json:"type"`
	Key   string `json:"key,omitempty"`
	Path  string `json:"path"`
	Box   Rect   `json:"box"`
	Lines int    `json:"lines,omitempty"`
}

// PageCount returns the number of laid-out pages.
func (l LayoutData) PageCount() int {
	return len(l.Pages)
}

// Clone returns a deep copy so callers can hold layout data past the next render pass.
func (l LayoutData) Clone() LayoutData {
	if l.Pages == nil {
		return LayoutData{}
	}
	pages := make([]PageLayout, len(l.Pages))
	for i, p := range l.Pages {
		pages[i] = p
		if p.Nodes != nil {
			pages[i].Nodes = append([]NodeLayout(nil), p.Nodes...)
		}
	}
	return LayoutData{Pages: pages}
}
