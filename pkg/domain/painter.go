package domain

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

// Painter is the drawing surface handed to a CANVAS node.
// Coordinates are in points relative to the canvas box, origin top-left.
type Painter interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	CurveTo(x1, y1, x2, y2, x3, y3 float64)
	Rect(x, y, width, height float64)
	ClosePath()

	Fill()
	Stroke()
	FillStroke()

	SetFillColor(c Color)
	SetStrokeColor(c Color)
	SetLineWidth(w float64)

	Save()
	Restore()
}

// CanvasFunc paints a canvas of the given size.
type CanvasFunc func(p Painter, width, height float64)
