package domain

// Prop keys shared by the schema, the reconciler and the layout engine.
const (
	// PropStyle holds a nested map flattened over the element's own props.
	PropStyle = "style"

	// PropFixed repeats an element on every page produced by its PAGE.
	PropFixed = "fixed"

	// PropBreak forces a page break before the element.
	PropBreak = "break"

	// PropSrc is the target of a LINK or the source of an IMAGE.
	PropSrc = "src"
)
