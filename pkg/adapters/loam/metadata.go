package loam

// DocumentMetadata is the frontmatter of a Markdown document.
type DocumentMetadata struct {
	ID       string `json:"id" mapstructure:"id"`
	Title    string `json:"title" mapstructure:"title"`
	Author   string `json:"author" mapstructure:"author"`
	Subject  string `json:"subject" mapstructure:"subject"`
	Keywords string `json:"keywords" mapstructure:"keywords"`

	// Page holds PAGE props (size, orientation, padding, backgroundColor).
	Page map[string]any `json:"page" mapstructure:"page"`

	// Header becomes a fixed TEXT element repeated on every page.
	Header string `json:"header" mapstructure:"header"`

	// FontSize is the body text size; headings scale from it.
	FontSize float64 `json:"font_size" mapstructure:"font_size"`
}
