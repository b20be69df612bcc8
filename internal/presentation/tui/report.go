package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// Report is what inspect prints about a document.
type Report struct {
	Title       string
	Fingerprint string
	Dirty       bool
	Generation  uint64
	Layout      domain.LayoutData
}

// Markdown formats r as a Markdown document with one table per page.
func (r Report) Markdown() string {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = "Document"
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	state := "clean"
	if r.Dirty {
		state = "dirty"
	}
	fmt.Fprintf(&b, "- **Pages:** %d\n", r.Layout.PageCount())
	fmt.Fprintf(&b, "- **State:** %s (generation %d)\n", state, r.Generation)
	if r.Fingerprint != "" {
		fmt.Fprintf(&b, "- **Fingerprint:** `%s`\n", short(r.Fingerprint))
	}

	for _, p := range r.Layout.Pages {
		fmt.Fprintf(&b, "\n## Page %d (%s x %s pt)\n\n", p.Number, pt(p.Width), pt(p.Height))
		if len(p.Nodes) == 0 {
			b.WriteString("_empty_\n")
			continue
		}
		b.WriteString("| Path | Type | Key | X | Y | Width | Height | Lines |\n")
		b.WriteString("|---|---|---|---:|---:|---:|---:|---:|\n")
		for _, n := range p.Nodes {
			lines := ""
			if n.Lines > 0 {
				lines = fmt.Sprint(n.Lines)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				n.Path, n.Kind, escape(n.Key), pt(n.Box.X), pt(n.Box.Y), pt(n.Box.Width), pt(n.Box.Height), lines)
		}
	}
	return b.String()
}

func pt(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", f), "0"), ".")
}

func short(fp string) string {
	if len(fp) > 16 {
		return fp[:16]
	}
	return fp
}

func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`").Replace(s)
}
