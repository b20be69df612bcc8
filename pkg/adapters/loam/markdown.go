package loam

import (
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// PageBreak is the marker line that starts a new page.
const PageBreak = "<!-- pagebreak -->"

var headingScale = map[int]float64{1: 2, 2: 1.5, 3: 1.25}

// blocks converts a Markdown body into TEXT elements: one per paragraph,
// heading or list item. Inline markup is kept as written.
func blocks(body string, baseSize float64) []domain.Element {
	var (
		out     []domain.Element
		para    []string
		pending bool // a page break precedes the next block
	)
	emit := func(el domain.Element) {
		if pending {
			if el.Props == nil {
				el.Props = map[string]any{}
			}
			el.Props[domain.PropBreak] = true
			pending = false
		}
		out = append(out, el)
	}
	flush := func() {
		if len(para) > 0 {
			emit(domain.Element{Kind: domain.KindText, Text: strings.Join(para, " ")})
			para = nil
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case line == PageBreak:
			flush()
			pending = true
		case strings.HasPrefix(line, "#"):
			flush()
			level := len(line) - len(strings.TrimLeft(line, "#"))
			scale, ok := headingScale[level]
			if !ok {
				scale = 1
			}
			emit(domain.Element{
				Kind:  domain.KindText,
				Text:  strings.TrimSpace(line[level:]),
				Props: map[string]any{"fontSize": baseSize * scale, "margin": baseSize / 2},
			})
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			flush()
			emit(domain.Element{Kind: domain.KindText, Text: "• " + strings.TrimSpace(line[2:])})
		default:
			para = append(para, line)
		}
	}
	flush()
	return out
}
