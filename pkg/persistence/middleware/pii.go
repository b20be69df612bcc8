package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks personal data before it
// is persisted. An element whose key matches a pattern has its text, and the
// text of its whole subtree, replaced by Mask; props whose name matches are
// masked on every element. Live sessions keep the original values.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, id string, doc domain.Element) error {
	// Clone so the caller's description is left untouched.
	cloned := doc.Clone()
	m.mask(&cloned, false)
	return m.next.Save(ctx, id, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (domain.Element, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(s string) bool {
	for _, p := range m.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) mask(el *domain.Element, inherited bool) {
	hidden := inherited || (el.Key != "" && m.matches(el.Key))
	if hidden && el.Text != "" {
		el.Text = Mask
	}
	if len(el.Props) > 0 {
		el.Props = deepCopyMap(el.Props)
		maskMap(el.Props, m.patterns)
	}
	for i := range el.Children {
		m.mask(&el.Children[i], hidden)
	}
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
