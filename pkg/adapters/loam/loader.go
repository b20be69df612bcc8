// Package loam loads documents from a Loam repository of Markdown files.
//
// Frontmatter carries document and page props; the body becomes one PAGE
// of TEXT blocks.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// DefaultFontSize is the body size used when the frontmatter sets none.
const DefaultFontSize = 12.0

// Loader adapts a Loam repository to ports.DocumentLoader.
type Loader struct {
	Repo *loam.TypedRepository[DocumentMetadata]
}

var _ ports.DocumentLoader = (*Loader)(nil)

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DocumentMetadata]) *Loader {
	return &Loader{Repo: repo}
}

// Open initializes a read-only repository at path and wraps it.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers consistent across Markdown and JSON sources;
	// read-only avoids Loam's sandbox in dev mode.
	repo, err := loam.Init(absPath, loam.WithStrict(true), loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[DocumentMetadata](repo)), nil
}

// Load builds the description of the Markdown document id.
func (l *Loader) Load(ctx context.Context, id string) (domain.Element, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return domain.Element{}, fmt.Errorf("%w: loam get failed for %s: %v", domain.ErrDocumentNotFound, id, err)
	}
	return build(doc.Data, doc.Content), nil
}

func build(meta DocumentMetadata, content string) domain.Element {
	size := meta.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}

	docProps := map[string]any{}
	for key, val := range map[string]string{
		"title":    meta.Title,
		"author":   meta.Author,
		"subject":  meta.Subject,
		"keywords": meta.Keywords,
	} {
		if val != "" {
			docProps[key] = val
		}
	}

	var children []domain.Element
	if meta.Header != "" {
		children = append(children, fixedText(meta.Header, size))
	}
	body := blocks(content, size)
	for i := range body {
		if body[i].Props == nil {
			body[i].Props = map[string]any{}
		}
		if _, ok := body[i].Props["fontSize"]; !ok {
			body[i].Props["fontSize"] = size
		}
	}
	children = append(children, body...)

	pageProps := make(map[string]any, len(meta.Page))
	for k, v := range meta.Page {
		pageProps[k] = v
	}

	doc := domain.Element{
		Kind:     domain.KindDocument,
		Children: []domain.Element{{Kind: domain.KindPage, Props: pageProps, Children: children}},
	}
	if len(docProps) > 0 {
		doc.Props = docProps
	}
	if len(pageProps) == 0 {
		doc.Children[0].Props = nil
	}
	return doc
}

func fixedText(s string, size float64) domain.Element {
	return domain.Element{
		Kind:  domain.KindText,
		Text:  s,
		Props: map[string]any{domain.PropFixed: true, "fontSize": size * 0.8, "color": "gray"},
	}
}

// IDs lists the documents in the repository, extensions stripped.
func (l *Loader) IDs(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func trimExtension(id string) string {
	if ext := filepath.Ext(id); ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch streams the IDs of changed documents until ctx ends.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
