package cli

import (
	"context"
	"path/filepath"
	"strings"

	loamadapter "github.com/aretw0/quire/pkg/adapters/loam"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
)

// Source names the description to work on: a YAML/JSON description file,
// or the ID of a Markdown document inside Dir.
type Source struct {
	Path string
	Dir  string
}

// IsDescription reports whether the source is a description file.
func (s Source) IsDescription() bool {
	_, err := schema.FormatFromPath(s.Path)
	return err == nil
}

// ID is the document name used for sessions and output files.
func (s Source) ID() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocumentID is the Markdown document ID, extension stripped.
func (s Source) DocumentID() string {
	return filepath.ToSlash(strings.TrimSuffix(s.Path, filepath.Ext(s.Path)))
}

// BaseDir is where relative image paths resolve.
func (s Source) BaseDir() string {
	if s.IsDescription() {
		return filepath.Dir(s.Path)
	}
	return s.Dir
}

// Load reads the description.
func (s Source) Load(ctx context.Context) (domain.Element, error) {
	if s.IsDescription() {
		return schema.ParseFile(s.Path)
	}
	loader, err := loamadapter.Open(s.Dir)
	if err != nil {
		return domain.Element{}, err
	}
	return loader.Load(ctx, s.Path)
}
