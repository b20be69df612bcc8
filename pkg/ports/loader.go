package ports

import (
	"context"

	"github.com/aretw0/quire/pkg/domain"
)

// DocumentLoader builds a description from an external source (a repository of
// Markdown files, a directory of YAML descriptions, ...).
type DocumentLoader interface {
	// Load returns the description identified by id.
	Load(ctx context.Context, id string) (domain.Element, error)
}
