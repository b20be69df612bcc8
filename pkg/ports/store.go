package ports

import (
	"context"

	"github.com/aretw0/quire/pkg/domain"
)

// DocumentStore persists tree descriptions by document ID.
// This lets a host restore its sessions after a restart ("Stop & Resume").
type DocumentStore interface {
	// Save persists the description for a given document ID.
	Save(ctx context.Context, id string, doc domain.Element) error

	// Load retrieves the description for a given document ID.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, id string) (domain.Element, error)

	// Delete removes the description for a given document ID.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored documents.
	List(ctx context.Context) ([]string, error)
}
