package ports

import (
	"context"
	"io"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/tree"
)

// Renderer runs the layout/paint engine over a container.
//
// Every call starts one render pass and returns a fresh stream of its output.
// Layout data must be recorded on the container before Render returns.
// Closing the stream before it is drained aborts the pass.
type Renderer interface {
	Render(ctx context.Context, root *tree.Container) (io.ReadCloser, error)
}

// BlobSink accumulates a render stream into a downloadable object.
type BlobSink interface {
	io.Writer

	// Finish signals that the stream ended. No writes are accepted afterwards.
	Finish() error

	// Blob converts the accumulated bytes. It fails before Finish.
	Blob(contentType string) (*domain.Blob, error)
}
