package domain

import "context"

// OutputKind identifies which of the three encodings a render pass feeds.
type OutputKind string

const (
	OutputBuffer OutputKind = "buffer"
	OutputBlob   OutputKind = "blob"
	OutputText   OutputKind = "text"
)

// Outcome is the artifact carried to a render callback.
// It is a closed sum: BufferOutcome, BlobOutcome or TextOutcome.
type Outcome interface {
	Output() OutputKind
	sealed()
}

// BufferOutcome is reported by the buffer path. It carries no artifact: the
// caller owns the live stream and detects completion on its own.
type BufferOutcome struct{}

// BlobOutcome carries the downloadable object of a completed pass.
type BlobOutcome struct {
	Blob *Blob
}

// TextOutcome carries the assembled text of a completed pass.
type TextOutcome struct {
	Text string
}

func (BufferOutcome) Output() OutputKind { return OutputBuffer }
func (BlobOutcome) Output() OutputKind   { return OutputBlob }
func (TextOutcome) Output() OutputKind   { return OutputText }

func (BufferOutcome) sealed() {}
func (BlobOutcome) sealed()   {}
func (TextOutcome) sealed()   {}

// RenderResult is the payload handed to a RenderFunc.
type RenderResult struct {
	Outcome Outcome
	Layout  LayoutData
}

// RenderFunc is the caller-supplied render-complete callback.
// A returned error fails the operation that triggered the pass.
type RenderFunc func(ctx context.Context, result RenderResult) error
