// Package blob provides the default byte accumulator behind Session.ToBlob.
package blob

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

var (
	// ErrFinished is returned by Write after Finish.
	ErrFinished = errors.New("blob sink already finished")
	// ErrNotFinished is returned by Blob before Finish.
	ErrNotFinished = errors.New("blob sink not finished")
	// ErrTooLarge is returned by Write when the size limit would be exceeded.
	ErrTooLarge = errors.New("blob exceeds size limit")
)

// Sink accumulates a render stream in memory.
// Safe for concurrent use.
type Sink struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int
	finished bool
}

var _ ports.BlobSink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithLimit caps the accumulated size in bytes. Zero means unlimited.
func WithLimit(n int) Option {
	return func(s *Sink) {
		s.limit = n
	}
}

// New creates an empty sink.
func New(opts ...Option) *Sink {
	s := &Sink{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write appends p.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return 0, ErrFinished
	}
	if s.limit > 0 && s.buf.Len()+len(p) > s.limit {
		return 0, fmt.Errorf("%w (%d bytes)", ErrTooLarge, s.limit)
	}
	return s.buf.Write(p)
}

// Finish seals the sink.
func (s *Sink) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
	return nil
}

// Len returns the number of bytes accumulated so far.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// Blob returns the accumulated bytes as a blob of contentType.
func (s *Sink) Blob(contentType string) (*domain.Blob, error) {
	if contentType == "" {
		return nil, errors.New("blob content type is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return nil, ErrNotFinished
	}
	return domain.NewBlob(bytes.Clone(s.buf.Bytes()), contentType), nil
}
