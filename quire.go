package quire

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/internal/reconciler"
	"github.com/aretw0/quire/internal/runtime"
	"github.com/aretw0/quire/pkg/adapters/blob"
	"github.com/aretw0/quire/pkg/adapters/pdf"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/tree"
)

// Version is the module release reported by the CLI and the HTTP adapter.
const Version = "0.4.0"

// Node kinds, re-exported for callers that only import the root package.
const (
	DOCUMENT = domain.KindDocument
	PAGE     = domain.KindPage
	VIEW     = domain.KindView
	TEXT     = domain.KindText
	LINK     = domain.KindLink
	NOTE     = domain.KindNote
	IMAGE    = domain.KindImage
	CANVAS   = domain.KindCanvas
)

// Session is a live rendering context: one owned tree, one mount handle.
//
// A session has a single logical owner. Update and the output operations
// must not be called concurrently; the Manager in pkg/session serializes
// access when sessions are shared.
type Session struct {
	name       string
	container  *tree.Container
	mount      ports.MountHandle
	reconciler ports.Reconciler
	renderer   ports.Renderer
	newSink    func() ports.BlobSink
	decoder    encoding.Encoding
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	handles    *runtime.Tracker
	destroyed  atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithReconciler replaces the default diff engine.
func WithReconciler(r ports.Reconciler) Option {
	return func(s *Session) {
		s.reconciler = r
	}
}

// WithRenderer replaces the default PDF renderer.
func WithRenderer(r ports.Renderer) Option {
	return func(s *Session) {
		s.renderer = r
	}
}

// WithBlobSink sets the factory for the accumulation stage of ToBlob.
// A fresh sink is requested for every pass.
func WithBlobSink(factory func() ports.BlobSink) Option {
	return func(s *Session) {
		s.newSink = factory
	}
}

// WithTextDecoder decodes the byte stream before ToText assembles it.
// Without it chunks are appended as raw bytes.
func WithTextDecoder(enc encoding.Encoding) Option {
	return func(s *Session) {
		s.decoder = enc
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithName labels the session in logs and events.
func WithName(name string) Option {
	return func(s *Session) {
		s.name = name
	}
}

// Start allocates an empty tree, mounts it and applies initial when given.
func Start(initial *domain.Element, opts ...Option) (*Session, error) {
	s := &Session{
		container: tree.NewContainer(),
		handles:   runtime.NewTracker(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.name != "" {
		s.logger = s.logger.With("session", s.name)
	}
	if s.reconciler == nil {
		s.reconciler = reconciler.New(reconciler.WithLogger(s.logger))
	}
	if s.renderer == nil {
		s.renderer = pdf.New(pdf.WithLogger(s.logger))
	}
	if s.newSink == nil {
		s.newSink = func() ports.BlobSink { return blob.New() }
	}

	mount, err := s.reconciler.CreateMount(s.container)
	if err != nil {
		return nil, fmt.Errorf("failed to mount document root: %w", err)
	}
	s.mount = mount

	if initial != nil {
		if err := s.Update(context.Background(), *initial); err != nil {
			if uerr := s.reconciler.Unmount(mount); uerr != nil {
				s.logger.Warn("Failed to release mount", "error", uerr)
			}
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Session: s.name}
}
