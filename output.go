package quire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/transform"

	"github.com/aretw0/quire/internal/runtime"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// errClosedEarly fails a buffer pass whose handle was closed before EOF.
var errClosedEarly = errors.New("stream closed before end")

// begin starts a pass of the given output on the current tree.
func (s *Session) begin(ctx context.Context, output domain.OutputKind) (*runtime.Pass, io.ReadCloser, error) {
	if s.destroyed.Load() {
		return nil, nil, domain.ErrSessionDestroyed
	}
	pass := runtime.NewPass(output, s.container.Generation())
	if s.hooks.OnRenderStart != nil {
		s.hooks.OnRenderStart(ctx, s.renderEvent(domain.EventRenderStart, pass, nil))
	}
	s.logger.Debug("Render pass started", "pass", pass.ID, "output", output)

	rc, err := s.renderer.Render(ctx, s.container)
	if err != nil {
		serr := &domain.StreamError{Output: output, Err: err}
		s.failed(ctx, pass, serr)
		return nil, nil, serr
	}
	return pass, rc, nil
}

// completed clears dirtiness unless the tree moved on since the pass started.
func (s *Session) completed(ctx context.Context, pass *runtime.Pass) {
	cleared := s.container.ClearDirty(pass.Generation)
	s.logger.Debug("Render pass completed",
		"pass", pass.ID, "output", pass.Output, "bytes", pass.Bytes(), "clean", cleared)
	if s.hooks.OnRenderComplete != nil {
		s.hooks.OnRenderComplete(ctx, s.renderEvent(domain.EventRenderComplete, pass, nil))
	}
}

// failed moves pass to Failed (if it is not already) and fires the failure hook.
func (s *Session) failed(ctx context.Context, pass *runtime.Pass, err error) {
	pass.Fail()
	s.logger.Debug("Render pass failed", "pass", pass.ID, "output", pass.Output, "error", err)
	if s.hooks.OnRenderFail != nil {
		s.hooks.OnRenderFail(ctx, s.renderEvent(domain.EventRenderFail, pass, err))
	}
}

func (s *Session) renderEvent(t domain.EventType, pass *runtime.Pass, err error) *domain.RenderEvent {
	ev := &domain.RenderEvent{
		EventBase: s.event(t),
		PassID:    pass.ID,
		Output:    pass.Output,
		Bytes:     pass.Bytes(),
		Err:       err,
	}
	if t != domain.EventRenderStart {
		ev.Duration = pass.Duration()
	}
	return ev
}

// ToBuffer starts a render pass and returns its live byte stream.
//
// The render callback runs before ToBuffer returns, with a BufferOutcome and
// the layout computed at the start of the pass; it does not wait for the
// stream. The caller owns the handle and must read it to EOF or Close it.
// Reaching EOF completes the pass. Every call yields an independent pass.
func (s *Session) ToBuffer(ctx context.Context) (io.ReadCloser, error) {
	pass, rc, err := s.begin(ctx, domain.OutputBuffer)
	if err != nil {
		return nil, err
	}
	h := &bufferHandle{session: s, pass: pass, rc: rc, ctx: context.WithoutCancel(ctx)}
	s.handles.Add(pass.ID, h)

	if err := s.notify(ctx, pass, domain.BufferOutcome{}); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

// ToBlob renders into a fresh blob sink and returns the accumulated
// downloadable object once the sink has finished. The render callback gets
// the same blob. On any stream or conversion failure the callback is skipped.
func (s *Session) ToBlob(ctx context.Context) (*domain.Blob, error) {
	pass, rc, err := s.begin(ctx, domain.OutputBlob)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sink := &blobConsumer{sink: s.newSink()}
	if err := runtime.Pump(ctx, pass, rc, sink); err != nil {
		serr := &domain.StreamError{Output: domain.OutputBlob, Err: err}
		s.failed(ctx, pass, serr)
		return nil, serr
	}
	s.completed(ctx, pass)

	if err := s.notify(ctx, pass, domain.BlobOutcome{Blob: sink.blob}); err != nil {
		return nil, err
	}
	return sink.blob, nil
}

// ToText renders and assembles every chunk, in emission order, into one
// string. A pass with no chunks yields "". On a stream or decode failure
// the callback is skipped.
func (s *Session) ToText(ctx context.Context) (string, error) {
	pass, rc, err := s.begin(ctx, domain.OutputText)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var r io.Reader = rc
	if s.decoder != nil {
		r = transform.NewReader(rc, s.decoder.NewDecoder())
	}
	acc := &textConsumer{}
	if err := runtime.Pump(ctx, pass, r, acc); err != nil {
		serr := &domain.StreamError{Output: domain.OutputText, Err: err}
		s.failed(ctx, pass, serr)
		return "", serr
	}
	s.completed(ctx, pass)

	text := acc.b.String()
	if err := s.notify(ctx, pass, domain.TextOutcome{Text: text}); err != nil {
		return "", err
	}
	return text, nil
}

type blobConsumer struct {
	sink ports.BlobSink
	blob *domain.Blob
}

func (c *blobConsumer) Data(chunk []byte) error {
	_, err := c.sink.Write(chunk)
	return err
}

func (c *blobConsumer) End() error {
	if err := c.sink.Finish(); err != nil {
		return err
	}
	return guard(func() error {
		b, err := c.sink.Blob(domain.ContentTypePDF)
		if err != nil {
			return fmt.Errorf("convert to blob: %w", err)
		}
		c.blob = b
		return nil
	})
}

type textConsumer struct {
	b strings.Builder
}

func (c *textConsumer) Data(chunk []byte) error {
	c.b.Write(chunk)
	return nil
}

func (c *textConsumer) End() error { return nil }

// bufferHandle is the stream handed out by ToBuffer. Reads drive the pass.
type bufferHandle struct {
	session *Session
	pass    *runtime.Pass
	rc      io.ReadCloser
	ctx     context.Context
	once    sync.Once
}

func (h *bufferHandle) Read(p []byte) (int, error) {
	n, err := h.rc.Read(p)
	if n > 0 {
		h.pass.Accumulate(n)
	}
	switch {
	case err == io.EOF:
		if h.pass.Complete() {
			h.session.handles.Remove(h.pass.ID)
			h.session.completed(h.ctx, h.pass)
		}
	case err != nil:
		if h.pass.Fail() {
			h.session.failed(h.ctx, h.pass, &domain.StreamError{Output: domain.OutputBuffer, Err: err})
		}
	}
	return n, err
}

// Close releases the stream. Closing before EOF fails the pass.
func (h *bufferHandle) Close() error {
	var err error
	h.once.Do(func() {
		err = h.rc.Close()
		h.session.handles.Remove(h.pass.ID)
		if h.pass.Fail() {
			h.session.failed(h.ctx, h.pass, &domain.StreamError{Output: domain.OutputBuffer, Err: errClosedEarly})
		}
	})
	return err
}
