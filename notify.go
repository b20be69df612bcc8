package quire

import (
	"context"
	"fmt"

	"github.com/aretw0/quire/internal/runtime"
	"github.com/aretw0/quire/pkg/domain"
)

// notify hands outcome and the current layout to the render callback of the
// mounted document. It is a no-op without a callback, and runs at most once
// per pass. A callback error or panic is returned as a *CallbackError.
func (s *Session) notify(ctx context.Context, pass *runtime.Pass, outcome domain.Outcome) error {
	doc := s.container.Document()
	if doc == nil || doc.OnRender == nil {
		return nil
	}
	if !pass.MarkNotified() {
		return nil
	}

	result := domain.RenderResult{Outcome: outcome, Layout: s.container.LayoutData()}
	if err := guard(func() error { return doc.OnRender(ctx, result) }); err != nil {
		s.logger.Debug("Render callback failed", "pass", pass.ID, "output", pass.Output, "error", err)
		return &domain.CallbackError{Output: pass.Output, Err: err}
	}
	return nil
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
