package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/quire/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, failures at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnUpdate: func(ctx context.Context, e *domain.UpdateEvent) {
			logger.DebugContext(ctx, "document_update",
				"session", e.Session, "dirty", e.Dirty, "generation", e.Generation)
		},
		OnRenderStart: func(ctx context.Context, e *domain.RenderEvent) {
			logger.DebugContext(ctx, "render_start",
				"session", e.Session, "pass", e.PassID, "output", e.Output)
		},
		OnRenderComplete: func(ctx context.Context, e *domain.RenderEvent) {
			logger.DebugContext(ctx, "render_complete",
				"session", e.Session, "pass", e.PassID, "output", e.Output,
				"bytes", e.Bytes, "duration", e.Duration)
		},
		OnRenderFail: func(ctx context.Context, e *domain.RenderEvent) {
			logger.WarnContext(ctx, "render_fail",
				"session", e.Session, "pass", e.PassID, "output", e.Output, "error", e.Err)
		},
		OnDestroy: func(ctx context.Context, e *domain.EventBase) {
			logger.DebugContext(ctx, "session_destroy", "session", e.Session)
		},
	}
}

// Chain calls each hook set in order. Nil hooks are skipped.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnUpdate = chain(out.OnUpdate, h.OnUpdate)
		out.OnRenderStart = chain(out.OnRenderStart, h.OnRenderStart)
		out.OnRenderComplete = chain(out.OnRenderComplete, h.OnRenderComplete)
		out.OnRenderFail = chain(out.OnRenderFail, h.OnRenderFail)
		out.OnDestroy = chain(out.OnDestroy, h.OnDestroy)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
