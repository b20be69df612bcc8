package quire

import (
	"context"

	"github.com/aretw0/quire/pkg/domain"
)

// Name returns the label given with WithName.
func (s *Session) Name() string {
	return s.name
}

// Update reconciles desc into the owned tree under the session's mount.
// The root must be a DOCUMENT; the check happens before anything is touched.
// Submitting an unchanged description is a no-op.
func (s *Session) Update(ctx context.Context, desc domain.Element) error {
	if s.destroyed.Load() {
		return domain.ErrSessionDestroyed
	}
	if desc.Kind != domain.KindDocument {
		return &domain.InvalidTreeError{Kind: desc.Kind, Reason: "root must be DOCUMENT"}
	}
	if err := s.reconciler.ApplyUpdate(desc, s.mount); err != nil {
		s.logger.Debug("Update rejected", "error", err)
		return err
	}

	if s.hooks.OnUpdate != nil {
		s.hooks.OnUpdate(ctx, &domain.UpdateEvent{
			EventBase:  s.event(domain.EventUpdate),
			Dirty:      s.container.IsDirty(),
			Generation: s.container.Generation(),
		})
	}
	return nil
}

// IsDirty reports whether the tree changed since the last completed render pass.
// A destroyed session is never dirty.
func (s *Session) IsDirty() bool {
	if s.destroyed.Load() {
		return false
	}
	return s.container.IsDirty()
}

// Generation returns the number of updates that changed the tree.
func (s *Session) Generation() uint64 {
	return s.container.Generation()
}

// LayoutData returns the layout computed by the latest render pass.
// It is empty until a pass has started.
func (s *Session) LayoutData() (domain.LayoutData, error) {
	if s.destroyed.Load() {
		return domain.LayoutData{}, domain.ErrSessionDestroyed
	}
	return s.container.LayoutData(), nil
}

// Destroy releases open buffer handles and the mount, then invalidates the
// session. In-flight blob or text passes are not canceled. Calling Destroy
// again does nothing.
func (s *Session) Destroy() {
	if !s.destroyed.CompareAndSwap(false, true) {
		return
	}
	if err := s.handles.CloseAll(); err != nil {
		s.logger.Warn("Failed to close buffer handles", "error", err)
	}
	if err := s.reconciler.Unmount(s.mount); err != nil {
		s.logger.Warn("Failed to unmount document", "error", err)
	}
	s.container.RemoveChild()
	s.logger.Debug("Session destroyed")

	if s.hooks.OnDestroy != nil {
		ev := s.event(domain.EventDestroy)
		s.hooks.OnDestroy(context.Background(), &ev)
	}
}
