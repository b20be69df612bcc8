package ports

import (
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/tree"
)

// MountHandle is an opaque token binding a container to a reconciler's bookkeeping.
type MountHandle uint64

// Reconciler applies descriptions to the tree owned by a session.
// The session never inspects its internals, it only calls through this interface.
type Reconciler interface {
	// CreateMount registers root and returns the handle identifying it.
	CreateMount(root *tree.Container) (MountHandle, error)

	// ApplyUpdate reconciles doc into the container registered under handle.
	// Once it returns, the tree reachable from the container reflects doc.
	ApplyUpdate(doc domain.Element, handle MountHandle) error

	// Unmount releases everything held for handle.
	Unmount(handle MountHandle) error
}
