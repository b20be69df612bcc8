package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/quire/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()
	count := 2000

	doc := domain.Element{Kind: domain.KindDocument}
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("doc-%d", i)
		_ = mgr.Update(ctx, id, doc)
		_ = mgr.Destroy(ctx, id)
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Destroy", n)
	}
	if n := len(mgr.sessions); n != 0 {
		t.Errorf("%d sessions still live after Destroy", n)
	}
}
