package session_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	saves atomic.Int32
}

func newSlowStore() *SlowStore {
	return &SlowStore{Store: memory.NewStore()}
}

func (s *SlowStore) Save(ctx context.Context, id string, doc domain.Element) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.saves.Add(1)
	return s.Store.Save(ctx, id, doc)
}

func describe(text string) domain.Element {
	return domain.Element{
		Kind: domain.KindDocument,
		Children: []domain.Element{{
			Kind:     domain.KindPage,
			Children: []domain.Element{{Kind: domain.KindText, Text: text}},
		}},
	}
}

func TestManager_UpdatePersistsOnlyChanges(t *testing.T) {
	store := newSlowStore()
	m := session.NewManager(store)
	ctx := context.Background()

	require.NoError(t, m.Update(ctx, "doc", describe("one")))
	require.NoError(t, m.Update(ctx, "doc", describe("one")))
	assert.Equal(t, int32(1), store.saves.Load(), "unchanged descriptions are not rewritten")

	fp1, err := m.Fingerprint(ctx, "doc")
	require.NoError(t, err)

	require.NoError(t, m.Update(ctx, "doc", describe("two")))
	assert.Equal(t, int32(2), store.saves.Load())

	fp2, err := m.Fingerprint(ctx, "doc")
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)

	stored, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "two", stored.Children[0].Children[0].Text)
}

// FailingStore rejects the next Save while failNext is set.
type FailingStore struct {
	*memory.Store
	failNext atomic.Bool
}

func (s *FailingStore) Save(ctx context.Context, id string, doc domain.Element) error {
	if s.failNext.CompareAndSwap(true, false) {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, id, doc)
}

func TestManager_UpdateRetriesFailedSave(t *testing.T) {
	store := &FailingStore{Store: memory.NewStore()}
	m := session.NewManager(store)
	ctx := context.Background()

	require.NoError(t, m.Update(ctx, "doc", describe("one")))

	store.failNext.Store(true)
	assert.ErrorContains(t, m.Update(ctx, "doc", describe("two")), "disk full")

	require.NoError(t, m.Update(ctx, "doc", describe("two")), "same description, store healthy again")
	stored, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "two", stored.Children[0].Children[0].Text)
}

func TestManager_FirstSaveFailureDropsSession(t *testing.T) {
	store := &FailingStore{Store: memory.NewStore()}
	m := session.NewManager(store)
	ctx := context.Background()

	store.failNext.Store(true)
	assert.Error(t, m.Update(ctx, "doc", describe("one")))

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "an unpersisted session is not kept live")
	_, err = m.Open(ctx, "doc")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	require.NoError(t, m.Update(ctx, "doc", describe("one")))
	_, err = store.Load(ctx, "doc")
	assert.NoError(t, err)
}

func TestManager_BufferDrainedAfterUpdateKeepsNewChange(t *testing.T) {
	m := session.NewManager(nil)
	defer m.Close()
	ctx := context.Background()
	require.NoError(t, m.Update(ctx, "doc", describe("one")))

	var rc io.ReadCloser
	require.NoError(t, m.WithSession(ctx, "doc", func(ctx context.Context, s *quire.Session) error {
		var err error
		rc, err = s.ToBuffer(ctx)
		return err
	}))

	// The stream is still open when the next update lands.
	require.NoError(t, m.Update(ctx, "doc", describe("two")))
	_, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	require.NoError(t, m.WithSession(ctx, "doc", func(_ context.Context, s *quire.Session) error {
		assert.True(t, s.IsDirty(), "a pass over the old tree must not clear the newer change")
		return nil
	}))
}

func TestManager_InvalidDescriptionNotPersisted(t *testing.T) {
	store := newSlowStore()
	m := session.NewManager(store)
	ctx := context.Background()

	err := m.Update(ctx, "bad", domain.Element{Kind: domain.KindView})
	var invalid *domain.InvalidTreeError
	require.ErrorAs(t, err, &invalid)
	assert.Zero(t, store.saves.Load())

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// A rejected update leaves an existing session as it was.
	require.NoError(t, m.Update(ctx, "doc", describe("kept")))
	require.Error(t, m.Update(ctx, "doc", domain.Element{Kind: domain.KindPage}))
	stored, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "kept", stored.Children[0].Children[0].Text)
}

func TestManager_RestoresAfterRestart(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := session.NewManager(store)
	require.NoError(t, first.Update(ctx, "doc", describe("persisted")))
	fp, err := first.Fingerprint(ctx, "doc")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := session.NewManager(store)
	s, err := second.Open(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "doc", s.Name())
	assert.True(t, s.IsDirty(), "a restored session has not rendered yet")

	restored, err := second.Fingerprint(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, fp, restored)

	again, err := second.Open(ctx, "doc")
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestManager_OpenMissing(t *testing.T) {
	m := session.NewManager(nil)
	_, err := m.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestManager_LoaderFallback(t *testing.T) {
	loader := memory.NewFromElements(map[string]domain.Element{"seed": describe("from loader")})
	m := session.NewManager(nil, session.WithLoader(loader))

	s, err := m.Open(context.Background(), "seed")
	require.NoError(t, err)
	assert.True(t, s.IsDirty())
}

func TestManager_WithSessionRenders(t *testing.T) {
	m := session.NewManager(nil)
	ctx := context.Background()
	require.NoError(t, m.Update(ctx, "doc", describe("hi")))

	err := m.WithSession(ctx, "doc", func(ctx context.Context, s *quire.Session) error {
		b, err := s.ToBlob(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, domain.ContentTypePDF, b.Type())
		assert.False(t, s.IsDirty())
		return nil
	})
	require.NoError(t, err)

	sentinel := errors.New("stop")
	err = m.WithSession(ctx, "doc", func(context.Context, *quire.Session) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestManager_Destroy(t *testing.T) {
	store := newSlowStore()
	m := session.NewManager(store)
	ctx := context.Background()
	require.NoError(t, m.Update(ctx, "doc", describe("x")))
	s, err := m.Open(ctx, "doc")
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, "doc"))
	assert.ErrorIs(t, s.Update(ctx, describe("y")), domain.ErrSessionDestroyed)
	_, err = store.Load(ctx, "doc")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	// Destroying an unknown ID is not an error.
	assert.NoError(t, m.Destroy(ctx, "never"))
}

func TestManager_ListMergesLiveAndStored(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "stored", describe("s")))

	m := session.NewManager(store)
	require.NoError(t, m.Update(ctx, "live", describe("l")))

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "stored"}, ids)
}

func TestManager_ConcurrentUpdates(t *testing.T) {
	store := newSlowStore()
	m := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, m.Update(ctx, "race", describe(fmt.Sprintf("v%d", i))))
		}(i)
	}
	wg.Wait()

	s, err := m.Open(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, "race", s.Name())
	assert.Equal(t, int32(10), store.saves.Load())
}

type recordingLocker struct {
	mu      sync.Mutex
	locks   []string
	unlocks int
	fail    error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.locks = append(l.locks, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	m := session.NewManager(nil, session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, m.Update(ctx, "a", describe("x")))
	_, err := m.Open(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a"}, locker.locks)
	assert.Equal(t, 2, locker.unlocks)

	locker.fail = errors.New("redis down")
	err = m.Update(ctx, "a", describe("y"))
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

func TestManager_SessionOptions(t *testing.T) {
	var updates atomic.Int32
	m := session.NewManager(nil, session.WithSessionOptions(quire.WithLifecycleHooks(domain.LifecycleHooks{
		OnUpdate: func(context.Context, *domain.UpdateEvent) { updates.Add(1) },
	})))
	ctx := context.Background()
	require.NoError(t, m.Update(ctx, "doc", describe("a")))
	require.NoError(t, m.Update(ctx, "doc", describe("b")))
	assert.Equal(t, int32(2), updates.Load())
}
