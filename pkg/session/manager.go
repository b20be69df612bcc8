package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/codec"
	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a document.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// live is a session hosted by the Manager. fingerprint is the description
// last applied to the session; saved is the one last written to the store.
type live struct {
	session     *quire.Session
	fingerprint string
	saved       string
}

// Manager hosts many sessions by document ID.
//
// Every operation on an ID runs under that ID's lock (and the distributed
// lock when configured), so each session keeps a single owner even when the
// Manager is shared by concurrent requests. Per-ID locks are reference
// counted and dropped when unused.
//
// The one exception is a stream returned by Session.ToBuffer: it outlives
// the WithSession call that opened it, so its pass completes (clearing the
// dirty flag and firing hooks) outside the lock, possibly alongside an
// Update. The session only clears dirtiness when the generation the pass
// rendered is still current, so such an overlap never hides a newer change.
type Manager struct {
	store  ports.DocumentStore
	loader ports.DocumentLoader

	mu       sync.Mutex            // guards locks and sessions
	locks    map[string]*lockEntry // active per-ID locks
	sessions map[string]*live

	locker      ports.DistributedLocker
	lockTTL     time.Duration
	sessionOpts []quire.Option
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLoader sets a fallback source for documents missing from the store.
func WithLoader(loader ports.DocumentLoader) Option {
	return func(m *Manager) {
		m.loader = loader
	}
}

// WithSessionOptions applies opts to every session the Manager starts.
func WithSessionOptions(opts ...quire.Option) Option {
	return func(m *Manager) {
		m.sessionOpts = append(m.sessionOpts, opts...)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager persisting descriptions to store.
// A nil store keeps them in memory.
func NewManager(store ports.DocumentStore, opts ...Option) *Manager {
	if store == nil {
		store = memory.NewStore()
	}
	m := &Manager{
		store:    store,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*live),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes fn while holding the lock for id.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"document", id,
					"err", err,
				)
			}
		}()
	}
	return fn(ctx)
}

func (m *Manager) get(id string) *live {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *Manager) put(id string, l *live) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l == nil {
		delete(m.sessions, id)
		return
	}
	m.sessions[id] = l
}

// start creates a session for id from desc. Caller holds the lock.
func (m *Manager) start(id string, desc domain.Element) (*live, error) {
	fp, err := codec.Fingerprint(desc)
	if err != nil {
		return nil, err
	}
	opts := append([]quire.Option{
		quire.WithName(id),
		quire.WithLogger(m.logger),
	}, m.sessionOpts...)
	s, err := quire.Start(&desc, opts...)
	if err != nil {
		return nil, err
	}
	l := &live{session: s, fingerprint: fp, saved: fp}
	m.put(id, l)
	return l, nil
}

// restore brings id back from the store, or the loader. Caller holds the lock.
func (m *Manager) restore(ctx context.Context, id string) (*live, error) {
	if l := m.get(id); l != nil {
		return l, nil
	}

	desc, err := m.store.Load(ctx, id)
	if errors.Is(err, domain.ErrDocumentNotFound) && m.loader != nil {
		desc, err = m.loader.Load(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	l, err := m.start(id, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to restore document %s: %w", id, err)
	}
	m.logger.Debug("Session restored", "document", id)
	return l, nil
}

// Update applies desc to the session for id, starting one if needed, and
// persists it. A description matching the last one saved is not written
// again; after a failed save the next Update retries the write.
func (m *Manager) Update(ctx context.Context, id string, desc domain.Element) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		fp, err := codec.Fingerprint(desc)
		if err != nil {
			return err
		}

		l := m.get(id)
		if l == nil {
			if l, err = m.start(id, desc); err != nil {
				return err
			}
			if err := m.store.Save(ctx, id, desc); err != nil {
				// A session that was never persisted must not outlive the failure.
				l.session.Destroy()
				m.put(id, nil)
				return fmt.Errorf("failed to persist document %s: %w", id, err)
			}
			return nil
		}

		if err := l.session.Update(ctx, desc); err != nil {
			return err
		}
		l.fingerprint = fp
		if fp == l.saved {
			return nil
		}
		if err := m.store.Save(ctx, id, desc); err != nil {
			return fmt.Errorf("failed to persist document %s: %w", id, err)
		}
		l.saved = fp
		return nil
	})
}

// Open returns the live session for id, restoring it when needed.
// The caller must not use the session concurrently with other Manager
// operations on the same ID; prefer WithSession.
func (m *Manager) Open(ctx context.Context, id string) (*quire.Session, error) {
	var s *quire.Session
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		l, err := m.restore(ctx, id)
		if err != nil {
			return err
		}
		s = l.session
		return nil
	})
	return s, err
}

// WithSession runs fn with the session for id while holding its lock.
func (m *Manager) WithSession(ctx context.Context, id string, fn func(context.Context, *quire.Session) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		l, err := m.restore(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, l.session)
	})
}

// Fingerprint returns the fingerprint of the description last applied to id.
func (m *Manager) Fingerprint(ctx context.Context, id string) (string, error) {
	var fp string
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		l, err := m.restore(ctx, id)
		if err != nil {
			return err
		}
		fp = l.fingerprint
		return nil
	})
	return fp, err
}

// Destroy tears down the session for id and deletes its description.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		if l := m.get(id); l != nil {
			l.session.Destroy()
			m.put(id, nil)
		}
		return m.store.Delete(ctx, id)
	})
}

// List returns the IDs of live and stored documents, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stored))
	for _, id := range stored {
		seen[id] = true
	}
	m.mu.Lock()
	for id := range m.sessions {
		seen[id] = true
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// Close destroys every live session. Stored descriptions are kept, so a new
// Manager over the same store picks up where this one stopped.
func (m *Manager) Close() error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		entry := m.acquire(id)
		entry.mu.Lock()
		if l := m.get(id); l != nil {
			l.session.Destroy()
			m.put(id, nil)
		}
		entry.mu.Unlock()
		m.release(id)
	}
	return nil
}
