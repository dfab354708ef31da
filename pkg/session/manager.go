package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/statenode"
	"github.com/aretw0/statenode/internal/logging"
	"github.com/aretw0/statenode/pkg/config"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// ErrManagerClosed is returned by operations on a closed Manager.
var ErrManagerClosed = errors.New("session manager is closed")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	cfg   config.Config
	store ports.StateStore

	mu     sync.Mutex            // guards locks, nodes and closed
	locks  map[string]*lockEntry // active locks
	nodes  map[string]*statenode.Node
	closed bool

	locker   ports.DistributedLocker
	lockTTL  time.Duration
	nodeOpts []statenode.Option
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks (default DefaultLockTTL).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithNodeOptions adds options applied to every session node.
func WithNodeOptions(opts ...statenode.Option) Option {
	return func(m *Manager) {
		m.nodeOpts = append(m.nodeOpts, opts...)
	}
}

// WithLogger configures a logger for the Manager and its nodes.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager running cfg for every session, persisted in store.
// Sessions always resume from their last saved state.
func NewManager(cfg *config.Config, store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		cfg:     *cfg,
		store:   store,
		locks:   make(map[string]*lockEntry),
		nodes:   make(map[string]*statenode.Node),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	m.cfg.PersistOnReload = true
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the local and, if configured, the distributed
// lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// node returns the live node of the session, creating it on first use.
// The caller holds the session lock.
func (m *Manager) node(ctx context.Context, sessionID string) (*statenode.Node, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	n, ok := m.nodes[sessionID]
	m.mu.Unlock()
	if ok {
		return n, nil
	}

	opts := append(slices.Clone(m.nodeOpts),
		statenode.WithStore(m.store),
		statenode.WithKey(sessionID),
		statenode.WithLogger(m.logger.With("session_id", sessionID)),
	)
	n, err := statenode.New(ctx, &m.cfg, opts...)
	if err != nil {
		return nil, err
	}
	// The session outlives the call that created it; Close and Delete stop it.
	if err := n.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		_ = n.Close()
		return nil, ErrManagerClosed
	}
	m.nodes[sessionID] = n
	return n, nil
}

// Trigger delivers a raw trigger to the session, creating it if needed.
// With a distributed locker the node is re-synchronized from the store first,
// since another replica may have moved it.
func (m *Manager) Trigger(ctx context.Context, sessionID, trigger string) (statenode.Result, error) {
	var res statenode.Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		n, err := m.node(ctx, sessionID)
		if err != nil {
			return err
		}
		if m.locker != nil {
			if err := n.Reload(ctx); err != nil {
				m.logger.Warn("failed to reload session state", "session_id", sessionID, "err", err)
			}
		}
		res, err = n.Trigger(ctx, trigger)
		return err
	})
	return res, err
}

// Get returns the current snapshot of the session: the live node if one is running
// on this replica, else the stored snapshot. Unknown sessions yield domain.ErrStateNotFound.
func (m *Manager) Get(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		n, ok := m.nodes[sessionID]
		m.mu.Unlock()

		if ok && m.locker == nil {
			snap = domain.NewSnapshot(m.cfg.Name, n.State())
			return nil
		}

		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snap, err
}

// Available returns the canonical triggers accepted by the session in its current state.
func (m *Manager) Available(ctx context.Context, sessionID string) ([]string, error) {
	var names []string
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		n, err := m.node(ctx, sessionID)
		if err != nil {
			return err
		}
		names = n.Available()
		return nil
	})
	return names, err
}

// Delete stops the session and removes its saved state.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		n, ok := m.nodes[sessionID]
		delete(m.nodes, sessionID)
		m.mu.Unlock()

		if ok {
			_ = n.Close()
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List returns the sorted IDs of the stored and live sessions.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	for id := range m.nodes {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	slices.Sort(ids)
	return ids, nil
}

// Config returns the configuration shared by all sessions.
func (m *Manager) Config() config.Config {
	return m.cfg
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// Close stops every live session. Saved states are kept.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for id, n := range m.nodes {
		_ = n.Close()
		delete(m.nodes, id)
	}
	return nil
}
