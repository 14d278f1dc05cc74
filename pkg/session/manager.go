package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/muster/internal/logging"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/aretw0/muster/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
// It outlives the default coordinator lock budget.
const DefaultLockTTL = time.Minute

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Mutation changes a session in place. When save is true the session is written
// back to the store, even if err is non-nil.
type Mutation func(ctx context.Context, s *domain.Session) (save bool, err error)

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager over the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(scope) after unlocking.
func (m *Manager) acquire(scope string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[scope]
	if !exists {
		entry = &lockEntry{}
		m.locks[scope] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[scope]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, scope)
	}
}

// Load returns a copy of the scope's session.
// A scope that never started a session yields an idle Session, not an error.
func (m *Manager) Load(ctx context.Context, scope string) (*domain.Session, error) {
	var session *domain.Session
	err := m.WithLock(ctx, scope, func(ctx context.Context) error {
		var err error
		session, err = m.load(ctx, scope)
		return err
	})
	return session, err
}

// Update runs fn against the scope's session while holding the scope lock.
func (m *Manager) Update(ctx context.Context, scope string, fn Mutation) error {
	return m.WithLock(ctx, scope, func(ctx context.Context) error {
		session, err := m.load(ctx, scope)
		if err != nil {
			return err
		}

		save, fnErr := fn(ctx, session)
		if save {
			if err := m.store.Save(ctx, scope, session); err != nil {
				return errors.Join(fnErr, fmt.Errorf("failed to save session: %w", err))
			}
		}
		return fnErr
	})
}

func (m *Manager) load(ctx context.Context, scope string) (*domain.Session, error) {
	session, err := m.store.Load(ctx, scope)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return &domain.Session{Scope: scope}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// Delete removes the scope's session from the store.
func (m *Manager) Delete(ctx context.Context, scope string) error {
	return m.WithLock(ctx, scope, func(ctx context.Context) error {
		return m.store.Delete(ctx, scope)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// WithLock executes a function while holding the lock for the scope.
func (m *Manager) WithLock(ctx context.Context, scope string, fn func(context.Context) error) error {
	entry := m.acquire(scope)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(scope)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, scope, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's ctx may already be done; release on a fresh one.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"scope", scope,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
