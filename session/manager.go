package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/restoflow/restoflow-mobile/event"
)

type State int

const (
	// StateRestoring is the startup state, before Restore has resolved.
	// Callers must not make role-gated decisions while restoring.
	StateRestoring State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a published view of the session state. Session is non-nil
// only when State is StateAuthenticated.
type Snapshot struct {
	State   State
	Session *Session
}

// AuthAPI is the login capability of the backend.
type AuthAPI interface {
	// Login authenticates a customer. The role is always RoleClient.
	Login(ctx context.Context, email, password string) (*Credentials, error)

	// LoginStaff authenticates a staff member. The role comes back from
	// the server and is trusted verbatim.
	LoginStaff(ctx context.Context, email, password string) (*Credentials, error)
}

// Manager owns the session: login, staff login, logout, and startup
// restoration. It is the single source of truth for who is logged in, as
// what role; consumers observe it through Subscribe rather than shared
// state.
type Manager struct {
	log   *zap.Logger
	api   AuthAPI
	store *Store
	bus   *event.Bus[Snapshot]

	// pubMu serializes transitions so snapshots reach subscribers in
	// version order.
	pubMu sync.Mutex

	mu      sync.Mutex
	version uint64
	current Snapshot
}

func NewManager(log *zap.Logger, api AuthAPI, store *Store) *Manager {
	return &Manager{
		log:     log,
		api:     api,
		store:   store,
		bus:     event.NewBus[Snapshot](),
		current: Snapshot{State: StateRestoring},
	}
}

// Current returns the latest published snapshot.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current
}

// Subscribe registers a handler for session snapshots. Handlers run
// synchronously within the call that caused the transition.
func (m *Manager) Subscribe(h event.Handler[Snapshot]) *event.Subscription {
	return m.bus.Subscribe(h)
}

// Restore resolves the startup state from the persisted store. Invoked once
// at process start. A read failure restores as unauthenticated rather than
// failing startup. If a login resolves first, the stale restore result is
// discarded.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	started := m.version
	m.mu.Unlock()

	sess, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("Failed to restore session, treating as absent", zap.Error(err))
		sess = nil
	}

	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	if m.version != started {
		// A login or logout published while we were reading; its session
		// wins over the restored one.
		m.mu.Unlock()
		m.log.Debug("Discarding stale restore result")
		return
	}

	m.version++
	if sess != nil {
		m.current = Snapshot{State: StateAuthenticated, Session: sess}
	} else {
		m.current = Snapshot{State: StateUnauthenticated}
	}
	snap := m.current
	m.mu.Unlock()

	m.log.Info("Session restored", zap.String("state", snap.State.String()))
	m.bus.Publish(snap)
}

// Login authenticates a customer and establishes the session. On failure
// the prior session is left untouched and the classified error is returned
// for display.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	creds, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	return m.establish(ctx, creds)
}

// LoginStaff authenticates a staff member; the backend decides the role.
func (m *Manager) LoginStaff(ctx context.Context, email, password string) error {
	creds, err := m.api.LoginStaff(ctx, email, password)
	if err != nil {
		return err
	}

	return m.establish(ctx, creds)
}

func (m *Manager) establish(ctx context.Context, creds *Credentials) error {
	sess := &Session{
		Token:    creds.Token,
		Role:     creds.Role,
		Identity: creds.Identity,
	}

	// Persist before publishing: in-memory state must never diverge from
	// the store, so a failed write fails the whole login.
	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}

	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	m.version++
	m.current = Snapshot{State: StateAuthenticated, Session: sess}
	snap := m.current
	m.mu.Unlock()

	m.log.Info("Session established", zap.String("role", string(sess.Role)))
	m.bus.Publish(snap)

	return nil
}

// Logout clears the session. Safe to call with no session active; the
// absent snapshot is republished either way so observers detach.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}

	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	m.version++
	m.current = Snapshot{State: StateUnauthenticated}
	snap := m.current
	m.mu.Unlock()

	m.log.Info("Session cleared")
	m.bus.Publish(snap)

	return nil
}
