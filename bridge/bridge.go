package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/restoflow/restoflow-mobile/event"
	"github.com/restoflow/restoflow-mobile/push"
	"github.com/restoflow/restoflow-mobile/session"
)

// Bridge ties the session lifecycle to the notification side: whenever a
// session exists it arms the router, requests notification permission, and
// registers the device token against the session's identity. On logout it
// detaches everything before the logout call returns.
type Bridge struct {
	log         *zap.Logger
	sessions    *session.Manager
	permissions *push.PermissionManager
	registrar   *push.Registrar
	router      *push.Router

	mu      sync.Mutex
	ctx     context.Context
	granted bool
	active  bool
	sub     *event.Subscription
}

func New(
	log *zap.Logger,
	sessions *session.Manager,
	permissions *push.PermissionManager,
	registrar *push.Registrar,
	router *push.Router,
) *Bridge {
	return &Bridge{
		log:         log,
		sessions:    sessions,
		permissions: permissions,
		registrar:   registrar,
		router:      router,
	}
}

// Start subscribes to session snapshots and processes the current one, so
// a session established before Start is not missed.
func (b *Bridge) Start(ctx context.Context) {
	b.mu.Lock()
	b.ctx = ctx
	b.sub = b.sessions.Subscribe(event.HandlerFunc[session.Snapshot](b.onSnapshot))
	b.mu.Unlock()

	b.onSnapshot(b.sessions.Current())
}

// Stop detaches from the session bus and releases the router.
func (b *Bridge) Stop() {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.active = false
	b.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	b.router.Detach()
}

func (b *Bridge) onSnapshot(snap session.Snapshot) {
	switch snap.State {
	case session.StateAuthenticated:
		b.onAuthenticated(snap.Session)
	case session.StateUnauthenticated:
		b.onUnauthenticated()
	case session.StateRestoring:
		// Nothing to do until restoration resolves.
	}
}

func (b *Bridge) onAuthenticated(sess *session.Session) {
	b.mu.Lock()
	b.active = true
	ctx := b.ctx
	b.mu.Unlock()

	if err := b.router.Attach(ctx); err != nil {
		b.log.Warn("Failed to arm notification router", zap.Error(err))
	}

	if !b.ensurePermission(ctx) {
		return
	}

	b.register(ctx, sess)
}

func (b *Bridge) onUnauthenticated() {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()

	b.router.Detach()
}

// ensurePermission prompts at most until granted: a grant is remembered
// for the process lifetime, a denial is re-requested on the next
// authenticated transition.
func (b *Bridge) ensurePermission(ctx context.Context) bool {
	b.mu.Lock()
	if b.granted {
		b.mu.Unlock()
		return true
	}
	b.mu.Unlock()

	granted, err := b.permissions.Request(ctx)
	if err != nil {
		b.log.Warn("Permission prompt failed", zap.Error(err))
		granted = false
	}

	b.mu.Lock()
	b.granted = granted
	active := b.active
	b.mu.Unlock()

	// The session may have ended while the prompt was up.
	return granted && active
}

// register sends the binding best-effort. Failures are logged and retried
// on the next trigger, never surfaced to the user, and a result arriving
// after logout is simply dropped.
func (b *Bridge) register(ctx context.Context, sess *session.Session) {
	b.mu.Lock()
	active := b.active
	b.mu.Unlock()
	if !active {
		return
	}

	userID, err := sess.IdentityID()
	if err != nil {
		b.log.Warn("Cannot register device token without identity id", zap.Error(err))
		return
	}

	if err := b.registrar.Register(ctx, userID, sess.Role); err != nil {
		b.log.Warn("Device token registration failed", zap.Error(err))
	}
}
