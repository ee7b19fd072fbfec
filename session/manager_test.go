package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/restoflow/restoflow-mobile/event"
	"github.com/restoflow/restoflow-mobile/kv"
	"github.com/restoflow/restoflow-mobile/kv/memory"
)

type fakeAPI struct {
	loginFn func(ctx context.Context, email, password string) (*Credentials, error)
	staffFn func(ctx context.Context, email, password string) (*Credentials, error)
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*Credentials, error) {
	return f.loginFn(ctx, email, password)
}

func (f *fakeAPI) LoginStaff(ctx context.Context, email, password string) (*Credentials, error) {
	return f.staffFn(ctx, email, password)
}

func clientCreds() *Credentials {
	return &Credentials{
		Token:    "tok-client",
		Role:     RoleClient,
		Identity: json.RawMessage(`{"id":42}`),
	}
}

func recordSnapshots(m *Manager) (*[]Snapshot, *event.Subscription) {
	var mu sync.Mutex
	snaps := &[]Snapshot{}
	sub := m.Subscribe(event.HandlerFunc[Snapshot](func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		*snaps = append(*snaps, s)
	}))
	return snaps, sub
}

func TestManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success publishes client session", func(t *testing.T) {
		api := &fakeAPI{loginFn: func(context.Context, string, string) (*Credentials, error) {
			return clientCreds(), nil
		}}
		store := NewStore(zaptest.NewLogger(t), memory.NewInMemory())
		m := NewManager(zaptest.NewLogger(t), api, store)

		snaps, _ := recordSnapshots(m)

		require.NoError(t, m.Login(ctx, "a@b.c", "pw"))

		require.Len(t, *snaps, 1)
		snap := (*snaps)[0]
		assert.Equal(t, StateAuthenticated, snap.State)
		assert.Equal(t, RoleClient, snap.Session.Role)
		assert.Equal(t, "tok-client", snap.Session.Token)

		// Persisted too.
		persisted, err := store.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, persisted)
		assert.Equal(t, "tok-client", persisted.Token)
	})

	t.Run("rejected credentials leave prior session untouched", func(t *testing.T) {
		calls := 0
		api := &fakeAPI{loginFn: func(context.Context, string, string) (*Credentials, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("bad credentials")
			}
			return clientCreds(), nil
		}}
		store := NewStore(zaptest.NewLogger(t), memory.NewInMemory())
		m := NewManager(zaptest.NewLogger(t), api, store)

		require.NoError(t, m.Login(ctx, "a@b.c", "pw"))
		require.Error(t, m.Login(ctx, "a@b.c", "wrong"))

		snap := m.Current()
		assert.Equal(t, StateAuthenticated, snap.State)
		assert.Equal(t, "tok-client", snap.Session.Token)
	})

	t.Run("persistence write failure fails the login", func(t *testing.T) {
		api := &fakeAPI{loginFn: func(context.Context, string, string) (*Credentials, error) {
			return clientCreds(), nil
		}}
		store := NewStore(zaptest.NewLogger(t), &failingKV{Store: memory.NewInMemory(), failSetMany: true})
		m := NewManager(zaptest.NewLogger(t), api, store)
		m.Restore(ctx)

		snaps, _ := recordSnapshots(m)

		require.Error(t, m.Login(ctx, "a@b.c", "pw"))
		assert.Empty(t, *snaps)
		assert.Equal(t, StateUnauthenticated, m.Current().State)
	})
}

func TestManager_LoginStaff(t *testing.T) {
	ctx := context.Background()

	t.Run("role comes from the backend verbatim", func(t *testing.T) {
		api := &fakeAPI{staffFn: func(context.Context, string, string) (*Credentials, error) {
			return &Credentials{
				Token:    "tok-staff",
				Role:     Role("gerant"),
				Identity: json.RawMessage(`{"id":7}`),
			}, nil
		}}
		store := NewStore(zaptest.NewLogger(t), memory.NewInMemory())
		m := NewManager(zaptest.NewLogger(t), api, store)

		require.NoError(t, m.LoginStaff(ctx, "g@b.c", "pw"))

		snap := m.Current()
		assert.Equal(t, StateAuthenticated, snap.State)
		assert.Equal(t, Role("gerant"), snap.Session.Role)
	})
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears and republishes absent, idempotent", func(t *testing.T) {
		api := &fakeAPI{loginFn: func(context.Context, string, string) (*Credentials, error) {
			return clientCreds(), nil
		}}
		store := NewStore(zaptest.NewLogger(t), memory.NewInMemory())
		m := NewManager(zaptest.NewLogger(t), api, store)

		require.NoError(t, m.Login(ctx, "a@b.c", "pw"))

		snaps, _ := recordSnapshots(m)

		require.NoError(t, m.Logout(ctx))
		require.NoError(t, m.Logout(ctx))

		// Both logouts publish, even with nothing to clear.
		require.Len(t, *snaps, 2)
		assert.Equal(t, StateUnauthenticated, (*snaps)[0].State)
		assert.Equal(t, StateUnauthenticated, (*snaps)[1].State)

		persisted, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, persisted)
	})

	t.Run("clear failure fails the logout and keeps the session", func(t *testing.T) {
		api := &fakeAPI{loginFn: func(context.Context, string, string) (*Credentials, error) {
			return clientCreds(), nil
		}}
		kvs := &failingKV{Store: memory.NewInMemory()}
		m := NewManager(zaptest.NewLogger(t), api, NewStore(zaptest.NewLogger(t), kvs))

		require.NoError(t, m.Login(ctx, "a@b.c", "pw"))

		kvs.failDelete = true
		require.Error(t, m.Logout(ctx))

		// In-memory state stays aligned with the store.
		snap := m.Current()
		assert.Equal(t, StateAuthenticated, snap.State)
		assert.Equal(t, "tok-client", snap.Session.Token)
	})
}

func TestManager_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("starts in restoring state", func(t *testing.T) {
		m := NewManager(zaptest.NewLogger(t), &fakeAPI{}, NewStore(zaptest.NewLogger(t), memory.NewInMemory()))
		assert.Equal(t, StateRestoring, m.Current().State)
	})

	t.Run("restores a persisted session", func(t *testing.T) {
		kvs := memory.NewInMemory()
		store := NewStore(zaptest.NewLogger(t), kvs)
		require.NoError(t, store.Save(ctx, &Session{
			Token:    "tok-old",
			Role:     RoleClient,
			Identity: json.RawMessage(`{"id":42}`),
		}))

		m := NewManager(zaptest.NewLogger(t), &fakeAPI{}, store)
		snaps, _ := recordSnapshots(m)

		m.Restore(ctx)

		require.Len(t, *snaps, 1)
		assert.Equal(t, StateAuthenticated, (*snaps)[0].State)
		assert.Equal(t, "tok-old", (*snaps)[0].Session.Token)
	})

	t.Run("empty store restores unauthenticated", func(t *testing.T) {
		m := NewManager(zaptest.NewLogger(t), &fakeAPI{}, NewStore(zaptest.NewLogger(t), memory.NewInMemory()))

		m.Restore(ctx)
		assert.Equal(t, StateUnauthenticated, m.Current().State)
	})

	t.Run("stale restore loses to a concurrent login", func(t *testing.T) {
		kvs := memory.NewInMemory()
		seed := NewStore(zaptest.NewLogger(t), kvs)
		require.NoError(t, seed.Save(ctx, &Session{
			Token:    "tok-old",
			Role:     RoleClient,
			Identity: json.RawMessage(`{"id":1}`),
		}))

		gate := make(chan struct{})
		gated := &gatedKV{Store: kvs, gate: gate}

		api := &fakeAPI{loginFn: func(context.Context, string, string) (*Credentials, error) {
			return clientCreds(), nil
		}}
		m := NewManager(zaptest.NewLogger(t), api, NewStore(zaptest.NewLogger(t), gated))

		done := make(chan struct{})
		go func() {
			defer close(done)
			m.Restore(ctx)
		}()

		// Login resolves while the restore read is still blocked.
		require.NoError(t, m.Login(ctx, "a@b.c", "pw"))
		close(gate)

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("restore did not resolve")
		}

		snap := m.Current()
		assert.Equal(t, StateAuthenticated, snap.State)
		assert.Equal(t, "tok-client", snap.Session.Token)
	})
}

// gatedKV blocks reads until the gate is closed, simulating a slow
// persistent store during restoration.
type gatedKV struct {
	kv.Store
	gate chan struct{}
}

func (g *gatedKV) Get(ctx context.Context, key string) (string, error) {
	<-g.gate
	return g.Store.Get(ctx, key)
}
