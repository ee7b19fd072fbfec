package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ReneKroon/ttlcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/restoflow/restoflow-mobile/kv"
	"github.com/restoflow/restoflow-mobile/session"
)

const keyDeviceToken = "fcmToken"

// TokenProvider is the push-provider capability that issues this install's
// device token.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenRegistry is the backend capability that binds a device token to an
// identity. The backend upserts on (identity, role).
type TokenRegistry interface {
	RegisterToken(ctx context.Context, userID json.Number, role session.Role, fcmToken string) error
}

// Registrar owns the device's push identity: it acquires and caches the
// provider token, and registers it with the backend against the current
// identity and role.
type Registrar struct {
	log      *zap.Logger
	kv       kv.Store
	provider TokenProvider
	registry TokenRegistry

	// bindings remembers recently registered (identity, role, token)
	// tuples so unchanged bindings are not re-sent within the
	// revalidation interval. An interval of zero disables suppression and
	// every trigger reaches the backend.
	bindings   *ttlcache.Cache
	revalidate time.Duration
}

type RegistrarOption func(*Registrar)

// WithRevalidateInterval suppresses re-registration of an unchanged
// binding for the given duration. Zero (the default) re-sends on every
// trigger.
func WithRevalidateInterval(interval time.Duration) RegistrarOption {
	return func(r *Registrar) {
		r.revalidate = interval
	}
}

func NewRegistrar(log *zap.Logger, kvs kv.Store, provider TokenProvider, registry TokenRegistry, opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		log:      log,
		kv:       kvs,
		provider: provider,
		registry: registry,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.revalidate > 0 {
		cache := ttlcache.NewCache()
		cache.SetTTL(r.revalidate)
		r.bindings = cache
	}

	return r
}

// Token returns the cached device token, acquiring one from the provider
// only when no cached token exists. Provider tokens are long-lived; the
// cache avoids churning them.
func (r *Registrar) Token(ctx context.Context) (string, error) {
	cached, err := r.kv.Get(ctx, keyDeviceToken)
	if err == nil && cached != "" {
		return cached, nil
	}
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return "", errors.Wrap(err, "failed to read cached device token")
	}

	token, err := r.provider.Token(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to acquire device token")
	}
	if token == "" {
		return "", errors.New("provider returned empty device token")
	}

	if err := r.kv.Set(ctx, keyDeviceToken, token); err != nil {
		// The token is still usable this run; only the cache write failed.
		r.log.Warn("Failed to cache device token", zap.Error(err))
	}

	return token, nil
}

// Register resolves the device token and sends the (identity, role, token)
// binding to the backend. Best-effort: the caller logs failures and retries
// on the next trigger rather than looping here.
func (r *Registrar) Register(ctx context.Context, userID json.Number, role session.Role) error {
	token, err := r.Token(ctx)
	if err != nil {
		return err
	}

	binding := fmt.Sprintf("%s|%s|%s", userID, role, token)
	if r.bindings != nil {
		if _, fresh := r.bindings.Get(binding); fresh {
			r.log.Debug("Skipping registration, binding still fresh")
			return nil
		}
	}

	if err := r.registry.RegisterToken(ctx, userID, role, token); err != nil {
		return errors.Wrap(err, "failed to register device token")
	}

	if r.bindings != nil {
		r.bindings.Set(binding, struct{}{})
	}

	r.log.Info("Device token registered",
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
	)

	return nil
}
