package session

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/restoflow/restoflow-mobile/kv"
)

const (
	keyToken    = "token"
	keyUserData = "userData"
	keyUserRole = "userRole"
)

// Store persists the Session across process restarts under three keys
// written and removed as a unit.
type Store struct {
	log *zap.Logger
	kv  kv.Store
}

func NewStore(log *zap.Logger, kvs kv.Store) *Store {
	return &Store{
		log: log,
		kv:  kvs,
	}
}

// Load returns the persisted session, or (nil, nil) when absent. Partial or
// corrupt persisted state also loads as absent: a credential without a
// parsable identity must never restore as authenticated.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	token, err := s.kv.Get(ctx, keyToken)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to read credential")
	}

	userData, err := s.kv.Get(ctx, keyUserData)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to read identity")
	}
	userRole, roleErr := s.kv.Get(ctx, keyUserRole)
	if roleErr != nil && !errors.Is(roleErr, kv.ErrNotFound) {
		return nil, errors.Wrap(roleErr, "failed to read role")
	}

	if errors.Is(err, kv.ErrNotFound) || errors.Is(roleErr, kv.ErrNotFound) {
		s.log.Warn("Dropping partial persisted session")
		return nil, nil
	}
	if token == "" || userRole == "" || !json.Valid([]byte(userData)) {
		s.log.Warn("Dropping corrupt persisted session")
		return nil, nil
	}

	return &Session{
		Token:    token,
		Role:     Role(userRole),
		Identity: json.RawMessage(userData),
	}, nil
}

func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" || sess.Role == "" || len(sess.Identity) == 0 {
		return errors.New("incomplete session")
	}

	err := s.kv.SetMany(ctx, map[string]string{
		keyToken:    sess.Token,
		keyUserData: string(sess.Identity),
		keyUserRole: string(sess.Role),
	})
	if err != nil {
		return errors.Wrap(err, "failed to persist session")
	}

	return nil
}

// Clear removes the persisted session. Clearing an absent session is a
// no-op.
func (s *Store) Clear(ctx context.Context) error {
	err := s.kv.Delete(ctx, keyToken, keyUserData, keyUserRole)
	if err != nil {
		return errors.Wrap(err, "failed to clear session")
	}

	return nil
}
