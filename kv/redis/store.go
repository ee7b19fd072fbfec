package redis

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/restoflow/restoflow-mobile/kv"
)

type store struct {
	client *redis.Client
	prefix string
}

// NewInRedis returns a kv.Store over a redis client. All keys are stored
// under the given prefix so multiple stores can share one database.
func NewInRedis(client *redis.Client, prefix string) kv.Store {
	return &store{
		client: client,
		prefix: prefix,
	}
}

func (s *store) key(key string) string {
	return s.prefix + key
}

func (s *store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", kv.ErrNotFound
	} else if err != nil {
		return "", errors.Wrap(err, "failed to get key")
	}

	return value, nil
}

func (s *store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to set key")
	}

	return nil
}

func (s *store) SetMany(ctx context.Context, entries map[string]string) error {
	// MULTI/EXEC so readers never observe a partially written batch.
	pipe := s.client.TxPipeline()
	for key, value := range entries {
		pipe.Set(ctx, s.key(key), value, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to set keys")
	}

	return nil
}

func (s *store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.key(key)
	}

	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete keys")
	}

	return nil
}
