package redis

import (
	"context"
	"errors"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskpoints/repository"
)

type kvRepository struct {
	client *redislib.Client
	prefix string
}

// NewKeyValueStore creates a Redis-backed key-value store. Keys are
// namespaced with prefix so several installations can share a server.
func NewKeyValueStore(client *redislib.Client, prefix string) repository.KeyValueStore {
	if prefix == "" {
		prefix = "taskpoints:"
	}
	return &kvRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *kvRepository) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *kvRepository) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *kvRepository) key(key string) string {
	return fmt.Sprintf("%s%s", r.prefix, key)
}
