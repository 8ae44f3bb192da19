package storage

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *cache.RedisClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *cache.RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, 0)
}
