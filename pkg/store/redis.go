package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is an IntStore kept in Redis, so several bot instances can
// share scores.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// OpenRedis connects to the server at opts.Addr and checks it with PING.
func OpenRedis(ctx context.Context, opts Options, logger *zap.Logger) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis store requires an addr")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	logger.Info("Connected to Redis store",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.String("prefix", opts.Prefix))

	return &RedisStore{client: client, prefix: opts.Prefix, logger: logger}, nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) GetInt(ctx context.Context, key string, def int64) (int64, error) {
	if err := s.client.SetNX(ctx, s.key(key), def, 0).Err(); err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}

	value, err := s.client.Get(ctx, s.key(key)).Int64()
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) PutInt(ctx context.Context, key string, value int64) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) IncrementInt(ctx context.Context, key string, delta int64) (int64, error) {
	value, err := s.client.IncrBy(ctx, s.key(key), delta).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) DecrementInt(ctx context.Context, key string, delta int64) (int64, error) {
	value, err := s.client.DecrBy(ctx, s.key(key), delta).Result()
	if err != nil {
		return 0, fmt.Errorf("decrement %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
