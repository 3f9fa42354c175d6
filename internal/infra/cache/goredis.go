package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GoRedisClient adapts a go-redis client to RedisClient.
type GoRedisClient struct {
	rdb *redis.Client
}

// NewGoRedisClient connects to addr and verifies the connection.
func NewGoRedisClient(ctx context.Context, addr string, poolSize int) (*GoRedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: poolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return &GoRedisClient{rdb: rdb}, nil
}

func (c *GoRedisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

func (c *GoRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

func (c *GoRedisClient) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *GoRedisClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, key).Result()
}

func (c *GoRedisClient) HSet(ctx context.Context, key string, values ...interface{}) error {
	return c.rdb.HSet(ctx, key, values...).Err()
}

// Close releases the connection pool.
func (c *GoRedisClient) Close() error {
	return c.rdb.Close()
}

var _ RedisClient = (*GoRedisClient)(nil)
