package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SergeyParamoshkin/articles/internal/config"
	"github.com/SergeyParamoshkin/articles/internal/executor"
)

// Redis is a Cache backed by a single Redis node or a Redis Cluster.
// Every call is bounded by the executor pool and by opTimeout.
type Redis struct {
	client    redis.UniversalClient
	pool      *executor.Pool
	opTimeout time.Duration
}

// NewRedisClient builds a cluster client when cfg.Cluster is set or more
// than one startup node is given, a plain client otherwise.
func NewRedisClient(cfg config.Cache) redis.UniversalClient {
	if cfg.Cluster || len(cfg.Nodes) > 1 {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Nodes,
			PoolSize:     cfg.PoolSize,
			DialTimeout:  cfg.ConnectTimeout,
			ReadTimeout:  cfg.OpTimeout,
			WriteTimeout: cfg.OpTimeout,
		})
	}

	return redis.NewClient(&redis.Options{
		Addr:         cfg.Nodes[0],
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.ConnectTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})
}

func NewRedis(client redis.UniversalClient, pool *executor.Pool, opTimeout time.Duration) *Redis {
	return &Redis{
		client:    client,
		pool:      pool,
		opTimeout: opTimeout,
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)

	err := r.do(ctx, func(ctx context.Context) error {
		v, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true

		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w: %v", key, ErrCacheUnavailable, err)
	}

	return value, found, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := r.do(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w: %v", key, ErrCacheUnavailable, err)
	}

	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	err := r.do(ctx, func(ctx context.Context) error {
		return r.client.Ping(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("redis ping: %w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opTimeout)
		defer cancel()
	}

	return r.pool.Do(ctx, fn)
}
