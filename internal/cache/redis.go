package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/joblo-ai/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// Deployment modes accepted in REDIS_TYPE.
const (
	RedisTypeSingle  = "redis"
	RedisTypeCluster = "redisCluster"
)

const (
	pingTimeout = 1500 * time.Millisecond
	ioTimeout   = time.Second
)

// NewRedis connects the client matching cfg.Type and verifies the connection
// with a ping before handing it out.
func NewRedis(cfg config.Cache) (redis.UniversalClient, error) {
	var client redis.UniversalClient

	switch cfg.Type {
	case RedisTypeSingle:
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  ioTimeout,
			ReadTimeout:  ioTimeout,
			WriteTimeout: ioTimeout,
		})
	case RedisTypeCluster:
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.RedisCluster.Addresses,
			Password:     cfg.RedisCluster.Password,
			PoolSize:     cfg.RedisCluster.PoolSize,
			DialTimeout:  ioTimeout,
			ReadTimeout:  ioTimeout,
			WriteTimeout: ioTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown redis type %q", cfg.Type)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
