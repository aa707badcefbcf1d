package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Cluster  []string
}

// Enabled reports whether any redis endpoint was configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != "" || len(c.Cluster) > 0
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// NewRedisClient connects to a cluster when REDIS_CLUSTER_ADDRS is set and to
// a single node otherwise.
func NewRedisClient(ctx context.Context, config RedisConfig) (redis.UniversalClient, error) {
	var rdb redis.UniversalClient
	if len(config.Cluster) > 0 {
		rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    config.Cluster,
			Password: config.Password,
			PoolSize: 10,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:         config.Addr(),
			Password:     config.Password,
			DB:           config.DB,
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("Redis connected: %s", pong)

	return rdb, nil
}
