package repositories

import (
	"context"
	"errors"
	"fmt"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"time"
)

const redisKeyPrefix = "jobs-finder:"

// RedisData is a KeyValueStore on top of redis. Values never expire.
type RedisData struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisData(ctx context.Context, redisURL string) (*RedisData, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisData(client), nil
}

func newRedisData(client *redis.Client) *RedisData {
	return &RedisData{client: client, timeout: dataOperationTimeout}
}

func (r *RedisData) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	value, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to load %q: %v", key, err)
		}
		return "", false
	}
	return value, true
}

func (r *RedisData) Set(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to save %q: %v", key, err)
	}
}

func (r *RedisData) Remove(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to remove %q: %v", key, err)
	}
}

func (r *RedisData) Close() error {
	return r.client.Close()
}
