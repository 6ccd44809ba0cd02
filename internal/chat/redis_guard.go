package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyInflight = "qemxa:inflight:%s"

// deletes the key only when it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// InflightGuard shared across server instances through Redis
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		client: client,
		ttl:    ttl,
	}
}

// creates a Redis-backed guard from a URL
func NewRedisGuardFromURL(redisURL string, ttl time.Duration) (*RedisGuard, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisGuard(client, ttl), nil
}

func (g *RedisGuard) Client() *redis.Client {
	return g.client
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, fmt.Sprintf(keyInflight, key), token, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to set inflight key: %w", err)
	}

	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// frees the slot only while it still holds token
func (g *RedisGuard) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, g.client, []string{fmt.Sprintf(keyInflight, key)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release inflight key: %w", err)
	}

	return nil
}

func (g *RedisGuard) Close() error {
	return g.client.Close()
}
