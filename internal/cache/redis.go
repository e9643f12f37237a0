package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mood-companion:"

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	URL          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// New parses the URL, connects and pings the server.
func (r RedisConfig) New(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opts.ReadTimeout = durationOr(r.ReadTimeout, 3*time.Second)
	opts.WriteTimeout = durationOr(r.WriteTimeout, 3*time.Second)
	opts.DialTimeout = durationOr(r.DialTimeout, 5*time.Second)

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// Redis is a Store backed by a Redis server.
type Redis struct {
	rdb redis.Cmdable
	// closer is nil when the caller owns the connection.
	closer func() error
}

// NewRedis wraps an existing client. The caller keeps ownership of rdb.
func NewRedis(rdb redis.Cmdable) *Redis {
	return &Redis{rdb: rdb}
}

// OpenRedis connects using cfg and returns a Store that closes the client.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client, err := cfg.New(ctx)
	if err != nil {
		return nil, err
	}
	return &Redis{rdb: client, closer: client.Close}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.rdb.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
