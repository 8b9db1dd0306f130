package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig captures the connection parameters for the Redis counter.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	Timeout  time.Duration
	Prefix   string
}

const (
	defaultRedisTimeout = 5 * time.Second
	defaultRedisPrefix  = "scribekeys:"
)

// hitScript opens the window on the first hit and returns the count with the remaining
// lifetime in milliseconds.
var hitScript = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {hits, redis.call("PTTL", KEYS[1])}
`)

// RedisCounter keeps windows as expiring Redis keys.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter connects and pings so misconfiguration surfaces at start-up.
func NewRedisCounter(ctx context.Context, cfg RedisConfig) (*RedisCounter, error) {
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		return nil, errors.New("redis: address is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}

	return newRedisCounter(client, cfg.Prefix), nil
}

func newRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisCounter{client: client, prefix: prefix}
}

// Ping reports whether the server answers.
func (r *RedisCounter) Ping(ctx context.Context) error {
	if r == nil {
		return errNilCounter
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *RedisCounter) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}

// Hit records one hit for key.
func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (Window, error) {
	if r == nil {
		return Window{}, errNilCounter
	}
	window = windowOrDefault(window)

	reply, err := hitScript.Run(ctx, r.client, []string{r.key(key)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("redis: hit %q: %w", key, err)
	}
	if len(reply) != 2 {
		return Window{}, fmt.Errorf("redis: unexpected hit reply %v", reply)
	}

	ttl := time.Duration(reply[1]) * time.Millisecond
	if reply[1] < 0 {
		ttl = window
	}
	return Window{Hits: reply[0], ResetIn: ttl}, nil
}

func (r *RedisCounter) key(key string) string {
	return r.prefix + strings.TrimSpace(key)
}
