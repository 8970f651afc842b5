package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultOpTimeout bounds every shared-store call so a hung network
// connection cannot stall the facade and defeat the fallback.
const DefaultOpTimeout = 2 * time.Second

// RedisStore is the shared store client. All mutating primitives used
// here (INCR, SET with TTL, EXPIRE) are atomic server-side, so no
// client-side locking is needed.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisStore wraps an existing client with per-operation timeouts.
func NewRedisStore(client *redis.Client, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}

	return &RedisStore{client: client, timeout: timeout}
}

// NewRedisClient builds a client from the shared-store endpoint URL
// and auth token.
func NewRedisClient(url, token string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse shared store url: %w", err)
	}

	if token != "" {
		opts.Password = token
	}

	return redis.NewClient(opts), nil
}

func (r *RedisStore) op(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := r.op(ctx)
	defer cancel()

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, err
	}

	return value, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := r.op(ctx)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}

	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisStore) Del(ctx context.Context, key string) error {
	ctx, cancel := r.op(ctx)
	defer cancel()

	return r.client.Del(ctx, key).Err()
}

func (r *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	ctx, cancel := r.op(ctx)
	defer cancel()

	return r.client.Incr(ctx, key).Result()
}

func (r *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := r.op(ctx)
	defer cancel()

	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := r.op(ctx)
	defer cancel()

	// go-redis reports "no expiry" as -1 and "missing" as -2, the
	// same sentinels TTLNone and TTLMissing carry.
	return r.client.TTL(ctx, key).Result()
}

func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := r.op(ctx)
	defer cancel()

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Pipeline issues the batch as a single round trip.
func (r *RedisStore) Pipeline(ctx context.Context, cmds []Command) ([]CommandResult, error) {
	ctx, cancel := r.op(ctx)
	defer cancel()

	pipe := r.client.Pipeline()
	gets := make(map[int]*redis.StringCmd)
	incrs := make(map[int]*redis.IntCmd)

	for i, cmd := range cmds {
		switch cmd.Kind {
		case CommandGet:
			gets[i] = pipe.Get(ctx, cmd.Key)
		case CommandSet:
			ttl := cmd.TTL
			if ttl < 0 {
				ttl = 0
			}

			pipe.Set(ctx, cmd.Key, cmd.Value, ttl)
		case CommandDel:
			pipe.Del(ctx, cmd.Key)
		case CommandIncr:
			incrs[i] = pipe.Incr(ctx, cmd.Key)
		case CommandExpire:
			pipe.Expire(ctx, cmd.Key, cmd.TTL)
		default:
			return nil, fmt.Errorf("pipeline: unknown command kind %d", cmd.Kind)
		}
	}

	// Exec reports redis.Nil when any GET in the batch misses; a miss
	// is a result, not a failure.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	results := make([]CommandResult, len(cmds))

	for i, cmd := range gets {
		value, err := cmd.Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				return nil, err
			}

			continue
		}

		results[i] = CommandResult{Value: value, Found: true}
	}

	for i, cmd := range incrs {
		results[i] = CommandResult{Count: cmd.Val()}
	}

	return results, nil
}

// Ping checks shared store connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := r.op(ctx)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Compile-time check.
var _ Store = (*RedisStore)(nil)
