package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a KV backed by a shared Redis deployment, for multi-instance
// setups where lockout and rate state must be visible across replicas.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

var errCASConflict = errors.New("cas conflict")

// NewRedis wraps a Redis client as a KV. All keys are stored under the
// given prefix so one deployment can host several managers.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

// Get implements KV.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// Set implements KV.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, normalizeTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete implements KV.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// CompareAndSwap implements KV using a WATCH transaction: the write
// aborts if another client touches the key between read and commit.
func (r *Redis) CompareAndSwap(ctx context.Context, key, old, value string, ttl time.Duration) (bool, error) {
	full := r.key(key)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, full).Result()
		switch {
		case errors.Is(err, redis.Nil):
			current = ""
		case err != nil:
			return err
		}

		if current != old {
			return errCASConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, value, normalizeTTL(ttl))
			return nil
		})
		return err
	}, full)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errCASConflict), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl < 0 {
		return 0
	}
	return ttl
}
