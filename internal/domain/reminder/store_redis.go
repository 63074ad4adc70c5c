package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// maxUpdateAttempts bounds optimistic retries when another writer touches
// the key between WATCH and EXEC.
const maxUpdateAttempts = 16

// ErrUpdateConflict is returned when an update keeps losing to concurrent
// writers.
var ErrUpdateConflict = errors.New("reminder settings update conflict")

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a Store keeping one JSON document per scope under
// prefix+scope. Keys have no expiry.
func NewRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

func (r *redisStore) key(scope string) string {
	return r.prefix + scope
}

func (r *redisStore) Get(ctx context.Context, scope string) (Settings, bool, error) {
	return r.load(ctx, r.client, scope)
}

// Update is a WATCH/MULTI read-modify-write, retried when the key changes
// underneath it.
func (r *redisStore) Update(ctx context.Context, scope string, fn Mutation) (Settings, bool, error) {
	key := r.key(scope)
	var (
		out     Settings
		changed bool
	)
	txf := func(tx *redis.Tx) error {
		cur, found, err := r.load(ctx, tx, scope)
		if err != nil {
			return err
		}
		if !found {
			cur = DefaultSettings()
		}
		next, ok := fn(cur)
		if !ok {
			out, changed = cur, false
			return nil
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		if err != nil {
			return err
		}
		out, changed = next, true
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return out, changed, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Settings{}, false, fmt.Errorf("redis update %s: %w", key, err)
	}
	return Settings{}, false, fmt.Errorf("redis update %s: %w", key, ErrUpdateConflict)
}

func (r *redisStore) load(ctx context.Context, c stringGetter, scope string) (Settings, bool, error) {
	raw, err := c.Get(ctx, r.key(scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("redis get %s: %w", r.key(scope), err)
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, false, fmt.Errorf("decode settings for %s: %w", scope, err)
	}
	if s.DisabledVaccineIDs == nil {
		s.DisabledVaccineIDs = []string{}
	}
	return s, true, nil
}
