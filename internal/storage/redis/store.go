// Package redis provides a Redis implementation of storage.Store.
//
// Readings are stored as JSON values in a hash keyed by ID, with a sorted set
// scored by an insertion counter recording their order. Settings live in a
// separate hash.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "bplog"

// Store provides Redis-backed persistence for readings and settings.
type Store struct {
	client *redis.Client
	prefix string
	opts   storage.Options
}

// Open connects to addr and verifies the connection.
func Open(ctx context.Context, addr, password string, db int, opts ...storage.Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewStore(client, DefaultPrefix, opts...), nil
}

// NewStore wraps an existing client. Keys are namespaced under prefix.
func NewStore(client *redis.Client, prefix string, opts ...storage.Option) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, opts: storage.NewOptions(opts...)}
}

func (s *Store) readingsKey() string { return s.prefix + ":readings" }
func (s *Store) orderKey() string    { return s.prefix + ":readings:order" }
func (s *Store) seqKey() string      { return s.prefix + ":readings:seq" }
func (s *Store) settingsKey() string { return s.prefix + ":settings" }

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// GetAll returns every reading in insertion order.
func (s *Store) GetAll(ctx context.Context) ([]reading.Reading, error) {
	ids, err := s.client.ZRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, storage.Unavailable("get readings", err)
	}

	readings := []reading.Reading{}
	if len(ids) == 0 {
		return readings, nil
	}

	values, err := s.client.HMGet(ctx, s.readingsKey(), ids...).Result()
	if err != nil {
		return nil, storage.Unavailable("get readings", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Order index entry without a body; a concurrent delete won.
			continue
		}
		var r reading.Reading
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to decode reading %s: %w", ids[i], err)
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// Add stores a new reading.
func (s *Store) Add(ctx context.Context, entry reading.Entry) (reading.Reading, error) {
	r := s.opts.NewReading(entry)

	body, err := json.Marshal(r)
	if err != nil {
		return reading.Reading{}, fmt.Errorf("failed to encode reading: %w", err)
	}

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return reading.Reading{}, storage.Unavailable("add reading", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.readingsKey(), r.ID, body)
		pipe.ZAdd(ctx, s.orderKey(), &redis.Z{Score: float64(seq), Member: r.ID})
		return nil
	})
	if err != nil {
		return reading.Reading{}, storage.Unavailable("add reading", err)
	}
	return r, nil
}

// DeleteByID removes a reading. Unknown IDs are ignored.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.readingsKey(), id)
		pipe.ZRem(ctx, s.orderKey(), id)
		return nil
	})
	return storage.Unavailable("delete reading", err)
}

// DeleteAll removes every reading. The insertion counter is kept.
func (s *Store) DeleteAll(ctx context.Context) error {
	err := s.client.Del(ctx, s.readingsKey(), s.orderKey()).Err()
	return storage.Unavailable("delete all readings", err)
}

// GetSetting returns a stored setting.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	value, err := s.client.HGet(ctx, s.settingsKey(), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound{Resource: "setting", ID: key}
	}
	if err != nil {
		return "", storage.Unavailable("get setting", err)
	}
	return value, nil
}

// SetSetting inserts or replaces a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	err := s.client.HSet(ctx, s.settingsKey(), key, value).Err()
	return storage.Unavailable("set setting", err)
}

// DeleteSetting removes a setting.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	err := s.client.HDel(ctx, s.settingsKey(), key).Err()
	return storage.Unavailable("delete setting", err)
}

var _ storage.Store = (*Store)(nil)
