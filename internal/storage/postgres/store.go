// Package postgres provides a Postgres implementation of storage.Store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"
)

// Store provides Postgres-backed persistence for readings and settings.
type Store struct {
	pool *pgxpool.Pool
	opts storage.Options
}

// Open connects to the database at url and applies the schema.
func Open(ctx context.Context, url string, opts ...storage.Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := NewStore(pool, opts...)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing pool. The schema is not applied.
func NewStore(pool *pgxpool.Pool, opts ...storage.Option) *Store {
	return &Store{pool: pool, opts: storage.NewOptions(opts...)}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// GetAll returns every reading in insertion order.
func (s *Store) GetAll(ctx context.Context) ([]reading.Reading, error) {
	const query = `SELECT id, systolic, diastolic, pulse, notes, category, taken_at_ms
        FROM readings ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, storage.Unavailable("get readings", err)
	}
	defer rows.Close()

	readings := []reading.Reading{}
	for rows.Next() {
		var r reading.Reading
		var pulse *int32
		if err := rows.Scan(&r.ID, &r.Systolic, &r.Diastolic, &pulse, &r.Notes, &r.Category, &r.Timestamp); err != nil {
			return nil, storage.Unavailable("get readings", err)
		}
		if pulse != nil {
			r.Pulse = reading.IntPtr(int(*pulse))
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("get readings", err)
	}
	return readings, nil
}

// Add stores a new reading.
func (s *Store) Add(ctx context.Context, entry reading.Entry) (reading.Reading, error) {
	r := s.opts.NewReading(entry)

	var pulse *int32
	if r.Pulse != nil {
		v := int32(*r.Pulse)
		pulse = &v
	}

	const insert = `INSERT INTO readings (id, systolic, diastolic, pulse, notes, category, taken_at_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := s.pool.Exec(ctx, insert, r.ID, r.Systolic, r.Diastolic, pulse, r.Notes, r.Category, r.Timestamp); err != nil {
		return reading.Reading{}, storage.Unavailable("add reading", err)
	}
	return r, nil
}

// DeleteByID removes a reading. Unknown IDs are ignored.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM readings WHERE id=$1`, id)
	return storage.Unavailable("delete reading", err)
}

// DeleteAll removes every reading.
func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM readings`)
	return storage.Unavailable("delete all readings", err)
}

// GetSetting returns a stored setting.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", storage.ErrNotFound{Resource: "setting", ID: key}
	}
	if err != nil {
		return "", storage.Unavailable("get setting", err)
	}
	return value, nil
}

// SetSetting inserts or replaces a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	const upsert = `INSERT INTO settings (key, value, updated_at) VALUES ($1,$2,$3)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`
	_, err := s.pool.Exec(ctx, upsert, key, value, s.opts.Now().UTC())
	return storage.Unavailable("set setting", err)
}

// DeleteSetting removes a setting.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM settings WHERE key=$1`, key)
	return storage.Unavailable("delete setting", err)
}

var _ storage.Store = (*Store)(nil)
