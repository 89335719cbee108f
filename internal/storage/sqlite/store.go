// Package sqlite provides a SQLite implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"

	_ "modernc.org/sqlite"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db   *sql.DB
	opts storage.Options
}

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore(opts ...storage.Option) (*Store, error) {
	return newStore(":memory:", opts...)
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string, opts ...storage.Option) (*Store, error) {
	return newStore(path, opts...)
}

func newStore(dsn string, opts ...storage.Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, opts: storage.NewOptions(opts...)}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reading methods

func (s *Store) GetAll(ctx context.Context) ([]reading.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, systolic, diastolic, pulse, notes, category, timestamp
		FROM readings ORDER BY seq ASC
	`)
	if err != nil {
		return nil, storage.Unavailable("get readings", err)
	}
	defer rows.Close()

	readings := []reading.Reading{}
	for rows.Next() {
		var r reading.Reading
		var pulse sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Systolic, &r.Diastolic, &pulse, &r.Notes, &r.Category, &r.Timestamp); err != nil {
			return nil, storage.Unavailable("get readings", err)
		}
		if pulse.Valid {
			r.Pulse = reading.IntPtr(int(pulse.Int64))
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("get readings", err)
	}
	return readings, nil
}

func (s *Store) Add(ctx context.Context, entry reading.Entry) (reading.Reading, error) {
	r := s.opts.NewReading(entry)

	var pulse sql.NullInt64
	if r.Pulse != nil {
		pulse = sql.NullInt64{Int64: int64(*r.Pulse), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO readings (id, systolic, diastolic, pulse, notes, category, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Systolic, r.Diastolic, pulse, r.Notes, r.Category, r.Timestamp)
	if err != nil {
		return reading.Reading{}, storage.Unavailable("add reading", err)
	}
	return r, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM readings WHERE id = ?", id)
	return storage.Unavailable("delete reading", err)
}

func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM readings")
	return storage.Unavailable("delete all readings", err)
}

// Setting methods

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound{Resource: "setting", ID: key}
	}
	if err != nil {
		return "", storage.Unavailable("get setting", err)
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
	`, key, value, s.opts.Now())
	return storage.Unavailable("set setting", err)
}

func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	return storage.Unavailable("delete setting", err)
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)
