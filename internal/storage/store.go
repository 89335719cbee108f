// Package storage provides storage abstractions for blood pressure readings.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwulff/bplog-go/internal/reading"
)

// Store is the interface for persistent storage. It owns the canonical list
// of readings; callers only ever receive copies.
type Store interface {
	// Readings
	GetAll(ctx context.Context) ([]reading.Reading, error)
	Add(ctx context.Context, entry reading.Entry) (reading.Reading, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error

	// Lifecycle
	Close() error
}

// Options holds the sources a store uses when creating readings.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

// Option configures a store.
type Option func(*Options)

// WithClock sets the clock used to timestamp new readings.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

// WithIDGenerator sets the function used to assign reading IDs.
func WithIDGenerator(newID func() string) Option {
	return func(o *Options) {
		o.NewID = newID
	}
}

// NewOptions applies opts over the defaults: wall clock time and random UUIDs.
func NewOptions(opts ...Option) Options {
	o := Options{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewReading stamps an entry with a fresh ID. The entry's TakenAt is kept
// when set; otherwise the reading is stamped with the current time.
func (o Options) NewReading(entry reading.Entry) reading.Reading {
	at := entry.TakenAt
	if at.IsZero() {
		at = o.Now()
	}
	return reading.New(o.NewID(), entry, at)
}

// ErrNotFound is returned when a record is not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// ErrUnavailable is returned when the backing store cannot be reached or
// fails. It is retryable from the caller's point of view.
type ErrUnavailable struct {
	Op  string
	Err error
}

func (e ErrUnavailable) Error() string {
	return "storage unavailable: " + e.Op + ": " + e.Err.Error()
}

func (e ErrUnavailable) Unwrap() error {
	return e.Err
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	var ue ErrUnavailable
	return errors.As(err, &ue)
}

// Unavailable wraps a backend failure. Nil errors and context cancellation
// pass through unchanged.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return ErrUnavailable{Op: op, Err: err}
}
