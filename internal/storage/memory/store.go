// Package memory provides an in-memory implementation of storage.Store.
package memory

import (
	"context"
	"sync"

	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"
)

// Store keeps readings and settings in process memory.
type Store struct {
	mu       sync.RWMutex
	opts     storage.Options
	readings []reading.Reading
	settings map[string]string
	failWith error
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...storage.Option) *Store {
	return &Store{
		opts:     storage.NewOptions(opts...),
		settings: make(map[string]string),
	}
}

// FailWith makes every subsequent call return storage.ErrUnavailable wrapping
// err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return storage.Unavailable(op, s.failWith)
}

// Reading methods

func (s *Store) GetAll(ctx context.Context) ([]reading.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "get readings"); err != nil {
		return nil, err
	}

	out := make([]reading.Reading, len(s.readings))
	for i, r := range s.readings {
		out[i] = copyReading(r)
	}
	return out, nil
}

func (s *Store) Add(ctx context.Context, entry reading.Entry) (reading.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "add reading"); err != nil {
		return reading.Reading{}, err
	}

	r := s.opts.NewReading(entry)
	s.readings = append(s.readings, r)
	return copyReading(r), nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "delete reading"); err != nil {
		return err
	}

	kept := s.readings[:0]
	for _, r := range s.readings {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	// clear the tail so removed readings can be collected
	for i := len(kept); i < len(s.readings); i++ {
		s.readings[i] = reading.Reading{}
	}
	s.readings = kept
	return nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "delete all readings"); err != nil {
		return err
	}
	s.readings = nil
	return nil
}

// Setting methods

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "get setting"); err != nil {
		return "", err
	}

	value, ok := s.settings[key]
	if !ok {
		return "", storage.ErrNotFound{Resource: "setting", ID: key}
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "set setting"); err != nil {
		return err
	}
	s.settings[key] = value
	return nil
}

func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "delete setting"); err != nil {
		return err
	}
	delete(s.settings, key)
	return nil
}

func copyReading(r reading.Reading) reading.Reading {
	if r.Pulse != nil {
		p := *r.Pulse
		r.Pulse = &p
	}
	return r
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)
