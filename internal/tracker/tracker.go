// Package tracker is the application service over a storage.Store: it
// validates and records readings, and serves history, trends and CSV
// transfer from consistent snapshots of the stored list.
package tracker

import (
	"context"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jwulff/bplog-go/internal/analytics"
	"github.com/jwulff/bplog-go/internal/observability"
	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"
)

// DefaultHistoryLimit is the number of readings the history view shows.
const DefaultHistoryLimit = 100

// maxSnapshotAttempts bounds refetching while writes keep landing.
const maxSnapshotAttempts = 3

// Tracker records and analyses readings. Create one with New; the zero value
// is not usable.
type Tracker struct {
	store   storage.Store
	now     func() time.Time
	loc     *time.Location
	logger  *zap.Logger
	metrics *observability.Metrics

	snapshots  singleflight.Group
	generation atomic.Uint64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used for range filtering.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLocation sets the zone whose calendar days define ranges and daily
// groups. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// New creates a tracker over store.
func New(store storage.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Now returns the tracker's current time in its location.
func (t *Tracker) Now() time.Time {
	return t.now().In(t.loc)
}

// Location returns the zone used for calendar-day calculations.
func (t *Tracker) Location() *time.Location {
	return t.loc
}

// Record validates in and stores it. Nothing is stored when validation fails.
func (t *Tracker) Record(ctx context.Context, in reading.Input) (reading.Reading, error) {
	entry, err := in.Entry()
	if err != nil {
		t.metrics.RecordRejected(err)
		t.logger.Debug("reading rejected", zap.Error(err))
		return reading.Reading{}, err
	}

	r, err := t.add(ctx, entry)
	if err != nil {
		return reading.Reading{}, err
	}

	t.logger.Info("reading recorded",
		zap.String("id", r.ID),
		zap.Int("systolic", r.Systolic),
		zap.Int("diastolic", r.Diastolic),
		zap.Stringer("severity", r.Severity()),
	)
	return r, nil
}

func (t *Tracker) add(ctx context.Context, entry reading.Entry) (reading.Reading, error) {
	defer t.invalidate()

	r, err := t.store.Add(ctx, entry)
	if err != nil {
		t.storageFailed("add reading", err)
		return reading.Reading{}, err
	}
	t.metrics.RecordStored(r)
	return r, nil
}

// Delete removes a reading. Deleting an unknown ID is not an error.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	defer t.invalidate()

	if err := t.store.DeleteByID(ctx, id); err != nil {
		t.storageFailed("delete reading", err)
		return err
	}
	t.metrics.RecordDeleted()
	t.logger.Info("reading deleted", zap.String("id", id))
	return nil
}

// Edit replaces the reading id with one built from in. Stored readings are
// immutable, so the replacement is a new reading with a new ID. It keeps the
// original time unless in.TakenAt is set. If the original cannot be removed,
// the replacement is removed again and the original is left as it was.
func (t *Tracker) Edit(ctx context.Context, id string, in reading.Input) (reading.Reading, error) {
	entry, err := in.Entry()
	if err != nil {
		t.metrics.RecordRejected(err)
		return reading.Reading{}, err
	}

	all, err := t.snapshot(ctx)
	if err != nil {
		return reading.Reading{}, err
	}
	original, ok := findReading(all, id)
	if !ok {
		return reading.Reading{}, storage.ErrNotFound{Resource: "reading", ID: id}
	}
	if in.TakenAt == nil {
		entry.TakenAt = original.Time(t.loc)
	}

	r, err := t.add(ctx, entry)
	if err != nil {
		return reading.Reading{}, err
	}

	defer t.invalidate()
	if err := t.store.DeleteByID(ctx, id); err != nil {
		t.storageFailed("delete edited reading", err)
		if rbErr := t.store.DeleteByID(context.WithoutCancel(ctx), r.ID); rbErr != nil {
			t.storageFailed("remove replacement reading", rbErr)
		}
		return reading.Reading{}, err
	}

	t.logger.Info("reading edited", zap.String("id", id), zap.String("replacement", r.ID))
	return r, nil
}

// DeleteAll removes every reading. Settings are kept.
func (t *Tracker) DeleteAll(ctx context.Context) error {
	defer t.invalidate()

	if err := t.store.DeleteAll(ctx); err != nil {
		t.storageFailed("delete all readings", err)
		return err
	}
	t.metrics.RecordCleared()
	t.logger.Info("all readings deleted")
	return nil
}

// Readings returns every stored reading in insertion order.
func (t *Tracker) Readings(ctx context.Context) ([]reading.Reading, error) {
	return t.snapshot(ctx)
}

// History returns the readings inside rng, newest first. A limit of zero or
// less returns all of them.
func (t *Tracker) History(ctx context.Context, rng analytics.TimeRange, limit int) ([]reading.Reading, error) {
	all, err := t.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	filtered := analytics.FilterByRange(all, rng, t.Now())
	NewestFirst(filtered)
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// Trends summarises the readings inside rng.
func (t *Tracker) Trends(ctx context.Context, rng analytics.TimeRange) (analytics.Report, error) {
	all, err := t.snapshot(ctx)
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.Trends(all, rng, t.Now()), nil
}

// Classify returns the severity band of a pair of values.
func (t *Tracker) Classify(systolic, diastolic int) reading.Severity {
	return reading.Classify(systolic, diastolic)
}

// NewestFirst sorts readings by timestamp, descending. Readings with equal
// timestamps keep the later-inserted one first.
func NewestFirst(readings []reading.Reading) {
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp > readings[j].Timestamp
	})
}

// snapshot returns a private copy of the stored list. Concurrent callers
// share one fetch per write generation; a fetch that overlapped a write is
// discarded and repeated so callers never see a list older than their call.
//
// The shared fetch is detached from any single caller's cancellation. Each
// caller stops waiting when its own context is done.
func (t *Tracker) snapshot(ctx context.Context) ([]reading.Reading, error) {
	var readings []reading.Reading
	fetchCtx := context.WithoutCancel(ctx)

	for attempt := 0; attempt < maxSnapshotAttempts; attempt++ {
		gen := t.generation.Load()
		ch := t.snapshots.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
			return t.store.GetAll(fetchCtx)
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}
		if res.Err != nil {
			t.storageFailed("get readings", res.Err)
			return nil, res.Err
		}

		readings = res.Val.([]reading.Reading)
		if t.generation.Load() == gen {
			break
		}
	}
	return cloneReadings(readings), nil
}

func (t *Tracker) invalidate() {
	t.generation.Add(1)
}

func (t *Tracker) storageFailed(op string, err error) {
	t.metrics.RecordStorageError(err)
	t.logger.Warn("storage operation failed", zap.String("op", op), zap.Error(err))
}

func findReading(readings []reading.Reading, id string) (reading.Reading, bool) {
	for _, r := range readings {
		if r.ID == id {
			return r, true
		}
	}
	return reading.Reading{}, false
}

func cloneReadings(in []reading.Reading) []reading.Reading {
	out := make([]reading.Reading, len(in))
	for i, r := range in {
		if r.Pulse != nil {
			r.Pulse = reading.IntPtr(*r.Pulse)
		}
		out[i] = r
	}
	return out
}
