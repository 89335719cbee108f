// Package storetest holds behaviour tests shared by every storage.Store
// implementation.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"
)

// Factory returns a fresh, empty store configured with opts. The factory is
// responsible for cleanup.
type Factory func(t *testing.T, opts ...storage.Option) storage.Store

// Run exercises the storage.Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("AddAssignsIDAndTimestamp", func(t *testing.T) { testAdd(t, newStore) })
	t.Run("AddKeepsTakenAt", func(t *testing.T) { testAddTakenAt(t, newStore) })
	t.Run("GetAllInsertionOrder", func(t *testing.T) { testGetAllOrder(t, newStore) })
	t.Run("GetAllEmpty", func(t *testing.T) { testGetAllEmpty(t, newStore) })
	t.Run("OptionalFields", func(t *testing.T) { testOptionalFields(t, newStore) })
	t.Run("DeleteByID", func(t *testing.T) { testDeleteByID(t, newStore) })
	t.Run("DeleteByIDIdempotent", func(t *testing.T) { testDeleteIdempotent(t, newStore) })
	t.Run("DeleteAll", func(t *testing.T) { testDeleteAll(t, newStore) })
	t.Run("Settings", func(t *testing.T) { testSettings(t, newStore) })
}

type sequence struct {
	next int
	now  time.Time
}

func (s *sequence) options() []storage.Option {
	return []storage.Option{
		storage.WithClock(func() time.Time {
			s.now = s.now.Add(time.Minute)
			return s.now
		}),
		storage.WithIDGenerator(func() string {
			s.next++
			return fmt.Sprintf("reading-%03d", s.next)
		}),
	}
}

func newSequence() *sequence {
	return &sequence{now: time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC)}
}

func testAdd(t *testing.T, newStore Factory) {
	seq := newSequence()
	store := newStore(t, seq.options()...)
	ctx := context.Background()

	r, err := store.Add(ctx, reading.Entry{Systolic: 128, Diastolic: 84, Pulse: reading.IntPtr(66), Notes: "after walk", Category: reading.CategoryAfterExercise})
	require.NoError(t, err)

	assert.Equal(t, "reading-001", r.ID)
	assert.Equal(t, time.Date(2025, time.January, 1, 8, 1, 0, 0, time.UTC).UnixMilli(), r.Timestamp)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, r, all[0])
}

func testAddTakenAt(t *testing.T, newStore Factory) {
	seq := newSequence()
	store := newStore(t, seq.options()...)
	ctx := context.Background()

	_, err := store.Add(ctx, reading.Entry{Systolic: 120, Diastolic: 80})
	require.NoError(t, err)
	taken := time.Date(2024, time.December, 24, 19, 30, 0, 0, time.UTC)
	backdated, err := store.Add(ctx, reading.Entry{Systolic: 131, Diastolic: 83, TakenAt: taken})
	require.NoError(t, err)
	assert.Equal(t, taken.UnixMilli(), backdated.Timestamp)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, backdated, all[1], "insertion order is kept for backdated readings")
}

func testGetAllOrder(t *testing.T, newStore Factory) {
	seq := newSequence()
	store := newStore(t, seq.options()...)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Add(ctx, reading.Entry{Systolic: 120 + i, Diastolic: 80})
		require.NoError(t, err)
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, r := range all {
		assert.Equal(t, 120+i, r.Systolic)
		assert.Equal(t, fmt.Sprintf("reading-%03d", i+1), r.ID)
	}
}

func testGetAllEmpty(t *testing.T, newStore Factory) {
	store := newStore(t)

	all, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testOptionalFields(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, reading.Entry{Systolic: 110, Diastolic: 70})
	require.NoError(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Nil(t, all[0].Pulse)
	assert.Empty(t, all[0].Notes)
	assert.Empty(t, all[0].Category)
	assert.NotEmpty(t, all[0].ID)
}

func testDeleteByID(t *testing.T, newStore Factory) {
	seq := newSequence()
	store := newStore(t, seq.options()...)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Add(ctx, reading.Entry{Systolic: 120, Diastolic: 80})
		require.NoError(t, err)
	}

	require.NoError(t, store.DeleteByID(ctx, "reading-002"))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "reading-001", all[0].ID)
	assert.Equal(t, "reading-003", all[1].ID)
}

func testDeleteIdempotent(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	assert.NoError(t, store.DeleteByID(ctx, "missing"))
	assert.NoError(t, store.DeleteByID(ctx, "missing"))
}

func testDeleteAll(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Add(ctx, reading.Entry{Systolic: 120, Diastolic: 80})
		require.NoError(t, err)
	}
	require.NoError(t, store.SetSetting(ctx, "theme", "dark"))

	require.NoError(t, store.DeleteAll(ctx))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	theme, err := store.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", theme, "settings survive clearing readings")
}

func testSettings(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.GetSetting(ctx, "reminder_time")
	assert.True(t, storage.IsNotFound(err))

	require.NoError(t, store.SetSetting(ctx, "reminder_time", "20:00"))
	require.NoError(t, store.SetSetting(ctx, "reminder_time", "07:30"))

	value, err := store.GetSetting(ctx, "reminder_time")
	require.NoError(t, err)
	assert.Equal(t, "07:30", value)

	require.NoError(t, store.DeleteSetting(ctx, "reminder_time"))
	_, err = store.GetSetting(ctx, "reminder_time")
	assert.True(t, storage.IsNotFound(err))

	assert.NoError(t, store.DeleteSetting(ctx, "never-set"))
}
