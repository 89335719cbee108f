package observability

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"
)

func TestRecordStored(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	m.RecordStored(reading.New("a", reading.Entry{Systolic: 120, Diastolic: 80}, at))
	m.RecordStored(reading.New("b", reading.Entry{Systolic: 121, Diastolic: 81}, at.Add(time.Hour)))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.recorded))
	assert.Equal(t, float64(at.Add(time.Hour).Unix()), testutil.ToFloat64(m.lastRecorded))
}

func TestRecordRejectedByKind(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	_, err := reading.Input{Diastolic: reading.IntPtr(80)}.Entry()
	m.RecordRejected(err)
	_, err = reading.Input{Systolic: reading.IntPtr(300), Diastolic: reading.IntPtr(80)}.Entry()
	m.RecordRejected(err)
	_, err = reading.Input{Systolic: reading.IntPtr(70), Diastolic: reading.IntPtr(80)}.Entry()
	m.RecordRejected(err)
	m.RecordRejected(errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("missing_field")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("out_of_range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("invalid_relation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("other")))
}

func TestRecordImport(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordImport(3, 1, 2)
	m.RecordImport(1, 0, 0)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.importRows.WithLabelValues(OutcomeImported)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRows.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.importRows.WithLabelValues(OutcomeRejected)))
}

func TestRecordStorageError(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordStorageError(storage.Unavailable("add reading", errors.New("disk full")))
	m.RecordStorageError(errors.New("not a storage error"))
	m.RecordStorageError(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageErrors.WithLabelValues("add reading")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.storageErrors))
}

func TestDeletionCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordDeleted()
	m.RecordDeleted()
	m.RecordCleared()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.deleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cleared))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordStored(reading.Reading{})
		m.RecordRejected(reading.ErrOutOfRange)
		m.RecordDeleted()
		m.RecordCleared()
		m.RecordImport(1, 1, 1)
		m.RecordStorageError(errors.New("x"))
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordDeleted()

	path := filepath.Join(t.TempDir(), "bplog.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bplog_readings_deleted_total 1")
}
