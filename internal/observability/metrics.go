// Package observability exposes Prometheus metrics for the tracker.
package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/storage"
)

const namespace = "bplog"

// Import row outcomes.
const (
	OutcomeImported = "imported"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)

// Metrics holds the tracker's collectors. A nil *Metrics records nothing.
type Metrics struct {
	recorded      prometheus.Counter
	rejected      *prometheus.CounterVec
	deleted       prometheus.Counter
	cleared       prometheus.Counter
	importRows    *prometheus.CounterVec
	storageErrors *prometheus.CounterVec
	lastRecorded  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readings",
			Name:      "recorded_total",
			Help:      "Number of readings accepted and stored.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readings",
			Name:      "rejected_total",
			Help:      "Number of submitted readings that failed validation, by kind.",
		}, []string{"kind"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readings",
			Name:      "deleted_total",
			Help:      "Number of single-reading deletions.",
		}),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readings",
			Name:      "cleared_total",
			Help:      "Number of delete-all operations.",
		}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Number of CSV rows processed by import, by outcome.",
		}, []string{"outcome"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Number of storage failures, by operation.",
		}, []string{"op"}),
		lastRecorded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "readings",
			Name:      "last_recorded_timestamp_seconds",
			Help:      "Unix timestamp of the most recently stored reading.",
		}),
	}

	reg.MustRegister(m.recorded, m.rejected, m.deleted, m.cleared, m.importRows, m.storageErrors, m.lastRecorded)
	return m
}

// RecordStored counts a stored reading and advances the watermark gauge.
func (m *Metrics) RecordStored(r reading.Reading) {
	if m == nil {
		return
	}
	m.recorded.Inc()
	m.lastRecorded.Set(float64(time.UnixMilli(r.Timestamp).Unix()))
}

// RecordRejected counts a validation failure by kind.
func (m *Metrics) RecordRejected(err error) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(RejectionKind(err)).Inc()
}

// RecordDeleted counts a single deletion.
func (m *Metrics) RecordDeleted() {
	if m == nil {
		return
	}
	m.deleted.Inc()
}

// RecordCleared counts a delete-all.
func (m *Metrics) RecordCleared() {
	if m == nil {
		return
	}
	m.cleared.Inc()
}

// RecordImport adds the per-outcome row counts of one import.
func (m *Metrics) RecordImport(imported, skipped, rejected int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(OutcomeImported).Add(float64(imported))
	m.importRows.WithLabelValues(OutcomeSkipped).Add(float64(skipped))
	m.importRows.WithLabelValues(OutcomeRejected).Add(float64(rejected))
}

// RecordStorageError counts err when it is a storage.ErrUnavailable.
func (m *Metrics) RecordStorageError(err error) {
	if m == nil {
		return
	}
	var ue storage.ErrUnavailable
	if errors.As(err, &ue) {
		m.storageErrors.WithLabelValues(ue.Op).Inc()
	}
}

// RejectionKind maps a validation error to its metric label.
func RejectionKind(err error) string {
	switch {
	case errors.Is(err, reading.ErrMissingField):
		return "missing_field"
	case errors.Is(err, reading.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, reading.ErrInvalidRelation):
		return "invalid_relation"
	default:
		return "other"
	}
}
