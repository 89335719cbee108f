package analytics

import (
	"testing"
	"time"

	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrends(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, testZone)
	readings := []reading.Reading{
		bp(now.AddDate(0, 0, -20), 160, 100, nil),
		bp(now.AddDate(0, 0, -2), 118, 76, reading.IntPtr(64)),
		bp(now.AddDate(0, 0, -1), 135, 82, reading.IntPtr(72)),
		bp(now.Add(-time.Hour), 142, 91, nil),
	}

	report := Trends(readings, RangeWeek, now)

	assert.Equal(t, RangeWeek, report.Range)
	require.NotNil(t, report.From)
	require.NotNil(t, report.To)
	assert.Equal(t, now.AddDate(0, 0, -7), *report.From)
	assert.Equal(t, EndOfDay(now), *report.To)

	assert.Equal(t, 3, report.Summary.Count)
	assert.Equal(t, Rounded{Systolic: 132, Diastolic: 83, Pulse: 68}, report.Average)
	assert.Len(t, report.Daily, 3)

	assert.Equal(t, 1, report.Severities[reading.SeverityOptimal])
	assert.Equal(t, 0, report.Severities[reading.SeverityNormal])
	assert.Equal(t, 1, report.Severities[reading.SeverityElevated])
	assert.Equal(t, 1, report.Severities[reading.SeverityHigh])
}

func TestTrendsAllHasNoBounds(t *testing.T) {
	report := Trends(nil, RangeAll, time.Now())

	assert.Nil(t, report.From)
	assert.Nil(t, report.To)
	assert.True(t, report.Summary.Empty())
	assert.Empty(t, report.Daily)
	assert.Len(t, report.Severities, len(reading.Severities))
}
