package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/bplog-go/internal/analytics"
	"github.com/jwulff/bplog-go/internal/reading"
)

var day0 = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func days(pairs ...[2]int) []ChartPoint {
	points := make([]ChartPoint, len(pairs))
	for i, p := range pairs {
		points[i] = ChartPoint{Day: day0.AddDate(0, 0, i), Systolic: p[0], Diastolic: p[1]}
	}
	return points
}

func countGlyph(c *Canvas, glyph rune) int {
	n := 0
	for _, cell := range c.Cells {
		if cell.Rune == glyph {
			n++
		}
	}
	return n
}

func TestChartPointSort(t *testing.T) {
	points := []ChartPoint{
		{Day: day0.AddDate(0, 0, 2), Systolic: 130},
		{Day: day0, Systolic: 110},
		{Day: day0.AddDate(0, 0, 1), Systolic: 120},
	}

	SortChartPoints(points)

	assert.Equal(t, 110, points[0].Systolic)
	assert.Equal(t, 120, points[1].Systolic)
	assert.Equal(t, 130, points[2].Systolic)
}

func TestNewChartConfig(t *testing.T) {
	cfg := NewChartConfig(4, 0, 40, 10)

	assert.Equal(t, 4, cfg.X)
	assert.Equal(t, 0, cfg.Y)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
	assert.Equal(t, 5, cfg.Padding)
}

func TestRenderChartEmptyPoints(t *testing.T) {
	c := NewCanvas(40, 10)
	cfg := NewChartConfig(0, 0, 40, 10)

	RenderChart(c, nil, cfg)
	RenderChart(c, []ChartPoint{}, cfg)
	assert.Equal(t, strings.Repeat("\n", 10), c.String())
}

func TestRenderChartSinglePoint(t *testing.T) {
	c := NewCanvas(40, 10)
	cfg := NewChartConfig(0, 0, 40, 10)

	RenderChart(c, days([2]int{120, 80}), cfg)

	assert.Equal(t, 1, countGlyph(c, GlyphSystolic))
	assert.Equal(t, 1, countGlyph(c, GlyphDiastolic))
}

func TestRenderChartMultiplePoints(t *testing.T) {
	c := NewCanvas(40, 10)
	cfg := NewChartConfig(0, 0, 40, 10)

	RenderChart(c, days([2]int{118, 76}, [2]int{125, 82}, [2]int{142, 91}, [2]int{121, 79}), cfg)

	assert.Equal(t, 4, countGlyph(c, GlyphSystolic))
	assert.Equal(t, 4, countGlyph(c, GlyphDiastolic))
	assert.Greater(t, countGlyph(c, GlyphLine), 10, "points should be connected")
	assert.Equal(t, GlyphSystolic, c.Get(0, valueToY(118, 71, 147, cfg)).Rune)
}

func TestRenderChartSystolicAboveDiastolic(t *testing.T) {
	c := NewCanvas(20, 12)
	cfg := NewChartConfig(0, 0, 20, 12)

	RenderChart(c, days([2]int{150, 95}, [2]int{110, 70}), cfg)

	rowOf := func(x int, glyph rune) int {
		for y := 0; y < c.Height; y++ {
			if c.Get(x, y).Rune == glyph {
				return y
			}
		}
		return -1
	}
	for _, x := range []int{0, 19} {
		sys, dia := rowOf(x, GlyphSystolic), rowOf(x, GlyphDiastolic)
		require.NotEqual(t, -1, sys)
		require.NotEqual(t, -1, dia)
		assert.Less(t, sys, dia, "systolic is drawn higher at column %d", x)
	}
}

func TestRenderChartColorsBySeverity(t *testing.T) {
	c := NewCanvas(20, 12)
	cfg := NewChartConfig(0, 0, 20, 12)

	RenderChart(c, days([2]int{150, 95}), cfg)

	for _, cell := range c.Cells {
		switch cell.Rune {
		case GlyphSystolic, GlyphDiastolic:
			assert.Equal(t, ColorHigh, cell.Color)
		}
	}
}

func TestCalculateDataRange(t *testing.T) {
	tests := []struct {
		name    string
		points  []ChartPoint
		wantMin int
		wantMax int
	}{
		{"empty", nil, reading.MinDiastolic, reading.MaxSystolic},
		{"wide", days([2]int{160, 90}, [2]int{120, 70}), 65, 165},
		{"narrow widened to minimum range", days([2]int{100, 90}), 75, 115},
		{"clamped", days([2]int{250, 30}), reading.MinDiastolic, reading.MaxSystolic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax := calculateDataRange(tt.points, 5)
			if gotMin != tt.wantMin || gotMax != tt.wantMax {
				t.Errorf("calculateDataRange() = (%d, %d), want (%d, %d)", gotMin, gotMax, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestValueToYRoundTrip(t *testing.T) {
	cfg := NewChartConfig(0, 2, 10, 11)

	assert.Equal(t, 12, valueToY(100, 100, 200, cfg), "minimum at the bottom row")
	assert.Equal(t, 2, valueToY(200, 100, 200, cfg), "maximum at the top row")
	assert.Equal(t, 12, valueToY(50, 100, 200, cfg), "clamped")

	for y := cfg.Y; y < cfg.Y+cfg.Height; y++ {
		assert.Equal(t, y, valueToY(yToValue(y, 100, 200, cfg), 100, 200, cfg))
	}
}

func TestPointsFromDaily(t *testing.T) {
	readings := []reading.Reading{
		reading.New("a", reading.Entry{Systolic: 120, Diastolic: 80}, day0.Add(8*time.Hour)),
		reading.New("b", reading.Entry{Systolic: 131, Diastolic: 85}, day0.Add(20*time.Hour)),
		reading.New("c", reading.Entry{Systolic: 140, Diastolic: 90}, day0.AddDate(0, 0, 1)),
	}

	points := PointsFromDaily(analytics.AggregateByDay(readings, time.UTC))
	require.Len(t, points, 2)
	assert.Equal(t, ChartPoint{Day: day0, Systolic: 126, Diastolic: 83}, points[0])
	assert.Equal(t, 140, points[1].Systolic)
}

func TestTrendChart(t *testing.T) {
	daily := analytics.AggregateByDay([]reading.Reading{
		reading.New("a", reading.Entry{Systolic: 120, Diastolic: 80}, day0),
		reading.New("b", reading.Entry{Systolic: 135, Diastolic: 88}, day0.AddDate(0, 0, 3)),
	}, time.UTC)

	c := TrendChart(daily, 40, 10)
	out := c.String()

	assert.Contains(t, out, "Jun 1")
	assert.Contains(t, out, "Jun 4")
	assert.Contains(t, out, "│")
	assert.Equal(t, 2, countGlyph(c, GlyphSystolic))
}

func TestTrendChartEmpty(t *testing.T) {
	c := TrendChart(nil, 40, 10)
	assert.Contains(t, c.String(), "No readings in this period")
}

func TestWriteTrends(t *testing.T) {
	now := day0.AddDate(0, 0, 3).Add(12 * time.Hour)
	report := analytics.Trends([]reading.Reading{
		reading.New("a", reading.Entry{Systolic: 142, Diastolic: 92}, now.Add(-time.Hour)),
	}, analytics.RangeWeek, now)

	var buf bytes.Buffer
	require.NoError(t, WriteTrends(&buf, report, 50, 8, termenv.Ascii))

	out := buf.String()
	assert.Contains(t, out, "systolic")
	assert.Contains(t, out, "avg 142/92")
	assert.NotContains(t, out, "\x1b")
}
