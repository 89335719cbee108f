// Package render draws blood pressure trends as colored text charts.
package render

import (
	"math"
	"sort"
	"time"

	"github.com/jwulff/bplog-go/internal/analytics"
	"github.com/jwulff/bplog-go/internal/reading"
)

// Glyphs for the two series.
const (
	GlyphSystolic  = '●'
	GlyphDiastolic = '○'
	GlyphLine      = '·'
	GlyphGrid      = '┈'
)

// ChartPoint represents a single day on the chart.
type ChartPoint struct {
	Day       time.Time
	Systolic  int // mmHg, daily mean rounded
	Diastolic int // mmHg, daily mean rounded
}

// ChartConfig configures the chart rendering.
type ChartConfig struct {
	X       int
	Y       int
	Width   int
	Height  int
	Padding int // Padding in mmHg above/below data range
}

// NewChartConfig creates a chart config with sensible defaults.
func NewChartConfig(x, y, width, height int) ChartConfig {
	return ChartConfig{
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		Padding: 5,
	}
}

// ApplyDefaults applies default values to zero fields.
func (c *ChartConfig) ApplyDefaults() {
	if c.Padding == 0 {
		c.Padding = 5
	}
}

// PointsFromDaily converts daily summaries into chart points.
func PointsFromDaily(daily []analytics.DailySummary) []ChartPoint {
	points := make([]ChartPoint, 0, len(daily))
	for _, d := range daily {
		if d.Empty() {
			continue
		}
		avg := d.Rounded()
		points = append(points, ChartPoint{Day: d.Day, Systolic: avg.Systolic, Diastolic: avg.Diastolic})
	}
	return points
}

// SortChartPoints sorts points by day ascending.
func SortChartPoints(points []ChartPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Day.Before(points[j].Day)
	})
}

// RenderChart plots the systolic and diastolic series. Points are spread
// evenly across the width in day order; each segment is colored by the
// severity band of the value it passes through.
func RenderChart(canvas *Canvas, points []ChartPoint, cfg ChartConfig) {
	cfg.ApplyDefaults()

	if len(points) == 0 || cfg.Width <= 0 || cfg.Height <= 0 {
		return
	}

	visible := make([]ChartPoint, len(points))
	copy(visible, points)
	SortChartPoints(visible)

	minValue, maxValue := calculateDataRange(visible, cfg.Padding)

	series := []struct {
		glyph rune
		value func(ChartPoint) int
		color func(int) Color
	}{
		{GlyphDiastolic, func(p ChartPoint) int { return p.Diastolic }, DiastolicColor},
		{GlyphSystolic, func(p ChartPoint) int { return p.Systolic }, SystolicColor},
	}

	// Lines first so point glyphs stay visible on top.
	for _, s := range series {
		var prevX, prevY int
		for i, p := range visible {
			px := indexToX(i, len(visible), cfg)
			py := valueToY(s.value(p), minValue, maxValue, cfg)
			if i > 0 {
				drawChartLine(canvas, prevX, prevY, px, py, minValue, maxValue, cfg, s.color)
			}
			prevX, prevY = px, py
		}
	}
	for _, s := range series {
		for i, p := range visible {
			px := indexToX(i, len(visible), cfg)
			py := valueToY(s.value(p), minValue, maxValue, cfg)
			canvas.Set(px, py, s.glyph, s.color(s.value(p)))
		}
	}
}

// calculateDataRange computes the min/max value with padding.
func calculateDataRange(points []ChartPoint, padding int) (int, int) {
	if len(points) == 0 {
		return reading.MinDiastolic, reading.MaxSystolic
	}

	dataMin := points[0].Diastolic
	dataMax := points[0].Systolic
	for _, p := range points {
		if p.Diastolic < dataMin {
			dataMin = p.Diastolic
		}
		if p.Systolic > dataMax {
			dataMax = p.Systolic
		}
	}

	// Ensure minimum range of 30 mmHg
	const minRange = 30
	rawRange := dataMax - dataMin
	extraPadding := 0
	if rawRange < minRange {
		extraPadding = (minRange - rawRange) / 2
	}

	minValue := dataMin - padding - extraPadding
	maxValue := dataMax + padding + extraPadding

	if minValue < reading.MinDiastolic {
		minValue = reading.MinDiastolic
	}
	if maxValue > reading.MaxSystolic {
		maxValue = reading.MaxSystolic
	}

	return minValue, maxValue
}

// indexToX spreads n points across the chart width.
func indexToX(i, n int, cfg ChartConfig) int {
	if n <= 1 {
		return cfg.X + (cfg.Width-1)/2
	}
	return cfg.X + int(math.Round(float64(i)/float64(n-1)*float64(cfg.Width-1)))
}

// valueToY converts a pressure value to a row.
func valueToY(value, minValue, maxValue int, cfg ChartConfig) int {
	valueRange := maxValue - minValue
	if valueRange == 0 {
		return cfg.Y + cfg.Height/2
	}

	if value < minValue {
		value = minValue
	}
	if value > maxValue {
		value = maxValue
	}

	// Higher pressure = lower Y (top of chart)
	normalized := float64(value-minValue) / float64(valueRange)
	return cfg.Y + cfg.Height - 1 - int(math.Round(normalized*float64(cfg.Height-1)))
}

// yToValue converts a row back to a pressure value.
func yToValue(y, minValue, maxValue int, cfg ChartConfig) int {
	if cfg.Height <= 1 {
		return minValue
	}
	normalizedY := float64(cfg.Y+cfg.Height-1-y) / float64(cfg.Height-1)
	return minValue + int(math.Round(normalizedY*float64(maxValue-minValue)))
}

// drawChartLine connects two points with per-row severity coloring.
func drawChartLine(canvas *Canvas, x0, y0, x1, y1, minValue, maxValue int, cfg ChartConfig, color func(int) Color) {
	walkLine(x0, y0, x1, y1, func(x, y int) {
		if cfg.contains(x, y) {
			canvas.Set(x, y, GlyphLine, color(yToValue(y, minValue, maxValue, cfg)))
		}
	})
}

func (cfg ChartConfig) contains(x, y int) bool {
	return x >= cfg.X && x < cfg.X+cfg.Width && y >= cfg.Y && y < cfg.Y+cfg.Height
}
