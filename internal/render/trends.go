package render

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/muesli/termenv"

	"github.com/jwulff/bplog-go/internal/analytics"
	"github.com/jwulff/bplog-go/internal/reading"
)

// Trend chart layout.
const (
	labelWidth   = 4 // "250" plus a space
	minChartRows = 5
	gridDim      = 0.35
)

// gridlines are the classification thresholds drawn behind the data.
var gridlines = []struct {
	value int
	color func(int) Color
}{
	{reading.ThresholdHighSystolic, SystolicColor},
	{reading.ThresholdElevatedSystolic, SystolicColor},
	{reading.ThresholdNormalSystolic, SystolicColor},
	{reading.ThresholdHighDiastolic, DiastolicColor},
	{reading.ThresholdElevatedDiastolic, DiastolicColor},
}

// TrendChart draws a labeled chart of daily means: value labels on the left,
// first and last day underneath. Thresholds inside the value range show as
// dimmed gridlines in their band's color.
func TrendChart(daily []analytics.DailySummary, width, height int) *Canvas {
	if height < minChartRows+1 {
		height = minChartRows + 1
	}
	if width < labelWidth+2 {
		width = labelWidth + 2
	}
	canvas := NewCanvas(width, height)

	points := PointsFromDaily(daily)
	if len(points) == 0 {
		canvas.DrawText(0, 0, "No readings in this period", ColorLabel)
		return canvas
	}
	SortChartPoints(points)

	cfg := NewChartConfig(labelWidth, 0, width-labelWidth, height-1)
	minValue, maxValue := calculateDataRange(points, cfg.Padding)

	canvas.DrawLine(labelWidth-1, cfg.Y, labelWidth-1, cfg.Y+cfg.Height-1, '│', ColorAxis)
	canvas.DrawText(0, cfg.Y, fmt.Sprintf("%3d", maxValue), ColorLabel)
	canvas.DrawText(0, cfg.Y+cfg.Height-1, fmt.Sprintf("%3d", minValue), ColorLabel)

	RenderChart(canvas, points, cfg)
	drawGrid(canvas, minValue, maxValue, cfg)

	first := points[0].Day.Format("Jan 2")
	canvas.DrawText(labelWidth, height-1, first, ColorDate)
	if len(points) > 1 {
		last := points[len(points)-1].Day.Format("Jan 2")
		canvas.DrawText(width-len(last), height-1, last, ColorDate)
	}
	return canvas
}

// drawGrid fills blank cells on threshold rows. It runs after the series so
// data always stays in front.
func drawGrid(canvas *Canvas, minValue, maxValue int, cfg ChartConfig) {
	for _, g := range gridlines {
		if g.value < minValue || g.value > maxValue {
			continue
		}
		y := valueToY(g.value, minValue, maxValue, cfg)
		color := DimColor(g.color(g.value), gridDim)
		walkLine(cfg.X, y, cfg.X+cfg.Width-1, y, func(x, y int) {
			canvas.SetBehind(x, y, GlyphGrid, color)
		})
	}
}

// WriteTrends writes the chart followed by a legend line, colored for profile.
func WriteTrends(w io.Writer, report analytics.Report, width, height int, profile termenv.Profile) error {
	canvas := TrendChart(report.Daily, width, height)
	if err := canvas.Render(w, profile); err != nil {
		return err
	}

	key := string(GlyphSystolic) + " systolic  " + string(GlyphDiastolic) + " diastolic"
	legend := NewCanvas(width, 1)
	legend.DrawText(0, 0, key, ColorLabel)
	if !report.Summary.Empty() {
		avg := report.Average
		text := "  avg " + strconv.Itoa(avg.Systolic) + "/" + strconv.Itoa(avg.Diastolic)
		legend.DrawText(utf8.RuneCountInString(key), 0, text, SeverityColor(report.Summary.Severity()))
	}
	return legend.Render(w, profile)
}
