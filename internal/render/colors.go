package render

import "github.com/jwulff/bplog-go/internal/reading"

// Common colors for the chart.
var (
	// ColorDefault leaves the terminal's own foreground color in place.
	ColorDefault = Color{Default: true}

	ColorWhite     = NewColor(255, 255, 255)
	ColorGray      = NewColor(128, 128, 128)
	ColorDimGray   = NewColor(64, 64, 64)
	ColorLightGray = NewColor(192, 192, 192)

	// Severity colors
	ColorOptimal  = NewColor(0, 200, 0)     // Green
	ColorNormal   = NewColor(150, 220, 0)   // Yellow-green
	ColorElevated = NewColor(255, 200, 0)   // Amber
	ColorHigh     = NewColor(255, 60, 60)   // Red
	ColorUnknown  = NewColor(180, 180, 180) // Unclassified

	// Chart colors
	ColorAxis  = ColorGray
	ColorLabel = ColorLightGray
	ColorDate  = ColorDimGray
)

// SeverityColor returns the color for a severity band.
func SeverityColor(s reading.Severity) Color {
	switch s {
	case reading.SeverityOptimal:
		return ColorOptimal
	case reading.SeverityNormal:
		return ColorNormal
	case reading.SeverityElevated:
		return ColorElevated
	case reading.SeverityHigh:
		return ColorHigh
	default:
		return ColorUnknown
	}
}

// SystolicColor colors a systolic value by the band it alone would reach.
func SystolicColor(systolic int) Color {
	return SeverityColor(reading.Classify(systolic, 0))
}

// DiastolicColor colors a diastolic value by the band it alone would reach.
func DiastolicColor(diastolic int) Color {
	return SeverityColor(reading.Classify(0, diastolic))
}

// LerpColor linearly interpolates between two colors.
func LerpColor(a, b Color, t float64) Color {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return NewColor(
		uint8(float64(a.R)+t*float64(int(b.R)-int(a.R))),
		uint8(float64(a.G)+t*float64(int(b.G)-int(a.G))),
		uint8(float64(a.B)+t*float64(int(b.B)-int(a.B))),
	)
}

// DimColor reduces the brightness of a color by a factor (0-1). A factor
// of 0 gives black.
func DimColor(c Color, factor float64) Color {
	return LerpColor(NewColor(0, 0, 0), c, factor)
}
