package reading

// Severity is the category band derived from a systolic/diastolic pair.
// Severities are ordered; a larger value is more severe.
type Severity int

const (
	SeverityOptimal Severity = iota
	SeverityNormal
	SeverityElevated
	SeverityHigh
)

// Classification thresholds in mmHg.
const (
	ThresholdHighSystolic      = 140
	ThresholdHighDiastolic     = 90
	ThresholdElevatedSystolic  = 130
	ThresholdElevatedDiastolic = 80
	ThresholdNormalSystolic    = 120
)

// Severities lists every band from least to most severe.
var Severities = []Severity{SeverityOptimal, SeverityNormal, SeverityElevated, SeverityHigh}

// Classify determines the severity band for a pressure pair.
// Rules are evaluated in order and the first match wins: either value can
// push a reading into High or Elevated on its own.
func Classify(systolic, diastolic int) Severity {
	if systolic >= ThresholdHighSystolic || diastolic >= ThresholdHighDiastolic {
		return SeverityHigh
	}
	if systolic >= ThresholdElevatedSystolic || diastolic >= ThresholdElevatedDiastolic {
		return SeverityElevated
	}
	if systolic >= ThresholdNormalSystolic {
		return SeverityNormal
	}
	return SeverityOptimal
}

// String returns the short machine name of the band.
func (s Severity) String() string {
	switch s {
	case SeverityOptimal:
		return "optimal"
	case SeverityNormal:
		return "normal"
	case SeverityElevated:
		return "elevated"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Label returns the display text shown next to a reading.
func (s Severity) Label() string {
	switch s {
	case SeverityOptimal:
		return "Optimal Blood Pressure"
	case SeverityNormal:
		return "Normal Blood Pressure"
	case SeverityElevated:
		return "Elevated Blood Pressure"
	case SeverityHigh:
		return "High Blood Pressure"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
