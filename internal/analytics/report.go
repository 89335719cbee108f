package analytics

import (
	"time"

	"github.com/jwulff/bplog-go/internal/reading"
)

// Report bundles everything the trends view shows for one range.
type Report struct {
	Range      TimeRange                `json:"range"`
	From       *time.Time               `json:"from,omitempty"`
	To         *time.Time               `json:"to,omitempty"`
	Summary    Summary                  `json:"summary"`
	Average    Rounded                  `json:"average"`
	Daily      []DailySummary           `json:"daily"`
	Severities map[reading.Severity]int `json:"severities"`
}

// Trends filters readings to the range and summarises the result.
// Daily grouping uses now's location.
func Trends(readings []reading.Reading, r TimeRange, now time.Time) Report {
	filtered := FilterByRange(readings, r, now)
	summary := Aggregate(filtered)

	report := Report{
		Range:      r,
		Summary:    summary,
		Average:    summary.Rounded(),
		Daily:      AggregateByDay(filtered, now.Location()),
		Severities: CountSeverities(filtered),
	}
	if start, end, ok := r.Bounds(now); ok {
		report.From = &start
		report.To = &end
	}
	return report
}

// CountSeverities returns how many readings fall in each severity band.
// Every band is present in the result, possibly with a zero count.
func CountSeverities(readings []reading.Reading) map[reading.Severity]int {
	counts := make(map[reading.Severity]int, len(reading.Severities))
	for _, s := range reading.Severities {
		counts[s] = 0
	}
	for _, r := range readings {
		counts[r.Severity()]++
	}
	return counts
}
