package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/jwulff/bplog-go/internal/reading"
)

// DateLayout is the layout of DailySummary.Date.
const DateLayout = "2006-01-02"

// Summary holds mean values over a set of readings. A zero Summary
// (Count == 0) describes an empty set.
type Summary struct {
	Count         int     `json:"count"`
	PulseCount    int     `json:"pulseCount"`
	MeanSystolic  float64 `json:"meanSystolic"`
	MeanDiastolic float64 `json:"meanDiastolic"`
	MeanPulse     float64 `json:"meanPulse"`
}

// Rounded holds display values rounded to whole units.
type Rounded struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
	Pulse     int `json:"pulse"`
}

// DailySummary is the summary of one local calendar day.
type DailySummary struct {
	Date string    `json:"date"` // YYYY-MM-DD
	Day  time.Time `json:"day"`  // midnight in the grouping location
	Summary
}

// Empty reports whether the summary covers no readings.
func (s Summary) Empty() bool {
	return s.Count == 0
}

// HasPulse reports whether at least one reading contributed a pulse.
func (s Summary) HasPulse() bool {
	return s.PulseCount > 0
}

// Rounded returns the means rounded to the nearest integer.
func (s Summary) Rounded() Rounded {
	return Rounded{
		Systolic:  int(math.Round(s.MeanSystolic)),
		Diastolic: int(math.Round(s.MeanDiastolic)),
		Pulse:     int(math.Round(s.MeanPulse)),
	}
}

// Severity classifies the mean pressure pair.
func (s Summary) Severity() reading.Severity {
	r := s.Rounded()
	return reading.Classify(r.Systolic, r.Diastolic)
}

// Aggregate computes mean systolic, diastolic and pulse over readings.
// The pulse mean only counts readings that recorded a pulse; readings
// without one do not enter its denominator.
func Aggregate(readings []reading.Reading) Summary {
	var acc accumulator
	for _, r := range readings {
		acc.add(r)
	}
	return acc.summary()
}

// AggregateByDay groups readings by their calendar date in loc and returns
// one summary per day, oldest first. A nil loc means time.Local.
func AggregateByDay(readings []reading.Reading, loc *time.Location) []DailySummary {
	if loc == nil {
		loc = time.Local
	}

	groups := make(map[string]*accumulator)
	days := make(map[string]time.Time)
	for _, r := range readings {
		t := r.Time(loc)
		key := t.Format(DateLayout)
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
			days[key] = StartOfDay(t)
		}
		acc.add(r)
	}

	out := make([]DailySummary, 0, len(groups))
	for key, acc := range groups {
		out = append(out, DailySummary{Date: key, Day: days[key], Summary: acc.summary()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

type accumulator struct {
	count      int
	pulseCount int
	systolic   int64
	diastolic  int64
	pulse      int64
}

func (a *accumulator) add(r reading.Reading) {
	a.count++
	a.systolic += int64(r.Systolic)
	a.diastolic += int64(r.Diastolic)
	if r.Pulse != nil {
		a.pulseCount++
		a.pulse += int64(*r.Pulse)
	}
}

func (a *accumulator) summary() Summary {
	if a.count == 0 {
		return Summary{}
	}
	s := Summary{
		Count:         a.count,
		PulseCount:    a.pulseCount,
		MeanSystolic:  float64(a.systolic) / float64(a.count),
		MeanDiastolic: float64(a.diastolic) / float64(a.count),
	}
	if a.pulseCount > 0 {
		s.MeanPulse = float64(a.pulse) / float64(a.pulseCount)
	}
	return s
}
