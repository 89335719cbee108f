// Package reading defines blood pressure readings and the rules applied to them.
package reading

import "time"

// Physiological bounds accepted on entry, inclusive.
const (
	MinSystolic  = 50
	MaxSystolic  = 250
	MinDiastolic = 30
	MaxDiastolic = 150
	MinPulse     = 30
	MaxPulse     = 200
)

// Known category labels. Category is free-form; these are the values the
// entry form offers.
const (
	CategoryGeneral       = "general"
	CategoryMorning       = "morning"
	CategoryEvening       = "evening"
	CategoryBeforeMeds    = "before_meds"
	CategoryAfterMeds     = "after_meds"
	CategoryAfterExercise = "after_exercise"
	CategoryBeforeSleep   = "before_sleep"
)

// Reading is one persisted blood pressure measurement.
type Reading struct {
	ID        string `json:"id"`
	Systolic  int    `json:"systolic"`        // mmHg
	Diastolic int    `json:"diastolic"`       // mmHg
	Pulse     *int   `json:"pulse,omitempty"` // bpm, nil when not recorded
	Notes     string `json:"notes"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// Entry is a validated reading that has not been stored yet. The store
// assigns the ID, and the timestamp unless TakenAt is set.
type Entry struct {
	Systolic  int
	Diastolic int
	Pulse     *int
	Notes     string
	Category  string
	TakenAt   time.Time // zero means "now"
}

// New builds a Reading from an entry once the store has picked an ID and time.
func New(id string, e Entry, at time.Time) Reading {
	return Reading{
		ID:        id,
		Systolic:  e.Systolic,
		Diastolic: e.Diastolic,
		Pulse:     clonePulse(e.Pulse),
		Notes:     e.Notes,
		Category:  e.Category,
		Timestamp: at.UnixMilli(),
	}
}

// Time returns the reading timestamp in the given location.
func (r Reading) Time(loc *time.Location) time.Time {
	t := time.UnixMilli(r.Timestamp)
	if loc != nil {
		t = t.In(loc)
	}
	return t
}

// HasPulse reports whether a pulse was recorded.
func (r Reading) HasPulse() bool {
	return r.Pulse != nil
}

// Severity returns the severity band of the reading.
func (r Reading) Severity() Severity {
	return Classify(r.Systolic, r.Diastolic)
}

// Entry returns the stored fields of the reading without its ID or time.
func (r Reading) Entry() Entry {
	return Entry{
		Systolic:  r.Systolic,
		Diastolic: r.Diastolic,
		Pulse:     clonePulse(r.Pulse),
		Notes:     r.Notes,
		Category:  r.Category,
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

func clonePulse(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
