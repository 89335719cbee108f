// Package analytics filters and summarises reading snapshots for history and
// trend views. Every function is pure: the current time is always passed in
// and input slices are never modified.
package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwulff/bplog-go/internal/reading"
)

// TimeRange is a relative window selected in the history or trends view.
type TimeRange string

const (
	RangeToday   TimeRange = "today"
	RangeWeek    TimeRange = "week"
	RangeMonth   TimeRange = "month"
	RangeQuarter TimeRange = "3months"
	RangeYear    TimeRange = "year"
	RangeAll     TimeRange = "all"
)

// DefaultRange is used when no range is selected.
const DefaultRange = RangeWeek

// ErrUnknownRange is returned by ParseTimeRange for unrecognised names.
var ErrUnknownRange = errors.New("unknown time range")

// TimeRanges lists the selectable ranges in display order.
var TimeRanges = []TimeRange{RangeToday, RangeWeek, RangeMonth, RangeQuarter, RangeYear, RangeAll}

// rangeDays maps the rolling ranges to their length in calendar days.
var rangeDays = map[TimeRange]int{
	RangeWeek:    7,
	RangeMonth:   30,
	RangeQuarter: 90,
	RangeYear:    365,
}

// ParseTimeRange converts a user supplied name to a TimeRange. An empty
// string selects DefaultRange.
func ParseTimeRange(s string) (TimeRange, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return DefaultRange, nil
	}
	for _, r := range TimeRanges {
		if string(r) == name {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

// Label returns the display name of the range.
func (r TimeRange) Label() string {
	switch r {
	case RangeToday:
		return "Today"
	case RangeWeek:
		return "Week"
	case RangeMonth:
		return "Month"
	case RangeQuarter:
		return "3 Months"
	case RangeYear:
		return "Year"
	case RangeAll:
		return "All Time"
	default:
		return string(r)
	}
}

// Bounds returns the inclusive window covered by the range relative to now.
// ok is false for RangeAll, which has no bounds. The end is always the last
// millisecond of now's calendar day in now's location. Unrecognised ranges
// start at the Unix epoch.
func (r TimeRange) Bounds(now time.Time) (start, end time.Time, ok bool) {
	if r == RangeAll {
		return time.Time{}, time.Time{}, false
	}
	end = EndOfDay(now)
	switch r {
	case RangeToday:
		start = StartOfDay(now)
	default:
		if days, known := rangeDays[r]; known {
			start = now.AddDate(0, 0, -days)
		} else {
			start = time.UnixMilli(0).In(now.Location())
		}
	}
	return start, end, true
}

// StartOfDay returns midnight at the start of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// FilterByRange returns the readings whose timestamp lies inside the range
// window, in their original order. The result never shares a backing array
// with the input.
func FilterByRange(readings []reading.Reading, r TimeRange, now time.Time) []reading.Reading {
	start, end, bounded := r.Bounds(now)
	out := make([]reading.Reading, 0, len(readings))
	if !bounded {
		return append(out, readings...)
	}

	startMs := start.UnixMilli()
	endMs := end.UnixMilli()
	for _, rd := range readings {
		if rd.Timestamp >= startMs && rd.Timestamp <= endMs {
			out = append(out, rd)
		}
	}
	return out
}
