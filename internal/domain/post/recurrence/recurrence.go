// Package recurrence expands one scheduling request into the dates of a recurring series.
package recurrence

import (
	"time"

	"github.com/vadim/neo-social/internal/domain/post/entity"
)

// Frequency is the unit a series advances by
type Frequency string

const (
	FrequencyNone    Frequency = ""
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency parses a frequency string. "none" and "" both mean no repetition.
func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case "", "none":
		return FrequencyNone, nil
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	default:
		return "", entity.ErrInvalidFrequency
	}
}

// Spec describes a recurring series. It only exists until Generate has run.
type Spec struct {
	Anchor      time.Time
	Frequency   Frequency
	Occurrences int
}

// Dates is a shorthand for Generate(s.Anchor, s.Frequency, s.Occurrences)
func (s Spec) Dates() ([]time.Time, error) {
	return Generate(s.Anchor, s.Frequency, s.Occurrences)
}

// Generate returns count dates starting at anchor, each k frequency units after the anchor.
// count must be within 1..entity.MaxOccurrences.
//
// Every date is derived from the anchor, not from its predecessor. Monthly steps clamp to the
// last day of the target month when the anchor's day does not exist there, so a series
// anchored on Jan 31 yields Jan 31, Feb 28 (29 in leap years), Mar 31, Apr 30. Wall-clock time
// and location of the anchor are kept for every step.
func Generate(anchor time.Time, freq Frequency, count int) ([]time.Time, error) {
	if count <= 0 || count > entity.MaxOccurrences {
		return nil, entity.ErrInvalidOccurrenceCount
	}
	if _, err := ParseFrequency(string(freq)); err != nil {
		return nil, err
	}

	if count == 1 || freq == FrequencyNone {
		return []time.Time{anchor}, nil
	}

	dates := make([]time.Time, count)
	for k := 0; k < count; k++ {
		dates[k] = step(anchor, freq, k)
	}
	return dates, nil
}

func step(d time.Time, freq Frequency, k int) time.Time {
	switch freq {
	case FrequencyDaily:
		return d.AddDate(0, 0, k)
	case FrequencyWeekly:
		return d.AddDate(0, 0, 7*k)
	case FrequencyMonthly:
		return addMonthsClamped(d, k)
	default:
		return d
	}
}

// addMonthsClamped adds n months, clamping the day to the target month's length.
// time.AddDate would roll Jan 31 + 1 month over into March instead.
func addMonthsClamped(d time.Time, n int) time.Time {
	year, month, day := d.Date()
	hour, min, sec := d.Clock()

	first := time.Date(year, month+time.Month(n), 1, hour, min, sec, d.Nanosecond(), d.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, d.Nanosecond(), d.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
