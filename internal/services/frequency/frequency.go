package frequency

import (
	"errors"
	"fmt"
	"time"

	"rentdesk-desktop/internal/models"
)

// ErrInvalidFrequency signals a frequency value outside the known enum.
// This is a programmer/data error and is never silently defaulted.
var ErrInvalidFrequency = errors.New("invalid frequency")

// ComputeNext returns the next occurrence after from for the given frequency.
// Monthly, quarterly and yearly advances are calendar-correct: the
// day-of-month is preserved where possible and clamped to the last valid day
// of the target month otherwise (Jan 31 -> Feb 29 on leap years, Feb 28
// otherwise; Feb 29 yearly -> Feb 28).
func ComputeNext(freq models.Frequency, from time.Time) (time.Time, error) {
	switch freq {
	case models.FrequencyDaily:
		return from.AddDate(0, 0, 1), nil
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7), nil
	case models.FrequencyMonthly:
		return addMonths(from, 1), nil
	case models.FrequencyQuarterly:
		return addMonths(from, 3), nil
	case models.FrequencyYearly:
		return addMonths(from, 12), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, freq)
	}
}

// addMonths advances t by the given number of calendar months, clamping the
// day-of-month to the target month's length. time.AddDate cannot be used
// directly on the full date because it normalizes overflow (Jan 31 plus one
// month becomes Mar 2).
func addMonths(t time.Time, months int) time.Time {
	hour, min, sec := t.Clock()

	// Advance from the first of the month, which never overflows.
	first := time.Date(t.Year(), t.Month(), 1, hour, min, sec, t.Nanosecond(), t.Location())
	first = first.AddDate(0, months, 0)

	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
