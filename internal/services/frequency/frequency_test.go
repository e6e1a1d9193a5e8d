package frequency

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-desktop/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestComputeNext(t *testing.T) {
	t.Run("Should advance fixed-length frequencies", func(t *testing.T) {
		tests := []struct {
			name     string
			freq     models.Frequency
			from     time.Time
			expected time.Time
		}{
			{
				name:     "Daily",
				freq:     models.FrequencyDaily,
				from:     date(2024, time.November, 1),
				expected: date(2024, time.November, 2),
			},
			{
				name:     "Daily across month boundary",
				freq:     models.FrequencyDaily,
				from:     date(2024, time.November, 30),
				expected: date(2024, time.December, 1),
			},
			{
				name:     "Weekly",
				freq:     models.FrequencyWeekly,
				from:     date(2024, time.November, 1),
				expected: date(2024, time.November, 8),
			},
			{
				name:     "Weekly across year boundary",
				freq:     models.FrequencyWeekly,
				from:     date(2024, time.December, 30),
				expected: date(2025, time.January, 6),
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result, err := ComputeNext(tt.freq, tt.from)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			})
		}
	})

	t.Run("Should advance calendar months with clamping", func(t *testing.T) {
		tests := []struct {
			name     string
			freq     models.Frequency
			from     time.Time
			expected time.Time
		}{
			{
				name:     "Monthly mid-month preserves day",
				freq:     models.FrequencyMonthly,
				from:     date(2024, time.November, 15),
				expected: date(2024, time.December, 15),
			},
			{
				name:     "Monthly Jan 31 clamps to Feb 29 on leap year",
				freq:     models.FrequencyMonthly,
				from:     date(2024, time.January, 31),
				expected: date(2024, time.February, 29),
			},
			{
				name:     "Monthly Jan 31 clamps to Feb 28 on non-leap year",
				freq:     models.FrequencyMonthly,
				from:     date(2025, time.January, 31),
				expected: date(2025, time.February, 28),
			},
			{
				name:     "Monthly Mar 31 clamps to Apr 30",
				freq:     models.FrequencyMonthly,
				from:     date(2024, time.March, 31),
				expected: date(2024, time.April, 30),
			},
			{
				name:     "Monthly Dec rolls into next year",
				freq:     models.FrequencyMonthly,
				from:     date(2024, time.December, 31),
				expected: date(2025, time.January, 31),
			},
			{
				name:     "Quarterly preserves day",
				freq:     models.FrequencyQuarterly,
				from:     date(2024, time.January, 15),
				expected: date(2024, time.April, 15),
			},
			{
				name:     "Quarterly Nov 30 clamps to Feb 28",
				freq:     models.FrequencyQuarterly,
				from:     date(2024, time.November, 30),
				expected: date(2025, time.February, 28),
			},
			{
				name:     "Yearly preserves month and day",
				freq:     models.FrequencyYearly,
				from:     date(2024, time.June, 15),
				expected: date(2025, time.June, 15),
			},
			{
				name:     "Yearly Feb 29 clamps to Feb 28",
				freq:     models.FrequencyYearly,
				from:     date(2024, time.February, 29),
				expected: date(2025, time.February, 28),
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result, err := ComputeNext(tt.freq, tt.from)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			})
		}
	})

	t.Run("Should preserve time of day and location", func(t *testing.T) {
		loc, err := time.LoadLocation("Europe/Paris")
		require.NoError(t, err)

		from := time.Date(2024, time.January, 31, 8, 45, 12, 0, loc)
		result, err := ComputeNext(models.FrequencyMonthly, from)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2024, time.February, 29, 8, 45, 12, 0, loc), result)
		assert.Equal(t, loc, result.Location())
	})

	t.Run("Should always advance strictly past from", func(t *testing.T) {
		freqs := []models.Frequency{
			models.FrequencyDaily,
			models.FrequencyWeekly,
			models.FrequencyMonthly,
			models.FrequencyQuarterly,
			models.FrequencyYearly,
		}

		starts := []time.Time{
			date(2024, time.January, 1),
			date(2024, time.January, 31),
			date(2024, time.February, 29),
			date(2024, time.December, 31),
		}

		for _, freq := range freqs {
			for _, from := range starts {
				result, err := ComputeNext(freq, from)
				require.NoError(t, err)
				assert.True(t, result.After(from),
					"%s from %s must advance past it, got %s", freq, from, result)
			}
		}
	})

	t.Run("Should fail loudly on unknown frequency", func(t *testing.T) {
		_, err := ComputeNext(models.Frequency("fortnightly"), date(2024, time.January, 1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidFrequency))
		assert.Contains(t, err.Error(), "fortnightly")

		_, err = ComputeNext("", date(2024, time.January, 1))
		assert.True(t, errors.Is(err, ErrInvalidFrequency))
	})
}
