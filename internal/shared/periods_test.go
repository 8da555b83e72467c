package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewPeriodValidates(t *testing.T) {
	_, err := NewPeriod(2024, 0)
	require.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = NewPeriod(2024, 13)
	require.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = NewPeriod(1999, 5)
	require.ErrorIs(t, err, ErrInvalidPeriod)

	p, err := NewPeriod(2024, 3)
	require.NoError(t, err)
	require.Equal(t, "2024-03", p.String())
}

func TestPeriodPreviousWrapsYear(t *testing.T) {
	require.Equal(t, Period{Year: 2023, Month: 12}, Period{Year: 2024, Month: 1}.Previous())
	require.Equal(t, Period{Year: 2024, Month: 4}, Period{Year: 2024, Month: 5}.Previous())
}

func TestPeriodShift(t *testing.T) {
	p := Period{Year: 2024, Month: 2}
	require.Equal(t, Period{Year: 2023, Month: 9}, p.Shift(-5))
	require.Equal(t, Period{Year: 2025, Month: 1}, p.Shift(11))
	require.Equal(t, p, p.Shift(0))
}

func TestPeriodDays(t *testing.T) {
	p := Period{Year: 2024, Month: 2}
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), p.FirstDay())
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), p.LastDay())
	require.Equal(t, 31, Period{Year: 2023, Month: 12}.LastDay().Day())
}

func TestPeriodTrailingIsChronological(t *testing.T) {
	periods := Period{Year: 2024, Month: 3}.Trailing(6)
	require.Len(t, periods, 6)
	require.Equal(t, Period{Year: 2023, Month: 10}, periods[0])
	require.Equal(t, Period{Year: 2024, Month: 3}, periods[5])
	for i := 1; i < len(periods); i++ {
		require.True(t, periods[i-1].Before(periods[i]), "periods out of order at %d", i)
	}
	require.Nil(t, Period{Year: 2024, Month: 3}.Trailing(0))
}
