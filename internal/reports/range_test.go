package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRangeDefaults(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)

	rng := ParseRange("", now)
	require.Equal(t, "7d", rng.Label)
	require.Equal(t, 7, rng.Days)
	require.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), rng.Start)
	require.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), rng.End)
}

func TestParseRangeLabels(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	for label, days := range map[string]int{"1d": 1, "7d": 7, "30d": 30, "90d": 90, "1y": 365} {
		rng := ParseRange(label, now)
		require.Equal(t, days, rng.Days, label)
		require.Equal(t, rng.End.AddDate(0, 0, -(days+1)), rng.Start, label)
	}
}

func TestParseRangeUnknownFallsBackToDefault(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)

	rng := ParseRange("14d", now)
	require.Equal(t, "7d", rng.Label)
	require.Equal(t, 7, rng.Days)
	require.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), rng.Start)
}

func TestParseRangeSingleDayIncludesYesterday(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)

	rng := ParseRange("1d", now)
	require.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), rng.Start)
	require.True(t, now.Before(rng.End))

	yesterdayNoon := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	require.False(t, yesterdayNoon.Before(rng.Start))
	require.True(t, yesterdayNoon.Before(rng.End))
}
