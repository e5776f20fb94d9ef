package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHHMM(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"09:30": 570,
		"23:59": 1439,
	}
	for in, want := range cases {
		got, err := ParseHHMM(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "9:30", "24:00", "12:60", "12:5", "ab:cd", "12:30:00"} {
		_, err := ParseHHMM(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseEndHHMM(t *testing.T) {
	got, err := ParseEndHHMM(EndOfDay)
	require.NoError(t, err)
	assert.Equal(t, MinutesPerDay, got)

	got, err = ParseEndHHMM("17:30")
	require.NoError(t, err)
	assert.Equal(t, 1050, got)

	for _, bad := range []string{"24:01", "25:00", "24:0"} {
		_, err := ParseEndHHMM(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatHHMM(t *testing.T) {
	assert.Equal(t, "00:00", FormatHHMM(0))
	assert.Equal(t, "09:05", FormatHHMM(545))
	assert.Equal(t, "23:59", FormatHHMM(1439))
	assert.Equal(t, EndOfDay, FormatHHMM(MinutesPerDay))
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)

	d, err := ParseDate("2024-03-04", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, loc, d.Location())

	for _, bad := range []string{"2024-3-4", "2024-02-30", "04-03-2024", ""} {
		_, err := ParseDate(bad, time.UTC)
		assert.Error(t, err, bad)
	}
}

func TestDayBounds(t *testing.T) {
	at := time.Date(2024, 3, 4, 15, 20, 0, 0, time.UTC)
	start, end := DayBounds(at)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 920, MinuteOfDay(at))
}

func TestOverlaps_HalfOpen(t *testing.T) {
	assert.True(t, Overlaps(540, 600, 570, 630))
	assert.True(t, Overlaps(540, 600, 550, 560))
	assert.False(t, Overlaps(540, 600, 600, 660), "touching end is not an overlap")
	assert.False(t, Overlaps(600, 660, 540, 600), "touching start is not an overlap")
}
