package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-07-15")
	require.NoError(t, err)
	require.Equal(t, "2026-07-15", d.String())

	_, err = ParseDate("15/07/2026")
	require.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.August, 3)
	body, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"2026-08-03"`, string(body))

	var parsed Date
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.True(t, parsed.Equal(d.Time))
}

func TestDateDaysUntil(t *testing.T) {
	start := NewDate(2026, time.July, 1)
	end := NewDate(2026, time.July, 4)
	require.Equal(t, 3, start.DaysUntil(end))
	require.Equal(t, -3, end.DaysUntil(start))
}

func TestTimeOfDayParse(t *testing.T) {
	tod, err := ParseTimeOfDay("14:30")
	require.NoError(t, err)
	require.Equal(t, 14*60+30, tod.Minutes())

	tod, err = ParseTimeOfDay("09:15:30")
	require.NoError(t, err)
	require.Equal(t, "09:15", tod.String())

	_, err = ParseTimeOfDay("25:00")
	require.Error(t, err)
}

func TestMondayOf(t *testing.T) {
	// 2026-08-26 is a Wednesday
	wednesday := NewDate(2026, time.August, 26)
	monday := MondayOf(wednesday)
	require.Equal(t, "2026-08-24", monday.String())

	// a Monday normalizes to itself
	require.Equal(t, "2026-08-24", MondayOf(monday).String())

	// Sunday belongs to the preceding Monday
	sunday := NewDate(2026, time.August, 30)
	require.Equal(t, "2026-08-24", MondayOf(sunday).String())
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2026, time.February)
	require.Equal(t, "2026-02-01", start.String())
	require.Equal(t, "2026-02-28", end.String())

	start, end = MonthRange(2024, time.February)
	require.Equal(t, "2024-02-01", start.String())
	require.Equal(t, "2024-02-29", end.String())

	start, end = MonthRange(2026, time.December)
	require.Equal(t, "2026-12-01", start.String())
	require.Equal(t, "2026-12-31", end.String())
}
