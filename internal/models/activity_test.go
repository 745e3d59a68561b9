package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func TestEndAfterStart(t *testing.T) {
	day := NewDate(2026, time.July, 10)
	nextDay := NewDate(2026, time.July, 11)

	require.True(t, EndAfterStart(day, nextDay, mustTime(t, "10:00"), mustTime(t, "09:00")))
	require.True(t, EndAfterStart(day, day, mustTime(t, "10:00"), mustTime(t, "11:00")))
	require.False(t, EndAfterStart(day, day, mustTime(t, "10:00"), mustTime(t, "10:00")))
	require.False(t, EndAfterStart(day, day, mustTime(t, "11:00"), mustTime(t, "10:00")))
	require.False(t, EndAfterStart(nextDay, day, mustTime(t, "09:00"), mustTime(t, "23:00")))
}

func TestActivityDuration(t *testing.T) {
	single := Activity{
		StartDate: NewDate(2026, time.July, 10),
		EndDate:   NewDate(2026, time.July, 10),
	}
	require.False(t, single.IsMultiDay())
	require.Equal(t, 1, single.DurationDays())

	multi := Activity{
		StartDate: NewDate(2026, time.July, 10),
		EndDate:   NewDate(2026, time.July, 13),
	}
	require.True(t, multi.IsMultiDay())
	require.Equal(t, 4, multi.DurationDays())
}

func TestLocationDisplayName(t *testing.T) {
	name := "Louvre"
	address := "Rue de Rivoli, Paris"
	lat, lng := 48.8606, 2.3376

	require.Equal(t, "Louvre", Location{Name: &name, Address: &address}.DisplayName())
	require.Equal(t, "Rue de Rivoli, Paris", Location{Address: &address}.DisplayName())
	require.Equal(t, "48.8606, 2.3376", Location{Latitude: &lat, Longitude: &lng}.DisplayName())
	require.Equal(t, "Unknown location", Location{}.DisplayName())

	blank := "  "
	require.Equal(t, "Unknown location", Location{Name: &blank}.DisplayName())
}

func TestLocationValidate(t *testing.T) {
	bad := 91.0
	lng := 10.0
	require.Error(t, Location{Latitude: &bad, Longitude: &lng}.Validate())

	badLng := -181.0
	lat := 10.0
	require.Error(t, Location{Latitude: &lat, Longitude: &badLng}.Validate())

	require.NoError(t, Location{Latitude: &lat, Longitude: &lng}.Validate())
	require.NoError(t, Location{}.Validate())
}

func TestCountParticipants(t *testing.T) {
	counts := CountParticipants([]ActivityParticipant{
		{Status: StatusConfirmed},
		{Status: StatusConfirmed},
		{Status: StatusMaybe},
		{Status: StatusDeclined},
	})
	require.Equal(t, int64(2), counts.Confirmed)
	require.Equal(t, int64(1), counts.Maybe)
	require.Equal(t, int64(1), counts.Declined)
}
