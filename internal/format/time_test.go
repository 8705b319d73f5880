package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFiletimeToUnixMillis(t *testing.T) {
	// Unix epoch expressed in FILETIME ticks.
	require.Equal(t, int64(0), FiletimeToUnixMillis(116444736000000000))

	// Tick counts past MaxInt64 still convert through the unsigned division.
	require.Equal(t, int64(910692730085477), FiletimeToUnixMillis(uint64(math.MaxInt64)+500))

	// Sub-millisecond ticks are truncated.
	require.Equal(t, int64(1), FiletimeToUnixMillis(116444736000000000+19999))
}

func TestFiletimeRoundTrip(t *testing.T) {
	want := time.Date(2016, 7, 8, 18, 12, 51, 681*int(time.Millisecond), time.UTC)
	got := FiletimeToTime(TimeToFiletime(want))
	require.True(t, want.Equal(got), "got %s want %s", got, want)
	require.Equal(t, "2016-07-08T18:12:51.681Z", FormatTimestamp(got))

	require.Equal(t, uint64(0), TimeToFiletime(time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestSystemtimeString(t *testing.T) {
	st := Systemtime{Year: 2021, Month: 3, DayOfWeek: 2, Day: 9, Hour: 7, Minute: 5, Second: 4, Milliseconds: 12}
	require.Equal(t, "2021-03-09T07:05:04.012Z", st.String())

	// Invalid fields are rendered verbatim rather than normalised.
	require.Equal(t, "0000-13-00T00:00:00.000Z", Systemtime{Month: 13}.String())
}
