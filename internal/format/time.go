package format

import (
	"fmt"
	"time"
)

const (
	filetimeTicksPerMilli = 10000         // FILETIME units are 100ns
	filetimeEpochMillis   = 11644473600000 // 1601-01-01 to 1970-01-01 in milliseconds

	// TimestampLayout is the rendering used for FILETIME and SYSTEMTIME values.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// FiletimeToUnixMillis converts a FILETIME tick count to milliseconds since
// the Unix epoch. The division happens on the unsigned value before the epoch
// shift, so tick counts above MaxInt64 still convert.
func FiletimeToUnixMillis(v uint64) int64 {
	return int64(v/filetimeTicksPerMilli) - filetimeEpochMillis
}

// FiletimeToTime converts a Windows FILETIME value to a UTC time.Time with
// millisecond precision.
func FiletimeToTime(v uint64) time.Time {
	return time.UnixMilli(FiletimeToUnixMillis(v)).UTC()
}

// TimeToFiletime converts a time.Time to a FILETIME tick count at millisecond
// precision. Times before the FILETIME epoch clamp to zero.
func TimeToFiletime(t time.Time) uint64 {
	ms := t.UnixMilli() + filetimeEpochMillis
	if ms < 0 {
		return 0
	}
	return uint64(ms) * filetimeTicksPerMilli
}

// FormatTimestamp renders t using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Systemtime mirrors the Windows SYSTEMTIME structure.
type Systemtime struct {
	Year, Month, DayOfWeek, Day, Hour, Minute, Second, Milliseconds uint16
}

// String renders the fields in TimestampLayout form without normalising them,
// so out-of-range fields from a corrupt record stay visible.
func (st Systemtime) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03dZ",
		st.Year, st.Month, st.Day, st.Hour, st.Minute, st.Second, st.Milliseconds)
}
