// Package ldtime defines types and functions for time values used by LaunchDarkly SDKs.
package ldtime

import "time"

// UnixMillisecondTime is an integer representation of a date/time as milliseconds since the
// Unix epoch. This is the format used in LaunchDarkly analytics event data and in some flag
// data model fields such as DebugEventsUntilDate.
type UnixMillisecondTime uint64

// UnixMillisFromTime converts a time.Time to UnixMillisecondTime.
func UnixMillisFromTime(t time.Time) UnixMillisecondTime {
	return UnixMillisecondTime(t.UnixNano() / int64(time.Millisecond))
}

// UnixMillisNow returns the current time as UnixMillisecondTime.
func UnixMillisNow() UnixMillisecondTime {
	return UnixMillisFromTime(time.Now())
}

// Time converts a UnixMillisecondTime back into a time.Time, in UTC.
func (t UnixMillisecondTime) Time() time.Time {
	return time.Unix(int64(t)/1000, (int64(t)%1000)*int64(time.Millisecond)).UTC()
}
