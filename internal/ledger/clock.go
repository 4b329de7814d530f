package ledger

import "time"

// utcDayStart returns midnight UTC of the instant's calendar day. Calendar
// day comparisons go through this single conversion: timestamps are
// normalized to UTC first, never compared in mixed representations.
func utcDayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// sameUTCDay reports whether two instants fall on the same UTC calendar day.
func sameUTCDay(a, b time.Time) bool {
	return utcDayStart(a).Equal(utcDayStart(b))
}
