// Package timex converts between time.Time and the integer millisecond
// representation used by the local store. Millisecond precision keeps
// timestamp comparisons exact in SQL.
package timex

import "time"

// ToMillis returns t as Unix milliseconds in UTC. The zero time maps to 0.
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

// FromMillis is the inverse of ToMillis. 0 maps to the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Trunc truncates t to the store's millisecond precision, so values survive a
// write/read round trip unchanged.
func Trunc(t time.Time) time.Time {
	return FromMillis(ToMillis(t))
}
