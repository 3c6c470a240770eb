// Package timestamp parses and formats the two timestamp encodings found in load-test logs.
// Every parsed value is a UTC time.Time so deltas are computed in one frame.
package timestamp

import (
	"fmt"
	"strings"
	"time"
)

// Custom layout for "DD.MM.YYYY HH:MM:SS.fffff". Go accepts any fractional
// width after the seconds field when parsing, so 5-digit fractions work.
const customLayout = "2.1.2006 15:04:05"

var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseCustom parses "DD.MM.YYYY HH:MM:SS.fffff" with an optional trailing "Z".
// ok is false for malformed input.
func ParseCustom(value string) (time.Time, bool) {
	value = strings.TrimRight(strings.TrimSpace(value), "Z")
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(customLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDateTime joins a "DD.MM.YYYY" date and "HH:MM:SS.fffff[Z]" time column pair.
func ParseDateTime(date, clock string) (time.Time, bool) {
	return ParseCustom(strings.TrimSpace(date) + " " + strings.TrimSpace(clock))
}

// ParseISO parses ISO-8601 with an optional offset. Offset-aware values are
// converted to UTC; naive values are taken as UTC.
func ParseISO(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FromEpochMillis converts epoch milliseconds to a UTC time
func FromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatObjectID renders t as the object_id label "DD.MM.YYYY HH:MM:SS.fffffZ"
// (fraction truncated to 5 digits).
func FormatObjectID(t time.Time) string {
	t = t.UTC()
	micros := t.Nanosecond() / int(time.Microsecond)
	frac := fmt.Sprintf("%06d", micros)[:5]
	return t.Format("02.01.2006 15:04:05") + "." + frac + "Z"
}

// FormatNaive renders t as "YYYY-MM-DD HH:MM:SS[.ffffff]", omitting the
// fraction when it is zero.
func FormatNaive(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02 15:04:05")
	micros := t.Nanosecond() / int(time.Microsecond)
	if micros == 0 {
		return base
	}
	return fmt.Sprintf("%s.%06d", base, micros)
}

// DeltaMillis returns a-b in whole milliseconds, truncated toward zero
func DeltaMillis(a, b time.Time) int64 {
	return a.Sub(b).Milliseconds()
}
