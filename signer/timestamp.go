package signer

import (
	"regexp"
	"time"
)

// TimestampLayout is the basic ISO 8601 form used in credentials.
const TimestampLayout = "20060102T150405Z"

var timestampPattern = regexp.MustCompile(`^\d{4}\d{2}\d{2}T\d{2}\d{2}\d{2}Z$`)

// FormatTimestamp renders t in UTC with second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a credential timestamp. It reports false for anything
// not matching the layout exactly.
func ParseTimestamp(ts string) (time.Time, bool) {
	if !timestampPattern.MatchString(ts) {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ValidTimestamp reports whether ts can be used as a signing timestamp.
func ValidTimestamp(ts string) bool {
	return timestampPattern.MatchString(ts)
}
