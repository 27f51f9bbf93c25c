package sqlite

import "time"

// timeLayout keeps sub-second precision and sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime stores times in UTC so lexical order matches time order
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored time, accepting RFC 3339 variants written by hand
func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
