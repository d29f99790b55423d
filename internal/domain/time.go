package domain

import "time"

// TimeLayout is the storage and wire format of timestamps (UTC).
const TimeLayout = time.DateTime

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
