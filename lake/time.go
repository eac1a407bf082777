package lake

import "time"

// TimestampLayout renders UTC offsets as "+00:00" and drops zero
// fractional seconds.
const TimestampLayout = "2006-01-02T15:04:05.999999-07:00"

// FormatTime renders t in TimestampLayout. The zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
