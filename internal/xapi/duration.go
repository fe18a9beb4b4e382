package xapi

import (
	"fmt"
	"strings"
)

// FormatISO8601Duration renders a non-negative number of seconds as an
// ISO-8601 duration using day as the largest unit, e.g. 864000 -> "P10D",
// 90061 -> "P1DT1H1M1S", 0 -> "PT0S". Negative input is the caller's bug;
// it is clamped to zero.
func FormatISO8601Duration(seconds int64) string {
	if seconds <= 0 {
		return "PT0S"
	}

	days := seconds / 86400
	seconds %= 86400
	hours := seconds / 3600
	seconds %= 3600
	minutes := seconds / 60
	seconds %= 60

	var b strings.Builder
	b.WriteString("P")
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if hours > 0 || minutes > 0 || seconds > 0 {
		b.WriteString("T")
		if hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&b, "%dM", minutes)
		}
		if seconds > 0 {
			fmt.Fprintf(&b, "%dS", seconds)
		}
	}
	return b.String()
}
