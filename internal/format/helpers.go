package format

import (
	"fmt"
	"time"
)

// FmtDuration formats a duration as "Xh Ym", "Xm Ys" or "Ys".
func FmtDuration(d time.Duration) string {
	s := int(d.Round(time.Second).Seconds())
	switch {
	case s >= 3600:
		return fmt.Sprintf("%dh %dm", s/3600, (s%3600)/60)
	case s >= 60:
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FmtMinutes renders an optional elapsed-minutes value; nil is "-".
func FmtMinutes(m *float64) string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f min", *m)
}

// FmtTime renders an optional timestamp in UTC; nil is "-".
func FmtTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// Truncate shortens s to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
