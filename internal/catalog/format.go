package catalog

import (
	"fmt"
	"time"
)

// now is swapped in tests.
var now = time.Now

// FormatBytes renders a byte count with binary units.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		if bytes < 0 {
			bytes = 0
		}
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 4; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(bytes)/float64(div), "KMGTP"[exp])
}

// FormatPercent renders a 0-100 value, clamped, with one decimal below 10%.
func FormatPercent(percent float64) string {
	switch {
	case percent <= 0:
		return "0%"
	case percent >= 100:
		return "100%"
	case percent < 10:
		return fmt.Sprintf("%.1f%%", percent)
	default:
		return fmt.Sprintf("%.0f%%", percent)
	}
}

// FormatAge renders t relative to ref ("5m ago"). Zero times render as "-".
func FormatAge(t, ref time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := ref.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
