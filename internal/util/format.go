package util

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Placeholder is shown for missing values.
const Placeholder = "—"

// FormatPercent formats a ratio in [0, 1] as "82%" or "—" if nil.
func FormatPercent(ratio *float64) string {
	if ratio == nil || math.IsNaN(*ratio) {
		return Placeholder
	}
	return fmt.Sprintf("%d%%", int(math.Round(*ratio*100)))
}

// FormatResponseTime formats milliseconds as "120 ms".
func FormatResponseTime(ms *int) string {
	if ms == nil {
		return Placeholder
	}
	return fmt.Sprintf("%d ms", *ms)
}

// FormatAlive renders the alive flag.
func FormatAlive(alive bool) string {
	if alive {
		return "alive"
	}
	return "dead"
}

// FormatReputation renders "Good (82)", or "Unknown" when there is no score.
func FormatReputation(label string, score *float64) string {
	if score == nil {
		return "Unknown"
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = "unknown"
	}
	return fmt.Sprintf("%s (%d)", Capitalize(label), int(math.Round(*score)))
}

// FormatCheckTime formats a check timestamp as "2026-02-20 10:30".
func FormatCheckTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatRelative formats a timestamp as "3 minutes ago".
func FormatRelative(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "Never"
	}
	return humanize.Time(*t)
}

// FormatTimestamp parses a server timestamp string and renders it relative to now.
// Unparseable input is returned as is.
func FormatTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Never"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatRelative(&t)
		}
	}
	return s
}

// FormatCount formats an integer with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatSourceHealth renders "82% alive", or "No data" when there are no proxies.
func FormatSourceHealth(ratio *float64) string {
	if ratio == nil {
		return "No data"
	}
	return fmt.Sprintf("%d%% alive", int(math.Round(*ratio*100)))
}

// Capitalize upper-cases the first letter.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// OrPlaceholder returns s, or "—" when s is blank.
func OrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
