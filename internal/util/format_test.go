package util

import (
	"testing"
	"time"
)

func TestFormatters(t *testing.T) {
	ratio := 0.824
	score := 81.6
	ms := 120
	when := time.Now().Add(-3 * time.Hour)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"percent", FormatPercent(&ratio), "82%"},
		{"percent missing", FormatPercent(nil), "—"},
		{"response time", FormatResponseTime(&ms), "120 ms"},
		{"response time missing", FormatResponseTime(nil), "—"},
		{"reputation", FormatReputation("good", &score), "Good (82)"},
		{"reputation missing", FormatReputation("good", nil), "Unknown"},
		{"source health", FormatSourceHealth(&ratio), "82% alive"},
		{"source health empty", FormatSourceHealth(nil), "No data"},
		{"count", FormatCount(12345), "12,345"},
		{"relative", FormatRelative(&when), "3 hours ago"},
		{"relative missing", FormatRelative(nil), "Never"},
		{"timestamp garbage", FormatTimestamp("yesterday-ish"), "yesterday-ish"},
		{"truncate", TruncateString("https://source.example/list", 12), "https://s..."},
		{"placeholder", OrPlaceholder("  "), "—"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
