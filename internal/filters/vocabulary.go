package filters

import (
	"slices"
	"strings"
)

// NotAvailable is the server's placeholder value; it always sorts last.
const NotAvailable = "N/A"

// Vocabulary holds the selectable values the server reports for the multi-select filters.
type Vocabulary struct {
	Countries       []string `json:"countries"`
	Types           []string `json:"types"`
	AnonymityLevels []string `json:"anonymityLevels"`
}

// Option is a label/value pair for a select control.
type Option struct {
	Label string
	Value string
}

var (
	StatusOptions = []Option{
		{Label: "All Proxies", Value: string(StatusAll)},
		{Label: "Only Alive Proxies", Value: string(StatusAlive)},
		{Label: "Only Dead Proxies", Value: string(StatusDead)},
	}
	ReputationOptions = []Option{
		{Label: "Good", Value: "good"},
		{Label: "Neutral", Value: "neutral"},
		{Label: "Poor", Value: "poor"},
		{Label: "Unknown", Value: "unknown"},
	}
	ProtocolOptions = []Option{
		{Label: "HTTP", Value: "http"},
		{Label: "HTTPS", Value: "https"},
		{Label: "SOCKS4", Value: "socks4"},
		{Label: "SOCKS5", Value: "socks5"},
	}
)

// NormalizeVocabulary sorts each list and drops blank values.
func NormalizeVocabulary(v Vocabulary) Vocabulary {
	return Vocabulary{
		Countries:       SortOptionValues(v.Countries),
		Types:           SortOptionValues(v.Types),
		AnonymityLevels: SortOptionValues(v.AnonymityLevels),
	}
}

// SortOptionValues returns the non-blank values sorted, with NotAvailable last.
func SortOptionValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == NotAvailable:
			return 1
		case b == NotAvailable:
			return -1
		default:
			return strings.Compare(strings.ToLower(a), strings.ToLower(b))
		}
	})
	return out
}

// Options wraps plain values as options whose label equals the value.
func Options(values []string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Label: v, Value: v}
	}
	return out
}
