package filters

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Encode serializes an applied value for device storage.
func Encode(a Applied) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filters: %w", err)
	}
	return data, nil
}

// DecodeStored parses a persisted filter value, tolerating hand-edited or older data.
// It reports false only when data is not a JSON object.
func DecodeStored(data []byte) (Applied, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Applied{}, false
	}

	return Applied{
		Status:           ParseStatus(stringOf(raw["status"])),
		Protocols:        restrict(NormalizeSelection(stringList(raw["protocols"])), Protocols),
		MaxTimeout:       numberOf(raw["maxTimeout"]),
		MaxRetries:       numberOf(raw["maxRetries"]),
		Countries:        NormalizeSelection(stringList(raw["countries"])),
		Types:            NormalizeSelection(stringList(raw["types"])),
		AnonymityLevels:  NormalizeSelection(stringList(raw["anonymityLevels"])),
		ReputationLabels: restrict(NormalizeSelection(stringList(raw["reputationLabels"])), ReputationLabels),
	}, true
}

func restrict(values, allowed []string) []string {
	out := values[:0]
	for _, v := range values {
		if slices.Contains(allowed, v) {
			out = append(out, v)
		}
	}
	return out
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringOf(item))
	}
	return out
}

func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func numberOf(v any) int {
	switch x := v.(type) {
	case float64:
		return NormalizeNumber(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return NormalizeNumber(f)
	default:
		return 0
	}
}
