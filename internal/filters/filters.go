package filters

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Status restricts the list to alive or dead proxies.
type Status string

const (
	StatusAll   Status = "all"
	StatusAlive Status = "alive"
	StatusDead  Status = "dead"
)

// ParseStatus maps anything other than alive or dead to StatusAll.
func ParseStatus(s string) Status {
	switch Status(strings.TrimSpace(s)) {
	case StatusAlive:
		return StatusAlive
	case StatusDead:
		return StatusDead
	default:
		return StatusAll
	}
}

// Protocols lists the protocol filters in their canonical order.
var Protocols = []string{"http", "https", "socks4", "socks5"}

// ReputationLabels lists the accepted reputation filter values.
var ReputationLabels = []string{"good", "neutral", "poor", "unknown"}

// Form is the editable shape of the filter panel.
type Form struct {
	Status           Status
	HTTP             bool
	HTTPS            bool
	SOCKS4           bool
	SOCKS5           bool
	MaxTimeout       float64
	MaxRetries       float64
	Countries        []string
	Types            []string
	AnonymityLevels  []string
	ReputationLabels []string
}

// Protocols returns the checked protocols in canonical order.
func (f Form) Protocols() []string {
	out := []string{}
	for i, on := range []bool{f.HTTP, f.HTTPS, f.SOCKS4, f.SOCKS5} {
		if on {
			out = append(out, Protocols[i])
		}
	}
	return out
}

// SetProtocols checks exactly the protocols named in list.
func (f *Form) SetProtocols(list []string) {
	f.HTTP = slices.Contains(list, "http")
	f.HTTPS = slices.Contains(list, "https")
	f.SOCKS4 = slices.Contains(list, "socks4")
	f.SOCKS5 = slices.Contains(list, "socks5")
}

// Applied is the canonical filter value in effect for a list.
// The JSON form is what gets persisted to device storage.
type Applied struct {
	Status           Status   `json:"status"`
	Protocols        []string `json:"protocols"`
	MaxTimeout       int      `json:"maxTimeout"`
	MaxRetries       int      `json:"maxRetries"`
	Countries        []string `json:"countries"`
	Types            []string `json:"types"`
	AnonymityLevels  []string `json:"anonymityLevels"`
	ReputationLabels []string `json:"reputationLabels"`
}

// Default returns the filter value with nothing active.
func Default() Applied {
	return Applied{
		Status:           StatusAll,
		Protocols:        []string{},
		Countries:        []string{},
		Types:            []string{},
		AnonymityLevels:  []string{},
		ReputationLabels: []string{},
	}
}

// Equal compares two applied values field by field. Nil and empty lists are equal.
func (a Applied) Equal(b Applied) bool {
	return a.Status == b.Status &&
		a.MaxTimeout == b.MaxTimeout &&
		a.MaxRetries == b.MaxRetries &&
		slices.Equal(a.Protocols, b.Protocols) &&
		slices.Equal(a.Countries, b.Countries) &&
		slices.Equal(a.Types, b.Types) &&
		slices.Equal(a.AnonymityLevels, b.AnonymityLevels) &&
		slices.Equal(a.ReputationLabels, b.ReputationLabels)
}

// FromForm builds the canonical value from the edit form.
func FromForm(f Form) Applied {
	return Applied{
		Status:           ParseStatus(string(f.Status)),
		Protocols:        f.Protocols(),
		MaxTimeout:       NormalizeNumber(f.MaxTimeout),
		MaxRetries:       NormalizeNumber(f.MaxRetries),
		Countries:        NormalizeSelection(f.Countries),
		Types:            NormalizeSelection(f.Types),
		AnonymityLevels:  NormalizeSelection(f.AnonymityLevels),
		ReputationLabels: NormalizeSelection(f.ReputationLabels),
	}
}

// ToForm restores the edit form from an applied value.
func ToForm(a Applied) Form {
	f := Form{
		Status:           ParseStatus(string(a.Status)),
		MaxTimeout:       float64(a.MaxTimeout),
		MaxRetries:       float64(a.MaxRetries),
		Countries:        slices.Clone(a.Countries),
		Types:            slices.Clone(a.Types),
		AnonymityLevels:  slices.Clone(a.AnonymityLevels),
		ReputationLabels: slices.Clone(a.ReputationLabels),
	}
	f.SetProtocols(a.Protocols)
	return f
}

// Payload is the request shape sent to the server. Fields at their default are omitted.
type Payload struct {
	Status           string   `json:"status,omitempty"`
	Protocols        []string `json:"protocols,omitempty"`
	Countries        []string `json:"countries,omitempty"`
	Types            []string `json:"types,omitempty"`
	AnonymityLevels  []string `json:"anonymityLevels,omitempty"`
	MaxTimeout       int      `json:"maxTimeout,omitempty"`
	MaxRetries       int      `json:"maxRetries,omitempty"`
	ReputationLabels []string `json:"reputationLabels,omitempty"`
}

// categories reports, per filter category, whether it holds a non-default value.
// ToPayload and ActiveCount both derive from it.
func categories(a Applied) [8]bool {
	return [8]bool{
		ParseStatus(string(a.Status)) != StatusAll,
		len(a.Protocols) > 0,
		len(a.Countries) > 0,
		len(a.Types) > 0,
		len(a.AnonymityLevels) > 0,
		a.MaxTimeout > 0,
		a.MaxRetries > 0,
		len(a.ReputationLabels) > 0,
	}
}

// ToPayload returns nil when no category is active.
func ToPayload(a Applied) *Payload {
	active := categories(a)
	var p Payload
	set := false
	if active[0] {
		p.Status, set = string(ParseStatus(string(a.Status))), true
	}
	if active[1] {
		p.Protocols, set = slices.Clone(a.Protocols), true
	}
	if active[2] {
		p.Countries, set = slices.Clone(a.Countries), true
	}
	if active[3] {
		p.Types, set = slices.Clone(a.Types), true
	}
	if active[4] {
		p.AnonymityLevels, set = slices.Clone(a.AnonymityLevels), true
	}
	if active[5] {
		p.MaxTimeout, set = a.MaxTimeout, true
	}
	if active[6] {
		p.MaxRetries, set = a.MaxRetries, true
	}
	if active[7] {
		p.ReputationLabels, set = slices.Clone(a.ReputationLabels), true
	}
	if !set {
		return nil
	}
	return &p
}

// ActiveCount counts non-default categories. A category with several values counts once.
func ActiveCount(a Applied) int {
	n := 0
	for _, on := range categories(a) {
		if on {
			n++
		}
	}
	return n
}

// ButtonLabel is the filter toggle caption, with the active count when non-zero.
func ButtonLabel(a Applied) string {
	if n := ActiveCount(a); n > 0 {
		return fmt.Sprintf("Filters (%d)", n)
	}
	return "Filters"
}

// NormalizeSelection trims values, drops blanks and duplicates, and keeps first-seen order.
func NormalizeSelection(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// maxBound caps numeric bounds so they always fit an int32 on the wire.
const maxBound = math.MaxInt32

// NormalizeNumber floors v and clamps it to [0, maxBound]. NaN and infinities become 0.
func NormalizeNumber(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	v = math.Floor(v)
	if v > maxBound {
		return maxBound
	}
	return int(v)
}
