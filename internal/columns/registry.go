package columns

import (
	"errors"

	"github.com/goccy/go-json"
)

var (
	// ErrLastColumn is returned when hiding would leave no visible column.
	ErrLastColumn = errors.New("at least one column must stay visible")
	// ErrUnknownColumn is returned for ids the registry does not know.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrIndexOutOfRange is returned by Reorder for indices outside the set.
	ErrIndexOutOfRange = errors.New("column index out of range")
)

// Definition describes one column. Definitions are owned by a Registry and never mutated.
type Definition struct {
	ID        string
	Label     string
	SortField string // empty when the column is not sortable
	Tooltip   string
	Example   string
	Width     int // terminal cells, also used for the loading placeholder
}

// Sortable reports whether the column has a sort field.
func (d Definition) Sortable() bool {
	return d.SortField != ""
}

// Registry is the static catalogue of a screen's columns.
type Registry struct {
	defs     []Definition
	byID     map[string]int
	legacy   map[string]string
	defaults []string
	fallback string
}

// NewRegistry builds a registry. defaults and fallback must reference ids in defs.
func NewRegistry(defs []Definition, defaults []string, legacy map[string]string, fallback string) *Registry {
	r := &Registry{
		defs:     append([]Definition(nil), defs...),
		byID:     make(map[string]int, len(defs)),
		legacy:   make(map[string]string, len(legacy)),
		defaults: append([]string(nil), defaults...),
		fallback: fallback,
	}
	for i, d := range r.defs {
		r.byID[d.ID] = i
	}
	for from, to := range legacy {
		r.legacy[from] = to
	}
	return r
}

// All returns every definition in catalogue order.
func (r *Registry) All() []Definition {
	return append([]Definition(nil), r.defs...)
}

// Defaults returns a fresh copy of the default column ids.
func (r *Registry) Defaults() []string {
	return append([]string(nil), r.defaults...)
}

// Known reports whether id is a current (non-legacy) column id.
func (r *Registry) Known(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Lookup returns the definition for id, or the fallback definition when id is unknown.
func (r *Registry) Lookup(id string) Definition {
	if i, ok := r.byID[id]; ok {
		return r.defs[i]
	}
	return r.defs[r.byID[r.fallback]]
}

// Canonical maps a legacy id to its current id; other ids are returned unchanged.
func (r *Registry) Canonical(id string) string {
	if to, ok := r.legacy[id]; ok {
		return to
	}
	return id
}

// Normalize turns any candidate value into a valid column list.
//
// Accepted inputs are []string, []any (decoded JSON) and []byte / json.RawMessage
// holding a JSON array. Anything else yields the defaults. Entries are mapped
// through the legacy table, unknown and duplicate ids are dropped, and an empty
// result falls back to the defaults.
func (r *Registry) Normalize(candidate any) []string {
	var items []any
	switch v := candidate.(type) {
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	case []any:
		items = v
	case json.RawMessage:
		return r.Normalize([]byte(v))
	case []byte:
		if err := json.Unmarshal(v, &items); err != nil {
			return r.Defaults()
		}
	default:
		return r.Defaults()
	}

	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		id := r.Canonical(s)
		if !r.Known(id) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return r.Defaults()
	}
	return out
}
