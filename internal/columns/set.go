package columns

import (
	"fmt"
	"slices"
)

// Set is an editable, always-valid column list bound to a registry.
type Set struct {
	reg *Registry
	ids []string
}

// NewSet returns a set holding the normalized form of candidate.
func NewSet(reg *Registry, candidate any) *Set {
	return &Set{reg: reg, ids: reg.Normalize(candidate)}
}

// Registry returns the catalogue the set validates against.
func (s *Set) Registry() *Registry {
	return s.reg
}

// IDs returns a copy of the current column ids.
func (s *Set) IDs() []string {
	return slices.Clone(s.ids)
}

// Len returns the number of visible columns.
func (s *Set) Len() int {
	return len(s.ids)
}

// Contains reports whether id is visible.
func (s *Set) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// Visible returns the definitions of the visible columns in display order.
func (s *Set) Visible() []Definition {
	defs := make([]Definition, len(s.ids))
	for i, id := range s.ids {
		defs[i] = s.reg.Lookup(id)
	}
	return defs
}

// Hidden returns the registry columns not in the set, in catalogue order.
func (s *Set) Hidden() []Definition {
	var defs []Definition
	for _, d := range s.reg.defs {
		if !s.Contains(d.ID) {
			defs = append(defs, d)
		}
	}
	return defs
}

// Replace swaps the contents for the normalized form of candidate.
func (s *Set) Replace(candidate any) {
	s.ids = s.reg.Normalize(candidate)
}

// Reorder moves the column at from to index to.
func (s *Set) Reorder(from, to int) error {
	moved, err := Move(s.ids, from, to)
	if err != nil {
		return err
	}
	s.ids = moved
	return nil
}

// Hide removes id. It fails with ErrLastColumn when id is the only visible column.
func (s *Set) Hide(id string) error {
	if len(s.ids) <= 1 {
		return ErrLastColumn
	}
	i := slices.Index(s.ids, id)
	if i < 0 {
		return fmt.Errorf("hide %q: %w", id, ErrUnknownColumn)
	}
	s.ids = slices.Delete(slices.Clone(s.ids), i, i+1)
	return nil
}

// Show appends id when it is known and not yet visible.
func (s *Set) Show(id string) error {
	id = s.reg.Canonical(id)
	if !s.reg.Known(id) {
		return fmt.Errorf("show %q: %w", id, ErrUnknownColumn)
	}
	if s.Contains(id) {
		return nil
	}
	s.ids = append(slices.Clone(s.ids), id)
	return nil
}

// Reset restores the registry defaults.
func (s *Set) Reset() {
	s.ids = s.reg.Defaults()
}

// Move returns a copy of ids with the element at from moved to index to.
func Move(ids []string, from, to int) ([]string, error) {
	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
		return nil, fmt.Errorf("move %d -> %d of %d: %w", from, to, len(ids), ErrIndexOutOfRange)
	}
	out := slices.Clone(ids)
	if from == to {
		return out, nil
	}
	id := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, id)
	return out, nil
}
