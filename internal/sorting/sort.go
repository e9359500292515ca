package sorting

import (
	"math"
	"reflect"
	"slices"
	"strings"
	"time"
)

// Direction of a sort. The zero value means unsorted.
type Direction int

const (
	None Direction = 0
	Asc  Direction = 1
	Desc Direction = -1
)

// Spec names the sorted field and its direction. The zero value is unsorted.
type Spec struct {
	Field     string
	Direction Direction
}

// Active reports whether the spec sorts anything.
func (s Spec) Active() bool {
	return s.Field != "" && s.Direction != None
}

// Toggle cycles asc, desc, unsorted for the same field and starts at asc for a new one.
func (s Spec) Toggle(field string) Spec {
	if field == "" {
		return Spec{}
	}
	if s.Field != field || !s.Active() {
		return Spec{Field: field, Direction: Asc}
	}
	if s.Direction == Asc {
		return Spec{Field: field, Direction: Desc}
	}
	return Spec{}
}

// Kind classifies a sortable value.
type Kind int

const (
	Null Kind = iota
	Number
	Text
)

// Value is a normalized sortable value.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func num(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Kind: Number, Num: f}
}

// Normalize coerces an arbitrary field value into something comparable.
//
// Numbers pass through, booleans become 0/1, times become epoch milliseconds,
// strings become epoch milliseconds when they parse as a date and lower-cased
// text otherwise. Pointers are followed; nil and everything else is Null.
func Normalize(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case time.Time:
		if x.IsZero() {
			return Value{}
		}
		return num(float64(x.UnixMilli()))
	case *time.Time:
		if x == nil {
			return Value{}
		}
		return Normalize(*x)
	case string:
		return normalizeString(x)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Value{}
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return num(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return num(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return num(rv.Float())
	case reflect.Bool:
		if rv.Bool() {
			return num(1)
		}
		return num(0)
	case reflect.String:
		return normalizeString(rv.String())
	case reflect.Struct:
		if t, ok := rv.Interface().(time.Time); ok {
			return Normalize(t)
		}
	}
	return Value{}
}

func normalizeString(s string) Value {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return num(float64(t.UnixMilli()))
		}
	}
	return Value{Kind: Text, Str: strings.ToLower(s)}
}

// Compare orders a and b for dir. Null sorts last in both directions and
// numbers sort before text when kinds differ.
func Compare(a, b Value, dir Direction) int {
	if a.Kind == Null || b.Kind == Null {
		switch {
		case a.Kind == b.Kind:
			return 0
		case a.Kind == Null:
			return 1
		default:
			return -1
		}
	}
	if dir == None {
		return 0
	}

	var c int
	switch {
	case a.Kind != b.Kind:
		if a.Kind == Number {
			c = -1
		} else {
			c = 1
		}
	case a.Kind == Number:
		switch {
		case a.Num < b.Num:
			c = -1
		case a.Num > b.Num:
			c = 1
		}
	default:
		c = strings.Compare(a.Str, b.Str)
	}
	return c * int(dir)
}

// Accessor extracts the raw value of field from a row.
type Accessor[T any] func(row T, field string) any

// Apply returns a stably sorted copy of rows. An inactive spec returns rows in input order.
func Apply[T any](rows []T, spec Spec, get Accessor[T]) []T {
	out := slices.Clone(rows)
	if !spec.Active() || len(out) < 2 {
		return out
	}

	type keyed struct {
		row T
		key Value
	}
	decorated := make([]keyed, len(out))
	for i, r := range out {
		decorated[i] = keyed{row: r, key: Normalize(get(r, spec.Field))}
	}
	slices.SortStableFunc(decorated, func(a, b keyed) int {
		return Compare(a.key, b.key, spec.Direction)
	})
	for i, d := range decorated {
		out[i] = d.row
	}
	return out
}
