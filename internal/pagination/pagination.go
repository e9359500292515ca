package pagination

import (
	"slices"

	"magpie/internal/sorting"
)

// PageSizeOptions are the page sizes offered by the list screens.
var PageSizeOptions = []int{20, 40, 60, 100}

const (
	// DefaultPageSize applies to the top-level proxy list.
	DefaultPageSize = 40
	// DefaultSublistPageSize applies to the proxies of one scrape source.
	DefaultSublistPageSize = 20
)

// State is the pagination position of one list.
type State struct {
	Page     int
	PageSize int
	Sort     sorting.Spec
}

// ToRequest converts a 1-based page into an offset/limit pair.
func ToRequest(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return (page - 1) * pageSize, pageSize
}

// LazyEvent is what a paging control reports when the user moves or sorts.
type LazyEvent struct {
	First     int
	Rows      *int // nil when the control did not report a page size
	SortField string
	SortOrder int // 1 ascending, -1 descending, 0 unsorted
}

// FromLazyEvent derives the next state from a control event.
// The page size falls back to the current one when the event omits it, and an
// empty sort field keeps the current field.
func FromLazyEvent(ev LazyEvent, current State) State {
	size := current.PageSize
	if ev.Rows != nil && *ev.Rows > 0 {
		size = *ev.Rows
	}
	page := 1
	if size > 0 && ev.First > 0 {
		page = ev.First/size + 1
	}

	next := State{Page: page, PageSize: size}
	field := ev.SortField
	if field == "" {
		field = current.Sort.Field
	}
	switch {
	case ev.SortOrder > 0 && field != "":
		next.Sort = sorting.Spec{Field: field, Direction: sorting.Asc}
	case ev.SortOrder < 0 && field != "":
		next.Sort = sorting.Spec{Field: field, Direction: sorting.Desc}
	}
	return next
}

// ShouldRefetch reports whether moving from prev to next needs a new page from the server.
// Sorting is page-local, so a sort-only change never refetches.
func ShouldRefetch(prev, next State) bool {
	return prev.Page != next.Page || prev.PageSize != next.PageSize
}

// TotalPages returns the page count for total rows, at least 1.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage keeps page inside [1, TotalPages(total, pageSize)].
func ClampPage(page, total, pageSize int) int {
	last := TotalPages(total, pageSize)
	switch {
	case page < 1:
		return 1
	case page > last:
		return last
	default:
		return page
	}
}

// ValidPageSize reports whether n is one of options.
func ValidPageSize(n int, options []int) bool {
	return slices.Contains(options, n)
}
