package pagination

import (
	"testing"

	"magpie/internal/sorting"
	"pgregory.net/rapid"
)

func rows(n int) *int { return &n }

func TestShouldRefetchMatrix(t *testing.T) {
	base := State{Page: 1, PageSize: 20}
	sorted := sorting.Spec{Field: "response_time", Direction: sorting.Asc}

	tests := []struct {
		name string
		next State
		want bool
	}{
		{"nothing changed", base, false},
		{"sort only", State{Page: 1, PageSize: 20, Sort: sorted}, false},
		{"page changed", State{Page: 2, PageSize: 20}, true},
		{"page size changed", State{Page: 1, PageSize: 40}, true},
		{"page and sort changed", State{Page: 3, PageSize: 20, Sort: sorted}, true},
		{"page size and sort changed", State{Page: 1, PageSize: 60, Sort: sorted}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRefetch(base, tt.next); got != tt.want {
				t.Fatalf("ShouldRefetch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRefetchProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		genState := func(label string) State {
			return State{
				Page:     rapid.IntRange(1, 5).Draw(t, label+"Page"),
				PageSize: rapid.SampledFrom(PageSizeOptions).Draw(t, label+"Size"),
				Sort: sorting.Spec{
					Field:     rapid.SampledFrom([]string{"", "ip", "port"}).Draw(t, label+"Field"),
					Direction: rapid.SampledFrom([]sorting.Direction{sorting.None, sorting.Asc, sorting.Desc}).Draw(t, label+"Dir"),
				},
			}
		}
		prev, next := genState("prev"), genState("next")

		want := prev.Page != next.Page || prev.PageSize != next.PageSize
		if got := ShouldRefetch(prev, next); got != want {
			t.Fatalf("ShouldRefetch(%+v, %+v) = %v, want %v", prev, next, got, want)
		}
	})
}

func TestFromLazyEvent(t *testing.T) {
	current := State{Page: 2, PageSize: 20, Sort: sorting.Spec{Field: "ip", Direction: sorting.Asc}}

	tests := []struct {
		name string
		ev   LazyEvent
		want State
	}{
		{
			name: "page from offset",
			ev:   LazyEvent{First: 40, Rows: rows(20), SortField: "ip", SortOrder: 1},
			want: State{Page: 3, PageSize: 20, Sort: sorting.Spec{Field: "ip", Direction: sorting.Asc}},
		},
		{
			name: "missing rows keeps page size",
			ev:   LazyEvent{First: 60, SortOrder: -1},
			want: State{Page: 4, PageSize: 20, Sort: sorting.Spec{Field: "ip", Direction: sorting.Desc}},
		},
		{
			name: "zero rows keeps page size",
			ev:   LazyEvent{First: 19, Rows: rows(0)},
			want: State{Page: 1, PageSize: 20},
		},
		{
			name: "negative offset clamps to first page",
			ev:   LazyEvent{First: -20, Rows: rows(40), SortField: "port", SortOrder: 1},
			want: State{Page: 1, PageSize: 40, Sort: sorting.Spec{Field: "port", Direction: sorting.Asc}},
		},
		{
			name: "new page size recomputes page",
			ev:   LazyEvent{First: 100, Rows: rows(100)},
			want: State{Page: 2, PageSize: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromLazyEvent(tt.ev, current); got != tt.want {
				t.Fatalf("FromLazyEvent() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestToRequestInvertsFromLazyEvent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		page := rapid.IntRange(1, 1000).Draw(t, "page")
		size := rapid.SampledFrom(PageSizeOptions).Draw(t, "size")

		offset, limit := ToRequest(page, size)
		got := FromLazyEvent(LazyEvent{First: offset, Rows: &limit}, State{Page: 1, PageSize: 20})
		if got.Page != page || got.PageSize != size {
			t.Fatalf("round trip (%d,%d) -> (%d,%d) -> %+v", page, size, offset, limit, got)
		}
	})
}

func TestTotalPagesAndClamp(t *testing.T) {
	tests := []struct {
		total, size, wantPages int
	}{
		{0, 20, 1},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 40, 3},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.size); got != tt.wantPages {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.wantPages)
		}
	}

	if got := ClampPage(9, 100, 40); got != 3 {
		t.Errorf("ClampPage(9) = %d, want 3", got)
	}
	if got := ClampPage(0, 100, 40); got != 1 {
		t.Errorf("ClampPage(0) = %d, want 1", got)
	}
	if !ValidPageSize(60, PageSizeOptions) || ValidPageSize(50, PageSizeOptions) {
		t.Error("ValidPageSize mismatch")
	}
}
