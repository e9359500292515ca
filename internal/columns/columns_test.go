package columns

import (
	"errors"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		reg       *Registry
		candidate any
		want      []string
	}{
		{
			name:      "drops unknown and duplicate ids",
			reg:       Proxy,
			candidate: []string{"alive", "bogus_id", "ip_port", "alive"},
			want:      []string{"alive", "ip_port"},
		},
		{
			name:      "maps legacy ids",
			reg:       Proxy,
			candidate: []any{"alive_ratio_http", "ip", "health_http"},
			want:      []string{"health_http", "ip"},
		},
		{
			name:      "skips non-string entries",
			reg:       Proxy,
			candidate: []any{1.0, "country", nil, true},
			want:      []string{"country"},
		},
		{
			name:      "non-slice falls back to defaults",
			reg:       Proxy,
			candidate: "alive",
			want:      Proxy.Defaults(),
		},
		{
			name:      "nil falls back to defaults",
			reg:       Sources,
			candidate: nil,
			want:      Sources.Defaults(),
		},
		{
			name:      "only unknown ids falls back to defaults",
			reg:       Proxy,
			candidate: []string{"nope", "also_nope"},
			want:      Proxy.Defaults(),
		},
		{
			name:      "empty slice falls back to defaults",
			reg:       Sources,
			candidate: []string{},
			want:      Sources.Defaults(),
		},
		{
			name:      "json array bytes",
			reg:       Sources,
			candidate: []byte(`["details","url",3]`),
			want:      []string{"actions", "url"},
		},
		{
			name:      "malformed json falls back to defaults",
			reg:       Sources,
			candidate: []byte(`{"url":true}`),
			want:      Sources.Defaults(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.reg.Normalize(tt.candidate)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultsExcludeIPAndPort(t *testing.T) {
	defs := Proxy.Defaults()
	if slices.Contains(defs, "ip") || slices.Contains(defs, "port") {
		t.Fatalf("defaults = %v, should not contain ip or port", defs)
	}
	if len(defs) != len(Proxy.All())-2 {
		t.Fatalf("defaults has %d ids, want %d", len(defs), len(Proxy.All())-2)
	}
}

func TestLookupFallback(t *testing.T) {
	if got := Proxy.Lookup("missing").ID; got != "ip" {
		t.Fatalf("proxy fallback = %q, want ip", got)
	}
	if got := Sources.Lookup("missing").ID; got != "url" {
		t.Fatalf("sources fallback = %q, want url", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	pool := []string{"bogus", "details", "alive_ratio_overall", "alive_ratio_socks5"}
	for _, d := range Proxy.All() {
		pool = append(pool, d.ID)
	}
	for _, d := range Sources.All() {
		pool = append(pool, d.ID)
	}

	rapid.Check(t, func(t *rapid.T) {
		reg := rapid.SampledFrom([]*Registry{Proxy, Sources}).Draw(t, "registry")
		candidate := rapid.SliceOf(rapid.SampledFrom(pool)).Draw(t, "candidate")

		once := reg.Normalize(candidate)
		twice := reg.Normalize(once)
		if !slices.Equal(once, twice) {
			t.Fatalf("Normalize not idempotent: %v -> %v", once, twice)
		}
		if len(once) == 0 {
			t.Fatalf("Normalize(%v) returned an empty list", candidate)
		}
		for _, id := range once {
			if !reg.Known(id) {
				t.Fatalf("Normalize returned unknown id %q", id)
			}
		}
	})
}

func TestHideRejectsLastColumn(t *testing.T) {
	s := NewSet(Proxy, []string{"country"})

	err := s.Hide("country")
	if !errors.Is(err, ErrLastColumn) {
		t.Fatalf("Hide() error = %v, want ErrLastColumn", err)
	}
	if !slices.Equal(s.IDs(), []string{"country"}) {
		t.Fatalf("set changed after rejected hide: %v", s.IDs())
	}
}

func TestHideShowReset(t *testing.T) {
	s := NewSet(Proxy, []string{"alive", "country", "ip_port"})

	if err := s.Hide("country"); err != nil {
		t.Fatalf("Hide() error = %v", err)
	}
	if !slices.Equal(s.IDs(), []string{"alive", "ip_port"}) {
		t.Fatalf("after hide = %v", s.IDs())
	}
	if err := s.Hide("country"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("hiding an absent column error = %v, want ErrUnknownColumn", err)
	}

	if err := s.Show("country"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if err := s.Show("country"); err != nil {
		t.Fatalf("second Show() error = %v", err)
	}
	if err := s.Show("alive_ratio_http"); err != nil {
		t.Fatalf("Show(legacy) error = %v", err)
	}
	if !slices.Equal(s.IDs(), []string{"alive", "ip_port", "country", "health_http"}) {
		t.Fatalf("after show = %v", s.IDs())
	}
	if err := s.Show("bogus"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("Show(bogus) error = %v, want ErrUnknownColumn", err)
	}

	s.Reset()
	if !slices.Equal(s.IDs(), Proxy.Defaults()) {
		t.Fatalf("after reset = %v", s.IDs())
	}
}

func TestHiddenFollowsCatalogueOrder(t *testing.T) {
	s := NewSet(Sources, []string{"actions", "url"})

	var got []string
	for _, d := range s.Hidden() {
		got = append(got, d.ID)
	}
	want := []string{"proxy_count", "health", "robots_check"}
	if !slices.Equal(got, want) {
		t.Fatalf("Hidden() = %v, want %v", got, want)
	}
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
		wantErr  error
	}{
		{name: "forward", from: 0, to: 2, want: []string{"proxy_count", "health", "url", "robots_check", "actions"}},
		{name: "backward", from: 4, to: 1, want: []string{"url", "actions", "proxy_count", "health", "robots_check"}},
		{name: "same index", from: 2, to: 2, want: Sources.Defaults()},
		{name: "out of range", from: 0, to: 5, want: Sources.Defaults(), wantErr: ErrIndexOutOfRange},
		{name: "negative", from: -1, to: 0, want: Sources.Defaults(), wantErr: ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet(Sources, nil)
			err := s.Reorder(tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Reorder() error = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(s.IDs(), tt.want) {
				t.Fatalf("Reorder() = %v, want %v", s.IDs(), tt.want)
			}
		})
	}
}

func TestMovePreservesMembers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := Proxy.Defaults()
		from := rapid.IntRange(0, len(ids)-1).Draw(t, "from")
		to := rapid.IntRange(0, len(ids)-1).Draw(t, "to")

		moved, err := Move(ids, from, to)
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		if moved[to] != ids[from] {
			t.Fatalf("moved[%d] = %q, want %q", to, moved[to], ids[from])
		}
		a, b := slices.Clone(ids), slices.Clone(moved)
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			t.Fatalf("Move changed members: %v -> %v", ids, moved)
		}
	})
}
