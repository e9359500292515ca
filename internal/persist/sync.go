package persist

import (
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"magpie/internal/filters"
	"magpie/internal/pagination"
)

const restoreFlag = "1"

// Snapshot is the ephemeral position of a list.
type Snapshot struct {
	PageSize     int
	Page         int
	ScrollOffset int
}

// Sync mirrors one screen's view state into storage. Durable values (page
// size, filters, page and scroll) go to local; the restore flag goes to
// session. Either store may be nil, which turns its operations into no-ops.
type Sync struct {
	local   Store
	session Store
	keys    Keys
	log     zerolog.Logger
}

// NewSync returns a Sync for the given screen namespace.
func NewSync(screen string, local, session Store, log zerolog.Logger) *Sync {
	return &Sync{
		local:   local,
		session: session,
		keys:    Namespace(screen),
		log:     log.With().Str("screen", screen).Logger(),
	}
}

// Keys returns the storage keys in use.
func (s *Sync) Keys() Keys {
	return s.keys
}

func (s *Sync) get(st Store, key string) (string, bool) {
	if st == nil {
		return "", false
	}
	v, ok, err := st.Get(key)
	if err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("storage read failed")
		return "", false
	}
	return v, ok
}

func (s *Sync) set(st Store, key, value string) {
	if st == nil {
		return
	}
	if err := st.Set(key, value); err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("storage write failed")
	}
}

func (s *Sync) del(st Store, key string) {
	if st == nil {
		return
	}
	if err := st.Delete(key); err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("storage delete failed")
	}
}

// parseNumber reads a stored number, rejecting non-finite values and values below lowest.
func parseNumber(raw string, lowest float64) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < lowest || f > math.MaxInt32 {
		return 0, false
	}
	return int(math.Floor(f)), true
}

// SavePageSize stores a positive page size.
func (s *Sync) SavePageSize(size int) {
	if size <= 0 {
		return
	}
	s.set(s.local, s.keys.PageSize, strconv.Itoa(size))
}

// LoadPageSize returns the stored page size when it is one of options.
func (s *Sync) LoadPageSize(options []int) (int, bool) {
	raw, ok := s.get(s.local, s.keys.PageSize)
	if !ok {
		return 0, false
	}
	n, ok := parseNumber(raw, 1)
	if !ok || !pagination.ValidPageSize(n, options) {
		return 0, false
	}
	return n, true
}

// SaveSnapshot stores page size, page and scroll offset. Invalid parts are skipped.
func (s *Sync) SaveSnapshot(snap Snapshot) {
	s.SavePageSize(snap.PageSize)
	if snap.Page >= 1 {
		s.set(s.local, s.keys.Page, strconv.Itoa(snap.Page))
	}
	if snap.ScrollOffset >= 0 {
		s.set(s.local, s.keys.Scroll, strconv.Itoa(snap.ScrollOffset))
	}
}

// LoadSnapshot reads the stored page and scroll offset, and the page size when
// it is one of options. Missing or invalid parts are zero. ok is false when
// neither page nor scroll offset is stored.
func (s *Sync) LoadSnapshot(options []int) (snap Snapshot, ok bool) {
	snap.PageSize, _ = s.LoadPageSize(options)
	if raw, found := s.get(s.local, s.keys.Page); found {
		if n, valid := parseNumber(raw, 1); valid {
			snap.Page, ok = n, true
		}
	}
	if raw, found := s.get(s.local, s.keys.Scroll); found {
		if n, valid := parseNumber(raw, 0); valid {
			snap.ScrollOffset, ok = n, true
		}
	}
	return snap, ok
}

// ClearPageAndScroll drops the ephemeral position keys.
func (s *Sync) ClearPageAndScroll() {
	s.del(s.local, s.keys.Page)
	s.del(s.local, s.keys.Scroll)
}

// MarkRestoreRequested asks the next mount to restore the saved position.
func (s *Sync) MarkRestoreRequested() {
	s.set(s.session, s.keys.RestoreState, restoreFlag)
}

// ConsumeRestoreRequested reports whether a restore was requested and clears the flag.
func (s *Sync) ConsumeRestoreRequested() bool {
	raw, ok := s.get(s.session, s.keys.RestoreState)
	if !ok || raw != restoreFlag {
		return false
	}
	s.del(s.session, s.keys.RestoreState)
	return true
}

// SaveFilters stores the applied filters as JSON.
func (s *Sync) SaveFilters(a filters.Applied) {
	data, err := filters.Encode(a)
	if err != nil {
		s.log.Debug().Err(err).Msg("filters not persisted")
		return
	}
	s.set(s.local, s.keys.Filters, string(data))
}

// LoadFilters returns the stored filters, normalized. Malformed data reads as absent.
func (s *Sync) LoadFilters() (filters.Applied, bool) {
	raw, ok := s.get(s.local, s.keys.Filters)
	if !ok || raw == "" {
		return filters.Applied{}, false
	}
	a, ok := filters.DecodeStored([]byte(raw))
	if !ok {
		s.log.Debug().Str("key", s.keys.Filters).Msg("ignoring malformed stored filters")
	}
	return a, ok
}

// ClearFilters drops the stored filters.
func (s *Sync) ClearFilters() {
	s.del(s.local, s.keys.Filters)
}
