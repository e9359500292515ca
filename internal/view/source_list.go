package view

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"magpie/internal/api"
	"magpie/internal/columns"
	"magpie/internal/model"
	"magpie/internal/pagination"
	"magpie/internal/persist"
	"magpie/internal/sorting"
	"magpie/internal/state"
)

// SourceListOwner names the scrape-source list screen.
const SourceListOwner = "scrape_source_list"

// SourcePageSize is the page size the server uses for scrape sources.
const SourcePageSize = 20

// SourceBackend loads scrape sources.
type SourceBackend interface {
	FetchSourcePage(ctx context.Context, page int) ([]model.ScrapeSourceRow, error)
	FetchSourceCount(ctx context.Context) (int, error)
}

// SourceList is the view state of the scrape-source table.
type SourceList struct {
	*columnEditor

	backend SourceBackend
	sync    *persist.Sync
	log     zerolog.Logger
	loading *state.Cell[bool]

	page      pagination.State
	raw       []model.ScrapeSourceRow
	rows      []model.ScrapeSourceRow
	total     int
	hasLoaded bool

	pendingScroll     int
	hasPendingScroll  bool
	restoredScroll    int
	hasRestoredScroll bool

	cancel    context.CancelFunc
	requestID int
}

// NewSourceList returns an unmounted source list.
func NewSourceList(backend SourceBackend, settings *SettingsCache, local, session persist.Store, log zerolog.Logger) *SourceList {
	log = log.With().Str("screen", SourceListOwner).Logger()
	return &SourceList{
		columnEditor: newColumnEditor(SourceListOwner, model.PrefScrapeSourceListColumns, columns.Sources, settings, log),
		backend:      backend,
		sync:         persist.NewSync(SourceListOwner, local, session, log),
		log:          log,
		loading:      state.NewCell(false),
		page:         pagination.State{Page: 1, PageSize: SourcePageSize},
	}
}

// Loading is the observable loading flag.
func (s *SourceList) Loading() *state.Cell[bool] { return s.loading }

// Rows returns the current page in display order.
func (s *SourceList) Rows() []model.ScrapeSourceRow { return s.rows }

// Total returns the number of scrape sources.
func (s *SourceList) Total() int { return s.total }

// State returns page and sort.
func (s *SourceList) State() pagination.State { return s.page }

// TotalPages returns the number of pages for the current total.
func (s *SourceList) TotalPages() int {
	return pagination.TotalPages(s.total, s.page.PageSize)
}

// HasLoaded reports whether at least one fetch has finished.
func (s *SourceList) HasLoaded() bool { return s.hasLoaded }

// Mount restores the saved page when returning from a detail screen and fetches.
func (s *SourceList) Mount() tea.Cmd {
	s.page.Page = 1
	if s.sync.ConsumeRestoreRequested() {
		if snap, ok := s.sync.LoadSnapshot(nil); ok {
			if snap.Page >= 1 {
				s.page.Page = snap.Page
			}
			s.pendingScroll, s.hasPendingScroll = snap.ScrollOffset, true
		}
	}
	s.sync.ClearPageAndScroll()
	return tea.Batch(s.loadSettings(), s.fetch())
}

// Teardown cancels the in-flight request.
func (s *SourceList) Teardown() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.requestID++
	s.loading.Set(false)
}

// NavigateAway saves the position so the next mount restores it.
func (s *SourceList) NavigateAway(scroll int) {
	s.sync.MarkRestoreRequested()
	s.sync.SaveSnapshot(persist.Snapshot{Page: s.page.Page, ScrollOffset: scroll})
	s.Teardown()
}

// TakeRestoredScroll returns the scroll offset restored by the first load
// after a mount, once.
func (s *SourceList) TakeRestoredScroll() (int, bool) {
	if !s.hasRestoredScroll {
		return 0, false
	}
	s.hasRestoredScroll = false
	return s.restoredScroll, true
}

// Refresh refetches the current page.
func (s *SourceList) Refresh() tea.Cmd {
	return s.fetch()
}

// SetPage moves to page, clamped to the known page range.
func (s *SourceList) SetPage(page int) tea.Cmd {
	next := s.page
	next.Page = pagination.ClampPage(page, s.total, s.page.PageSize)
	if !pagination.ShouldRefetch(s.page, next) {
		return nil
	}
	s.page = next
	return s.fetch()
}

// OnSort cycles the sort of a column and re-sorts the loaded page.
func (s *SourceList) OnSort(columnID string) tea.Cmd {
	def := s.reg.Lookup(columnID)
	if def.ID != columnID || !def.Sortable() {
		return nil
	}
	s.page.Sort = s.page.Sort.Toggle(def.SortField)
	s.resort()
	return nil
}

func (s *SourceList) resort() {
	s.rows = sorting.Apply(s.raw, s.page.Sort, model.ScrapeSourceRow.SortValue)
}

func (s *SourceList) fetch() tea.Cmd {
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.requestID++
	s.loading.Set(true)

	id, page, backend := s.requestID, s.page.Page, s.backend
	return func() tea.Msg {
		msg := SourcesLoadedMsg{Owner: SourceListOwner, RequestID: id, Page: page}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rows, err := backend.FetchSourcePage(gctx, page)
			msg.Rows = rows
			return err
		})
		g.Go(func() error {
			n, err := backend.FetchSourceCount(gctx)
			msg.Total = n
			return err
		})
		msg.Err = g.Wait()
		return msg
	}
}

func (s *SourceList) handleSources(msg SourcesLoadedMsg) tea.Cmd {
	if msg.RequestID != s.requestID {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading.Set(false)
	s.hasLoaded = true

	if msg.Err != nil {
		if api.IsCanceled(msg.Err) {
			return nil
		}
		s.log.Warn().Err(msg.Err).Msg("source fetch failed")
		return notice("Could not get scraping sources")
	}
	s.page.Page = msg.Page
	s.raw = msg.Rows
	s.resort()
	s.total = max(0, msg.Total)
	if s.hasPendingScroll {
		s.restoredScroll, s.hasRestoredScroll = s.pendingScroll, true
		s.hasPendingScroll = false
	}
	return nil
}

// Update routes a message addressed to this list. It reports whether the
// message was consumed.
func (s *SourceList) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case SourcesLoadedMsg:
		if msg.Owner == SourceListOwner {
			return true, s.handleSources(msg)
		}
	case SettingsLoadedMsg:
		if msg.Owner == SourceListOwner {
			s.handleSettings(msg)
			return true, nil
		}
	case persist.ColumnsSavedMsg:
		if msg.Owner == SourceListOwner {
			return true, s.handleSaved(msg)
		}
	}
	return false, nil
}
