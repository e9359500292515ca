package view

import (
	"context"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"magpie/internal/api"
	"magpie/internal/columns"
	"magpie/internal/filters"
	"magpie/internal/model"
	"magpie/internal/pagination"
	"magpie/internal/persist"
	"magpie/internal/sorting"
	"magpie/internal/state"
)

// ProxyFetcher loads one page of proxies.
type ProxyFetcher func(ctx context.Context, req api.PageRequest) (model.ProxyPage, error)

// ProxyListConfig wires a ProxyList to its data sources.
type ProxyListConfig struct {
	// Owner names the screen. It namespaces storage keys and tags messages.
	Owner string
	// PrefKey is the remote settings entry holding the column layout.
	PrefKey         string
	Fetch           ProxyFetcher
	Settings        *SettingsCache
	Local           persist.Store
	Session         persist.Store
	PageSizeOptions []int
	DefaultPageSize int
	SearchDebounce  time.Duration
	Logger          zerolog.Logger
}

// ProxyList is the view state of a paged proxy table: the global proxy list
// or the proxies of one scrape source.
type ProxyList struct {
	*columnEditor

	cfg    ProxyListConfig
	sync   *persist.Sync
	search *persist.Debouncer
	log    zerolog.Logger

	filters *state.Cell[filters.Applied]
	loading *state.Cell[bool]
	form    filters.Form

	page        pagination.State
	searchInput string
	searchTerm  string

	raw       []model.ProxyRow
	rows      []model.ProxyRow
	total     int
	hasLoaded bool

	vocab        filters.Vocabulary
	vocabLoaded  bool
	vocabLoading bool
	filtersOpen  bool

	selected map[int64]struct{}

	pendingScroll     int
	hasPendingScroll  bool
	restoredScroll    int
	hasRestoredScroll bool

	cancel    context.CancelFunc
	requestID int
}

// NewProxyList returns an unmounted list.
func NewProxyList(cfg ProxyListConfig) *ProxyList {
	if len(cfg.PageSizeOptions) == 0 {
		cfg.PageSizeOptions = pagination.PageSizeOptions
	}
	if !pagination.ValidPageSize(cfg.DefaultPageSize, cfg.PageSizeOptions) {
		cfg.DefaultPageSize = pagination.DefaultPageSize
	}
	log := cfg.Logger.With().Str("screen", cfg.Owner).Logger()
	applied := filters.Default()
	return &ProxyList{
		columnEditor: newColumnEditor(cfg.Owner, cfg.PrefKey, columns.Proxy, cfg.Settings, log),
		cfg:          cfg,
		sync:         persist.NewSync(cfg.Owner, cfg.Local, cfg.Session, log),
		search:       persist.NewDebouncer(cfg.Owner, cfg.SearchDebounce),
		log:          log,
		filters:      state.NewCell(applied),
		loading:      state.NewCell(false),
		form:         filters.ToForm(applied),
		page:         pagination.State{Page: 1, PageSize: cfg.DefaultPageSize},
		selected:     make(map[int64]struct{}),
	}
}

// Owner returns the screen name.
func (l *ProxyList) Owner() string { return l.cfg.Owner }

// Filters is the observable applied filter state.
func (l *ProxyList) Filters() *state.Cell[filters.Applied] { return l.filters }

// Loading is the observable loading flag.
func (l *ProxyList) Loading() *state.Cell[bool] { return l.loading }

// Rows returns the current page in display order.
func (l *ProxyList) Rows() []model.ProxyRow { return l.rows }

// Total returns the server-side row count.
func (l *ProxyList) Total() int { return l.total }

// State returns page, page size and sort.
func (l *ProxyList) State() pagination.State { return l.page }

// TotalPages returns the number of pages for the current total.
func (l *ProxyList) TotalPages() int {
	return pagination.TotalPages(l.total, l.page.PageSize)
}

// HasLoaded reports whether at least one fetch has finished.
func (l *ProxyList) HasLoaded() bool { return l.hasLoaded }

// SearchInput returns the search text as typed.
func (l *ProxyList) SearchInput() string { return l.searchInput }

// SearchTerm returns the search text last sent to the server.
func (l *ProxyList) SearchTerm() string { return l.searchTerm }

// PageSizeOptions returns the selectable page sizes.
func (l *ProxyList) PageSizeOptions() []int { return l.cfg.PageSizeOptions }

// FilterButtonLabel returns "Filters" with the active category count.
func (l *ProxyList) FilterButtonLabel() string {
	return filters.ButtonLabel(l.filters.Get())
}

// Mount restores the persisted position and filters and issues the first fetch.
func (l *ProxyList) Mount() tea.Cmd {
	opts := l.cfg.PageSizeOptions
	if size, ok := l.sync.LoadPageSize(opts); ok {
		l.page.PageSize = size
	}
	l.page.Page = 1
	if l.sync.ConsumeRestoreRequested() {
		if snap, ok := l.sync.LoadSnapshot(opts); ok {
			if snap.Page >= 1 {
				l.page.Page = snap.Page
			}
			l.pendingScroll, l.hasPendingScroll = snap.ScrollOffset, true
		}
	}
	l.sync.ClearPageAndScroll()

	if a, ok := l.sync.LoadFilters(); ok {
		l.filters.Set(a)
		l.form = filters.ToForm(a)
	}
	return tea.Batch(l.loadSettings(), l.fetch())
}

// Teardown cancels the in-flight request and any pending search.
func (l *ProxyList) Teardown() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	// Late responses must not land on a torn down list.
	l.requestID++
	l.search.Stop()
	l.loading.Set(false)
}

// NavigateAway saves the position so the next mount restores it, then tears down.
func (l *ProxyList) NavigateAway(scroll int) {
	l.sync.MarkRestoreRequested()
	l.sync.SaveSnapshot(persist.Snapshot{
		PageSize:     l.page.PageSize,
		Page:         l.page.Page,
		ScrollOffset: scroll,
	})
	l.Teardown()
}

// TakeRestoredScroll returns the scroll offset restored by the first load
// after a mount, once.
func (l *ProxyList) TakeRestoredScroll() (int, bool) {
	if !l.hasRestoredScroll {
		return 0, false
	}
	l.hasRestoredScroll = false
	return l.restoredScroll, true
}

// Refresh refetches the current page.
func (l *ProxyList) Refresh() tea.Cmd {
	return l.fetch()
}

// OnLazyLoad applies a paging control event.
func (l *ProxyList) OnLazyLoad(ev pagination.LazyEvent) tea.Cmd {
	return l.moveTo(pagination.FromLazyEvent(ev, l.page))
}

// SetPage moves to page, clamped to the known page range.
func (l *ProxyList) SetPage(page int) tea.Cmd {
	next := l.page
	next.Page = pagination.ClampPage(page, l.total, l.page.PageSize)
	return l.moveTo(next)
}

// SetPageSize switches the page size, keeping the first visible row on screen.
func (l *ProxyList) SetPageSize(size int) tea.Cmd {
	if !pagination.ValidPageSize(size, l.cfg.PageSizeOptions) {
		return nil
	}
	first, _ := pagination.ToRequest(l.page.Page, l.page.PageSize)
	return l.OnLazyLoad(pagination.LazyEvent{
		First:     first,
		Rows:      &size,
		SortField: l.page.Sort.Field,
		SortOrder: int(l.page.Sort.Direction),
	})
}

func (l *ProxyList) moveTo(next pagination.State) tea.Cmd {
	prev := l.page
	l.page = next
	if next.PageSize != prev.PageSize {
		l.sync.SavePageSize(next.PageSize)
	}
	if next.Sort != prev.Sort {
		l.resort()
	}
	if pagination.ShouldRefetch(prev, next) {
		return l.fetch()
	}
	return nil
}

// OnSort cycles the sort of a column and re-sorts the loaded page.
func (l *ProxyList) OnSort(columnID string) tea.Cmd {
	def := l.reg.Lookup(columnID)
	if def.ID != columnID || !def.Sortable() {
		return nil
	}
	next := l.page
	next.Sort = l.page.Sort.Toggle(def.SortField)
	return l.moveTo(next)
}

func (l *ProxyList) resort() {
	l.rows = sorting.Apply(l.raw, l.page.Sort, model.ProxyRow.SortValue)
}

// SearchChanged records typed search text and restarts the debounce.
func (l *ProxyList) SearchChanged(value string) tea.Cmd {
	l.searchInput = value
	return l.search.Trigger(value)
}

// HandleSearchTick commits the search text once typing has settled.
func (l *ProxyList) HandleSearchTick(msg persist.DebounceMsg) tea.Cmd {
	value, ok := l.search.Accept(msg)
	if !ok {
		return nil
	}
	l.searchTerm = strings.TrimSpace(value)
	l.page.Page = 1
	return l.fetch()
}

// FilterForm returns the filter panel's working copy.
func (l *ProxyList) FilterForm() filters.Form { return l.form }

// SetFilterForm replaces the filter panel's working copy.
func (l *ProxyList) SetFilterForm(f filters.Form) { l.form = f }

// FilterPanelOpen reports whether the filter panel is showing.
func (l *ProxyList) FilterPanelOpen() bool { return l.filtersOpen }

// Vocabulary returns the loaded filter values and whether they are available.
func (l *ProxyList) Vocabulary() (filters.Vocabulary, bool) {
	return l.vocab, l.vocabLoaded
}

// OpenFilterPanel starts editing from the applied filters and loads the
// vocabulary the first time.
func (l *ProxyList) OpenFilterPanel() tea.Cmd {
	l.form = filters.ToForm(l.filters.Get())
	l.filtersOpen = true
	if l.vocabLoaded || l.vocabLoading || l.cfg.Settings == nil {
		return nil
	}
	l.vocabLoading = true
	settings, owner := l.cfg.Settings, l.cfg.Owner
	return func() tea.Msg {
		v, err := settings.Vocabulary(context.Background())
		return VocabularyLoadedMsg{Owner: owner, Vocabulary: v, Err: err}
	}
}

// CloseFilterPanel discards the working copy.
func (l *ProxyList) CloseFilterPanel() {
	l.filtersOpen = false
}

// ApplyFilters commits form, persists it and reloads from the first page.
func (l *ProxyList) ApplyFilters(form filters.Form) tea.Cmd {
	applied := filters.FromForm(form)
	l.form = filters.ToForm(applied)
	l.filters.Set(applied)
	l.sync.SaveFilters(applied)
	l.filtersOpen = false
	l.page.Page = 1
	return l.fetch()
}

// ClearFilters resets to the default filters and reloads from the first page.
func (l *ProxyList) ClearFilters() tea.Cmd {
	applied := filters.Default()
	l.form = filters.ToForm(applied)
	l.filters.Set(applied)
	l.sync.ClearFilters()
	l.page.Page = 1
	return l.fetch()
}

// IsSelected reports whether the row with id is selected.
func (l *ProxyList) IsSelected(id int64) bool {
	_, ok := l.selected[id]
	return ok
}

// ToggleSelected flips the selection of id.
func (l *ProxyList) ToggleSelected(id int64) {
	if l.IsSelected(id) {
		delete(l.selected, id)
		return
	}
	l.selected[id] = struct{}{}
}

// Selected returns the selected ids in ascending order.
func (l *ProxyList) Selected() []int64 {
	ids := make([]int64, 0, len(l.selected))
	for id := range l.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ClearSelection deselects every row.
func (l *ProxyList) ClearSelection() {
	clear(l.selected)
}

func (l *ProxyList) pruneSelection() {
	present := make(map[int64]struct{}, len(l.raw))
	for _, p := range l.raw {
		present[p.ID] = struct{}{}
	}
	for id := range l.selected {
		if _, ok := present[id]; !ok {
			delete(l.selected, id)
		}
	}
}

func (l *ProxyList) fetch() tea.Cmd {
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.requestID++
	l.loading.Set(true)

	req := api.PageRequest{
		Page:     l.page.Page,
		PageSize: l.page.PageSize,
		Search:   strings.TrimSpace(l.searchTerm),
		Filters:  filters.ToPayload(l.filters.Get()),
	}
	id, owner, fetch := l.requestID, l.cfg.Owner, l.cfg.Fetch
	return func() tea.Msg {
		page, err := fetch(ctx, req)
		return PageLoadedMsg{Owner: owner, RequestID: id, Request: req, Page: page, Err: err}
	}
}

func (l *ProxyList) handlePage(msg PageLoadedMsg) tea.Cmd {
	if msg.RequestID != l.requestID {
		l.log.Debug().Int("request", msg.RequestID).Msg("dropping stale page")
		return nil
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.loading.Set(false)
	l.hasLoaded = true

	if msg.Err != nil {
		if api.IsCanceled(msg.Err) {
			return nil
		}
		l.log.Warn().Err(msg.Err).Msg("page fetch failed")
		return notice("Could not get proxy page: " + api.Message(msg.Err))
	}

	l.page.Page = msg.Request.Page
	l.page.PageSize = msg.Request.PageSize
	l.raw = msg.Page.Proxies
	l.resort()
	l.total = max(0, msg.Page.Total)
	l.pruneSelection()
	if l.hasPendingScroll {
		l.restoredScroll, l.hasRestoredScroll = l.pendingScroll, true
		l.hasPendingScroll = false
	}
	return nil
}

func (l *ProxyList) handleVocabulary(msg VocabularyLoadedMsg) tea.Cmd {
	l.vocabLoading = false
	if msg.Err != nil {
		l.log.Warn().Err(msg.Err).Msg("filter vocabulary failed")
		return notice("Could not load filter options: " + api.Message(msg.Err))
	}
	l.vocab = msg.Vocabulary
	l.vocabLoaded = true
	return nil
}

// Update routes a message addressed to this list. It reports whether the
// message was consumed.
func (l *ProxyList) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case PageLoadedMsg:
		if msg.Owner == l.cfg.Owner {
			return true, l.handlePage(msg)
		}
	case VocabularyLoadedMsg:
		if msg.Owner == l.cfg.Owner {
			return true, l.handleVocabulary(msg)
		}
	case SettingsLoadedMsg:
		if msg.Owner == l.cfg.Owner {
			l.handleSettings(msg)
			return true, nil
		}
	case persist.ColumnsSavedMsg:
		if msg.Owner == l.cfg.Owner {
			return true, l.handleSaved(msg)
		}
	case persist.DebounceMsg:
		if msg.Owner == l.cfg.Owner {
			return true, l.HandleSearchTick(msg)
		}
	}
	return false, nil
}
