package view

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"magpie/internal/api"
	"magpie/internal/filters"
	"magpie/internal/logging"
	"magpie/internal/model"
	"magpie/internal/pagination"
	"magpie/internal/persist"
)

type updater interface {
	Update(tea.Msg) (bool, tea.Cmd)
}

// run executes cmd and flattens batches.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// feed runs cmd and routes every resulting message through u until nothing
// is left. Messages u does not consume are returned.
func feed(u updater, cmd tea.Cmd) []tea.Msg {
	var unhandled []tea.Msg
	queue := run(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		handled, next := u.Update(msg)
		if !handled {
			unhandled = append(unhandled, msg)
			continue
		}
		queue = append(queue, run(next)...)
	}
	return unhandled
}

func notices(msgs []tea.Msg) []string {
	var out []string
	for _, m := range msgs {
		if n, ok := m.(model.NoticeMsg); ok {
			out = append(out, n.Text)
		}
	}
	return out
}

type fakeProxies struct {
	mu    sync.Mutex
	calls []api.PageRequest
	total int
	err   error
}

func (f *fakeProxies) fetch(ctx context.Context, req api.PageRequest) (model.ProxyPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err := ctx.Err(); err != nil {
		return model.ProxyPage{}, err
	}
	if f.err != nil {
		return model.ProxyPage{}, f.err
	}
	rt := []int{300, 100, 200}
	rows := make([]model.ProxyRow, 0, 3)
	for i := range 3 {
		rows = append(rows, model.ProxyRow{
			ID:           int64(req.Page*100 + i),
			IP:           fmt.Sprintf("10.0.%d.%d", req.Page, i),
			Port:         8080,
			ResponseTime: &rt[i],
		})
	}
	return model.ProxyPage{Proxies: rows, Total: f.total}, nil
}

func (f *fakeProxies) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeProxies) last() api.PageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeSettings struct {
	mu         sync.Mutex
	doc        model.UserSettings
	saveErr    error
	vocabErr   error
	vocabCalls atomic.Int32
	saves      int
	release    chan struct{}
}

func (f *fakeSettings) FetchUserSettings(ctx context.Context) (model.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil {
		return model.UserSettings{}, nil
	}
	return f.doc, nil
}

func (f *fakeSettings) SaveUserSettings(ctx context.Context, s model.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.doc = s
	return nil
}

func (f *fakeSettings) FetchFilterVocabulary(ctx context.Context) (filters.Vocabulary, error) {
	f.vocabCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.vocabErr != nil {
		return filters.Vocabulary{}, f.vocabErr
	}
	return filters.Vocabulary{Countries: []string{"US", "DE"}}, nil
}

type fixture struct {
	proxies  *fakeProxies
	backend  *fakeSettings
	settings *SettingsCache
	local    *persist.MemoryStore
	session  *persist.MemoryStore
}

func newFixture() *fixture {
	backend := &fakeSettings{}
	return &fixture{
		proxies:  &fakeProxies{total: 95},
		backend:  backend,
		settings: NewSettingsCache(backend),
		local:    persist.NewMemoryStore(),
		session:  persist.NewMemoryStore(),
	}
}

func (f *fixture) list() *ProxyList {
	return NewProxyList(ProxyListConfig{
		Owner:           ProxyListOwner,
		PrefKey:         model.PrefProxyListColumns,
		Fetch:           f.proxies.fetch,
		Settings:        f.settings,
		Local:           f.local,
		Session:         f.session,
		DefaultPageSize: pagination.DefaultPageSize,
		SearchDebounce:  time.Millisecond,
		Logger:          logging.Nop(),
	})
}

func TestMountRestoresPositionAfterNavigation(t *testing.T) {
	f := newFixture()
	keys := persist.Namespace(ProxyListOwner)
	f.local.Set(keys.PageSize, "60")
	f.local.Set(keys.Page, "3")
	f.local.Set(keys.Scroll, "12")
	f.session.Set(keys.RestoreState, "1")

	l := f.list()
	feed(l, l.Mount())

	if got := f.proxies.last(); got.Page != 3 || got.PageSize != 60 {
		t.Fatalf("first request = %+v, want page 3 size 60", got)
	}
	if scroll, ok := l.TakeRestoredScroll(); !ok || scroll != 12 {
		t.Fatalf("TakeRestoredScroll() = %d, %v", scroll, ok)
	}
	if _, ok := l.TakeRestoredScroll(); ok {
		t.Fatal("scroll restored twice")
	}
	for _, key := range []string{keys.Page, keys.Scroll} {
		if _, ok, _ := f.local.Get(key); ok {
			t.Errorf("%s not cleared after mount", key)
		}
	}
	if _, ok, _ := f.session.Get(keys.RestoreState); ok {
		t.Error("restore flag not consumed")
	}
}

func TestMountWithoutRestoreStartsAtFirstPage(t *testing.T) {
	f := newFixture()
	keys := persist.Namespace(ProxyListOwner)
	f.local.Set(keys.PageSize, "25")
	f.local.Set(keys.Page, "4")

	l := f.list()
	feed(l, l.Mount())

	if got := f.proxies.last(); got.Page != 1 || got.PageSize != pagination.DefaultPageSize {
		t.Fatalf("first request = %+v, want page 1 with default size", got)
	}
	if _, ok := l.TakeRestoredScroll(); ok {
		t.Fatal("unexpected scroll restore")
	}
	if _, ok, _ := f.local.Get(keys.Page); ok {
		t.Fatal("page key survived a fresh mount")
	}
}

func TestNavigateAwayThenRemount(t *testing.T) {
	f := newFixture()
	l := f.list()
	feed(l, l.Mount())
	feed(l, l.SetPage(2))
	l.NavigateAway(7)

	again := f.list()
	feed(again, again.Mount())
	if again.State().Page != 2 {
		t.Fatalf("page = %d, want 2", again.State().Page)
	}
	if scroll, ok := again.TakeRestoredScroll(); !ok || scroll != 7 {
		t.Fatalf("TakeRestoredScroll() = %d, %v", scroll, ok)
	}
}

func TestStaleResponseDropped(t *testing.T) {
	f := newFixture()
	l := f.list()
	first := l.Mount()
	second := l.OnLazyLoad(pagination.LazyEvent{First: 40})

	feed(l, second)
	if got := notices(feed(l, first)); len(got) != 0 {
		t.Fatalf("stale response produced notices %v", got)
	}
	if l.State().Page != 2 || l.Rows()[0].ID/100 != 2 {
		t.Fatalf("rows from page %d shown, want page 2", l.Rows()[0].ID/100)
	}
	if l.Loading().Get() {
		t.Fatal("still loading")
	}
}

func TestTeardownDropsLateResponse(t *testing.T) {
	f := newFixture()
	l := f.list()
	cmd := l.Mount()
	l.Teardown()
	feed(l, cmd)

	if l.HasLoaded() || len(l.Rows()) != 0 {
		t.Fatal("late response applied after teardown")
	}
}

func TestSortIsPageLocal(t *testing.T) {
	f := newFixture()
	l := f.list()
	feed(l, l.Mount())
	calls := f.proxies.count()

	rt := func() []int {
		var out []int
		for _, r := range l.Rows() {
			out = append(out, *r.ResponseTime)
		}
		return out
	}

	if cmd := l.OnSort("response_time"); cmd != nil {
		t.Fatal("sort issued a command")
	}
	if got := rt(); !slices.Equal(got, []int{100, 200, 300}) {
		t.Fatalf("ascending = %v", got)
	}
	l.OnSort("response_time")
	if got := rt(); !slices.Equal(got, []int{300, 200, 100}) {
		t.Fatalf("descending = %v", got)
	}
	l.OnSort("response_time")
	if got := rt(); !slices.Equal(got, []int{300, 100, 200}) {
		t.Fatalf("unsorted = %v, want server order", got)
	}
	if l.OnSort("actions") != nil || l.State().Sort.Active() {
		t.Fatal("non-sortable column changed the sort")
	}
	if f.proxies.count() != calls {
		t.Fatalf("sorting fetched %d times", f.proxies.count()-calls)
	}
}

func TestSortSurvivesPageChange(t *testing.T) {
	f := newFixture()
	l := f.list()
	feed(l, l.Mount())
	l.OnSort("response_time")
	feed(l, l.SetPage(2))

	if got := *l.Rows()[0].ResponseTime; got != 100 {
		t.Fatalf("first row response time = %d, want sorted page", got)
	}
}

func TestSetPageSizeKeepsFirstRow(t *testing.T) {
	f := newFixture()
	f.proxies.total = 200
	l := f.list()
	feed(l, l.Mount())
	feed(l, l.SetPageSize(20))
	feed(l, l.SetPage(5))
	feed(l, l.SetPageSize(40))

	if got := l.State(); got.Page != 3 || got.PageSize != 40 {
		t.Fatalf("state = %+v, want page 3 size 40", got)
	}
	if raw, _, _ := f.local.Get(persist.Namespace(ProxyListOwner).PageSize); raw != "40" {
		t.Fatalf("stored page size = %q", raw)
	}
	if l.SetPageSize(33) != nil {
		t.Fatal("invalid page size accepted")
	}
}

func TestSearchDebounceResetsPage(t *testing.T) {
	f := newFixture()
	l := f.list()
	feed(l, l.Mount())
	feed(l, l.SetPage(2))
	calls := f.proxies.count()

	stale := l.SearchChanged("1.2")
	latest := l.SearchChanged(" 1.2.3 ")
	feed(l, stale)
	if f.proxies.count() != calls {
		t.Fatal("superseded search fetched")
	}
	feed(l, latest)

	got := f.proxies.last()
	if got.Search != "1.2.3" || got.Page != 1 {
		t.Fatalf("request = %+v, want search 1.2.3 on page 1", got)
	}
	if l.SearchInput() != " 1.2.3 " || l.SearchTerm() != "1.2.3" {
		t.Fatalf("input %q term %q", l.SearchInput(), l.SearchTerm())
	}
}

func TestApplyFiltersPersistsAcrossMounts(t *testing.T) {
	f := newFixture()
	l := f.list()
	feed(l, l.Mount())
	feed(l, l.SetPage(2))

	var seen []filters.Applied
	unsubscribe := l.Filters().Subscribe(func(a filters.Applied) { seen = append(seen, a) })
	defer unsubscribe()

	form := l.FilterForm()
	form.Status = filters.StatusAlive
	form.HTTP = true
	feed(l, l.ApplyFilters(form))

	req := f.proxies.last()
	if req.Page != 1 || req.Filters == nil || req.Filters.Status != "alive" || !slices.Equal(req.Filters.Protocols, []string{"http"}) {
		t.Fatalf("request = %+v filters %+v", req, req.Filters)
	}
	if len(seen) != 1 || seen[0].Status != filters.StatusAlive {
		t.Fatalf("observers saw %+v", seen)
	}
	if l.FilterButtonLabel() != "Filters (2)" {
		t.Fatalf("label = %q", l.FilterButtonLabel())
	}

	again := f.list()
	feed(again, again.Mount())
	if again.Filters().Get().Status != filters.StatusAlive || f.proxies.last().Filters == nil {
		t.Fatal("filters not restored on remount")
	}

	feed(again, again.ClearFilters())
	if again.FilterButtonLabel() != "Filters" || f.proxies.last().Filters != nil {
		t.Fatal("filters not cleared")
	}
	if _, ok, _ := f.local.Get(persist.Namespace(ProxyListOwner).Filters); ok {
		t.Fatal("stored filters not removed")
	}
}

func TestFetchErrorNotifies(t *testing.T) {
	f := newFixture()
	f.proxies.err = &api.Error{Status: 500, Message: "db down"}
	l := f.list()

	got := notices(feed(l, l.Mount()))
	if !slices.Equal(got, []string{"Could not get proxy page: db down"}) {
		t.Fatalf("notices = %v", got)
	}
	if !l.HasLoaded() || l.Loading().Get() {
		t.Fatalf("hasLoaded=%v loading=%v", l.HasLoaded(), l.Loading().Get())
	}
}

func TestSelectionPrunedAfterFetch(t *testing.T) {
	f := newFixture()
	l := f.list()
	feed(l, l.Mount())
	l.ToggleSelected(100)
	l.ToggleSelected(101)
	l.ToggleSelected(101)
	l.ToggleSelected(102)
	if got := l.Selected(); !slices.Equal(got, []int64{100, 102}) {
		t.Fatalf("Selected() = %v", got)
	}

	feed(l, l.Refresh())
	if got := l.Selected(); !slices.Equal(got, []int64{100, 102}) {
		t.Fatalf("selection lost on same page: %v", got)
	}
	feed(l, l.SetPage(2))
	if got := l.Selected(); len(got) != 0 {
		t.Fatalf("selection not pruned: %v", got)
	}
}

func TestVocabularyLoadedOnce(t *testing.T) {
	f := newFixture()
	l := f.list()
	feed(l, l.Mount())

	cmd := l.OpenFilterPanel()
	if cmd == nil {
		t.Fatal("first open did not load vocabulary")
	}
	if l.OpenFilterPanel() != nil {
		t.Fatal("second open while loading issued another load")
	}
	feed(l, cmd)
	if v, ok := l.Vocabulary(); !ok || !slices.Equal(v.Countries, []string{"US", "DE"}) {
		t.Fatalf("Vocabulary() = %+v, %v", v, ok)
	}
	l.CloseFilterPanel()
	if l.OpenFilterPanel() != nil {
		t.Fatal("reopen reloaded vocabulary")
	}

	other := NewSourceProxyList(Env{API: nil, Settings: f.settings, Logger: logging.Nop()}, 4)
	feed(other, other.OpenFilterPanel())
	if _, ok := other.Vocabulary(); !ok {
		t.Fatal("second screen has no vocabulary")
	}
	if n := f.backend.vocabCalls.Load(); n != 1 {
		t.Fatalf("vocabulary fetched %d times", n)
	}
}

func TestVocabularyErrorAllowsRetry(t *testing.T) {
	f := newFixture()
	f.backend.vocabErr = errors.New("offline")
	l := f.list()

	got := notices(feed(l, l.OpenFilterPanel()))
	if !slices.Equal(got, []string{"Could not load filter options: offline"}) {
		t.Fatalf("notices = %v", got)
	}
	f.backend.vocabErr = nil
	feed(l, l.OpenFilterPanel())
	if _, ok := l.Vocabulary(); !ok {
		t.Fatal("retry did not load vocabulary")
	}
}

func TestSettingsCacheSharesConcurrentLoads(t *testing.T) {
	backend := &fakeSettings{release: make(chan struct{})}
	cache := NewSettingsCache(backend)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Vocabulary(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(backend.release)
	wg.Wait()

	if n := backend.vocabCalls.Load(); n != 1 {
		t.Fatalf("vocabulary fetched %d times", n)
	}
}

func TestColumnsFromRemoteSettings(t *testing.T) {
	f := newFixture()
	f.backend.doc = model.UserSettings{
		model.PrefProxyListColumns: []any{"alive", "alive_ratio_http", "bogus"},
	}
	l := f.list()
	feed(l, l.Mount())

	if got := l.Columns().Get(); !slices.Equal(got, []string{"alive", "health_http"}) {
		t.Fatalf("columns = %v", got)
	}
	if defs := l.VisibleColumns(); len(defs) != 2 || defs[1].Label != "HTTP Health" {
		t.Fatalf("VisibleColumns() = %+v", defs)
	}
}

func TestSaveColumnsOptimisticSuccess(t *testing.T) {
	f := newFixture()
	f.backend.doc = model.UserSettings{"theme": "dark"}
	l := f.list()
	feed(l, l.Mount())

	l.OpenColumnPanel()
	l.ColumnDraft().Replace([]string{"ip_port", "country"})
	cmd := l.SaveColumns()
	if got := l.Columns().Get(); !slices.Equal(got, []string{"ip_port", "country"}) {
		t.Fatalf("columns before save resolved = %v", got)
	}
	if got := notices(feed(l, cmd)); len(got) != 0 {
		t.Fatalf("notices = %v", got)
	}
	if f.backend.doc["theme"] != "dark" {
		t.Fatal("save dropped unrelated settings")
	}

	again := f.list()
	if got := again.Columns().Get(); !slices.Equal(got, []string{"ip_port", "country"}) {
		t.Fatalf("new screen columns = %v", got)
	}
}

func TestSaveColumnsRollsBackOnFailure(t *testing.T) {
	f := newFixture()
	f.backend.saveErr = errors.New("boom")
	l := f.list()
	feed(l, l.Mount())
	before := l.Columns().Get()

	var history [][]string
	l.Columns().Subscribe(func(ids []string) { history = append(history, ids) })

	l.OpenColumnPanel()
	l.ColumnDraft().Replace([]string{"country"})
	got := notices(feed(l, l.SaveColumns()))

	if !slices.Equal(got, []string{"Could not save column settings: boom"}) {
		t.Fatalf("notices = %v", got)
	}
	if !slices.Equal(l.Columns().Get(), before) {
		t.Fatalf("columns = %v, want rollback to %v", l.Columns().Get(), before)
	}
	if len(history) != 2 || !slices.Equal(history[0], []string{"country"}) {
		t.Fatalf("observer history = %v", history)
	}
}

func TestHideLastColumnNotifies(t *testing.T) {
	f := newFixture()
	l := f.list()
	l.OpenColumnPanel()

	ids := l.ColumnDraft().IDs()
	for _, id := range ids[1:] {
		if cmd := l.HideColumn(id); cmd != nil {
			t.Fatalf("hide %s notified", id)
		}
	}
	msgs := run(l.HideColumn(ids[0]))
	if got := notices(msgs); !slices.Equal(got, []string{"At least one column must stay visible."}) {
		t.Fatalf("notices = %v", got)
	}
	if l.ColumnDraft().Len() != 1 {
		t.Fatalf("draft = %v", l.ColumnDraft().IDs())
	}

	l.ShowColumn("ip")
	l.MoveColumn(1, 0)
	if got := l.ColumnDraft().IDs(); !slices.Equal(got, []string{"ip", ids[0]}) {
		t.Fatalf("draft = %v", got)
	}
	l.ResetColumns()
	l.CloseColumnPanel()
	if l.ColumnPanelOpen() || !slices.Equal(l.Columns().Get(), ids) {
		t.Fatal("closing the panel changed the displayed columns")
	}
}

func TestParseSourceID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{" 7 ", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSourceID(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSourceID) {
					t.Fatalf("ParseSourceID(%q) error = %v, want ErrInvalidSourceID", tt.raw, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseSourceID(%q) = %d, %v", tt.raw, got, err)
			}
		})
	}
}

type fakeSources struct {
	err   error
	pages atomic.Int32
}

func (f *fakeSources) FetchSourcePage(ctx context.Context, page int) ([]model.ScrapeSourceRow, error) {
	f.pages.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []model.ScrapeSourceRow{
		{ID: 1, URL: "https://b.example", ProxyCount: 10},
		{ID: 2, URL: "https://a.example", ProxyCount: 30},
	}, nil
}

func (f *fakeSources) FetchSourceCount(ctx context.Context) (int, error) {
	return 42, nil
}

func TestSourceList(t *testing.T) {
	backend := &fakeSources{}
	s := NewSourceList(backend, nil, persist.NewMemoryStore(), persist.NewMemoryStore(), logging.Nop())
	feed(s, s.Mount())

	if s.Total() != 42 || s.TotalPages() != 3 || len(s.Rows()) != 2 {
		t.Fatalf("total=%d pages=%d rows=%d", s.Total(), s.TotalPages(), len(s.Rows()))
	}
	if s.OnSort("url") != nil || s.Rows()[0].URL != "https://a.example" {
		t.Fatalf("sorted rows = %+v", s.Rows())
	}
	if backend.pages.Load() != 1 {
		t.Fatal("sorting refetched")
	}

	feed(s, s.SetPage(3))
	if s.State().Page != 3 || s.Rows()[0].URL != "https://a.example" {
		t.Fatalf("page %d rows %+v", s.State().Page, s.Rows())
	}
	if s.SetPage(3) != nil {
		t.Fatal("same page refetched")
	}
}

func TestSourceListError(t *testing.T) {
	backend := &fakeSources{err: errors.New("down")}
	s := NewSourceList(backend, nil, nil, nil, logging.Nop())

	got := notices(feed(s, s.Mount()))
	if !slices.Equal(got, []string{"Could not get scraping sources"}) {
		t.Fatalf("notices = %v", got)
	}
	if !s.HasLoaded() || s.Loading().Get() {
		t.Fatal("error did not finish loading")
	}
}

func TestSourceProxiesOwner(t *testing.T) {
	if got := SourceProxiesOwner(9); !strings.HasPrefix(got, "scrape_source_proxies.") || !strings.HasSuffix(got, ".9") {
		t.Fatalf("SourceProxiesOwner(9) = %q", got)
	}
}
