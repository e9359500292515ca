package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"magpie/internal/api"
	"magpie/internal/columns"
	"magpie/internal/filters"
	"magpie/internal/logging"
	"magpie/internal/model"
	"magpie/internal/persist"
	"magpie/internal/view"
)

type fakeBackend struct {
	mu      sync.Mutex
	doc     model.UserSettings
	saves   int
	sources []int64
}

func (f *fakeBackend) FetchProxyPage(ctx context.Context, req api.PageRequest) (model.ProxyPage, error) {
	return proxyPage(ctx, "10.0", req)
}

func (f *fakeBackend) FetchSourceProxyPage(ctx context.Context, id int64, req api.PageRequest) (model.ProxyPage, error) {
	f.mu.Lock()
	f.sources = append(f.sources, id)
	f.mu.Unlock()
	return proxyPage(ctx, fmt.Sprintf("192.%d", id), req)
}

func proxyPage(ctx context.Context, prefix string, req api.PageRequest) (model.ProxyPage, error) {
	if err := ctx.Err(); err != nil {
		return model.ProxyPage{}, err
	}
	rows := make([]model.ProxyRow, 3)
	for i := range rows {
		rows[i] = model.ProxyRow{
			ID:    int64(req.Page*10 + i),
			IP:    fmt.Sprintf("%s.%d.%d", prefix, req.Page, i),
			Port:  3128,
			Alive: i%2 == 0,
		}
	}
	return model.ProxyPage{Proxies: rows, Total: 30}, nil
}

func (f *fakeBackend) FetchSourcePage(ctx context.Context, page int) ([]model.ScrapeSourceRow, error) {
	return []model.ScrapeSourceRow{
		{ID: 7, URL: "https://lists.example/a.txt", ProxyCount: 10, AliveCount: 8},
		{ID: 8, URL: "https://lists.example/b.txt"},
	}, nil
}

func (f *fakeBackend) FetchSourceCount(ctx context.Context) (int, error) {
	return 2, nil
}

func (f *fakeBackend) FetchSourceDetail(ctx context.Context, id int64) (model.ScrapeSourceDetail, error) {
	return model.ScrapeSourceDetail{
		ScrapeSourceRow: model.ScrapeSourceRow{ID: id, URL: fmt.Sprintf("https://lists.example/%d.txt", id)},
	}, nil
}

func (f *fakeBackend) FetchUserSettings(ctx context.Context) (model.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc, nil
}

func (f *fakeBackend) SaveUserSettings(ctx context.Context, s model.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.doc = s
	return nil
}

func (f *fakeBackend) FetchFilterVocabulary(ctx context.Context) (filters.Vocabulary, error) {
	return filters.Vocabulary{Countries: []string{"DE", "US"}}, nil
}

func (f *fakeBackend) savedColumns(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	list, _ := f.doc.Columns(key).([]any)
	for _, v := range list {
		out = append(out, v.(string))
	}
	return out
}

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

func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := run(cmd)
	for n := 0; len(queue) > 0; n++ {
		if n > 200 {
			t.Fatal("messages did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		next, c := m.Update(msg)
		m = next.(Model)
		queue = append(queue, run(c)...)
	}
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(keyMsg(k))
		m = settle(t, next.(Model), cmd)
	}
	return m
}

func newTestModel(t *testing.T) (Model, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	env := view.Env{
		API:            backend,
		Settings:       view.NewSettingsCache(backend),
		Local:          persist.NewMemoryStore(),
		Session:        persist.NewMemoryStore(),
		SearchDebounce: time.Millisecond,
		Logger:         logging.Nop(),
	}
	m := New(env, backend)
	m.prompt.Cursor.SetMode(cursor.CursorStatic)
	m.writeClipboard = func(string) error { return nil }
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	m = settle(t, next.(Model), m.Init())
	return m, backend
}

func TestInitLoadsProxyList(t *testing.T) {
	m, _ := newTestModel(t)

	if got := m.proxies.RowCount(); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
	out := m.View()
	for _, want := range []string{"magpie", "Proxies", "10.0.1.0:3128", "page 1/1"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestBackFromProxyDetailRestoresCursor(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "j", "enter")
	if m.screen != model.ScreenProxyDetail {
		t.Fatalf("screen = %v, want proxy detail", m.screen)
	}
	if got := m.proxyDetail.row.IP; got != "10.0.1.1" {
		t.Fatalf("detail row = %s", got)
	}

	m.proxies.cur.JumpToTop()
	m = press(t, m, "b")
	if m.screen != model.ScreenProxies {
		t.Fatalf("screen = %v, want proxies", m.screen)
	}
	if got := m.proxies.cur.cursor; got != 1 {
		t.Fatalf("cursor = %d, want restored 1", got)
	}
}

func TestGotoInvalidSourceShowsSources(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "#", "a", "b", "c", "enter")
	if m.screen != model.ScreenSources {
		t.Fatalf("screen = %v, want sources", m.screen)
	}
	if m.error != "Invalid scrape source identifier" {
		t.Fatalf("error = %q", m.error)
	}
	if got := m.sources.RowCount(); got != 2 {
		t.Fatalf("source rows = %d, want 2", got)
	}
}

func TestOpenSourceAndBack(t *testing.T) {
	m, backend := newTestModel(t)

	m = press(t, m, "2", "j", "enter")
	if m.screen != model.ScreenSourceDetail {
		t.Fatalf("screen = %v, want source detail", m.screen)
	}
	if m.sourceDetail.detail == nil || m.sourceDetail.detail.ID != 8 {
		t.Fatalf("detail = %+v", m.sourceDetail.detail)
	}
	if !slices.Contains(backend.sources, int64(8)) {
		t.Fatalf("sublist not fetched for source 8: %v", backend.sources)
	}
	if got := m.sourceDetail.proxies.List().Owner(); got != view.SourceProxiesOwner(8) {
		t.Fatalf("owner = %s", got)
	}

	m.sources.cur.JumpToTop()
	m = press(t, m, "esc")
	if m.screen != model.ScreenSources || m.sourceDetail != nil {
		t.Fatalf("screen = %v, detail = %v", m.screen, m.sourceDetail)
	}
	if got := m.sources.cur.cursor; got != 1 {
		t.Fatalf("source cursor = %d, want restored 1", got)
	}
}

func TestCopyAddress(t *testing.T) {
	m, _ := newTestModel(t)
	var copied string
	m.writeClipboard = func(s string) error {
		copied = s
		return nil
	}

	m = press(t, m, "j", "j", "y")
	if copied != "10.0.1.2:3128" {
		t.Fatalf("copied %q", copied)
	}
	if m.info != "Copied 10.0.1.2:3128" {
		t.Fatalf("info = %q", m.info)
	}

	m = press(t, m, "g", "g", " ", "j", "j", " ", "y")
	if copied != "10.0.1.0:3128\n10.0.1.2:3128" {
		t.Fatalf("copied selection %q", copied)
	}
	if m.info != "Copied 2 addresses" {
		t.Fatalf("info = %q", m.info)
	}
}

func TestHideActiveColumnSavesLayout(t *testing.T) {
	m, backend := newTestModel(t)

	m = press(t, m, "c")
	saved := backend.savedColumns(model.PrefProxyListColumns)
	if len(saved) == 0 || slices.Contains(saved, "alive") {
		t.Fatalf("saved columns = %v", saved)
	}
	if got := m.proxies.List().Columns().Get(); slices.Contains(got, "alive") {
		t.Fatalf("displayed columns = %v", got)
	}
}

func TestColumnPanelEditsDraftUntilSave(t *testing.T) {
	m, backend := newTestModel(t)

	m = press(t, m, "C", " ")
	if m.mode != model.ModeColumns {
		t.Fatalf("mode = %v, want columns", m.mode)
	}
	if got := m.proxies.List().Columns().Get(); got[0] != "alive" {
		t.Fatalf("displayed changed before save: %v", got)
	}
	m = press(t, m, "esc")
	if backend.saves != 0 {
		t.Fatalf("saves = %d after cancel", backend.saves)
	}

	m = press(t, m, "C", "j", "K", "enter")
	want := columns.Proxy.Defaults()
	want[0], want[1] = want[1], want[0]
	if got := m.proxies.List().Columns().Get(); !slices.Equal(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	if got := backend.savedColumns(model.PrefProxyListColumns); !slices.Equal(got, want) {
		t.Fatalf("saved = %v, want %v", got, want)
	}
}

func TestTableCursorWindow(t *testing.T) {
	var c tableCursor
	c.setVisible(3)
	for range 4 {
		c.MoveDown(10)
	}
	if c.cursor != 4 || c.offset != 2 {
		t.Fatalf("cursor=%d offset=%d, want 4, 2", c.cursor, c.offset)
	}
	c.JumpToBottom(10)
	if c.cursor != 9 || c.offset != 7 {
		t.Fatalf("bottom cursor=%d offset=%d", c.cursor, c.offset)
	}
	c.JumpTo(20, 5)
	if c.cursor != 4 {
		t.Fatalf("JumpTo clamp cursor=%d", c.cursor)
	}
	c.clamp(0)
	if c.cursor != 0 || c.offset != 0 {
		t.Fatalf("empty clamp cursor=%d offset=%d", c.cursor, c.offset)
	}
}

func TestPageIndicator(t *testing.T) {
	tests := []struct {
		page, total int
		want        string
	}{
		{1, 3, "page 1/3"},
		{3, 3, "page 3/3"},
		{1, 0, "page 1/1"},
		{9, 2, "page 2/2"},
	}
	for _, tt := range tests {
		if got := pageIndicator(tt.page, tt.total); got != tt.want {
			t.Errorf("pageIndicator(%d, %d) = %q, want %q", tt.page, tt.total, got, tt.want)
		}
	}
}

func TestProxyCell(t *testing.T) {
	ratio := 0.826
	rt := 140
	row := model.ProxyRow{
		IP:           "1.2.3.4",
		Port:         80,
		ResponseTime: &rt,
		Health:       &model.Health{HTTPS: &ratio},
		Reputation: &model.ReputationSummary{Protocols: map[string]*model.Reputation{
			"socks5": {Score: 41.6, Label: "neutral"},
		}},
	}
	tests := []struct {
		id   string
		want string
	}{
		{"ip_port", "1.2.3.4:80"},
		{"health_https", "83%"},
		{"health_http", "—"},
		{"response_time", "140 ms"},
		{"alive", "dead"},
		{"reputation", "Neutral (42)"},
		{"country", "—"},
	}
	for _, tt := range tests {
		if got := proxyCell(row, columns.Proxy.Lookup(tt.id)).text; got != tt.want {
			t.Errorf("%s = %q, want %q", tt.id, got, tt.want)
		}
	}
}
