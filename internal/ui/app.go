package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"magpie/internal/api"
	"magpie/internal/model"
	"magpie/internal/view"
)

// Backend is the part of the API the root model reads besides the proxy lists.
type Backend interface {
	view.SourceBackend
	SourceDetailFetcher
}

// Model is the root Bubble Tea model.
type Model struct {
	env     view.Env
	backend Backend
	screen  model.Screen
	mode    model.Mode
	gState  GState

	width  int
	height int

	error       string
	info        string
	showingHelp bool

	// Screen models
	proxies      *ProxyTable
	sources      *SourceTable
	sourceDetail *SourceDetailModel
	proxyDetail  *ProxyDetailModel

	prompt      textinput.Model
	filterPanel *FilterPanel
	columnPanel *ColumnPanel

	keys           KeyMap
	panelKeys      PanelKeyMap
	writeClipboard func(string) error
}

// New creates a new root model.
func New(env view.Env, backend Backend) Model {
	prompt := textinput.New()
	prompt.CharLimit = 256
	return Model{
		env:            env,
		backend:        backend,
		screen:         model.ScreenProxies,
		mode:           model.ModeNav,
		gState:         GStateIdle,
		proxies:        NewProxyTable(view.NewGlobalProxyList(env)),
		sources:        NewSourceTable(view.NewSourceList(backend, env.Settings, env.Local, env.Session, env.Logger)),
		prompt:         prompt,
		keys:           DefaultKeyMap(),
		panelKeys:      DefaultPanelKeyMap(),
		writeClipboard: clipboard.WriteAll,
	}
}

// Init mounts the proxy list.
func (m Model) Init() tea.Cmd {
	return m.proxies.List().Mount()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.teardown()
			return m, tea.Quit
		}

		if m.mode == model.ModeNav && key.Matches(msg, m.keys.Help) {
			m.showingHelp = !m.showingHelp
			return m, nil
		}

		if m.showingHelp {
			if msg.String() == "esc" || msg.String() == "?" {
				m.showingHelp = false
			}
			return m, nil
		}

		switch m.mode {
		case model.ModeSearch, model.ModeGoto:
			return m.handlePrompt(msg)
		case model.ModeFilters:
			return m.handleFilterKey(msg)
		case model.ModeColumns:
			return m.handleColumnKey(msg)
		}
		return m.handleNavMode(msg)

	case model.NoticeMsg:
		if msg.Error {
			m.error = msg.Text
		} else {
			m.info = msg.Text
		}
		return m, nil

	case model.ClipboardMsg:
		if msg.Err != nil {
			m.error = "Could not copy to clipboard: " + msg.Err.Error()
			return m, nil
		}
		lines := strings.Count(msg.Text, "\n") + 1
		if lines > 1 {
			m.info = "Copied " + pluralize(lines, "address", "addresses")
		} else {
			m.info = "Copied " + msg.Text
		}
		return m, nil

	case model.SourceDetailLoadedMsg:
		if m.sourceDetail != nil && m.sourceDetail.SetDetail(msg) && msg.Err != nil && !api.IsCanceled(msg.Err) {
			m.error = "Could not load source details: " + api.Message(msg.Err)
		}
		return m, nil
	}

	if handled, cmd := m.routeList(msg); handled {
		return m, cmd
	}

	switch m.mode {
	case model.ModeFilters:
		return m.updateFilterPanel(msg)
	case model.ModeSearch, model.ModeGoto:
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// routeList hands msg to the list controller it is addressed to.
func (m *Model) routeList(msg tea.Msg) (bool, tea.Cmd) {
	handled, cmd := m.proxies.List().Update(msg)
	if handled {
		m.proxies.Sync()
	} else if handled, cmd = m.sources.List().Update(msg); handled {
		m.sources.Sync()
	} else if m.sourceDetail != nil {
		if handled, cmd = m.sourceDetail.proxies.List().Update(msg); handled {
			m.sourceDetail.proxies.Sync()
		}
	}
	if !handled {
		return false, nil
	}

	if m.mode == model.ModeFilters && m.filterPanel != nil && m.filterPanel.NeedsVocabulary() {
		if pt := m.activeProxyTable(); pt != nil {
			if vocab, ok := pt.List().Vocabulary(); ok {
				cmd = tea.Batch(cmd, m.filterPanel.SetVocabulary(vocab))
			}
		}
	}
	return true, cmd
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	var breadcrumbParts []string
	switch m.screen {
	case model.ScreenProxies:
		breadcrumbParts = []string{"Proxies"}
	case model.ScreenSources:
		breadcrumbParts = []string{"Scraping Sources"}
	case model.ScreenSourceDetail:
		breadcrumbParts = []string{"Scraping Sources", m.sourceDetail.Title()}
	case model.ScreenProxyDetail:
		if m.proxyDetail.from == model.ScreenSourceDetail && m.sourceDetail != nil {
			breadcrumbParts = []string{"Scraping Sources", m.sourceDetail.Title(), m.proxyDetail.Title()}
		} else {
			breadcrumbParts = []string{"Proxies", m.proxyDetail.Title()}
		}
	}

	top := []string{renderHeader(breadcrumbParts, m.width)}
	if m.screen == model.ScreenProxies || m.screen == model.ScreenSources {
		top = append(top, renderTabs(m.screen, m.width))
	}
	if m.error != "" {
		top = append(top, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		top = append(top, SuccessStyle.Width(m.width).Render(m.info))
	}
	if m.mode == model.ModeSearch || m.mode == model.ModeGoto {
		top = append(top, InputStyle.Width(m.width).Render(m.prompt.View()))
	}
	footer := RenderHelp(m.screen, m.mode, m.width)

	contentHeight := m.height - lipgloss.Height(footer)
	for _, part := range top {
		contentHeight -= lipgloss.Height(part)
	}
	contentHeight = max(contentHeight, 3)

	var content string
	switch {
	case m.mode == model.ModeFilters && m.filterPanel != nil:
		content = m.filterPanel.View()
	case m.mode == model.ModeColumns && m.columnPanel != nil:
		content = m.columnPanel.View(m.width)
	default:
		switch m.screen {
		case model.ScreenProxies:
			content = m.proxies.View(m.width, contentHeight)
		case model.ScreenSources:
			content = m.sources.View(m.width, contentHeight)
		case model.ScreenSourceDetail:
			content = m.sourceDetail.View(m.width, contentHeight)
		case model.ScreenProxyDetail:
			content = m.proxyDetail.View(m.width, contentHeight)
		}
	}

	// Fill the available height so the footer stays at the bottom.
	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	parts := append(top, content, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTabs(screen model.Screen, width int) string {
	tabs := []struct {
		name   string
		screen model.Screen
	}{
		{"Proxies", model.ScreenProxies},
		{"Scraping Sources", model.ScreenSources},
	}

	var tabStrings []string
	for _, tab := range tabs {
		tabStyle := lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorMuted)

		if screen == tab.screen {
			tabStyle = tabStyle.
				Foreground(ColorText).
				Bold(true).
				Underline(true)
		}

		tabStrings = append(tabStrings, tabStyle.Render(tab.name))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabStrings...)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		Render(tabBar)
}

func renderHeader(breadcrumbParts []string, width int) string {
	title := HeaderStyle.Render("magpie")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb
	right := BreadcrumbStyle.Render(time.Now().Format("Mon 02 Jan 15:04")) + "  "

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return TitleStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

// handleNavMode handles navigation mode input.
func (m Model) handleNavMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle "gg" state machine
	if msg.String() == "g" {
		if m.gState == GStateFirstG {
			m.gState = GStateIdle
			if t := m.currentTable(); t != nil {
				t.Cursor().JumpToTop()
			}
			return m, nil
		}
		m.gState = GStateFirstG
		return m, nil
	}
	m.gState = GStateIdle

	if m.screen == model.ScreenProxyDetail {
		return m.handleProxyDetailNav(msg)
	}

	t := m.currentTable()
	if t == nil {
		return m, nil
	}
	cur, rows := t.Cursor(), t.RowCount()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.screen == model.ScreenSourceDetail {
			return m, m.back()
		}
		m.teardown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		if m.screen == model.ScreenSourceDetail {
			return m, m.back()
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		cur.MoveDown(rows)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		cur.MoveUp(rows)
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		cur.JumpToBottom(rows)
		return m, nil
	case key.Matches(msg, m.keys.HalfPageDown):
		cur.HalfPageDown(rows)
		return m, nil
	case key.Matches(msg, m.keys.HalfPageUp):
		cur.HalfPageUp(rows)
		return m, nil
	case key.Matches(msg, m.keys.NextPage):
		return m, t.NextPage()
	case key.Matches(msg, m.keys.PrevPage):
		return m, t.PrevPage()
	case key.Matches(msg, m.keys.Refresh):
		m.error, m.info = "", ""
		return m, t.Refresh()
	case key.Matches(msg, m.keys.NextColumn):
		t.NextColumn()
		return m, nil
	case key.Matches(msg, m.keys.PrevColumn):
		t.PrevColumn()
		return m, nil
	case key.Matches(msg, m.keys.Sort):
		return m, t.SortActiveColumn()
	case key.Matches(msg, m.keys.HideColumn):
		return m, t.HideActiveColumn()
	case key.Matches(msg, m.keys.Columns):
		m.columnPanel = NewColumnPanel(t.Columns(), m.panelKeys)
		m.mode = model.ModeColumns
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		if text, ok := t.CopyText(); ok {
			return m, copyCmd(m.writeClipboard, text)
		}
		return m, nil
	case key.Matches(msg, m.keys.GotoSource):
		return m, m.openPrompt(model.ModeGoto, "# ", "")
	case key.Matches(msg, m.keys.Open):
		return m, m.openCurrent()
	}

	if m.screen == model.ScreenProxies || m.screen == model.ScreenSources {
		switch {
		case key.Matches(msg, m.keys.Proxies):
			return m, m.switchTab(model.ScreenProxies)
		case key.Matches(msg, m.keys.Sources):
			return m, m.switchTab(model.ScreenSources)
		case key.Matches(msg, m.keys.PrevTab, m.keys.NextTab):
			if m.screen == model.ScreenProxies {
				return m, m.switchTab(model.ScreenSources)
			}
			return m, m.switchTab(model.ScreenProxies)
		}
	}

	if pt := m.activeProxyTable(); pt != nil {
		list := pt.List()
		switch {
		case key.Matches(msg, m.keys.Search):
			return m, m.openPrompt(model.ModeSearch, "/ ", list.SearchInput())
		case key.Matches(msg, m.keys.Filters):
			cmd := list.OpenFilterPanel()
			vocab, loaded := list.Vocabulary()
			m.filterPanel = NewFilterPanel(list.FilterForm(), vocab, loaded, m.width)
			m.mode = model.ModeFilters
			return m, tea.Batch(cmd, m.filterPanel.Init())
		case key.Matches(msg, m.keys.ClearFilters):
			pt.Cursor().JumpToTop()
			return m, list.ClearFilters()
		case key.Matches(msg, m.keys.PageSize):
			return m, pt.CyclePageSize()
		case key.Matches(msg, m.keys.Select):
			pt.ToggleSelected()
			return m, nil
		case key.Matches(msg, m.keys.ClearSelect):
			list.ClearSelection()
			return m, nil
		}
	}
	return m, nil
}

func (m Model) handleProxyDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		return m, m.back()
	case key.Matches(msg, m.keys.Copy):
		return m, copyCmd(m.writeClipboard, m.proxyDetail.row.Address())
	}
	return m, nil
}

func (m *Model) openPrompt(mode model.Mode, prefix, value string) tea.Cmd {
	m.mode = mode
	m.prompt.Prompt = prefix
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	return m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.prompt.Blur()
	m.mode = model.ModeNav
}

// handlePrompt edits the search or source id prompt.
func (m Model) handlePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil
	case "enter":
		value := m.prompt.Value()
		mode := m.mode
		m.closePrompt()
		if mode == model.ModeGoto {
			return m, m.gotoSource(value)
		}
		return m, nil
	}

	before := m.prompt.Value()
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	if m.mode == model.ModeSearch && m.prompt.Value() != before {
		if pt := m.activeProxyTable(); pt != nil {
			pt.Cursor().JumpToTop()
			cmd = tea.Batch(cmd, pt.List().SearchChanged(m.prompt.Value()))
		}
	}
	return m, cmd
}

func (m *Model) gotoSource(raw string) tea.Cmd {
	id, err := view.ParseSourceID(raw)
	if err != nil {
		m.env.Logger.Debug().Err(err).Msg("goto source")
		cmd := m.switchTab(model.ScreenSources)
		m.error = "Invalid scrape source identifier"
		return cmd
	}
	return m.openSource(id)
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		if pt := m.activeProxyTable(); pt != nil {
			pt.List().CloseFilterPanel()
		}
		m.filterPanel = nil
		m.mode = model.ModeNav
		return m, nil
	}
	return m.updateFilterPanel(msg)
}

func (m Model) updateFilterPanel(msg tea.Msg) (tea.Model, tea.Cmd) {
	pt := m.activeProxyTable()
	if m.filterPanel == nil || pt == nil {
		m.mode = model.ModeNav
		return m, nil
	}
	cmd := m.filterPanel.Update(msg)
	switch {
	case m.filterPanel.Completed():
		form := m.filterPanel.Result()
		m.filterPanel = nil
		m.mode = model.ModeNav
		pt.Cursor().JumpToTop()
		return m, pt.List().ApplyFilters(form)
	case m.filterPanel.Aborted():
		pt.List().CloseFilterPanel()
		m.filterPanel = nil
		m.mode = model.ModeNav
		return m, nil
	}
	pt.List().SetFilterForm(m.filterPanel.Result())
	return m, cmd
}

func (m Model) handleColumnKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.columnPanel == nil {
		m.mode = model.ModeNav
		return m, nil
	}
	cmd := m.columnPanel.Update(msg)
	if m.columnPanel.Done() {
		m.columnPanel = nil
		m.mode = model.ModeNav
		if t := m.currentTable(); t != nil {
			t.Cursor().clamp(t.RowCount())
		}
	}
	return m, cmd
}

func (m *Model) currentTable() tableController {
	switch m.screen {
	case model.ScreenProxies:
		return m.proxies
	case model.ScreenSources:
		return m.sources
	case model.ScreenSourceDetail:
		if m.sourceDetail != nil {
			return m.sourceDetail.proxies
		}
	}
	return nil
}

func (m *Model) activeProxyTable() *ProxyTable {
	switch m.screen {
	case model.ScreenProxies:
		return m.proxies
	case model.ScreenSourceDetail:
		if m.sourceDetail != nil {
			return m.sourceDetail.proxies
		}
	}
	return nil
}

// switchTab moves between the top-level lists. The list left behind is torn
// down and the next one mounts from its first page.
func (m *Model) switchTab(screen model.Screen) tea.Cmd {
	if m.screen == screen {
		return nil
	}
	m.leaveCurrent()
	m.error, m.info = "", ""
	m.screen = screen
	switch screen {
	case model.ScreenSources:
		m.sources.Cursor().JumpToTop()
		return m.sources.List().Mount()
	default:
		m.proxies.Cursor().JumpToTop()
		return m.proxies.List().Mount()
	}
}

// leaveCurrent tears down the list on screen without asking for a restore.
func (m *Model) leaveCurrent() {
	switch m.screen {
	case model.ScreenProxies:
		m.proxies.List().Teardown()
	case model.ScreenSources:
		m.sources.List().Teardown()
	case model.ScreenSourceDetail:
		if m.sourceDetail != nil {
			m.sourceDetail.proxies.List().Teardown()
			m.sourceDetail = nil
		}
	case model.ScreenProxyDetail:
		m.proxyDetail = nil
	}
}

func (m *Model) openCurrent() tea.Cmd {
	switch m.screen {
	case model.ScreenSources:
		row, ok := m.sources.Current()
		if !ok {
			return nil
		}
		return m.openSource(row.ID)
	case model.ScreenProxies, model.ScreenSourceDetail:
		pt := m.activeProxyTable()
		row, ok := pt.Current()
		if !ok {
			return nil
		}
		pt.List().NavigateAway(pt.Cursor().cursor)
		m.proxyDetail = NewProxyDetailModel(row, m.screen)
		m.screen = model.ScreenProxyDetail
		m.error, m.info = "", ""
	}
	return nil
}

// openSource shows source id. Leaving the source list keeps its position for
// the way back.
func (m *Model) openSource(id int64) tea.Cmd {
	if m.screen == model.ScreenSources {
		m.sources.List().NavigateAway(m.sources.Cursor().cursor)
	} else {
		m.leaveCurrent()
	}
	m.error, m.info = "", ""
	m.sourceDetail = NewSourceDetailModel(id, view.NewSourceProxyList(m.env, id))
	m.screen = model.ScreenSourceDetail
	return tea.Batch(
		m.sourceDetail.proxies.List().Mount(),
		loadSourceDetailCmd(m.backend, id),
	)
}

// back returns from a detail screen to the list it was opened from, which
// restores its page and scroll position.
func (m *Model) back() tea.Cmd {
	m.error, m.info = "", ""
	switch m.screen {
	case model.ScreenProxyDetail:
		from := m.proxyDetail.from
		m.proxyDetail = nil
		if from == model.ScreenSourceDetail && m.sourceDetail != nil {
			m.screen = model.ScreenSourceDetail
			return m.sourceDetail.proxies.List().Mount()
		}
		m.screen = model.ScreenProxies
		return m.proxies.List().Mount()
	case model.ScreenSourceDetail:
		if m.sourceDetail != nil {
			m.sourceDetail.proxies.List().Teardown()
			m.sourceDetail = nil
		}
		m.screen = model.ScreenSources
		return m.sources.List().Mount()
	}
	return nil
}

func (m *Model) teardown() {
	m.proxies.List().Teardown()
	m.sources.List().Teardown()
	if m.sourceDetail != nil {
		m.sourceDetail.proxies.List().Teardown()
	}
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return model.ClipboardMsg{Text: text, Err: write(text)}
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
