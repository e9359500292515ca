package ui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"magpie/internal/columns"
	"magpie/internal/model"
	"magpie/internal/util"
	"magpie/internal/view"
)

// ProxyTable renders a proxy list controller: the global list or a source's sublist.
type ProxyTable struct {
	list   *view.ProxyList
	cur    tableCursor
	active int
	noun   string
}

// NewProxyTable wraps list.
func NewProxyTable(list *view.ProxyList) *ProxyTable {
	return &ProxyTable{list: list, noun: "proxies"}
}

// List returns the wrapped controller.
func (t *ProxyTable) List() *view.ProxyList { return t.list }

// Cursor returns the row cursor.
func (t *ProxyTable) Cursor() *tableCursor { return &t.cur }

// RowCount returns the number of rows on the current page.
func (t *ProxyTable) RowCount() int { return len(t.list.Rows()) }

// Columns returns the column surface of the list.
func (t *ProxyTable) Columns() columnEditing { return t.list }

// Current returns the row under the cursor.
func (t *ProxyTable) Current() (model.ProxyRow, bool) {
	rows := t.list.Rows()
	if t.cur.cursor < 0 || t.cur.cursor >= len(rows) {
		return model.ProxyRow{}, false
	}
	return rows[t.cur.cursor], true
}

// Sync applies a restored scroll position and keeps the cursor in range
// after the rows changed.
func (t *ProxyTable) Sync() {
	if pos, ok := t.list.TakeRestoredScroll(); ok {
		t.cur.JumpTo(pos, t.RowCount())
	}
	t.cur.clamp(t.RowCount())
	t.active = min(t.active, max(0, len(t.list.VisibleColumns())-1))
}

// NextColumn moves the active column right.
func (t *ProxyTable) NextColumn() {
	if n := len(t.list.VisibleColumns()); n > 0 {
		t.active = (t.active + 1) % n
	}
}

// PrevColumn moves the active column left.
func (t *ProxyTable) PrevColumn() {
	if n := len(t.list.VisibleColumns()); n > 0 {
		t.active = (t.active - 1 + n) % n
	}
}

func (t *ProxyTable) activeColumn() (columns.Definition, bool) {
	cols := t.list.VisibleColumns()
	if t.active < 0 || t.active >= len(cols) {
		return columns.Definition{}, false
	}
	return cols[t.active], true
}

// SortActiveColumn cycles the sort of the active column.
func (t *ProxyTable) SortActiveColumn() tea.Cmd {
	def, ok := t.activeColumn()
	if !ok {
		return nil
	}
	return t.list.OnSort(def.ID)
}

// HideActiveColumn hides the active column and saves the layout.
func (t *ProxyTable) HideActiveColumn() tea.Cmd {
	return hideAndSave(t.list, t.activeColumn)
}

// NextPage loads the next page.
func (t *ProxyTable) NextPage() tea.Cmd {
	page := t.list.State().Page
	if page >= t.list.TotalPages() {
		return nil
	}
	t.cur.JumpToTop()
	return t.list.SetPage(page + 1)
}

// PrevPage loads the previous page.
func (t *ProxyTable) PrevPage() tea.Cmd {
	page := t.list.State().Page
	if page <= 1 {
		return nil
	}
	t.cur.JumpToTop()
	return t.list.SetPage(page - 1)
}

// CyclePageSize switches to the next page size option.
func (t *ProxyTable) CyclePageSize() tea.Cmd {
	opts := t.list.PageSizeOptions()
	if len(opts) == 0 {
		return nil
	}
	i := slices.Index(opts, t.list.State().PageSize)
	t.cur.JumpToTop()
	return t.list.SetPageSize(opts[(i+1)%len(opts)])
}

// Refresh reloads the current page.
func (t *ProxyTable) Refresh() tea.Cmd {
	return t.list.Refresh()
}

// ToggleSelected flips the selection of the row under the cursor.
func (t *ProxyTable) ToggleSelected() {
	if row, ok := t.Current(); ok {
		t.list.ToggleSelected(row.ID)
	}
}

// CopyText returns the selected addresses, or the address under the cursor.
func (t *ProxyTable) CopyText() (string, bool) {
	if ids := t.list.Selected(); len(ids) > 0 {
		var lines []string
		for _, row := range t.list.Rows() {
			if t.list.IsSelected(row.ID) {
				lines = append(lines, row.Address())
			}
		}
		return strings.Join(lines, "\n"), len(lines) > 0
	}
	row, ok := t.Current()
	if !ok {
		return "", false
	}
	return row.Address(), true
}

// TableMeta summarizes paging, search, filters and sort for the status bar.
func (t *ProxyTable) TableMeta() string {
	st := t.list.State()
	parts := []string{
		pageIndicator(st.Page, t.list.TotalPages()),
		fmt.Sprintf("%d per page", st.PageSize),
	}
	if term := t.list.SearchTerm(); term != "" {
		parts = append(parts, fmt.Sprintf("search %q", term))
	}
	parts = append(parts, t.list.FilterButtonLabel())
	if n := len(t.list.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if st.Sort.Active() {
		parts = append(parts, describeSort(t.list.VisibleColumns(), st.Sort.Field, int(st.Sort.Direction)))
	}
	return strings.Join(parts, "  ·  ")
}

// View renders the table.
func (t *ProxyTable) View(width, height int) string {
	t.cur.setVisible(height - 3)
	rows := t.list.Rows()
	loading := t.list.Loading().Get()
	cols := t.list.VisibleColumns()

	grid := tableGrid{
		cols:   cols,
		active: t.active,
		sort:   t.list.State().Sort,
		rows:   len(rows),
		cursor: t.cur,
		cell: func(i int, def columns.Definition) tableCell {
			return proxyCell(rows[i], def)
		},
		marker: func(i int) bool {
			return t.list.IsSelected(rows[i].ID)
		},
	}
	if !t.list.HasLoaded() {
		grid.skeleton = t.list.State().PageSize
	}

	var content string
	switch {
	case t.list.HasLoaded() && len(rows) == 0:
		content = EmptyStateStyle.Width(width).Render("No " + t.noun + " found.")
	default:
		content = renderTable(grid, width)
	}

	status := fmt.Sprintf("Total %s: %s  ·  %s", t.noun, util.FormatCount(t.list.Total()), t.TableMeta())
	if loading {
		status += "  ·  loading…"
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, "", StatusBarStyle.Render(status))
}

func proxyCell(row model.ProxyRow, def columns.Definition) tableCell {
	switch def.ID {
	case "alive":
		if row.Alive {
			return colored(util.FormatAlive(true), ColorGreen)
		}
		return colored(util.FormatAlive(false), ColorRed)
	case "health_overall", "health_http", "health_https", "health_socks4", "health_socks5":
		return plain(util.FormatPercent(row.HealthRatio(strings.TrimPrefix(def.ID, "health_"))))
	case "ip":
		return plain(row.IP)
	case "ip_port":
		return plain(row.Address())
	case "port":
		return plain(strconv.Itoa(row.Port))
	case "response_time":
		return plain(util.FormatResponseTime(row.ResponseTime))
	case "estimated_type":
		return plain(util.OrPlaceholder(row.EstimatedType))
	case "country":
		return plain(util.OrPlaceholder(row.Country))
	case "reputation":
		r := row.PrimaryReputation()
		if r == nil {
			return colored(util.FormatReputation("", nil), ColorMuted)
		}
		return colored(util.FormatReputation(r.Label, &r.Score), reputationColor(strings.ToLower(r.Label)))
	case "latest_check":
		return plain(util.FormatCheckTime(row.LatestCheck))
	case "actions":
		return colored("Details", ColorMuted)
	}
	return plain(util.Placeholder)
}

func describeSort(cols []columns.Definition, field string, dir int) string {
	label := field
	for _, def := range cols {
		if def.SortField == field {
			label = def.Label
			break
		}
	}
	order := "asc"
	if dir < 0 {
		order = "desc"
	}
	return fmt.Sprintf("sort %s %s", strings.ToUpper(label), order)
}

// hideAndSave hides the active column through the column draft and saves it.
func hideAndSave(editor columnEditing, active func() (columns.Definition, bool)) tea.Cmd {
	def, ok := active()
	if !ok {
		return nil
	}
	editor.OpenColumnPanel()
	if cmd := editor.HideColumn(def.ID); cmd != nil {
		editor.CloseColumnPanel()
		return cmd
	}
	return editor.SaveColumns()
}
