package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"magpie/internal/columns"
	"magpie/internal/model"
	"magpie/internal/util"
	"magpie/internal/view"
)

// SourceTable renders the scrape-source list.
type SourceTable struct {
	list   *view.SourceList
	cur    tableCursor
	active int
}

// NewSourceTable wraps list.
func NewSourceTable(list *view.SourceList) *SourceTable {
	return &SourceTable{list: list}
}

// List returns the wrapped controller.
func (t *SourceTable) List() *view.SourceList { return t.list }

// Cursor returns the row cursor.
func (t *SourceTable) Cursor() *tableCursor { return &t.cur }

// RowCount returns the number of rows on the current page.
func (t *SourceTable) RowCount() int { return len(t.list.Rows()) }

// Columns returns the column surface of the list.
func (t *SourceTable) Columns() columnEditing { return t.list }

// Current returns the row under the cursor.
func (t *SourceTable) Current() (model.ScrapeSourceRow, bool) {
	rows := t.list.Rows()
	if t.cur.cursor < 0 || t.cur.cursor >= len(rows) {
		return model.ScrapeSourceRow{}, false
	}
	return rows[t.cur.cursor], true
}

// Sync applies a restored scroll position and keeps the cursor in range.
func (t *SourceTable) Sync() {
	if pos, ok := t.list.TakeRestoredScroll(); ok {
		t.cur.JumpTo(pos, t.RowCount())
	}
	t.cur.clamp(t.RowCount())
	t.active = min(t.active, max(0, len(t.list.VisibleColumns())-1))
}

// NextColumn moves the active column right.
func (t *SourceTable) NextColumn() {
	if n := len(t.list.VisibleColumns()); n > 0 {
		t.active = (t.active + 1) % n
	}
}

// PrevColumn moves the active column left.
func (t *SourceTable) PrevColumn() {
	if n := len(t.list.VisibleColumns()); n > 0 {
		t.active = (t.active - 1 + n) % n
	}
}

func (t *SourceTable) activeColumn() (columns.Definition, bool) {
	cols := t.list.VisibleColumns()
	if t.active < 0 || t.active >= len(cols) {
		return columns.Definition{}, false
	}
	return cols[t.active], true
}

// SortActiveColumn cycles the sort of the active column.
func (t *SourceTable) SortActiveColumn() tea.Cmd {
	def, ok := t.activeColumn()
	if !ok {
		return nil
	}
	return t.list.OnSort(def.ID)
}

// HideActiveColumn hides the active column and saves the layout.
func (t *SourceTable) HideActiveColumn() tea.Cmd {
	return hideAndSave(t.list, t.activeColumn)
}

// NextPage loads the next page.
func (t *SourceTable) NextPage() tea.Cmd {
	page := t.list.State().Page
	if page >= t.list.TotalPages() {
		return nil
	}
	t.cur.JumpToTop()
	return t.list.SetPage(page + 1)
}

// PrevPage loads the previous page.
func (t *SourceTable) PrevPage() tea.Cmd {
	page := t.list.State().Page
	if page <= 1 {
		return nil
	}
	t.cur.JumpToTop()
	return t.list.SetPage(page - 1)
}

// Refresh reloads the current page.
func (t *SourceTable) Refresh() tea.Cmd {
	return t.list.Refresh()
}

// CopyText returns the URL under the cursor.
func (t *SourceTable) CopyText() (string, bool) {
	row, ok := t.Current()
	if !ok {
		return "", false
	}
	return row.URL, true
}

// TableMeta summarizes paging and sort for the status bar.
func (t *SourceTable) TableMeta() string {
	st := t.list.State()
	parts := []string{pageIndicator(st.Page, t.list.TotalPages())}
	if st.Sort.Active() {
		parts = append(parts, describeSort(t.list.VisibleColumns(), st.Sort.Field, int(st.Sort.Direction)))
	}
	return strings.Join(parts, "  ·  ")
}

// View renders the table.
func (t *SourceTable) View(width, height int) string {
	t.cur.setVisible(height - 3)
	rows := t.list.Rows()

	grid := tableGrid{
		cols:   t.list.VisibleColumns(),
		active: t.active,
		sort:   t.list.State().Sort,
		rows:   len(rows),
		cursor: t.cur,
		cell: func(i int, def columns.Definition) tableCell {
			return sourceCell(rows[i], def)
		},
	}
	if !t.list.HasLoaded() {
		grid.skeleton = view.SourcePageSize
	}

	var content string
	if t.list.HasLoaded() && len(rows) == 0 {
		content = EmptyStateStyle.Width(width).Render("No scraping sources yet.")
	} else {
		content = renderTable(grid, width)
	}

	status := fmt.Sprintf("Total sources: %s  ·  %s", util.FormatCount(t.list.Total()), t.TableMeta())
	if t.list.Loading().Get() {
		status += "  ·  loading…"
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, "", StatusBarStyle.Render(status))
}

func sourceCell(row model.ScrapeSourceRow, def columns.Definition) tableCell {
	switch def.ID {
	case "url":
		return plain(row.URL)
	case "proxy_count":
		return plain(util.FormatCount(row.ProxyCount))
	case "health":
		return colored(util.FormatSourceHealth(row.AliveRatio()), toneColor(row.Tone()))
	case "robots_check":
		return colored("Check robots.txt", ColorMuted)
	case "actions":
		return colored("Open", ColorMuted)
	}
	return plain(util.Placeholder)
}
