package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/lipgloss"

	"magpie/internal/columns"
	"magpie/internal/sorting"
	"magpie/internal/util"
)

// tableCursor tracks the highlighted row and the first row on screen.
type tableCursor struct {
	cursor  int
	offset  int
	visible int
}

func (c *tableCursor) setVisible(n int) {
	c.visible = max(1, n)
}

func (c *tableCursor) window() int {
	if c.visible <= 0 {
		return 10
	}
	return c.visible
}

func (c *tableCursor) clamp(rows int) {
	if rows == 0 {
		c.cursor, c.offset = 0, 0
		return
	}
	c.cursor = min(max(c.cursor, 0), rows-1)
	if c.offset > c.cursor {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.window() {
		c.offset = c.cursor - c.window() + 1
	}
}

// MoveDown moves the cursor down.
func (c *tableCursor) MoveDown(rows int) {
	if c.cursor < rows-1 {
		c.cursor++
		c.clamp(rows)
	}
}

// MoveUp moves the cursor up.
func (c *tableCursor) MoveUp(rows int) {
	if c.cursor > 0 {
		c.cursor--
		c.clamp(rows)
	}
}

// JumpToTop jumps to the first row.
func (c *tableCursor) JumpToTop() {
	c.cursor, c.offset = 0, 0
}

// JumpToBottom jumps to the last row.
func (c *tableCursor) JumpToBottom(rows int) {
	c.cursor = rows - 1
	c.clamp(rows)
}

// JumpTo places the cursor on row i.
func (c *tableCursor) JumpTo(i, rows int) {
	c.cursor = i
	c.clamp(rows)
}

// HalfPageDown moves down half a window.
func (c *tableCursor) HalfPageDown(rows int) {
	c.cursor += max(1, c.window()/2)
	c.clamp(rows)
}

// HalfPageUp moves up half a window.
func (c *tableCursor) HalfPageUp(rows int) {
	c.cursor -= max(1, c.window()/2)
	c.clamp(rows)
}

// pageIndicator renders "page x/y" for a 1-based page.
func pageIndicator(page, totalPages int) string {
	p := paginator.New()
	p.Type = paginator.Arabic
	p.ArabicFormat = "page %d/%d"
	p.TotalPages = max(1, totalPages)
	p.Page = min(max(page, 1), p.TotalPages) - 1
	return p.View()
}

// tableCell is a plain cell value with an optional foreground color.
type tableCell struct {
	text  string
	color lipgloss.TerminalColor
}

func plain(text string) tableCell {
	return tableCell{text: text}
}

func colored(text string, color lipgloss.TerminalColor) tableCell {
	return tableCell{text: text, color: color}
}

// tableGrid is everything renderTable needs to draw one page of rows.
type tableGrid struct {
	cols     []columns.Definition
	active   int
	sort     sorting.Spec
	rows     int
	cursor   tableCursor
	skeleton int
	cell     func(row int, def columns.Definition) tableCell
	marker   func(row int) bool
}

func formatHeaderLabel(def columns.Definition, active bool, sort sorting.Spec) string {
	label := strings.ToUpper(def.Label)
	if active {
		label = "❋ " + label
	}
	if def.Sortable() && sort.Active() && sort.Field == def.SortField {
		if sort.Direction == sorting.Desc {
			label += " ↓"
		} else {
			label += " ↑"
		}
	}
	return label
}

func columnWidths(cols []columns.Definition, labels []string, width int) []int {
	widths := make([]int, len(cols))
	total := 0
	for i, def := range cols {
		widths[i] = max(def.Width, lipgloss.Width(labels[i])+2)
		total += widths[i]
	}
	if len(widths) > 0 {
		if extra := width - total - 4; extra > 0 {
			widths[len(widths)-1] += extra
		}
	}
	return widths
}

// renderTable draws the header and the visible window of rows. When skeleton
// is set it draws that many placeholder rows sized from the column widths.
func renderTable(g tableGrid, width int) string {
	labels := make([]string, len(g.cols))
	for i, def := range g.cols {
		labels[i] = formatHeaderLabel(def, i == g.active, g.sort)
	}
	widths := columnWidths(g.cols, labels, width)

	gutter := g.marker != nil
	headerCells := labels
	headerWidths := widths
	if gutter {
		headerCells = append([]string{""}, labels...)
		headerWidths = append([]int{2}, widths...)
	}
	lines := []string{renderTableRow(headerCells, headerWidths, TableHeaderStyle)}

	if g.skeleton > 0 {
		for i := 0; i < g.skeleton && i < g.cursor.window(); i++ {
			cells := make([]string, 0, len(headerWidths))
			for _, w := range headerWidths {
				cells = append(cells, strings.Repeat("░", max(0, w-2)))
			}
			lines = append(lines, renderTableRow(cells, headerWidths, SkeletonStyle.Padding(0, 1)))
		}
		return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(lines, "\n"))
	}

	end := min(g.rows, g.cursor.offset+g.cursor.window())
	for i := g.cursor.offset; i < end; i++ {
		style := NormalRowStyle.Padding(0, 1)
		if i%2 == 1 {
			style = style.Background(ColorZebra)
		}
		selected := i == g.cursor.cursor
		if selected {
			style = SelectedRowStyle.Padding(0, 1)
		}

		cells := make([]string, 0, len(headerWidths))
		if gutter {
			mark := " "
			if g.marker(i) {
				mark = "●"
			}
			cells = append(cells, mark)
		}
		for j, def := range g.cols {
			c := g.cell(i, def)
			text := util.TruncateString(c.text, max(1, widths[j]-2))
			if c.color != nil && !selected {
				text = lipgloss.NewStyle().Foreground(c.color).Render(text)
			}
			cells = append(cells, text)
		}
		lines = append(lines, renderTableRow(cells, headerWidths, style))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(lines, "\n"))
}

// renderTableRow renders cells side by side at the given widths.
func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).MaxHeight(1).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}
