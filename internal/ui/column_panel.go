package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"magpie/internal/columns"
)

// columnEditing is the column surface of a list controller.
type columnEditing interface {
	VisibleColumns() []columns.Definition
	ColumnDraft() *columns.Set
	ColumnPanelOpen() bool
	OpenColumnPanel()
	CloseColumnPanel()
	HideColumn(id string) tea.Cmd
	ShowColumn(id string) tea.Cmd
	MoveColumn(from, to int) tea.Cmd
	ResetColumns()
	SaveColumns() tea.Cmd
}

// ColumnPanel edits a list's column draft: shown columns first, in order,
// then the hidden ones.
type ColumnPanel struct {
	editor columnEditing
	keys   PanelKeyMap
	cursor int
	done   bool
}

// NewColumnPanel opens the panel on editor.
func NewColumnPanel(editor columnEditing, keys PanelKeyMap) *ColumnPanel {
	editor.OpenColumnPanel()
	return &ColumnPanel{editor: editor, keys: keys}
}

// Done reports whether the panel was saved or cancelled.
func (p *ColumnPanel) Done() bool {
	return p.done
}

func (p *ColumnPanel) entries() ([]columns.Definition, int) {
	draft := p.editor.ColumnDraft()
	shown := draft.Visible()
	return append(shown, draft.Hidden()...), len(shown)
}

// Update handles a key press.
func (p *ColumnPanel) Update(msg tea.KeyMsg) tea.Cmd {
	entries, shown := p.entries()
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, p.keys.Cancel):
		p.editor.CloseColumnPanel()
		p.done = true
		return nil
	case key.Matches(msg, p.keys.Save):
		p.done = true
		return p.editor.SaveColumns()
	case key.Matches(msg, p.keys.Up):
		p.cursor--
	case key.Matches(msg, p.keys.Down):
		p.cursor++
	case key.Matches(msg, p.keys.Reset):
		p.editor.ResetColumns()
	case key.Matches(msg, p.keys.Toggle):
		if p.cursor >= len(entries) {
			break
		}
		id := entries[p.cursor].ID
		if p.cursor < shown {
			cmd = p.editor.HideColumn(id)
		} else {
			cmd = p.editor.ShowColumn(id)
		}
	case key.Matches(msg, p.keys.MoveUp):
		if p.cursor > 0 && p.cursor < shown {
			cmd = p.editor.MoveColumn(p.cursor, p.cursor-1)
			p.cursor--
		}
	case key.Matches(msg, p.keys.MoveDown):
		if p.cursor < shown-1 {
			cmd = p.editor.MoveColumn(p.cursor, p.cursor+1)
			p.cursor++
		}
	}

	entries, _ = p.entries()
	p.cursor = min(max(p.cursor, 0), max(0, len(entries)-1))
	return cmd
}

// View renders the panel.
func (p *ColumnPanel) View(width int) string {
	entries, shown := p.entries()
	lines := []string{LabelStyle.Render("Columns"), ""}
	for i, def := range entries {
		box := "[ ]"
		if i < shown {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, def.Label)
		if def.Example != "" {
			line += "  " + HelpDescStyle.Render(def.Example)
		}
		if def.Tooltip != "" {
			line += "  " + HelpDescStyle.Italic(true).Render(def.Tooltip)
		}
		style := NormalRowStyle
		if i == p.cursor {
			style = SelectedRowStyle
		}
		if i == shown && shown < len(entries) {
			lines = append(lines, HelpDescStyle.Render("hidden"))
		}
		lines = append(lines, style.Render(line))
	}
	hints := []string{
		helpKey("space", "show/hide"),
		helpKey("K/J", "move"),
		helpKey("r", "defaults"),
		helpKey("enter", "save"),
		helpKey("esc", "cancel"),
	}
	lines = append(lines, "", strings.Join(hints, "  "))
	return ActivePanelStyle.Width(min(width-4, 72)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
