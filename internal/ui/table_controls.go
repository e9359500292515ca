package ui

import tea "github.com/charmbracelet/bubbletea"

// tableController is the keyboard surface shared by the list tables.
type tableController interface {
	Cursor() *tableCursor
	RowCount() int
	NextColumn()
	PrevColumn()
	SortActiveColumn() tea.Cmd
	HideActiveColumn() tea.Cmd
	Columns() columnEditing
	NextPage() tea.Cmd
	PrevPage() tea.Cmd
	Refresh() tea.Cmd
	CopyText() (string, bool)
	TableMeta() string
}
