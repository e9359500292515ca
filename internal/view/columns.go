package view

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"magpie/internal/api"
	"magpie/internal/columns"
	"magpie/internal/persist"
	"magpie/internal/state"
)

// columnEditor owns a screen's displayed columns and the draft edited in the
// column panel. The displayed list only changes on save or when remote
// settings arrive.
type columnEditor struct {
	owner     string
	prefKey   string
	reg       *columns.Registry
	displayed *state.Cell[[]string]
	draft     *columns.Set
	saver     *persist.ColumnSaver
	settings  *SettingsCache
	open      bool
	log       zerolog.Logger
}

func newColumnEditor(owner, prefKey string, reg *columns.Registry, settings *SettingsCache, log zerolog.Logger) *columnEditor {
	initial := reg.Defaults()
	if settings != nil {
		if s, ok := settings.Cached(); ok {
			initial = reg.Normalize(s.Columns(prefKey))
		}
	}
	e := &columnEditor{
		owner:     owner,
		prefKey:   prefKey,
		reg:       reg,
		displayed: state.NewCell(initial),
		draft:     columns.NewSet(reg, initial),
		settings:  settings,
		log:       log,
	}
	var remote persist.ColumnRemote
	if settings != nil {
		remote = settings
	}
	e.saver = persist.NewColumnSaver(owner, prefKey, reg, remote, e.displayed)
	return e
}

// Columns is the observable list of displayed column ids.
func (e *columnEditor) Columns() *state.Cell[[]string] {
	return e.displayed
}

// VisibleColumns returns the definitions of the displayed columns in order.
func (e *columnEditor) VisibleColumns() []columns.Definition {
	ids := e.displayed.Get()
	out := make([]columns.Definition, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.reg.Lookup(id))
	}
	return out
}

// ColumnDraft returns the set being edited in the column panel.
func (e *columnEditor) ColumnDraft() *columns.Set {
	return e.draft
}

// ColumnPanelOpen reports whether the column panel is showing.
func (e *columnEditor) ColumnPanelOpen() bool {
	return e.open
}

// OpenColumnPanel starts editing from the displayed columns.
func (e *columnEditor) OpenColumnPanel() {
	e.draft = columns.NewSet(e.reg, e.displayed.Get())
	e.open = true
}

// CloseColumnPanel discards the draft.
func (e *columnEditor) CloseColumnPanel() {
	e.open = false
}

// HideColumn removes id from the draft.
func (e *columnEditor) HideColumn(id string) tea.Cmd {
	if err := e.draft.Hide(id); err != nil {
		if errors.Is(err, columns.ErrLastColumn) {
			return notice("At least one column must stay visible.")
		}
		e.log.Debug().Err(err).Str("column", id).Msg("hide column")
	}
	return nil
}

// ShowColumn appends id to the draft.
func (e *columnEditor) ShowColumn(id string) tea.Cmd {
	if err := e.draft.Show(id); err != nil {
		e.log.Debug().Err(err).Str("column", id).Msg("show column")
	}
	return nil
}

// MoveColumn moves the draft column at from to position to.
func (e *columnEditor) MoveColumn(from, to int) tea.Cmd {
	if err := e.draft.Reorder(from, to); err != nil {
		e.log.Debug().Err(err).Int("from", from).Int("to", to).Msg("move column")
	}
	return nil
}

// ResetColumns restores the default columns in the draft.
func (e *columnEditor) ResetColumns() {
	e.draft.Reset()
}

// SaveColumns publishes the draft and stores it remotely.
func (e *columnEditor) SaveColumns() tea.Cmd {
	e.open = false
	return e.saver.Save(context.Background(), e.draft.IDs())
}

func (e *columnEditor) loadSettings() tea.Cmd {
	if e.settings == nil {
		return nil
	}
	settings, owner := e.settings, e.owner
	return func() tea.Msg {
		s, err := settings.Settings(context.Background())
		return SettingsLoadedMsg{Owner: owner, Settings: s, Err: err}
	}
}

func (e *columnEditor) handleSettings(msg SettingsLoadedMsg) {
	if msg.Err != nil {
		e.log.Debug().Err(msg.Err).Msg("user settings unavailable, keeping columns")
		return
	}
	// A save in flight wins over what the server held before it.
	if e.saver.Saving() {
		return
	}
	e.displayed.Set(e.reg.Normalize(msg.Settings.Columns(e.prefKey)))
}

func (e *columnEditor) handleSaved(msg persist.ColumnsSavedMsg) tea.Cmd {
	if err := e.saver.Resolve(msg); err != nil {
		e.log.Warn().Err(err).Str("key", e.prefKey).Msg("column save failed")
		return notice("Could not save column settings: " + api.Message(msg.Err))
	}
	return nil
}
