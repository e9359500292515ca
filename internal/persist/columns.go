package persist

import (
	"context"
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"magpie/internal/columns"
	"magpie/internal/state"
)

// ColumnRemote is the server-side store of column layouts, keyed by preference name.
type ColumnRemote interface {
	SaveColumns(ctx context.Context, key string, ids []string) error
}

// ColumnsSavedMsg reports the outcome of a remote column save.
type ColumnsSavedMsg struct {
	Owner    string
	Seq      int
	Columns  []string
	Previous []string
	Err      error
}

// ColumnSaver applies column layouts optimistically and rolls back when the
// server rejects them.
type ColumnSaver struct {
	owner  string
	key    string
	reg    *columns.Registry
	remote ColumnRemote
	cell   *state.Cell[[]string]
	seq    int
	saving bool
}

// NewColumnSaver binds a saver to the displayed-columns cell of one screen.
// owner tells concurrent screens' results apart; key is the remote preference name.
func NewColumnSaver(owner, key string, reg *columns.Registry, remote ColumnRemote, cell *state.Cell[[]string]) *ColumnSaver {
	return &ColumnSaver{owner: owner, key: key, reg: reg, remote: remote, cell: cell}
}

// Saving reports whether a save is in flight.
func (c *ColumnSaver) Saving() bool {
	return c.saving
}

// Save normalizes next, publishes it to the cell right away and returns the
// command that persists it remotely.
func (c *ColumnSaver) Save(ctx context.Context, next []string) tea.Cmd {
	previous := slices.Clone(c.cell.Get())
	normalized := c.reg.Normalize(next)
	c.seq++
	c.saving = true
	c.cell.Set(normalized)

	seq, owner, key, remote := c.seq, c.owner, c.key, c.remote
	saved := slices.Clone(normalized)
	return func() tea.Msg {
		var err error
		if remote != nil {
			err = remote.SaveColumns(ctx, key, saved)
		}
		return ColumnsSavedMsg{Owner: owner, Seq: seq, Columns: saved, Previous: previous, Err: err}
	}
}

// Resolve settles a save. On failure the cell rolls back to the layout held
// before that save, unless a newer save has been issued since. The returned
// error wraps the remote failure.
func (c *ColumnSaver) Resolve(msg ColumnsSavedMsg) error {
	if msg.Owner != c.owner {
		return nil
	}
	latest := msg.Seq == c.seq
	if latest {
		c.saving = false
	}
	if msg.Err == nil {
		return nil
	}
	if latest {
		c.cell.Set(c.reg.Normalize(msg.Previous))
	}
	return fmt.Errorf("could not save column settings: %w", msg.Err)
}
