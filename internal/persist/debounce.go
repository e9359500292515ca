package persist

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultDebounce is the quiet period before a search term is committed.
const DefaultDebounce = 300 * time.Millisecond

// DebounceMsg is delivered when a debounce timer fires.
type DebounceMsg struct {
	Owner string
	Tag   int
	Value string
}

// Debouncer collapses bursts of input into the last value. Every Trigger
// supersedes the previous one, so only the newest tick is accepted.
type Debouncer struct {
	owner   string
	delay   time.Duration
	tag     int
	stopped bool
}

// NewDebouncer returns a debouncer whose ticks carry owner.
func NewDebouncer(owner string, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{owner: owner, delay: delay}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger restarts the quiet period for value.
func (d *Debouncer) Trigger(value string) tea.Cmd {
	d.tag++
	d.stopped = false
	tag, owner := d.tag, d.owner
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return DebounceMsg{Owner: owner, Tag: tag, Value: value}
	})
}

// Accept returns the value of msg when it is the newest tick of this debouncer.
func (d *Debouncer) Accept(msg DebounceMsg) (string, bool) {
	if d.stopped || msg.Owner != d.owner || msg.Tag != d.tag {
		return "", false
	}
	return msg.Value, true
}

// Stop invalidates any pending tick.
func (d *Debouncer) Stop() {
	d.stopped = true
	d.tag++
}
