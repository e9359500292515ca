package model

// Bubble Tea message types

// NoticeMsg is a user-visible notification. Error notices render in the error banner.
type NoticeMsg struct {
	Text  string
	Error bool
}

// ClipboardMsg reports the outcome of a copy to the clipboard.
type ClipboardMsg struct {
	Text string
	Err  error
}

// SourceDetailLoadedMsg is sent when a scrape source's metadata is loaded.
type SourceDetailLoadedMsg struct {
	ID     int64
	Detail ScrapeSourceDetail
	Err    error
}

// Screen represents different app screens.
type Screen int

const (
	ScreenProxies Screen = iota
	ScreenSources
	ScreenSourceDetail
	ScreenProxyDetail
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	ModeSearch
	ModeFilters
	ModeColumns
	ModeGoto
)
