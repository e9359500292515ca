package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"magpie/internal/api"
	"magpie/internal/filters"
	"magpie/internal/model"
)

// PageLoadedMsg carries the result of one proxy page request.
type PageLoadedMsg struct {
	Owner     string
	RequestID int
	Request   api.PageRequest
	Page      model.ProxyPage
	Err       error
}

// SourcesLoadedMsg carries one page of scrape sources and the total count.
type SourcesLoadedMsg struct {
	Owner     string
	RequestID int
	Page      int
	Rows      []model.ScrapeSourceRow
	Total     int
	Err       error
}

// VocabularyLoadedMsg carries the selectable filter values.
type VocabularyLoadedMsg struct {
	Owner      string
	Vocabulary filters.Vocabulary
	Err        error
}

// SettingsLoadedMsg carries the user settings document.
type SettingsLoadedMsg struct {
	Owner    string
	Settings model.UserSettings
	Err      error
}

func notice(text string) tea.Cmd {
	return func() tea.Msg {
		return model.NoticeMsg{Text: text, Error: true}
	}
}
