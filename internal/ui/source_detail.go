package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"magpie/internal/api"
	"magpie/internal/model"
	"magpie/internal/util"
	"magpie/internal/view"
)

// SourceDetailFetcher loads the metadata of one scrape source.
type SourceDetailFetcher interface {
	FetchSourceDetail(ctx context.Context, id int64) (model.ScrapeSourceDetail, error)
}

// SourceDetailModel shows one scrape source and its proxies.
type SourceDetailModel struct {
	id      int64
	detail  *model.ScrapeSourceDetail
	err     error
	proxies *ProxyTable
}

// NewSourceDetailModel builds the screen for source id with its proxy sublist.
func NewSourceDetailModel(id int64, list *view.ProxyList) *SourceDetailModel {
	return &SourceDetailModel{id: id, proxies: NewProxyTable(list)}
}

// Title is the breadcrumb label.
func (m *SourceDetailModel) Title() string {
	if m.detail != nil && m.detail.URL != "" {
		return util.TruncateString(m.detail.URL, 48)
	}
	return fmt.Sprintf("Source #%d", m.id)
}

func loadSourceDetailCmd(fetcher SourceDetailFetcher, id int64) tea.Cmd {
	return func() tea.Msg {
		detail, err := fetcher.FetchSourceDetail(context.Background(), id)
		return model.SourceDetailLoadedMsg{ID: id, Detail: detail, Err: err}
	}
}

// SetDetail applies a loaded detail. It reports whether msg belongs to this screen.
func (m *SourceDetailModel) SetDetail(msg model.SourceDetailLoadedMsg) bool {
	if msg.ID != m.id {
		return false
	}
	if msg.Err != nil {
		m.err = msg.Err
		return true
	}
	d := msg.Detail
	m.detail, m.err = &d, nil
	return true
}

// View renders the metadata panel above the proxy sublist.
func (m *SourceDetailModel) View(width, height int) string {
	info := m.renderInfo(width)
	rest := height - lipgloss.Height(info)
	return lipgloss.JoinVertical(lipgloss.Left, info, m.proxies.View(width, max(rest, 5)))
}

func (m *SourceDetailModel) renderInfo(width int) string {
	if m.detail == nil {
		text := "Loading source…"
		if m.err != nil {
			text = "Could not load source details: " + api.Message(m.err)
		}
		return HelpDescStyle.Padding(0, 2).Render(text)
	}
	d := m.detail

	avg := util.Placeholder
	if d.AvgReputation != nil {
		avg = fmt.Sprintf("%.1f", *d.AvgReputation)
	}
	health := lipgloss.NewStyle().Foreground(toneColor(d.Tone())).Render(util.FormatSourceHealth(d.AliveRatio()))

	left := []string{
		renderField("URL", d.URL),
		renderField("Proxies", util.FormatCount(d.ProxyCount)),
		LabelStyle.Render("Health:") + " " + health,
		renderField("Alive / Dead / Unknown", fmt.Sprintf("%s / %s / %s",
			util.FormatCount(d.AliveCount), util.FormatCount(d.DeadCount), util.FormatCount(d.Unknown()))),
	}
	right := []string{
		renderField("Added", util.FormatTimestamp(d.AddedAt)),
		renderField("Last proxy added", util.FormatTimestamp(d.LastProxyAddedAt)),
		renderField("Last checked", util.FormatTimestamp(d.LastCheckedAt)),
		renderField("Avg reputation", avg),
	}
	b := d.ReputationBreakdown
	breakdown := strings.Join([]string{
		lipgloss.NewStyle().Foreground(ColorGreen).Render(fmt.Sprintf("good %d", b.Good)),
		lipgloss.NewStyle().Foreground(ColorYellow).Render(fmt.Sprintf("neutral %d", b.Neutral)),
		lipgloss.NewStyle().Foreground(ColorRed).Render(fmt.Sprintf("poor %d", b.Poor)),
		HelpDescStyle.Render(fmt.Sprintf("unknown %d", b.Unknown)),
	}, "  ·  ")

	colWidth := max(20, (width-8)/2)
	columnsRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(colWidth).Render(strings.Join(left, "\n")),
		lipgloss.NewStyle().Width(colWidth).Render(strings.Join(right, "\n")),
	)
	body := lipgloss.JoinVertical(lipgloss.Left,
		columnsRow,
		"",
		LabelStyle.Render("Reputation:")+" "+breakdown,
	)
	return PanelStyle.Padding(0, 2).Width(width - 4).Render(body)
}
