package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"magpie/internal/model"
	"magpie/internal/util"
)

// ProxyDetailModel shows every field of one proxy row.
type ProxyDetailModel struct {
	row  model.ProxyRow
	from model.Screen
}

// NewProxyDetailModel opens row, returning to from on back.
func NewProxyDetailModel(row model.ProxyRow, from model.Screen) *ProxyDetailModel {
	return &ProxyDetailModel{row: row, from: from}
}

// View renders the proxy detail.
func (m *ProxyDetailModel) View(width, height int) string {
	r := m.row
	var sections []string

	status := lipgloss.NewStyle().Foreground(ColorRed).Render(util.FormatAlive(r.Alive))
	if r.Alive {
		status = lipgloss.NewStyle().Foreground(ColorGreen).Render(util.FormatAlive(r.Alive))
	}
	sections = append(sections, strings.Join([]string{
		renderField("Address", r.Address()),
		LabelStyle.Render("Status:") + " " + status,
		renderField("Type", util.OrPlaceholder(r.EstimatedType)),
		renderField("Country", util.OrPlaceholder(r.Country)),
		renderField("Anonymity", util.OrPlaceholder(r.AnonymityLevel)),
		renderField("Response time", util.FormatResponseTime(r.ResponseTime)),
		renderField("Last check", fmt.Sprintf("%s (%s)", util.FormatCheckTime(r.LatestCheck), util.FormatRelative(r.LatestCheck))),
	}, "\n"))

	divider := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(strings.Repeat("─", max(0, width-8)))
	sections = append(sections, divider)

	health := []string{LabelStyle.Render("Health")}
	for _, kind := range []string{"overall", "http", "https", "socks4", "socks5"} {
		health = append(health, renderField(strings.ToUpper(kind), util.FormatPercent(r.HealthRatio(kind))))
	}
	sections = append(sections, strings.Join(health, "\n"))

	rep := []string{LabelStyle.Render("Reputation")}
	if p := r.PrimaryReputation(); p != nil {
		rep = append(rep, renderField("Primary", util.FormatReputation(p.Label, &p.Score)))
	} else {
		rep = append(rep, HelpDescStyle.Render("No reputation data"))
	}
	if r.Reputation != nil {
		for _, proto := range []string{"http", "https", "socks4", "socks5"} {
			if pr := r.Reputation.Protocols[proto]; pr != nil {
				rep = append(rep, renderField(strings.ToUpper(proto), util.FormatReputation(pr.Label, &pr.Score)))
			}
		}
	}
	sections = append(sections, strings.Join(rep, "\n"))

	header := lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Right).
		Render(HelpDescStyle.Render("y copy · b back"))

	content := PanelStyle.
		Width(width - 4).
		MaxHeight(max(height-1, 3)).
		Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(lipgloss.Left, header, content)
}

// Title is the breadcrumb label.
func (m *ProxyDetailModel) Title() string {
	return m.row.Address()
}

func renderField(label, value string) string {
	if value == "" {
		value = util.Placeholder
	}
	return LabelStyle.Render(label+":") + " " + NormalRowStyle.Render(value)
}
