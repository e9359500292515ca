package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"magpie/internal/model"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(screen model.Screen, mode model.Mode, width int) string {
	switch mode {
	case model.ModeSearch:
		return renderHelpLine([]string{
			helpKey("type", "search"),
			helpKey("enter", "done"),
			helpKey("esc", "close"),
		}, width)
	case model.ModeGoto:
		return renderHelpLine([]string{
			helpKey("enter", "open source"),
			helpKey("esc", "cancel"),
		}, width)
	case model.ModeFilters:
		return renderHelpLine([]string{
			helpKey("tab", "next field"),
			helpKey("x/space", "toggle"),
			helpKey("enter", "next/apply"),
			helpKey("esc", "cancel"),
		}, width)
	case model.ModeColumns:
		return renderHelpLine([]string{
			helpKey("space", "show/hide"),
			helpKey("K/J", "move"),
			helpKey("enter", "save"),
			helpKey("esc", "cancel"),
		}, width)
	}

	switch screen {
	case model.ScreenProxies:
		return renderProxiesHelp(width)
	case model.ScreenSources:
		return renderSourcesHelp(width)
	case model.ScreenSourceDetail:
		return renderSourceDetailHelp(width)
	case model.ScreenProxyDetail:
		return renderProxyDetailHelp(width)
	default:
		return renderDefaultHelp(width)
	}
}

func renderProxiesHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("[/]", "page"),
		helpKey("tab", "next col"),
		helpKey("s", "sort"),
		helpKey("/", "search"),
		helpKey("f", "filters"),
		helpKey("C", "columns"),
		helpKey("y", "copy"),
		helpKey("enter", "details"),
		helpKey("2", "sources"),
	}
	return renderHelpLine(keys, width)
}

func renderSourcesHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("[/]", "page"),
		helpKey("tab", "next col"),
		helpKey("s", "sort"),
		helpKey("C", "columns"),
		helpKey("y", "copy url"),
		helpKey("enter", "open"),
		helpKey("#", "go to id"),
		helpKey("1", "proxies"),
	}
	return renderHelpLine(keys, width)
}

func renderSourceDetailHelp(width int) string {
	keys := []string{
		helpKey("b/esc", "back"),
		helpKey("j/k", "navigate"),
		helpKey("[/]", "page"),
		helpKey("/", "search"),
		helpKey("f", "filters"),
		helpKey("C", "columns"),
		helpKey("enter", "details"),
	}
	return renderHelpLine(keys, width)
}

func renderProxyDetailHelp(width int) string {
	keys := []string{
		helpKey("b/esc", "back"),
		helpKey("y", "copy address"),
	}
	return renderHelpLine(keys, width)
}

func renderDefaultHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("b/enter", "back/open"),
		helpKey("q", "quit"),
	}
	return renderHelpLine(keys, width)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Navigation"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"gg / G", "Jump to top / bottom"},
			{"ctrl+d / ctrl+u", "Half page down / up"},
			{"] / [", "Next / previous page"},
			{"enter / l", "Open"},
			{"b / esc / h", "Back"},
			{"1 / 2", "Proxies / scraping sources"},
			{"#", "Open a scrape source by id"},
			{"r", "Reload the current page"},
			{"q", "Quit (from top-level)"},
			{"?", "Toggle help"},
		}),
		titleSection("Tables"),
		helpSection([]helpItem{
			{"tab / shift+tab", "Cycle active column"},
			{"s", "Sort active column: asc, desc, off (current page)"},
			{"c", "Hide active column"},
			{"C", "Choose and reorder columns"},
			{"y", "Copy address or URL"},
		}),
		titleSection("Proxy Lists"),
		helpSection([]helpItem{
			{"/", "Search"},
			{"f / F", "Open filters / clear filters"},
			{"z", "Cycle page size"},
			{"space / x", "Select row / clear selection"},
		}),
		titleSection("Column Panel"),
		helpSection([]helpItem{
			{"space", "Show or hide column"},
			{"K / J", "Move column up / down"},
			{"r", "Restore defaults"},
			{"enter", "Save"},
			{"esc", "Cancel"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
