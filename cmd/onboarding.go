package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// onboardingResult is what the setup screens collected.
type onboardingResult struct {
	path      string
	serverURL string
	token     string
}

func configPath(configDir string) string {
	return filepath.Join(configDir, "config.yaml")
}

// saveOnboardingConfig merges the server URL into config.yaml, keeping any
// other keys the user already set there.
func saveOnboardingConfig(path, serverURL string) error {
	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !errors.Is(err, os.ErrNotExist):
		return err
	}

	if serverURL != "" {
		doc["server_url"] = serverURL
	}
	doc["onboarded"] = true

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

func secureTokenPath(configDir string) string {
	return filepath.Join(configDir, "api_token")
}

func saveSecureToken(configDir, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}
	// Owner read/write only.
	return os.WriteFile(secureTokenPath(configDir), []byte(strings.TrimSpace(token)+"\n"), 0600)
}

func loadSecureToken(configDir string) (string, error) {
	data, err := os.ReadFile(secureTokenPath(configDir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func shouldRunOnboarding(v *viper.Viper) bool {
	if v.GetBool("onboarded") {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// validateServerURL accepts absolute http(s) URLs.
func validateServerURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("server URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL has no host")
	}
	return nil
}

type onboardingStep int

const (
	stepServer onboardingStep = iota
	stepToken
	stepDone
)

type onboardingModel struct {
	step          onboardingStep
	serverInput   textinput.Model
	tokenInput    textinput.Model
	existingToken string
	serverURL     string
	token         string
	canceled      bool
	status        string
	inputErr      string
	width         int
	height        int
}

var (
	obColorMuted  = lipgloss.Color("#6B7585")
	obColorText   = lipgloss.Color("#D5DAE3")
	obColorAccent = lipgloss.Color("#6FA8DC")
	obColorDanger = lipgloss.Color("#E06C75")

	obTitleStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obHeaderStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabInactive = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(obColorText).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	obPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorMuted).
			Padding(1, 2)

	obInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorAccent).
			Padding(0, 1)

	obLabelStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obMutedStyle = lipgloss.NewStyle().
			Foreground(obColorMuted)

	obWarnStyle = lipgloss.NewStyle().
			Foreground(obColorDanger)

	obFooterStyle = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(obColorMuted)
)

func newOnboardingInput(placeholder, prompt string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 300
	in.Prompt = prompt
	in.TextStyle = lipgloss.NewStyle().Foreground(obColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(obColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(obColorText).Background(obColorAccent)
	return in
}

func newOnboardingModel(serverURL, existingToken string) onboardingModel {
	server := newOnboardingInput("https://proxies.example.com", "url> ")
	server.SetValue(strings.TrimSpace(serverURL))
	server.Focus()

	token := newOnboardingInput("Paste API token here", "token> ")
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'

	return onboardingModel{
		step:          stepServer,
		serverInput:   server,
		tokenInput:    token,
		existingToken: strings.TrimSpace(existingToken),
	}
}

func (m onboardingModel) Init() tea.Cmd { return textinput.Blink }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.canceled = true
			m.status = "Setup canceled."
			m.step = stepDone
			return m, tea.Quit
		}
		switch m.step {
		case stepServer:
			switch msg.String() {
			case "enter":
				if err := validateServerURL(m.serverInput.Value()); err != nil {
					m.inputErr = err.Error()
					return m, nil
				}
				m.inputErr = ""
				m.serverURL = strings.TrimRight(strings.TrimSpace(m.serverInput.Value()), "/")
				return m.nextStep()
			case "esc":
				m.canceled = true
				m.status = "Setup canceled."
				m.step = stepDone
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.serverInput, cmd = m.serverInput.Update(msg)
			return m, cmd
		case stepToken:
			switch msg.String() {
			case "enter":
				token := strings.TrimSpace(m.tokenInput.Value())
				if token == "" {
					m.status = "No token entered. Requests will be sent without one."
				} else {
					m.token = token
					m.status = "API token saved."
				}
				m.step = stepDone
				return m, tea.Quit
			case "esc":
				m.status = "Skipped token setup. Requests will be sent without one."
				m.step = stepDone
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.tokenInput, cmd = m.tokenInput.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m onboardingModel) nextStep() (tea.Model, tea.Cmd) {
	if m.existingToken != "" {
		m.status = "Using the API token from the environment or flags."
		m.step = stepDone
		return m, tea.Quit
	}
	m.serverInput.Blur()
	m.step = stepToken
	return m, m.tokenInput.Focus()
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(height-6, 8)
	content := m.renderContent(width, contentHeight)
	ui := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(obColorText).
		Width(width).
		Height(height).
		Render(ui)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + obTitleStyle.Render("magpie") + " " + obMutedStyle.Render("› Setup")
	right := obMutedStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return obHeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	serverTab := obTabInactive.Render("Server")
	tokenTab := obTabInactive.Render("API Token")
	if m.step == stepServer {
		serverTab = obTabActive.Render("Server")
	}
	if m.step == stepToken {
		tokenTab = obTabActive.Render("API Token")
	}
	return obTabsStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, "  ", serverTab, tokenTab))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepServer:
		return obFooterStyle.Width(width).Render("enter continue  esc cancel")
	case stepToken:
		return obFooterStyle.Width(width).Render("enter save  esc skip  ctrl+c cancel")
	default:
		return obFooterStyle.Width(width).Render("Setup complete")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}
	inputWidth := max(30, cardWidth-14)

	var body string
	switch m.step {
	case stepServer:
		lines := []string{
			obLabelStyle.Render("Which server should magpie connect to?"),
			"",
			obMutedStyle.Render("The base URL of the proxy checking service API."),
			"",
			obLabelStyle.Render("Server URL"),
			obInputStyle.Width(inputWidth).Render(m.serverInput.View()),
		}
		if m.inputErr != "" {
			lines = append(lines, obWarnStyle.Render(m.inputErr))
		}
		lines = append(lines, "", obMutedStyle.Render("You can change this later in ~/.magpie/config.yaml"))
		body = lipgloss.JoinVertical(lipgloss.Left, lines...)
	case stepToken:
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			obLabelStyle.Render("API token"),
			"",
			obMutedStyle.Render("Create a token in the web console under account settings."),
			obMutedStyle.Render("It is stored in ~/.magpie/api_token, readable only by you."),
			"",
			obInputStyle.Width(inputWidth).Render(m.tokenInput.View()),
			"",
			obMutedStyle.Render("Press Enter to save, Esc to skip."),
		)
	default:
		msg := obMutedStyle.Render(m.status)
		if m.canceled || strings.Contains(m.status, "without") {
			msg = obWarnStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, obLabelStyle.Render("Onboarding Complete"), "", msg)
	}

	card := obPanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

func runOnboarding(path, configDir, serverURL, existingToken string) (onboardingResult, error) {
	model := newOnboardingModel(serverURL, existingToken)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return onboardingResult{}, fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return onboardingResult{}, fmt.Errorf("unexpected onboarding model type")
	}
	if m.canceled {
		return onboardingResult{}, errors.New("setup canceled")
	}

	result := onboardingResult{path: path, serverURL: m.serverURL, token: m.token}
	if err := saveSecureToken(configDir, result.token); err != nil {
		return onboardingResult{}, err
	}
	if err := saveOnboardingConfig(result.path, result.serverURL); err != nil {
		return onboardingResult{}, err
	}
	return result, nil
}
