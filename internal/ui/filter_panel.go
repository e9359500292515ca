package ui

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"magpie/internal/filters"
)

// filterValues holds the values the huh fields write into.
type filterValues struct {
	status           string
	protocols        []string
	maxTimeout       string
	maxRetries       string
	countries        []string
	types            []string
	anonymityLevels  []string
	reputationLabels []string
}

func valuesFromForm(f filters.Form) *filterValues {
	return &filterValues{
		status:           string(f.Status),
		protocols:        f.Protocols(),
		maxTimeout:       formatBound(f.MaxTimeout),
		maxRetries:       formatBound(f.MaxRetries),
		countries:        slices.Clone(f.Countries),
		types:            slices.Clone(f.Types),
		anonymityLevels:  slices.Clone(f.AnonymityLevels),
		reputationLabels: slices.Clone(f.ReputationLabels),
	}
}

func (v *filterValues) form() filters.Form {
	f := filters.Form{
		Status:           filters.ParseStatus(v.status),
		MaxTimeout:       parseBound(v.maxTimeout),
		MaxRetries:       parseBound(v.maxRetries),
		Countries:        slices.Clone(v.countries),
		Types:            slices.Clone(v.types),
		AnonymityLevels:  slices.Clone(v.anonymityLevels),
		ReputationLabels: slices.Clone(v.reputationLabels),
	}
	f.SetProtocols(v.protocols)
	return f
}

func formatBound(v float64) string {
	if n := filters.NormalizeNumber(v); n > 0 {
		return strconv.Itoa(n)
	}
	return ""
}

func parseBound(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

var errBound = errors.New("enter a whole number, or leave blank for no limit")

func validateBound(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return errBound
	}
	return nil
}

// FilterPanel is the filter editor of a proxy list.
type FilterPanel struct {
	form        *huh.Form
	values      *filterValues
	vocab       filters.Vocabulary
	vocabLoaded bool
	width       int
}

// NewFilterPanel builds the panel from the list's working copy. The
// multi-selects show a loading note until the vocabulary is available.
func NewFilterPanel(f filters.Form, vocab filters.Vocabulary, loaded bool, width int) *FilterPanel {
	p := &FilterPanel{values: valuesFromForm(f), width: width}
	p.build(vocab, loaded)
	return p
}

// Init starts the form.
func (p *FilterPanel) Init() tea.Cmd {
	return p.form.Init()
}

// NeedsVocabulary reports whether the panel still shows loading notes.
func (p *FilterPanel) NeedsVocabulary() bool {
	return !p.vocabLoaded
}

// SetVocabulary rebuilds the form with the loaded values, keeping edits.
func (p *FilterPanel) SetVocabulary(vocab filters.Vocabulary) tea.Cmd {
	p.build(vocab, true)
	return p.form.Init()
}

func (p *FilterPanel) build(vocab filters.Vocabulary, loaded bool) {
	p.vocab, p.vocabLoaded = vocab, loaded
	v := p.values

	general := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Status").
			Options(huhOptions(filters.StatusOptions)...).
			Value(&v.status),
		huh.NewMultiSelect[string]().
			Title("Protocols").
			Options(huhOptions(filters.ProtocolOptions)...).
			Value(&v.protocols),
		huh.NewMultiSelect[string]().
			Title("Reputation").
			Options(huhOptions(filters.ReputationOptions)...).
			Value(&v.reputationLabels),
	).Title("Filters")

	limits := huh.NewGroup(
		huh.NewInput().
			Title("Max timeout (ms)").
			Placeholder("no limit").
			Validate(validateBound).
			Value(&v.maxTimeout),
		huh.NewInput().
			Title("Max retries").
			Placeholder("no limit").
			Validate(validateBound).
			Value(&v.maxRetries),
	)

	p.form = huh.NewForm(
		general,
		huh.NewGroup(
			p.vocabularyField("Countries", vocab.Countries, &v.countries),
			p.vocabularyField("Types", vocab.Types, &v.types),
			p.vocabularyField("Anonymity levels", vocab.AnonymityLevels, &v.anonymityLevels),
		),
		limits,
	).WithTheme(huh.ThemeDracula()).
		WithShowHelp(true).
		WithWidth(min(max(p.width-4, 40), 80))
}

func (p *FilterPanel) vocabularyField(title string, values []string, target *[]string) huh.Field {
	if !p.vocabLoaded {
		return huh.NewNote().Title(title).Description("Loading options…")
	}
	// Keep applied values selectable even when the server stopped reporting them.
	all := filters.SortOptionValues(filters.NormalizeSelection(append(slices.Clone(values), *target...)))
	if len(all) == 0 {
		return huh.NewNote().Title(title).Description("No values reported")
	}
	return huh.NewMultiSelect[string]().
		Title(title).
		Options(huhOptions(filters.Options(all))...).
		Filterable(true).
		Height(8).
		Value(target)
}

func huhOptions(opts []filters.Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(opts))
	for i, o := range opts {
		out[i] = huh.NewOption(o.Label, o.Value)
	}
	return out
}

// Update forwards msg to the form.
func (p *FilterPanel) Update(msg tea.Msg) tea.Cmd {
	m, cmd := p.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		p.form = f
	}
	return cmd
}

// Completed reports whether the user submitted the form.
func (p *FilterPanel) Completed() bool {
	return p.form.State == huh.StateCompleted
}

// Aborted reports whether the user quit the form.
func (p *FilterPanel) Aborted() bool {
	return p.form.State == huh.StateAborted
}

// Result returns the edited values.
func (p *FilterPanel) Result() filters.Form {
	return p.values.form()
}

// View renders the panel.
func (p *FilterPanel) View() string {
	return ActivePanelStyle.Render(p.form.View())
}
