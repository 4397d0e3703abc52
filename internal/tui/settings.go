package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/shiftclock/internal/profile"
)

// profileStore persists the per-user profile.
type profileStore interface {
	SaveProfile(owner string, p profile.Profile) error
}

type settingsModel struct {
	store  profileStore
	owner  string
	data   viewData
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	hourlyRate  *string
	currency    *string
	idleMinutes *string
}

func newSettingsModel(s profileStore, owner string) settingsModel {
	rate, cur, idle := "", "", ""
	return settingsModel{
		store:       s,
		owner:       owner,
		hourlyRate:  &rate,
		currency:    &cur,
		idleMinutes: &idle,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *settingsModel) setData(data viewData) {
	s.data = data
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	p := s.data.profile
	*s.hourlyRate = strconv.FormatFloat(p.HourlyRate, 'f', -1, 64)
	*s.currency = p.Currency
	*s.idleMinutes = strconv.Itoa(p.IdleMinutes)

	currencyOptions := make([]huh.Option[string], len(profile.Currencies))
	for i, c := range profile.Currencies {
		currencyOptions[i] = huh.NewOption(c, c)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Hourly rate").Value(s.hourlyRate).Validate(validateRate),
			huh.NewSelect[string]().Title("Currency").Options(currencyOptions...).Value(s.currency),
			huh.NewInput().Title("Idle reminder (min)").Value(s.idleMinutes).Validate(validateIdleMinutes),
		).Title("Profile"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		p, err := parseProfile(*s.hourlyRate, *s.currency, *s.idleMinutes)
		if err != nil {
			return s, errorCmd("Invalid settings", err)
		}
		return s, s.saveProfile(p)
	}

	return s, cmd
}

func (s settingsModel) saveProfile(p profile.Profile) tea.Cmd {
	st, owner := s.store, s.owner
	return func() tea.Msg {
		if err := st.SaveProfile(owner, p); err != nil {
			return statusMsg{text: fmt.Sprintf("Save failed: %v", err), isError: true}
		}
		return statusMsg{text: "Settings saved"}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	p := s.data.profile
	settings := [][2]string{
		{"Hourly rate", p.FormatMoney(p.HourlyRate)},
		{"Currency", p.Currency},
		{"Idle reminder", fmt.Sprintf("%d min", p.IdleMinutes)},
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"))
	rows = append(rows, "")
	for _, kv := range settings {
		label := lipgloss.NewStyle().Width(24).Render(kv[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(kv[1])))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func validateRate(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return fmt.Errorf("enter a number of at least 0")
	}
	return nil
}

func validateIdleMinutes(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 {
		return fmt.Errorf("enter whole minutes, at least 1")
	}
	return nil
}

func parseProfile(rate, currency, idle string) (profile.Profile, error) {
	r, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("hourly rate: %w", err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(idle))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("idle minutes: %w", err)
	}
	p := profile.Profile{HourlyRate: r, Currency: currency, IdleMinutes: m}
	return p, p.Validate()
}
