package tui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/shiftclock/internal/clock"
	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/export"
	"github.com/sadopc/shiftclock/internal/idle"
	"github.com/sadopc/shiftclock/internal/logger"
	"github.com/sadopc/shiftclock/internal/profile"
	"github.com/sadopc/shiftclock/internal/report"
	"github.com/sadopc/shiftclock/internal/store"
	"github.com/sadopc/shiftclock/internal/tracker"
)

// Deps are the collaborators the app drives.
type Deps struct {
	Store   *store.Store
	Tracker *tracker.Service
	Clock   clock.Clock
	Logger  *slog.Logger

	// IdlePoll is how often the idle monitor is evaluated.
	IdlePoll time.Duration
	// ExportDir receives files written by the export picker.
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	deps    Deps
	feeds   *feeds
	monitor *idle.Monitor
	gate    *writeGate
	data    viewData

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	entries   entriesModel
	projects  projectsModel
	reports   reportsModel
	calendar  calendarModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp subscribes to the store. Call Close when the program exits.
func NewApp(d Deps) (App, error) {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Logger == nil {
		d.Logger = logger.Discard()
	}
	if d.IdlePoll <= 0 {
		d.IdlePoll = 5 * time.Second
	}

	f, err := subscribeFeeds(d.Store, d.Tracker.Owner())
	if err != nil {
		return App{}, fmt.Errorf("subscribe: %w", err)
	}

	h := help.New()
	h.ShowAll = false

	owner := d.Tracker.Owner()
	gate := &writeGate{}
	a := App{
		deps:       d,
		feeds:      f,
		monitor:    idle.New(d.Clock, profile.DefaultIdleMinutes, nil, d.Logger),
		activeView: viewDashboard,
		gate:       gate,
		dashboard:  newDashboardModel(d.Tracker, gate),
		entries:    newEntriesModel(d.Tracker, gate),
		projects:   newProjectsModel(d.Store, owner),
		reports:    newReportsModel(),
		calendar:   newCalendarModel(),
		settings:   newSettingsModel(d.Store, owner),
		help:       h,
		data: viewData{
			names:   map[string]string{},
			profile: profile.Default(),
			now:     d.Clock.Now(),
		},
	}
	// The initial deliveries are already queued; apply them now so the
	// first frame is populated.
	a.applyFeed(f.drain())
	return a, nil
}

// Close releases the store subscriptions. It is safe to call more than once.
func (a App) Close() {
	a.feeds.close()
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.feeds.wait(),
		tickCmd(),
		idleTickCmd(a.deps.IdlePoll),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func idleTickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return idleTickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.entries.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.calendar.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		a.monitor.RecordActivity()

		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		if v, ok := tabFor(msg); ok {
			a.activeView = v
			return a, nil
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			a.feeds.close()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		}

	case feedMsg:
		a.applyFeed(msg)
		return a, a.feeds.wait()

	case tickMsg:
		a.data.now = a.deps.Clock.Now()
		a.broadcast()
		return a, tickCmd()

	case idleTickMsg:
		if a.monitor.Tick() {
			a.dashboard.showIdle(a.deps.Clock.Now().Add(-a.monitor.IdleFor()))
			a.activeView = viewDashboard
		}
		return a, idleTickCmd(a.deps.IdlePoll)

	case statusMsg:
		if msg.settled {
			a.gate.settle()
		}
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// tabFor maps the number keys to views in tab order.
func tabFor(msg tea.KeyMsg) (viewState, bool) {
	tabs := []key.Binding{keys.Tab1, keys.Tab2, keys.Tab3, keys.Tab4, keys.Tab5, keys.Tab6}
	for i, b := range tabs {
		if key.Matches(msg, b) {
			return viewState(i), true
		}
	}
	return 0, false
}

// applyFeed folds changed collections into the shared view data and keeps
// the idle monitor bound to the active timer entry.
func (a *App) applyFeed(msg feedMsg) {
	if msg.hasEntries {
		a.data.entries = msg.entries
	}
	if msg.hasProjects {
		a.data.projects = msg.projects
		names := make(map[string]string, len(msg.projects))
		for _, p := range msg.projects {
			names[p.ID] = p.Name
		}
		a.data.names = names
	}
	if msg.profile != nil {
		a.data.profile = *msg.profile
		a.monitor.SetThreshold(msg.profile.IdleMinutes)
	}
	a.data.now = a.deps.Clock.Now()

	running := a.feeds.snap.Running()
	if running != nil && running.Status == entry.StatusActive {
		a.monitor.Bind(running.ID)
	} else {
		a.monitor.Unbind()
	}
	a.broadcast()
}

func (a *App) broadcast() {
	a.dashboard.setData(a.data)
	a.entries.setData(a.data)
	a.projects.setData(a.data)
	a.reports.setData(a.data)
	a.calendar.setData(a.data)
	a.settings.setData(a.data)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewEntries:
		a.entries, cmd = a.entries.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewCalendar:
		a.calendar, cmd = a.calendar.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive
	case viewEntries:
		return a.entries.formActive
	case viewProjects:
		return a.projects.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewEntries:
		content = a.entries.view()
	case viewProjects:
		content = a.projects.view()
	case viewReports:
		content = a.reports.view()
	case viewCalendar:
		content = a.calendar.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("shiftclock")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.dashboard.isRunning() {
		elapsed := a.dashboard.elapsed()
		timerInfo = successStyle.Render(" ● " + formatDuration(elapsed))
		if a.dashboard.isOnBreak() {
			timerInfo = warningStyle.Render(" ⏸ " + formatDuration(elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  all entries, grouped by work week"))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	data, dir := a.data, a.deps.ExportDir
	return func() tea.Msg {
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			dir = home
		}

		p := export.Projector{Projects: data.names, Profile: data.profile, Now: data.now}
		table, err := export.WeeklyRows(report.Weeks(data.entries, data.now), export.AllFields, p)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		dateStr := data.now.Format("2006-01-02")
		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("shiftclock-export-%s.csv", dateStr))
			if err := export.ToCSV(table, p, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("shiftclock-export-%s.json", dateStr))
			if err := export.ToJSON(table, p, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
