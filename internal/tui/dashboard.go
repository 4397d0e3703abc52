package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sadopc/shiftclock/internal/report"
	"github.com/sadopc/shiftclock/internal/tracker"
)

type dashboardModel struct {
	tracker *tracker.Service
	gate    *writeGate
	data    viewData
	timer   timerModel
	width   int
	height  int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formProject *string
	formTask    *string
	formNote    *string

	idlePrompt bool
	idleSince  time.Time
}

func newDashboardModel(svc *tracker.Service, gate *writeGate) dashboardModel {
	project, task, note := "", "", ""
	return dashboardModel{
		tracker:     svc,
		gate:        gate,
		formProject: &project,
		formTask:    &task,
		formNote:    &note,
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d *dashboardModel) setData(data viewData) {
	d.data = data
	d.timer.now = data.now
	d.timer.entry = nil
	for i := range data.entries {
		if data.entries[i].Running() {
			e := data.entries[i]
			d.timer.entry = &e
			break
		}
	}
	if d.timer.entry == nil {
		d.idlePrompt = false
	}
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) isOnBreak() bool { return d.timer.onBreak() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

// showIdle raises the idle prompt for an idle period that began at since.
func (d *dashboardModel) showIdle(since time.Time) {
	if d.timer.running() && !d.timer.onBreak() {
		d.idlePrompt = true
		d.idleSince = since
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	msg, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil
	}

	if d.idlePrompt {
		switch {
		case key.Matches(msg, keys.Break):
			d.idlePrompt = false
			return d, d.toggleBreak()
		case key.Matches(msg, keys.Back), key.Matches(msg, keys.Enter):
			d.idlePrompt = false
			return d, nil
		}
	}

	switch {
	case key.Matches(msg, keys.Start):
		if d.timer.running() {
			return d, statusCmd("A timer is already running")
		}
		if d.gate.busy {
			return d, statusCmd(busyText)
		}
		return d.showStartForm()

	case key.Matches(msg, keys.Stop):
		if !d.timer.running() {
			return d, nil
		}
		d.idlePrompt = false
		return d, d.clockOut()

	case key.Matches(msg, keys.Break):
		if !d.timer.running() {
			return d, nil
		}
		return d, d.toggleBreak()
	}
	return d, nil
}

func (d dashboardModel) showStartForm() (dashboardModel, tea.Cmd) {
	*d.formProject = ""
	*d.formTask = ""
	*d.formNote = ""

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Project").Options(projectOptions(d.data)...).Value(d.formProject),
			huh.NewInput().Title("Task").Value(d.formTask),
			huh.NewInput().Title("Note").Value(d.formNote),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		return d, d.startTimer(optionalID(*d.formProject), *d.formTask, *d.formNote)
	}
	return d, cmd
}

func (d dashboardModel) startTimer(projectID *string, task, note string) tea.Cmd {
	svc := d.tracker
	return d.gate.run(func() statusMsg {
		if _, err := svc.StartTimer(projectID, task, note); err != nil {
			return statusMsg{text: fmt.Sprintf("Start failed: %v", err), isError: true}
		}
		return statusMsg{text: "Timer started"}
	})
}

func (d dashboardModel) toggleBreak() tea.Cmd {
	svc, id := d.tracker, d.timer.entry.ID
	return d.gate.run(func() statusMsg {
		e, err := svc.ToggleBreak(id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Break failed: %v", err), isError: true}
		}
		if e.BreakStartedAt != nil {
			return statusMsg{text: "Break started"}
		}
		return statusMsg{text: "Back to work"}
	})
}

func (d dashboardModel) clockOut() tea.Cmd {
	svc, id := d.tracker, d.timer.entry.ID
	return d.gate.run(func() statusMsg {
		e, err := svc.ClockOut(id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Clock out failed: %v", err), isError: true}
		}
		return statusMsg{text: "Clocked out after " + formatMinutes(e.TotalMinutes)}
	})
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		title := titleStyle.Render("Start Timer")
		return activePanelStyle.Width(contentWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View()),
		)
	}

	panels := []string{d.renderTimerPanel(contentWidth)}
	if d.idlePrompt {
		panels = append(panels, d.renderIdlePanel(contentWidth))
	}
	panels = append(panels, d.renderSummaryPanel(contentWidth), d.renderRecentPanel(contentWidth))
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		e := d.timer.entry
		timeStr := formatDuration(d.timer.currentElapsed())

		var timeDisplay, indicator string
		if d.timer.onBreak() {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			indicator = warningStyle.Render("⏸  ON BREAK  " + formatDuration(d.timer.breakElapsed()))
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  RUNNING")
		}

		projectLine := highlightStyle.Render(d.data.projectName(e.ProjectID))
		if e.Task != "" {
			projectLine += mutedStyle.Render(" / " + e.Task)
		}
		started := mutedStyle.Render(fmt.Sprintf("started %s at %s, breaks %s",
			d.timer.startedAgo(), e.StartTime.Local().Format("15:04"), formatMinutes(e.BreakMinutes)))

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			projectLine,
			started,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start tracking"),
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderIdlePanel(w int) string {
	msg := fmt.Sprintf("No activity since %s (%s).",
		d.idleSince.Local().Format("15:04"), humanize.RelTime(d.idleSince, d.data.now, "ago", "from now"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		warningStyle.Bold(true).Render("Still working?"),
		msg,
		mutedStyle.Render("b: start a break  enter/esc: keep working"),
	)
	return idlePanelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	now := d.data.now
	today := report.Daily(d.data.entries, now)[report.DayKey(now)]
	week := report.Totals(report.LastNDays(d.data.entries, now, 7, d.data.profile.HourlyRate))

	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatMinutes(today.Minutes))
	header := fmt.Sprintf("%s  %s", title, total)

	if today.Sessions == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No entries today"),
			mutedStyle.Render("Last 7 days: "+formatMinutes(week.Minutes)),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{
		header,
		fmt.Sprintf("  Sessions   %d", today.Sessions),
		fmt.Sprintf("  First in   %s", today.FirstIn.Local().Format("15:04")),
		fmt.Sprintf("  Last out   %s", today.LastOut.Local().Format("15:04")),
		fmt.Sprintf("  Earned     %s", d.data.profile.FormatMoney(d.data.profile.Earnings(today.Minutes))),
		mutedStyle.Render(fmt.Sprintf("  Last 7 days: %s, %s",
			formatMinutes(week.Minutes), d.data.profile.FormatMoney(week.Earnings))),
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.data.entries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title}
	for _, e := range d.data.entries[:min(5, len(d.data.entries))] {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(d.data.projectColor(e.ProjectID))).Render("●")
		row := fmt.Sprintf("  %s %s  %-16s %s", statusIcon(e), e.StartTime.Local().Format("Jan 02 15:04"),
			d.data.projectName(e.ProjectID), entryDuration(e, d.data.now))
		rows = append(rows, colorDot+row)
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
