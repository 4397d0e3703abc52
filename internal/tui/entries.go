package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/tracker"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

type entriesModel struct {
	tracker *tracker.Service
	gate    *writeGate
	data    viewData
	width   int
	height  int

	cursor        int
	confirmDelete bool

	formActive bool
	form       *huh.Form
	formType   string // "log", "edit"
	editingID  string

	// Form field pointers (survive value copies)
	formProject *string
	formTask    *string
	formNote    *string
	formDate    *string
	formStart   *string
	formEnd     *string
}

func newEntriesModel(svc *tracker.Service, gate *writeGate) entriesModel {
	project, task, note, date, start, end := "", "", "", "", "", ""
	return entriesModel{
		tracker:     svc,
		gate:        gate,
		formProject: &project,
		formTask:    &task,
		formNote:    &note,
		formDate:    &date,
		formStart:   &start,
		formEnd:     &end,
	}
}

func (m *entriesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *entriesModel) setData(data viewData) {
	m.data = data
	if m.cursor >= len(data.entries) {
		m.cursor = max(0, len(data.entries)-1)
	}
}

func (m entriesModel) selected() (entry.TimeEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.data.entries) {
		return entry.TimeEntry{}, false
	}
	return m.data.entries[m.cursor], true
}

func (m entriesModel) update(msg tea.Msg) (entriesModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	msg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.confirmDelete {
		m.confirmDelete = false
		if key.Matches(msg, keys.Confirm) {
			if e, ok := m.selected(); ok {
				return m, m.deleteEntry(e.ID)
			}
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.data.entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.showLogForm()
	case key.Matches(msg, keys.Edit):
		if e, ok := m.selected(); ok {
			return m.showEditForm(e)
		}
	case key.Matches(msg, keys.Delete):
		if _, ok := m.selected(); ok {
			m.confirmDelete = true
		}
	}
	return m, nil
}

func (m entriesModel) showLogForm() (entriesModel, tea.Cmd) {
	now := m.data.now
	*m.formProject = ""
	*m.formTask = ""
	*m.formNote = ""
	*m.formDate = now.Format(dateLayout)
	*m.formStart = now.Add(-time.Hour).Format(clockLayout)
	*m.formEnd = now.Format(clockLayout)
	m.formType = "log"
	m.editingID = ""
	m.form = m.buildForm()
	m.formActive = true
	return m, m.form.Init()
}

func (m entriesModel) showEditForm(e entry.TimeEntry) (entriesModel, tea.Cmd) {
	end := m.data.now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	*m.formProject = ""
	if e.ProjectID != nil {
		*m.formProject = *e.ProjectID
	}
	*m.formTask = e.Task
	*m.formNote = e.Note
	*m.formDate = e.StartTime.Local().Format(dateLayout)
	*m.formStart = e.StartTime.Local().Format(clockLayout)
	*m.formEnd = end.Local().Format(clockLayout)
	m.formType = "edit"
	m.editingID = e.ID
	m.form = m.buildForm()
	m.formActive = true
	return m, m.form.Init()
}

func (m entriesModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Project").Options(projectOptions(m.data)...).Value(m.formProject),
			huh.NewInput().Title("Task").Value(m.formTask),
			huh.NewInput().Title("Note").Value(m.formNote),
		),
		huh.NewGroup(
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(m.formDate).Validate(validateDate),
			huh.NewInput().Title("Start (HH:MM)").Value(m.formStart).Validate(validateClock),
			huh.NewInput().Title("End (HH:MM)").Value(m.formEnd).Validate(validateClock),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (m entriesModel) updateForm(msg tea.Msg) (entriesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.form = nil
		start, end, err := parseSpan(*m.formDate, *m.formStart, *m.formEnd)
		if err != nil {
			return m, errorCmd("Invalid time", err)
		}
		projectID := optionalID(*m.formProject)
		if m.formType == "edit" {
			return m, m.editEntry(m.editingID, entry.EditParams{
				ProjectID: projectID, Task: *m.formTask, Note: *m.formNote, Start: start, End: end,
			})
		}
		return m, m.logEntry(entry.ManualParams{
			ProjectID: projectID, Task: *m.formTask, Note: *m.formNote, Start: start, End: end,
		})
	}
	return m, cmd
}

func (m entriesModel) logEntry(p entry.ManualParams) tea.Cmd {
	svc := m.tracker
	return m.gate.run(func() statusMsg {
		e, err := svc.ManualLog(p)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Log failed: %v", err), isError: true}
		}
		return statusMsg{text: "Logged " + formatMinutes(e.TotalMinutes)}
	})
}

func (m entriesModel) editEntry(id string, p entry.EditParams) tea.Cmd {
	svc := m.tracker
	return m.gate.run(func() statusMsg {
		if _, err := svc.Edit(id, p); err != nil {
			return statusMsg{text: fmt.Sprintf("Edit failed: %v", err), isError: true}
		}
		return statusMsg{text: "Entry updated"}
	})
}

func (m entriesModel) deleteEntry(id string) tea.Cmd {
	svc := m.tracker
	return m.gate.run(func() statusMsg {
		if err := svc.Delete(id); err != nil {
			return statusMsg{text: fmt.Sprintf("Delete failed: %v", err), isError: true}
		}
		return statusMsg{text: "Entry deleted"}
	})
}

func (m entriesModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Log Time")
		if m.formType == "edit" {
			title = titleStyle.Render("Edit Entry")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	title := titleStyle.Render("Entries")
	if len(m.data.entries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No entries yet. Press n to log time."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-12s %-13s %-16s %-20s %10s",
		"", "Date", "Time", "Project", "Task", "Worked")))

	// Keep the cursor on screen.
	visible := max(1, m.height-10)
	first := 0
	if m.cursor >= visible {
		first = m.cursor - visible + 1
	}
	last := min(len(m.data.entries), first+visible)

	for i := first; i < last; i++ {
		e := m.data.entries[i]
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		span := e.StartTime.Local().Format(clockLayout) + "-"
		if e.EndTime != nil {
			span += e.EndTime.Local().Format(clockLayout)
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-12s %-13s %-16s %-20s %10s",
			cursor, statusIcon(e), e.StartTime.Local().Format(dateLayout), span,
			truncate(m.data.projectName(e.ProjectID), 16), truncate(e.Task, 20), entryDuration(e, m.data.now))))
	}

	rows = append(rows, "")
	if m.confirmDelete {
		rows = append(rows, warningStyle.Render("  Delete this entry? y: confirm  any key: cancel"))
	} else {
		rows = append(rows, mutedStyle.Render("  n: log time  e: edit  d: delete"))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// --- shared entry helpers ---

func statusIcon(e entry.TimeEntry) string {
	switch e.Status {
	case entry.StatusActive:
		return "●"
	case entry.StatusOnBreak:
		return "⏸"
	}
	return "✓"
}

func entryDuration(e entry.TimeEntry, now time.Time) string {
	mins := entry.DisplayMinutes(e, now)
	if e.Running() {
		return formatMinutes(mins) + "+"
	}
	return formatMinutes(mins)
}

func projectOptions(data viewData) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption(entry.GeneralProject, "")}
	for _, p := range data.activeProjects() {
		opts = append(opts, huh.NewOption(p.Name, p.ID))
	}
	return opts
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func validateDate(s string) error {
	if _, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func validateClock(s string) error {
	if _, err := time.ParseInLocation(clockLayout, strings.TrimSpace(s), time.Local); err != nil {
		return errors.New("use HH:MM")
	}
	return nil
}

// parseSpan combines a date with start and end clock times in local time.
// An end earlier than the start is left for the engine to reject.
func parseSpan(date, start, end string) (time.Time, time.Time, error) {
	parse := func(hm string) (time.Time, error) {
		return time.ParseInLocation(dateLayout+" "+clockLayout,
			strings.TrimSpace(date)+" "+strings.TrimSpace(hm), time.Local)
	}
	s, err := parse(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := parse(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}
