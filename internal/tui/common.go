package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/profile"
	"github.com/sadopc/shiftclock/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewEntries
	viewProjects
	viewReports
	viewCalendar
	viewSettings
)

var viewNames = []string{"Dashboard", "Entries", "Projects", "Reports", "Calendar", "Settings"}

// viewData is the latest snapshot every view renders from.
type viewData struct {
	entries  []entry.TimeEntry
	projects []store.Project
	names    map[string]string
	profile  profile.Profile
	now      time.Time
}

func (d viewData) projectName(id *string) string {
	if id == nil {
		return entry.GeneralProject
	}
	if name, ok := d.names[*id]; ok {
		return name
	}
	return "?"
}

func (d viewData) projectColor(id *string) string {
	if id != nil {
		for _, p := range d.projects {
			if p.ID == *id {
				return p.Color
			}
		}
	}
	return string(colorMuted)
}

// activeProjects excludes archived projects.
func (d viewData) activeProjects() []store.Project {
	var out []store.Project
	for _, p := range d.projects {
		if !p.Archived {
			out = append(out, p)
		}
	}
	return out
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
	settled bool // result of a gated entry write
}

type tickMsg time.Time

type idleTickMsg time.Time

type exportDoneMsg struct {
	path string
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(prefix string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
	}
}

const busyText = "Still saving the last change"

// writeGate lets one entry write run at a time. Views share a pointer to it
// so a transition is always applied to the snapshot the previous one left.
// It is only touched from the Update loop.
type writeGate struct {
	busy bool
}

// run wraps write in a command, or refuses with a status while another
// write has not settled.
func (g *writeGate) run(write func() statusMsg) tea.Cmd {
	if g.busy {
		return statusCmd(busyText)
	}
	g.busy = true
	return func() tea.Msg {
		msg := write()
		msg.settled = true
		return msg
	}
}

func (g *writeGate) settle() { g.busy = false }

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatMinutes(mins int64) string {
	if mins < 0 {
		mins = 0
	}
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

func formatHours(mins int64) string {
	return fmt.Sprintf("%.1fh", float64(mins)/60)
}
