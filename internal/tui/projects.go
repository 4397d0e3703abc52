package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/store"
)

var projectColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

// projectStore is the slice of the store the projects view writes through.
type projectStore interface {
	CreateProject(owner, name, color string) (*store.Project, error)
	UpdateProject(id, name, color string) error
	ArchiveProject(id string) error
	DeleteProject(id string) error
}

type projectsModel struct {
	store  projectStore
	owner  string
	data   viewData
	width  int
	height int

	cursor        int
	confirmDelete bool

	formActive bool
	form       *huh.Form
	formType   string // "project", "edit_project"

	// Form field pointers (survive value copies)
	formName  *string
	formColor *string

	editingID string
}

func newProjectsModel(s projectStore, owner string) projectsModel {
	name, color := "", projectColors[0]
	return projectsModel{
		store:     s,
		owner:     owner,
		formName:  &name,
		formColor: &color,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *projectsModel) setData(data viewData) {
	p.data = data
	if n := len(p.visible()); p.cursor >= n {
		p.cursor = max(0, n-1)
	}
}

func (p projectsModel) visible() []store.Project {
	return p.data.activeProjects()
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	msg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	projects := p.visible()

	if p.confirmDelete {
		p.confirmDelete = false
		if key.Matches(msg, keys.Confirm) && p.cursor < len(projects) {
			return p, p.deleteProject(projects[p.cursor].ID)
		}
		return p, nil
	}

	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(projects)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.New):
		return p.showNewProjectForm()
	case key.Matches(msg, keys.Edit):
		if len(projects) > 0 {
			return p.showEditProjectForm(projects[p.cursor])
		}
	case key.Matches(msg, keys.Archive):
		if len(projects) > 0 {
			return p, p.archiveProject(projects[p.cursor].ID)
		}
	case key.Matches(msg, keys.Delete):
		if len(projects) > 0 {
			p.confirmDelete = true
		}
	}
	return p, nil
}

func colorOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(projectColors))
	for i, c := range projectColors {
		opts[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}
	return opts
}

func (p projectsModel) showNewProjectForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	*p.formColor = projectColors[0]
	p.formType = "project"
	return p.openForm()
}

func (p projectsModel) showEditProjectForm(proj store.Project) (projectsModel, tea.Cmd) {
	*p.formName = proj.Name
	*p.formColor = proj.Color
	p.formType = "edit_project"
	p.editingID = proj.ID
	return p.openForm()
}

func (p projectsModel) openForm() (projectsModel, tea.Cmd) {
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}),
			huh.NewSelect[string]().Title("Color").Options(colorOptions()...).Value(p.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		name, color := strings.TrimSpace(*p.formName), *p.formColor
		if p.formType == "edit_project" {
			return p, p.updateProject(p.editingID, name, color)
		}
		return p, p.createProject(name, color)
	}

	return p, cmd
}

func (p projectsModel) createProject(name, color string) tea.Cmd {
	s, owner := p.store, p.owner
	return func() tea.Msg {
		if _, err := s.CreateProject(owner, name, color); err != nil {
			return statusMsg{text: fmt.Sprintf("Create failed: %v", err), isError: true}
		}
		return statusMsg{text: "Project " + name + " created"}
	}
}

func (p projectsModel) updateProject(id, name, color string) tea.Cmd {
	s := p.store
	return func() tea.Msg {
		if err := s.UpdateProject(id, name, color); err != nil {
			return statusMsg{text: fmt.Sprintf("Update failed: %v", err), isError: true}
		}
		return statusMsg{text: "Project updated"}
	}
}

func (p projectsModel) archiveProject(id string) tea.Cmd {
	s := p.store
	return func() tea.Msg {
		if err := s.ArchiveProject(id); err != nil {
			return statusMsg{text: fmt.Sprintf("Archive failed: %v", err), isError: true}
		}
		return statusMsg{text: "Project archived"}
	}
}

func (p projectsModel) deleteProject(id string) tea.Cmd {
	s := p.store
	return func() tea.Msg {
		if err := s.DeleteProject(id); err != nil {
			return statusMsg{text: fmt.Sprintf("Delete failed: %v", err), isError: true}
		}
		return statusMsg{text: "Project deleted, its entries moved to " + entry.GeneralProject}
	}
}

func (p projectsModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		if p.formType == "edit_project" {
			title = titleStyle.Render("Edit Project")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Projects")
	projects := p.visible()

	if len(projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
			mutedStyle.Render("Entries without a project are tracked under "+entry.GeneralProject+"."),
		)
		return panelStyle.Width(w).Render(content)
	}

	// Minutes per project across all entries.
	totals := make(map[string]int64)
	for _, e := range p.data.entries {
		if e.ProjectID != nil {
			totals[*e.ProjectID] += entry.DisplayMinutes(e, p.data.now)
		}
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-24s %10s", "", "Name", "Tracked"))
	rows = append(rows, header)

	for i, proj := range projects {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(proj.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%s %-24s %10s", cursor, colorDot, proj.Name, formatMinutes(totals[proj.ID])))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	if p.confirmDelete {
		rows = append(rows, warningStyle.Render("  Delete this project? y: confirm  any key: cancel"))
	} else {
		rows = append(rows, mutedStyle.Render("  n: new  e: edit  a: archive  d: delete"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
