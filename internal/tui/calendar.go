package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/shiftclock/internal/calendar"
	"github.com/sadopc/shiftclock/internal/report"
)

const calendarCellWidth = 9

type calendarModel struct {
	data   viewData
	width  int
	height int

	// month is the first day of the displayed month; zero until data arrives.
	month time.Time
}

func newCalendarModel() calendarModel {
	return calendarModel{}
}

func (c *calendarModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c *calendarModel) setData(data viewData) {
	c.data = data
	if c.month.IsZero() && !data.now.IsZero() {
		c.month = firstOfMonth(data.now)
	}
}

func firstOfMonth(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
}

func (c calendarModel) update(msg tea.Msg) (calendarModel, tea.Cmd) {
	msg, ok := msg.(tea.KeyMsg)
	if !ok || c.month.IsZero() {
		return c, nil
	}
	switch {
	case key.Matches(msg, keys.Left):
		c.month = c.month.AddDate(0, -1, 0)
	case key.Matches(msg, keys.Right):
		c.month = c.month.AddDate(0, 1, 0)
	case key.Matches(msg, keys.Enter):
		c.month = firstOfMonth(c.data.now)
	}
	return c, nil
}

func (c calendarModel) view() string {
	w := c.width - 4
	if c.month.IsZero() {
		return panelStyle.Width(w).Render("Loading...")
	}

	days := report.Daily(c.data.entries, c.data.now)
	today := report.DayKey(c.data.now)

	title := titleStyle.Render(c.month.Format("January 2006"))

	var header []string
	for _, wd := range calendar.Weekdays {
		header = append(header, calendarHeaderStyle.Width(calendarCellWidth).Render(wd))
	}

	rows := []string{title, "", lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	var monthMinutes int64
	var workedDays int
	for _, week := range calendar.Rows(calendar.Grid(c.month.Year(), c.month.Month())) {
		var cells []string
		for _, cell := range week {
			cells = append(cells, c.renderCell(cell, days, today))
			if !cell.Blank() {
				if b, ok := days[report.DayKey(cell.Date)]; ok {
					monthMinutes += b.Minutes
					workedDays++
				}
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	prof := c.data.profile
	rows = append(rows, "",
		highlightStyle.Render(fmt.Sprintf("  %s over %d days, %s",
			formatMinutes(monthMinutes), workedDays, prof.FormatMoney(prof.Earnings(monthMinutes)))),
		"",
		mutedStyle.Render("  ←/→: month  enter: today"),
	)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (c calendarModel) renderCell(cell calendar.Cell, days map[string]report.DayBucket, today string) string {
	style := calendarCellStyle.Width(calendarCellWidth)
	if cell.Blank() {
		return style.Render("\n")
	}

	dayKey := report.DayKey(cell.Date)
	worked := ""
	if b, ok := days[dayKey]; ok && b.Minutes > 0 {
		worked = formatHours(b.Minutes)
		style = style.Foreground(colorSuccess)
	}
	if dayKey == today {
		style = style.Bold(true).Foreground(colorPrimary)
	}
	return style.Render(fmt.Sprintf("%2d\n%s", cell.Day(), worked))
}
