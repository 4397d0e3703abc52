package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/shiftclock/internal/report"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

const (
	reportDays  = 7
	reportWeeks = 6
)

type reportsModel struct {
	data   viewData
	width  int
	height int

	mode   reportMode
	offset int // 7-day blocks or week pages back from today (0 = current)

	points []report.Point
	weeks  []report.WeekBucket
	chart  barchart.Model
}

func newReportsModel() reportsModel {
	return reportsModel{
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.rebuild()
}

func (r *reportsModel) setData(data viewData) {
	r.data = data
	r.rebuild()
}

func (r *reportsModel) rebuild() {
	if r.data.now.IsZero() {
		return
	}
	end := r.data.now.AddDate(0, 0, -reportDays*r.offset)
	r.points = report.LastNDays(r.data.entries, end, reportDays, r.data.profile.HourlyRate)

	all := report.Weeks(r.data.entries, r.data.now)
	// Newest first, one page at a time.
	hi := len(all) - reportWeeks*r.offset
	lo := max(0, hi-reportWeeks)
	r.weeks = nil
	for i := hi - 1; i >= lo; i-- {
		r.weeks = append(r.weeks, all[i])
	}
	r.buildChart()
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	msg, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch {
	case key.Matches(msg, keys.Left):
		r.offset++
		r.rebuild()
	case key.Matches(msg, keys.Right):
		if r.offset > 0 {
			r.offset--
		}
		r.rebuild()
	case key.Matches(msg, keys.Enter):
		if r.mode == reportDaily {
			r.mode = reportWeekly
		} else {
			r.mode = reportDaily
		}
		r.offset = 0
		r.rebuild()
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, p := range r.points {
		style := lipgloss.NewStyle().Foreground(colorSecondary)
		if p.Minutes == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label:  p.Day.Format("Mon 02"),
			Values: []barchart.BarValue{{Name: "hours", Value: p.Hours, Style: style}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	// Mode tabs
	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	var body []string
	if r.mode == reportDaily {
		var dateLabel string
		if len(r.points) > 0 {
			dateLabel = mutedStyle.Render(fmt.Sprintf("%s to %s",
				r.points[0].Day.Format("Jan 02"), r.points[len(r.points)-1].Day.Format("Jan 02, 2006")))
		}
		header := lipgloss.JoinHorizontal(lipgloss.Bottom,
			titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
		)
		body = append(body, header, "", r.chart.View(), "", r.renderDailyTable(w))
	} else {
		header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Reports"), "  ", modeTabs)
		body = append(body, header, "", r.renderWeeklyTable(w))
	}

	nav := mutedStyle.Render("  ←/→: navigate  enter: switch mode")
	body = append(body, "", nav)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

func (r reportsModel) renderDailyTable(w int) string {
	prof := r.data.profile
	sum := report.Totals(r.points)
	if sum.Minutes == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %8s %16s", "Date", "Worked", "Hours", "Earnings")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 50))))

	for _, p := range r.points {
		rows = append(rows, fmt.Sprintf("  %-12s %10s %8.2f %16s",
			p.Day.Format("Mon Jan 02"), formatMinutes(p.Minutes), p.Hours, prof.FormatMoney(p.Earnings)))
	}
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 50))))
	rows = append(rows, highlightStyle.Render(fmt.Sprintf("  %-12s %10s %8.2f %16s",
		fmt.Sprintf("%d days", sum.ActiveDays), formatMinutes(sum.Minutes), sum.Hours, prof.FormatMoney(sum.Earnings))))

	return strings.Join(rows, "\n")
}

func (r reportsModel) renderWeeklyTable(w int) string {
	if len(r.weeks) == 0 {
		return mutedStyle.Render("  No work weeks for this period")
	}
	prof := r.data.profile

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-26s %8s %10s %16s", "Week", "Sessions", "Worked", "Earnings")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 64))))
	for _, wk := range r.weeks {
		rows = append(rows, fmt.Sprintf("  %-26s %8d %10s %16s",
			wk.Label(), len(wk.Entries), formatMinutes(wk.Minutes), prof.FormatMoney(prof.Earnings(wk.Minutes))))
	}
	return strings.Join(rows, "\n")
}
