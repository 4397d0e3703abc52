// Package calendar lays out a month as a Monday-first grid of seven columns.
package calendar

import "time"

// Cell is one grid slot. Blank cells pad the grid before day 1 and after
// the last day of the month.
type Cell struct {
	Date time.Time
}

func (c Cell) Blank() bool { return c.Date.IsZero() }

func (c Cell) Day() int {
	if c.Blank() {
		return 0
	}
	return c.Date.Day()
}

// Grid returns the cells of month in year, padded to whole weeks.
func Grid(year int, month time.Month) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	offset := (int(first.Weekday()) + 6) % 7
	days := DaysIn(year, month)
	total := (offset + days + 6) / 7 * 7

	cells := make([]Cell, total)
	for d := 1; d <= days; d++ {
		cells[offset+d-1] = Cell{Date: time.Date(year, month, d, 0, 0, 0, 0, time.Local)}
	}
	return cells
}

// GridIndex accepts a zero-based month index (0 = January).
func GridIndex(year, monthIndex int) []Cell {
	first := time.Date(year, time.Month(monthIndex+1), 1, 0, 0, 0, 0, time.Local)
	return Grid(first.Year(), first.Month())
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// Rows splits a grid into weeks of seven cells.
func Rows(cells []Cell) [][]Cell {
	var rows [][]Cell
	for i := 0; i+7 <= len(cells); i += 7 {
		rows = append(rows, cells[i:i+7])
	}
	return rows
}

// Weekdays are the column headers, Monday first.
var Weekdays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
