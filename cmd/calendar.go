package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/shiftclock/internal/calendar"
	"github.com/sadopc/shiftclock/internal/report"
	"github.com/sadopc/shiftclock/internal/store"
)

const monthLayout = "2006-01"

func newCalendarCmd(o *rootOptions) *cobra.Command {
	var month string
	c := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month grid with worked hours per day",
		Args:  cobra.NoArgs,
	}
	c.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: current month)")
	c.RunE = o.run(false, func(cmd *cobra.Command, e *env) error {
		first := e.clock.Now()
		if month != "" {
			t, err := time.ParseInLocation(monthLayout, month, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --month %q, use YYYY-MM", month)
			}
			first = t
		}

		from := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.Local)
		to := from.AddDate(0, 1, 0)
		entries, err := e.store.ListEntries(e.owner(), store.EntryFilter{From: &from, To: &to})
		if err != nil {
			return err
		}
		days := report.Daily(entries, e.clock.Now())

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, from.Format("January 2006"))
		var header []string
		for _, d := range calendar.Weekdays {
			header = append(header, fmt.Sprintf("%-9s", d))
		}
		fmt.Fprintln(out, strings.TrimRight(strings.Join(header, ""), " "))

		var total int64
		for _, row := range calendar.Rows(calendar.Grid(from.Year(), from.Month())) {
			var line []string
			for _, cell := range row {
				line = append(line, fmt.Sprintf("%-9s", renderDay(cell, days)))
			}
			fmt.Fprintln(out, strings.TrimRight(strings.Join(line, ""), " "))
		}
		for _, b := range days {
			total += b.Minutes
		}
		fmt.Fprintf(out, "Total %s across %d day(s)\n", formatMinutes(total), len(days))
		return nil
	})
	return c
}

// renderDay prints the day number and, when worked, its hours, e.g. "4 7:30".
func renderDay(cell calendar.Cell, days map[string]report.DayBucket) string {
	if cell.Blank() {
		return ""
	}
	b, ok := days[report.DayKey(cell.Date)]
	if !ok || b.Minutes == 0 {
		return fmt.Sprintf("%d", cell.Day())
	}
	return fmt.Sprintf("%d %s", cell.Day(), formatMinutes(b.Minutes))
}
