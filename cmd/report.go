package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/shiftclock/internal/report"
	"github.com/sadopc/shiftclock/internal/store"
)

func newReportCmd(o *rootOptions) *cobra.Command {
	var days int
	c := &cobra.Command{
		Use:   "report",
		Short: "Show worked hours and earnings for the last N days",
		Args:  cobra.NoArgs,
	}
	c.Flags().IntVar(&days, "days", 7, "Number of days ending today")
	c.RunE = o.run(false, func(cmd *cobra.Command, e *env) error {
		if days < 1 {
			return fmt.Errorf("--days must be at least 1, got %d", days)
		}
		entries, err := e.store.ListEntries(e.owner(), store.EntryFilter{})
		if err != nil {
			return err
		}
		prof, err := e.store.GetProfile(e.owner())
		if err != nil {
			return err
		}

		points := report.LastNDays(entries, e.clock.Now(), days, prof.HourlyRate)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-12s%-10s%s\n", "Day", "Hours", "Earnings")
		fmt.Fprintln(out, "--------------------------------")
		for _, p := range points {
			fmt.Fprintf(out, "%-12s%-10s%s\n", p.Key, formatMinutes(p.Minutes), prof.FormatMoney(p.Earnings))
		}
		sum := report.Totals(points)
		fmt.Fprintln(out, "--------------------------------")
		fmt.Fprintf(out, "%-12s%-10s%s\n", "Total", formatMinutes(sum.Minutes), prof.FormatMoney(sum.Earnings))
		fmt.Fprintf(out, "%d active day(s), %.1fh\n", sum.ActiveDays, sum.Hours)
		return nil
	})
	return c
}

func newWeeksCmd(o *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "weeks",
		Short: "List work weeks (Monday to Saturday) with totals",
		Args:  cobra.NoArgs,
	}
	c.RunE = o.run(false, func(cmd *cobra.Command, e *env) error {
		entries, err := e.store.ListEntries(e.owner(), store.EntryFilter{})
		if err != nil {
			return err
		}
		prof, err := e.store.GetProfile(e.owner())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		weeks := report.Weeks(entries, e.clock.Now())
		if len(weeks) == 0 {
			fmt.Fprintln(out, "No entries yet.")
			return nil
		}
		for _, w := range weeks {
			fmt.Fprintf(out, "%-26s%3d session(s)  %-8s%s\n",
				w.Label(), len(w.Entries), formatMinutes(w.Minutes), prof.FormatMoney(prof.Earnings(w.Minutes)))
		}
		return nil
	})
	return c
}

// formatMinutes renders minutes as H:MM.
func formatMinutes(m int64) string {
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}
