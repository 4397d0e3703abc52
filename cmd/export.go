package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/shiftclock/internal/export"
	"github.com/sadopc/shiftclock/internal/report"
	"github.com/sadopc/shiftclock/internal/store"
)

const dateLayout = "2006-01-02"

type exportOptions struct {
	format string
	from   string
	to     string
	fields string
	out    string
}

func newExportCmd(o *rootOptions) *cobra.Command {
	opts := &exportOptions{}
	c := &cobra.Command{
		Use:   "export",
		Short: "Export entries grouped by work week",
		Long: `Export entries grouped by Monday-to-Saturday work week, with a total row
per week. Fields: date, timeIn, timeOut, duration, project, task, status,
earnings, note (or "all").`,
		Args: cobra.NoArgs,
	}
	c.Flags().StringVar(&opts.format, "format", "csv", "Output format: csv, json")
	c.Flags().StringVar(&opts.from, "from", "", "First day to include (YYYY-MM-DD)")
	c.Flags().StringVar(&opts.to, "to", "", "Last day to include (YYYY-MM-DD)")
	c.Flags().StringVar(&opts.fields, "fields", "all", "Comma-separated fields to include")
	c.Flags().StringVarP(&opts.out, "out", "o", "", "Write to file instead of stdout")
	c.RunE = o.run(false, func(cmd *cobra.Command, e *env) error {
		return runExport(cmd, e, opts)
	})
	return c
}

func runExport(cmd *cobra.Command, e *env, opts *exportOptions) error {
	format := strings.ToLower(opts.format)
	if format != "csv" && format != "json" {
		return fmt.Errorf("unknown --format %q, use csv or json", opts.format)
	}
	fields, err := export.ParseFields(opts.fields)
	if err != nil {
		return err
	}

	entries, err := e.store.ListEntries(e.owner(), store.EntryFilter{})
	if err != nil {
		return err
	}
	if opts.from != "" || opts.to != "" {
		from, to, err := parseRange(opts.from, opts.to)
		if err != nil {
			return err
		}
		entries = report.InRange(entries, from, to)
	}

	prof, err := e.store.GetProfile(e.owner())
	if err != nil {
		return err
	}
	names, err := e.store.ProjectNames(e.owner())
	if err != nil {
		return err
	}

	now := e.clock.Now()
	p := export.Projector{Projects: names, Profile: prof, Now: now}
	table, err := export.WeeklyRows(report.Weeks(entries, now), fields, p)
	if err != nil {
		if export.IsNoData(err) {
			return fmt.Errorf("nothing to export in the selected range: %w", err)
		}
		return err
	}

	if opts.out != "" {
		if format == "json" {
			err = export.ToJSON(table, p, opts.out)
		} else {
			err = export.ToCSV(table, p, opts.out)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d week(s) to %s\n", len(table.Weeks), opts.out)
		return nil
	}

	if format == "json" {
		return export.WriteJSON(cmd.OutOrStdout(), table, p)
	}
	return export.WriteCSV(cmd.OutOrStdout(), table, p)
}

// parseRange reads optional inclusive day bounds. A missing bound is open.
func parseRange(from, to string) (time.Time, time.Time, error) {
	lo := time.Date(1970, 1, 1, 0, 0, 0, 0, time.Local)
	hi := time.Date(9999, 12, 31, 0, 0, 0, 0, time.Local)
	var err error
	if from != "" {
		if lo, err = time.ParseInLocation(dateLayout, from, time.Local); err != nil {
			return lo, hi, fmt.Errorf("invalid --from %q, use YYYY-MM-DD", from)
		}
	}
	if to != "" {
		if hi, err = time.ParseInLocation(dateLayout, to, time.Local); err != nil {
			return lo, hi, fmt.Errorf("invalid --to %q, use YYYY-MM-DD", to)
		}
	}
	if hi.Before(lo) {
		return lo, hi, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return lo, hi, nil
}
