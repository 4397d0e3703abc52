package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/shiftclock/internal/entry"
)

const clockLayout = "15:04"

type logOptions struct {
	date    string
	start   string
	end     string
	task    string
	note    string
	project string
}

func newLogCmd(o *rootOptions) *cobra.Command {
	opts := &logOptions{}
	c := &cobra.Command{
		Use:   "log",
		Short: "Record a finished session manually",
		Example: `  shiftclock log --start 09:00 --end 17:30 --task "Quarterly report"
  shiftclock log --date 2024-03-04 --start 13:00 --end 15:00 --project Acme`,
		Args: cobra.NoArgs,
	}
	c.Flags().StringVar(&opts.date, "date", "", "Day of the session (YYYY-MM-DD, default today)")
	c.Flags().StringVar(&opts.start, "start", "", "Start time (HH:MM)")
	c.Flags().StringVar(&opts.end, "end", "", "End time (HH:MM)")
	c.Flags().StringVar(&opts.task, "task", "", "Task description")
	c.Flags().StringVar(&opts.note, "note", "", "Free-form note")
	c.Flags().StringVar(&opts.project, "project", "", "Project name (default: General)")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	c.RunE = o.run(false, func(cmd *cobra.Command, e *env) error {
		return runLog(cmd, e, opts)
	})
	return c
}

func runLog(cmd *cobra.Command, e *env, opts *logOptions) error {
	day := e.clock.Now().Format(dateLayout)
	if opts.date != "" {
		day = opts.date
	}
	start, err := time.ParseInLocation(dateLayout+" "+clockLayout, day+" "+opts.start, time.Local)
	if err != nil {
		return fmt.Errorf("invalid --start %q on %s: use YYYY-MM-DD and HH:MM", opts.start, day)
	}
	end, err := time.ParseInLocation(dateLayout+" "+clockLayout, day+" "+opts.end, time.Local)
	if err != nil {
		return fmt.Errorf("invalid --end %q on %s: use YYYY-MM-DD and HH:MM", opts.end, day)
	}

	projectID, err := resolveProject(e, opts.project)
	if err != nil {
		return err
	}

	created, err := e.tracker.ManualLog(entry.ManualParams{
		ProjectID: projectID,
		Task:      opts.task,
		Note:      opts.note,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged %s on %s (%s)\n", formatMinutes(created.TotalMinutes), day, created.ID)
	return nil
}

// resolveProject maps a project name to its id. Empty or "General" means no project.
func resolveProject(e *env, name string) (*string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, entry.GeneralProject) {
		return nil, nil
	}
	projects, err := e.store.ListProjects(e.owner(), false)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			id := p.ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown project %q", entry.ErrValidation, name)
}
