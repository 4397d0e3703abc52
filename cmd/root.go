package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/shiftclock/internal/clock"
	"github.com/sadopc/shiftclock/internal/config"
	"github.com/sadopc/shiftclock/internal/logger"
	"github.com/sadopc/shiftclock/internal/store"
	"github.com/sadopc/shiftclock/internal/tracker"
	"github.com/sadopc/shiftclock/internal/tui"
)

// Execute is the entry point called from main.
func Execute() {
	if err := newRootCmd(clock.Real{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	clock      clock.Clock
	configPath string
}

func newRootCmd(c clock.Clock) *cobra.Command {
	o := &rootOptions{clock: c}

	root := &cobra.Command{
		Use:   "shiftclock",
		Short: "Track worked hours with breaks, reports and exports",
		Long: `shiftclock tracks worked time per session. Breaks are excluded from
worked time; reports roll sessions up by day and by Monday-to-Saturday work week.

Run without a subcommand to open the dashboard.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          o.run(true, runTUI),
	}
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (default $"+config.PathEnv+" or ~/.config/shiftclock/config.yaml)")

	root.AddCommand(newReportCmd(o))
	root.AddCommand(newWeeksCmd(o))
	root.AddCommand(newCalendarCmd(o))
	root.AddCommand(newExportCmd(o))
	root.AddCommand(newLogCmd(o))
	return root
}

// env is everything a command needs, opened from config for one invocation.
type env struct {
	cfg     config.Config
	clock   clock.Clock
	store   *store.Store
	tracker *tracker.Service
	logger  *slog.Logger

	closeLog func() error
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error("close store", "error", err)
	}
	if err := e.closeLog(); err != nil {
		fmt.Fprintln(os.Stderr, "close log:", err)
	}
}

func (e *env) owner() string { return e.cfg.User.ID }

// run opens the environment around fn. Interactive commands never log to
// stderr: without a configured log path they log next to the database.
func (o *rootOptions) run(interactive bool, fn func(cmd *cobra.Command, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		e, err := o.open(cmd.ErrOrStderr(), interactive)
		if err != nil {
			return err
		}
		defer e.close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logger.WithLogger(ctx, e.logger))
		return fn(cmd, e)
	}
}

func (o *rootOptions) open(stderr io.Writer, interactive bool) (*env, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath, ".env")
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dbPath := cfg.DB.Path
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}

	logPath := cfg.Log.Path
	if logPath == "" && interactive {
		logPath = filepath.Join(filepath.Dir(dbPath), "shiftclock.log")
	}
	l, closeLog, err := logger.New(cfg.Log.Level, logPath, stderr)
	if err != nil {
		return nil, err
	}

	s, err := store.New(dbPath, store.WithLogger(l))
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &env{
		cfg:      cfg,
		clock:    o.clock,
		store:    s,
		tracker:  tracker.NewService(s, o.clock, cfg.User.ID, l),
		logger:   l,
		closeLog: closeLog,
	}, nil
}

func runTUI(cmd *cobra.Command, e *env) error {
	app, err := tui.NewApp(tui.Deps{
		Store:    e.store,
		Tracker:  e.tracker,
		Clock:    e.clock,
		Logger:   e.logger,
		IdlePoll: time.Duration(e.cfg.Idle.PollSeconds) * time.Second,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	logger.FromContext(cmd.Context()).Info("dashboard started", "owner", e.owner())
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
