// Package cli is the slotd command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/slotd/internal/config"
	"github.com/sandeepkv93/slotd/internal/integrations"
	"github.com/sandeepkv93/slotd/internal/logging"
	"github.com/sandeepkv93/slotd/internal/planner"
	"github.com/sandeepkv93/slotd/internal/storage"
)

const defaultConfigPath = "slotd.yaml"

// Options replaces process globals. Zero fields fall back to os.Std* and
// the wall clock.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Now    func() time.Time
	NewID  func() string
}

type rootFlags struct {
	configPath string
	dbPath     string
	timezone   string
	logLevel   string
}

// app holds what one invocation opens. Every subcommand runs inside
// session, which opens it and closes it again.
type app struct {
	opts  Options
	flags rootFlags

	cfg     config.Config
	log     zerolog.Logger
	svc     *planner.Service
	closers []io.Closer
}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	a := &app{opts: opts, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "slotd",
		Short: "slotd - a personal calendar scheduler",
		Long: `slotd keeps a personal calendar in SQLite, finds free slots, flags
overlapping events, suggests reschedules and reports how time was spent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.SetIn(opts.Stdin)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", defaultConfigPath, "YAML config file (env SLOTD_CONFIG)")
	pf.StringVar(&a.flags.dbPath, "db", "", "SQLite database path")
	pf.StringVar(&a.flags.timezone, "tz", "", "IANA timezone for dates and slots")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		a.newAddCommand(),
		a.newListCommand(),
		a.newUpdateCommand(),
		a.newDeleteCommand(),
		a.newSlotsCommand(),
		a.newBestCommand(),
		a.newConflictsCommand(),
		a.newAnalyzeCommand(),
		a.newRescheduleCommand(),
		a.newExportCommand(),
		a.newImportCommand(),
		a.newSyncCommand(),
		a.newTUICommand(),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand(Options{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

type runFunc func(cmd *cobra.Command, args []string) error

// session wraps a RunE so the service is open while fn runs. Interactive
// sessions log to the configured file instead of stderr.
func (a *app) session(interactive bool, fn runFunc) runFunc {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd, interactive); err != nil {
			a.close()
			return err
		}
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *app) open(cmd *cobra.Command, interactive bool) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if interactive {
		logger, closer, err := logging.File(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return err
		}
		a.log = logger
		a.closers = append(a.closers, closer)
	} else {
		logger, err := logging.Console(cmd.ErrOrStderr(), cfg.LogLevel)
		if err != nil {
			return err
		}
		a.log = logger
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	store, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, store)

	svc, err := planner.New(planner.Options{
		Location:        loc,
		Window:          cfg.SlotWindow(),
		SearchDays:      cfg.RescheduleSearchDays,
		MaxAlternatives: cfg.RescheduleAlternatives,
		Now:             a.opts.Now,
		NewID:           a.opts.NewID,
		Store:           store,
		Logger:          &a.log,
	})
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := svc.Load(ctx); err != nil {
		a.log.Warn().Err(err).Msg("some stored rows were skipped")
	}

	if dir := strings.TrimSpace(cfg.ICSSyncPath); dir != "" {
		ics := integrations.NewICSFile(filepath.Join(dir, "slotd.ics"), filepath.Join(dir, "inbox.ics"), loc)
		if err := svc.RegisterIntegration(ics); err != nil {
			return err
		}
		if err := svc.Connect(ctx, ics.Name()); err != nil {
			return err
		}
	}
	a.svc = svc
	a.log.Debug().Str("db", cfg.DatabasePath).Str("tz", loc.String()).Msg("session opened")
	return nil
}

func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.svc = nil
	if err := errors.Join(errs...); err != nil {
		a.log.Error().Err(err).Msg("close failed")
	}
}

// loadConfig layers defaults, the YAML file, SLOTD_* env and flags.
func (a *app) loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path := a.flags.configPath
	if !flags.Changed("config") {
		if v := strings.TrimSpace(os.Getenv("SLOTD_CONFIG")); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg = config.FromEnv(cfg)
	if flags.Changed("db") {
		cfg.DatabasePath = a.flags.dbPath
	}
	if flags.Changed("tz") {
		cfg.Timezone = a.flags.timezone
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
