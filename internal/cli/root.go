package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/journey/internal/analytics"
	"github.com/roach88/journey/internal/config"
	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/store"
	"github.com/roach88/journey/internal/tracker"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string

	// Config is resolved before any subcommand runs. Tests set it to skip
	// reading the environment.
	Config *config.Config

	// Clock and IDs override the wall clock and UUIDv7 identifiers (for testing).
	Clock journey.Clock
	IDs   journey.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the journey CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journey",
		Short: "Customer journey analytics",
		Long: `Track customer sessions and touchpoints against an ordered conversion
funnel, then analyse stage conversion, common paths, dropoffs, channel
attribution, lifetime value segments and activity heatmaps.

Settings come from the environment (JOURNEY_DB, JOURNEY_FORMAT,
JOURNEY_LOG_LEVEL, JOURNEY_PATH_LIMIT, JOURNEY_LTV_BUCKETS) or a .env file
in the working directory. Flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default ~/.journey/journey.db)")

	// Add subcommands
	cmd.AddCommand(NewStageCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewTouchpointCommand(opts))
	cmd.AddCommand(NewFunnelCommand(opts))
	cmd.AddCommand(NewPathsCommand(opts))
	cmd.AddCommand(NewDropoffsCommand(opts))
	cmd.AddCommand(NewChannelsCommand(opts))
	cmd.AddCommand(NewSegmentsCommand(opts))
	cmd.AddCommand(NewHeatmapCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// resolve merges configuration under the flags and installs the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if o.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
		o.Config = cfg
	}

	flags := cmd.Flags()
	if !flags.Changed("format") {
		o.Format = o.Config.Format
	}
	if !flags.Changed("db") {
		o.Database = o.Config.DBPath
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	level := o.Config.LogLevel
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	slog.Debug("configuration resolved", "db", o.Database, "format", o.Format)
	return nil
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// app bundles the services a command needs against one open database.
type app struct {
	store   *store.Store
	tracker *tracker.Tracker
	engine  *analytics.Engine
}

// openApp opens the configured database, creating its directory if needed.
func (o *RootOptions) openApp() (*app, error) {
	if o.Database != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(o.Database), 0o755); err != nil {
			return nil, journey.NewStorageError("create database directory", err)
		}
	}

	slog.Debug("opening database", "path", o.Database)
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, journey.NewStorageError("open database", err)
	}

	clock := o.Clock
	if clock == nil {
		clock = journey.SystemClock{}
	}
	ids := o.IDs
	if ids == nil {
		ids = journey.UUIDv7Generator{}
	}

	return &app{
		store:   st,
		tracker: tracker.New(st, tracker.WithClock(clock), tracker.WithIDGenerator(ids)),
		engine:  analytics.NewEngine(st, analytics.WithClock(clock)),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// withApp opens the database, runs fn and reports its result or error.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) (any, error)) error {
	out := o.formatter(cmd)

	a, err := o.openApp()
	if err != nil {
		return out.Fail(err)
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := fn(ctx, a)
	if err != nil {
		slog.Debug("command failed", "command", cmd.Name(), "error", err)
		return out.Fail(err)
	}
	return out.Success(result)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
