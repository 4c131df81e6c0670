package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the initialized logger for use by subcommands.
// This is set during PersistentPreRunE and should be accessed via GetLogger.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// IMPORTANT: This function MUST only be called after the root command's
// PersistentPreRunE has executed. Calling it before initialization will
// return a zero-value logger that discards all log output.
//
// This function is safe for concurrent use.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// session carries what PersistentPreRunE resolved to the subcommands and
// builds the App on first use.
type session struct {
	flags   *GlobalFlags
	factory AppFactory

	mu     sync.Mutex
	cfg    *config.Config
	logger zerolog.Logger
	actor  string
	app    *App
}

// App returns the wired engine, building it on the first call.
func (s *session) App(ctx context.Context) (*App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.app != nil {
		return s.app, nil
	}
	if s.cfg == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", errors.ErrConfigNil)
	}

	app, err := s.factory(s.logger.WithContext(ctx), s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	s.app = app
	return app, nil
}

// Close releases the App if one was built.
func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.app == nil {
		return nil
	}
	err := s.app.Close()
	s.app = nil
	return err
}

// output returns the Output for the selected format.
func (s *session) output(w io.Writer) tui.Output {
	return tui.NewOutput(w, s.flags.Output)
}

func (s *session) jsonOutput() bool {
	return s.flags.Output == OutputJSON
}

// newRootCmd creates the root command. A nil factory uses NewApp.
func newRootCmd(flags *GlobalFlags, info BuildInfo, factory AppFactory) (*cobra.Command, *session) {
	if factory == nil {
		factory = NewApp
	}
	s := &session{flags: flags, factory: factory}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "taskflow",
		Short: "Task workflow engine for real-estate CRM teams",
		Long: `taskflow tracks follow-ups, site visits, documentation and payment tasks
linked to leads, projects, units and sales.

Features:
  • Status workflow with a fixed transition graph
  • SLA tracking with automatic, acknowledged escalation
  • Recurring tasks, checklists and sub-tasks
  • Templates for common CRM processes
  • Bulk operations and a Kanban board view`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			cfg, err := loadConfig(cmd.Context(), flags.ConfigFile)
			if err != nil {
				return err
			}

			home, err := appHome(cfg)
			if err != nil {
				return err
			}
			logger := InitLogger(flags.Verbose, flags.Quiet, home, cfg.Logging)

			globalLoggerMu.Lock()
			globalLogger = logger
			globalLoggerMu.Unlock()

			s.mu.Lock()
			s.cfg = cfg
			s.logger = logger
			s.actor = resolveActor(v)
			s.mu.Unlock()
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	AddTaskCommand(cmd, s)
	AddTransitionCommand(cmd, s)
	AddBulkCommand(cmd, s)
	AddChecklistCommand(cmd, s)
	AddSubTaskCommand(cmd, s)
	AddEscalationCommand(cmd, s)
	AddRecurrenceCommand(cmd, s)
	AddSweepCommand(cmd, s)
	AddTemplateCommand(cmd, s)
	AddBoardCommand(cmd, s)

	return cmd, s
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(ctx, path)
	}
	return config.Load(ctx)
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
// Errors are reported on stderr, or as a JSON error document on stdout with
// --output json, and then returned for the exit code.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd, s := newRootCmd(flags, info, nil)
	defer CloseLogFile()
	defer func() {
		if err := s.Close(); err != nil {
			logger := GetLogger()
			logger.Warn().Err(err).Msg("failed to close engine")
		}
	}()

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		reportError(cmd, flags, err)
	}
	return err
}

// reportError writes err for the user in the selected output format.
func reportError(cmd *cobra.Command, flags *GlobalFlags, err error) {
	if flags.Output == OutputJSON {
		_ = writeJSONError(cmd.OutOrStdout(), err)
		return
	}
	_, action := errors.Actionable(err)
	tui.NewTTYOutput(cmd.ErrOrStderr()).Error(err, action)
}
