package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/clock"
	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/directory"
	"github.com/mrz1836/taskflow/internal/events"
	"github.com/mrz1836/taskflow/internal/lease"
	"github.com/mrz1836/taskflow/internal/logging"
	"github.com/mrz1836/taskflow/internal/metrics"
	"github.com/mrz1836/taskflow/internal/task"
	"github.com/mrz1836/taskflow/internal/template"
	"github.com/mrz1836/taskflow/internal/workflow"
)

// App is the wired engine a command runs against.
type App struct {
	Config      *config.Config
	Service     *workflow.Service
	Coordinator *workflow.Coordinator
	Sweeper     *workflow.Sweeper
	Templates   *template.Registry
	Clock       clock.Clock

	// Registry holds the engine's Prometheus collectors.
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases connections opened by NewApp, newest first.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

// AppFactory builds the App for a loaded configuration. Tests inject their
// own to run commands against an in-memory engine.
type AppFactory func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error)

// NewApp wires the engine described by cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	app := &App{Config: cfg, Clock: clock.RealClock{}}
	if err := app.wire(ctx, cfg, logger); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) wire(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	home, err := appHome(cfg)
	if err != nil {
		return err
	}

	store, err := newStore(cfg, home)
	if err != nil {
		return err
	}

	dispatcher, err := app.newDispatcher(cfg, logger)
	if err != nil {
		return err
	}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector())
	sink, err := metrics.New(app.Registry, cfg.Metrics.Namespace)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	opts := []workflow.Option{
		workflow.WithClock(app.Clock),
		workflow.WithDispatcher(dispatcher),
		workflow.WithMetrics(sink),
		workflow.WithConfig(workflowConfig(cfg)),
	}
	if users := directoryUsers(cfg); len(users) > 0 {
		opts = append(opts, workflow.WithDirectory(directory.NewStatic(users)))
	}

	app.Service = workflow.NewService(store, logger, opts...)
	app.Coordinator = workflow.NewCoordinator(app.Service, cfg.Bulk.Concurrency)

	sweepLease := app.newLease(cfg, home)
	app.Sweeper = workflow.NewSweeper(app.Service, sweepLease, cfg.SLA.SweepInterval, cfg.Lease.TTL, logger)

	templates, err := loadTemplates(cfg)
	if err != nil {
		return err
	}
	app.Templates = templates

	zerolog.Ctx(ctx).Debug().
		Str("store", cfg.Store.Backend).
		Str("lease", cfg.Lease.Backend).
		Str("nats_url", logging.SafeURL(cfg.Events.NATSURL)).
		Int("templates", len(app.Templates.List())).
		Msg("engine wired")

	return nil
}

// appHome resolves the taskflow home directory.
func appHome(cfg *config.Config) (string, error) {
	if home := cfg.StorePath(); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(userHome, constants.AppHome), nil
}

func newStore(cfg *config.Config, home string) (task.Store, error) {
	if cfg.Store.Backend == config.StoreMemory {
		return task.NewMemoryStore(), nil
	}
	return task.NewFileStore(home)
}

// newDispatcher fans events out to the log and, when configured, to NATS.
func (app *App) newDispatcher(cfg *config.Config, logger zerolog.Logger) (task.Dispatcher, error) {
	var sinks events.Multi
	if cfg.Events.Log {
		sinks = append(sinks, events.NewLog(logger))
	}

	if cfg.Events.NATSURL != "" {
		conn, err := events.Connect(cfg.Events.NATSURL, "taskflow")
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, conn.Drain)

		var pub task.Dispatcher = events.NewNATS(conn, cfg.Events.SubjectPrefix)
		if cfg.Events.AttentionOnly {
			pub = events.AttentionOnly(pub)
		}
		sinks = append(sinks, pub)
	}

	if len(sinks) == 0 {
		return task.NoopDispatcher{}, nil
	}
	return sinks, nil
}

func (app *App) newLease(cfg *config.Config, home string) lease.Lease {
	switch cfg.Lease.Backend {
	case config.LeaseFile:
		return lease.NewFile(filepath.Join(home, constants.LocksDir))
	case config.LeaseRedis:
		r := lease.NewRedis(cfg.Lease.RedisURL, cfg.Lease.KeyPrefix)
		app.closers = append(app.closers, r.Close)
		return r
	default:
		return lease.NewLocal()
	}
}

func workflowConfig(cfg *config.Config) workflow.Config {
	return workflow.Config{
		Escalation:              task.EscalationPolicy{MinInterval: cfg.Escalation.MinInterval},
		DefaultEscalationTarget: cfg.Escalation.DefaultTarget,
		SpawnRecurrence:         cfg.Recurrence.SpawnOnComplete,
	}
}

func directoryUsers(cfg *config.Config) []directory.User {
	users := make([]directory.User, 0, len(cfg.Directory.Users))
	for _, u := range cfg.Directory.Users {
		users = append(users, directory.User{ID: u.ID, Name: u.Name, Manager: u.Manager})
	}
	return users
}

// loadTemplates returns the built-in templates with the configured custom
// templates layered on top. A custom template replaces a built-in of the
// same name.
func loadTemplates(cfg *config.Config) (*template.Registry, error) {
	registry := template.NewDefaultRegistry()
	if len(cfg.Templates.Custom) == 0 {
		return registry, nil
	}

	dir, err := cfg.TemplatesDir()
	if err != nil {
		return nil, err
	}

	custom, err := template.NewLoader(dir).LoadAll(cfg.Templates.Custom)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom templates: %w", err)
	}
	for _, t := range custom {
		if err := registry.RegisterOrReplace(t); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
