package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/metrics"
	"github.com/mrz1836/taskflow/internal/signal"
)

type sweepOptions struct {
	watch       bool
	interval    time.Duration
	metricsAddr string
}

// AddSweepCommand adds the sweep command to the root command.
func AddSweepCommand(root *cobra.Command, s *session) {
	var opts sweepOptions

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate SLAs and escalate breached tasks",
		Long: `Evaluate every open task's SLA and escalate the breached ones to the
assignee's manager. The sweep holds a lease so that only one sweeper acts at
a time across processes.

Examples:
  taskflow sweep                                # one pass
  taskflow sweep --watch                        # every sla.sweep_interval until interrupted
  taskflow sweep --watch --metrics-addr :9464   # also serve Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.watch {
				return runSweepWatch(cmd.Context(), cmd, s, opts)
			}
			return runSweepOnce(cmd.Context(), cmd, s)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.watch, "watch", "w", false, "keep sweeping on an interval until interrupted")
	f.DurationVar(&opts.interval, "interval", 0, "sweep interval (default: sla.sweep_interval)")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics on this address while watching (default: metrics.addr)")

	root.AddCommand(cmd)
}

func runSweepOnce(ctx context.Context, cmd *cobra.Command, s *session) error {
	app, err := s.App(ctx)
	if err != nil {
		return err
	}

	report, err := app.Sweeper.RunOnce(ctx)
	if isLeaseHeld(err) {
		if s.jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), map[string]bool{"lease_held": true})
		}
		s.output(cmd.OutOrStdout()).Info("Another sweeper holds the SLA sweep lease; nothing to do.")
		return nil
	}
	if err != nil {
		return err
	}
	return writeSweepReport(cmd.OutOrStdout(), s, report)
}

// runSweepWatch runs the sweeper, and optionally the metrics endpoint, until
// SIGINT or SIGTERM.
func runSweepWatch(ctx context.Context, cmd *cobra.Command, s *session, opts sweepOptions) error {
	app, err := s.App(ctx)
	if err != nil {
		return err
	}
	logger := GetLogger()

	sweeper := app.Sweeper
	if opts.interval > 0 {
		sweeper = app.Sweeper.WithInterval(opts.interval)
	}

	addr := opts.metricsAddr
	if addr == "" {
		addr = app.Config.Metrics.Addr
	}

	h := signal.NewHandler(ctx)
	defer h.Stop()

	g, gctx := errgroup.WithContext(h.Context())
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	if addr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, addr, app.Registry, logger)
		})
	}

	err = g.Wait()
	if sig := h.Received(); sig != nil {
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if !s.jsonOutput() {
		s.output(cmd.OutOrStdout()).Info("Sweeper stopped")
	}
	return nil
}

func writeSweepReport(w io.Writer, s *session, report domain.SweepReport) error {
	if s.jsonOutput() {
		if report.Escalated == nil {
			report.Escalated = []string{}
		}
		return writeJSON(w, report)
	}

	out := s.output(w)
	out.Success(fmt.Sprintf("Swept %d task(s): %d breached, %d escalated", report.Scanned, report.Breached, len(report.Escalated)))
	if len(report.Escalated) > 0 {
		out.Info("Escalated: " + strings.Join(report.Escalated, ", "))
	}
	if len(report.Skipped) > 0 {
		out.Info("Skipped (busy): " + strings.Join(report.Skipped, ", "))
	}
	for _, f := range report.Failed {
		out.Warning(fmt.Sprintf("%s: %s (%s)", f.ID, f.Reason, f.Kind))
	}
	return nil
}

// isLeaseHeld reports whether err only means another sweeper is active.
func isLeaseHeld(err error) bool {
	return errors.Is(err, tferrors.ErrLeaseHeld)
}
