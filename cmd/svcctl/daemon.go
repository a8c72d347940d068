package main

import (
	"context"
	"time"

	"github.com/axondata/go-svcctl"
	"github.com/axondata/go-svcctl/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"vawter.tech/stopper"
)

// metricsGrace bounds how long the metrics server may take to shut down
const metricsGrace = 2 * time.Second

// createRunCommand creates the run subcommand invoked by systemd
func createRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   svcctl.RunArgument,
		Short: "Run the service (used by systemd)",
		Long: `Run the daemon loop in the foreground. systemd invokes this through
the unit's ExecStart line. The loop stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), a, svcctl.DefaultWork(a.logger))
		},
	}
}

// runDaemon starts the optional metrics endpoint and blocks in the run loop
func runDaemon(ctx context.Context, a *app, work svcctl.WorkFunc) error {
	log := a.logger.With("service", a.cfg.Service.Name)
	log.Info("service is starting")

	opts := []svcctl.DaemonOption{
		svcctl.WithInterval(a.cfg.Daemon.Interval),
		svcctl.WithCleanupPause(a.cfg.Daemon.CleanupPause),
		svcctl.WithDaemonLogger(log),
	}

	sctx := stopper.WithContext(ctx)
	if a.cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		m := metrics.NewDaemon(a.cfg.Service.Name)
		if err := m.Register(reg); err != nil {
			return err
		}
		addr, err := metrics.Serve(sctx, a.cfg.Metrics.Listen, a.cfg.Metrics.Path, reg)
		if err != nil {
			return err
		}
		log.Info("serving metrics", "addr", addr.String(), "path", a.cfg.Metrics.Path)
		opts = append(opts, svcctl.WithObserver(m))
	}

	d, err := svcctl.NewDaemon(work, opts...)
	if err != nil {
		sctx.Stop(metricsGrace)
		_ = sctx.Wait()
		return err
	}

	runErr := d.Run(ctx)

	sctx.Stop(metricsGrace)
	if err := sctx.Wait(); err != nil {
		log.Warn("metrics server stopped with error", "error", err)
	}
	return runErr
}
