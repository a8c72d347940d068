package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/axondata/go-svcctl"
	"github.com/spf13/cobra"
)

// InstallFlags holds flags for the install command
type InstallFlags struct {
	BinaryPath string
}

// managerAction is a manager operation run by a simple subcommand
type managerAction func(ctx context.Context, m *svcctl.Manager) error

// createManagerCommand builds a subcommand that runs one manager operation
// and prints done on success.
func createManagerCommand(a *app, use, short, long, done string, action managerAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			if err := action(cmd.Context(), m); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.out, done)
			return nil
		},
	}
}

// createStartCommand creates the start subcommand
func createStartCommand(a *app) *cobra.Command {
	return createManagerCommand(a, "start", "Start the service",
		"Start the service through systemctl start.",
		"Service started successfully",
		func(ctx context.Context, m *svcctl.Manager) error {
			if err := m.Start(ctx); err != nil {
				return fmt.Errorf("starting service: %w", err)
			}
			return nil
		})
}

// createStopCommand creates the stop subcommand
func createStopCommand(a *app) *cobra.Command {
	return createManagerCommand(a, "stop", "Stop the service",
		"Stop the service through systemctl stop.",
		"Service stopped successfully",
		func(ctx context.Context, m *svcctl.Manager) error {
			if err := m.Stop(ctx); err != nil {
				return fmt.Errorf("stopping service: %w", err)
			}
			return nil
		})
}

// createRestartCommand creates the restart subcommand
func createRestartCommand(a *app) *cobra.Command {
	return createManagerCommand(a, "restart", "Restart the service",
		"Restart the service through systemctl restart.",
		"Service restarted successfully",
		func(ctx context.Context, m *svcctl.Manager) error {
			if err := m.Restart(ctx); err != nil {
				return fmt.Errorf("restarting service: %w", err)
			}
			return nil
		})
}

// createUninstallCommand creates the uninstall subcommand
func createUninstallCommand(a *app) *cobra.Command {
	return createManagerCommand(a, "uninstall", "Uninstall the service (requires sudo)",
		`Stop and disable the service, remove its unit file and reload systemd.
Removing a service that was never installed succeeds.`,
		"Service uninstalled successfully",
		func(ctx context.Context, m *svcctl.Manager) error {
			if err := m.Uninstall(ctx); err != nil {
				return fmt.Errorf("uninstalling service: %w", err)
			}
			return nil
		})
}

// createStatusCommand creates the status subcommand
func createStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check service status",
		Long:  "Print the service state: active, inactive or unknown.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			state, err := m.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("checking service status: %w", err)
			}
			_, _ = fmt.Fprintln(a.out, state.String())
			return nil
		},
	}
}

// createInstallCommand creates the install subcommand
func createInstallCommand(a *app) *cobra.Command {
	flags := &InstallFlags{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the service (requires sudo)",
		Long: `Write the systemd unit file, reload systemd and enable the service.

Examples:
  sudo svcctl install
  sudo svcctl install --binary=/usr/local/bin/svcctl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			if flags.BinaryPath != "" {
				if err := m.SetBinaryPath(flags.BinaryPath); err != nil {
					return err
				}
			}
			if err := m.Install(cmd.Context()); err != nil {
				return fmt.Errorf("installing service: %w", err)
			}
			_, _ = fmt.Fprintf(a.out, "Service installed successfully (%s)\n", m.DescriptorPath())
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.BinaryPath, "binary", "", "binary path written to ExecStart (default: this executable)")
	return cmd
}

// createWatchCommand creates the watch subcommand
func createWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print installed-state changes of the unit file",
		Long:  "Watch the unit directory and print installed or not-installed whenever the unit file appears or disappears. Stop with Ctrl+C.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events, cleanup, err := m.Watch(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			return printInstallEvents(ctx, a, events)
		},
	}
}

func printInstallEvents(ctx context.Context, a *app, events <-chan svcctl.InstallEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				a.logger.Warn("watch error", "path", ev.Path, "error", ev.Err)
				continue
			}
			state := "not-installed"
			if ev.Installed {
				state = "installed"
			}
			_, _ = fmt.Fprintf(a.out, "%s %s\n", state, ev.Path)
		}
	}
}

// createVersionCommand creates the version subcommand
func createVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := svcctl.GetVersion()
			_, _ = fmt.Fprintf(a.out, "svcctl %s (library %s, %s, built %s)\n", Version, info.Version, info.ControlPlane, BuildTime)
		},
	}
}
