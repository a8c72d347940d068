package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/axondata/go-svcctl"
	"github.com/axondata/go-svcctl/internal/config"
	"github.com/axondata/go-svcctl/internal/logger"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	a := newApp(os.Stdout)
	err := buildRoot(a).Execute()
	a.teardown()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by every subcommand
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// app carries the dependencies subcommands are built from. Tests replace
// controller, elevated and executable.
type app struct {
	out        io.Writer
	cfg        *config.Config
	logger     *slog.Logger
	closer     io.Closer
	controller svcctl.ProcessController
	elevated   svcctl.PrivilegeCheck
	executable func() (string, error)
}

func newApp(out io.Writer) *app {
	return &app{
		out:        out,
		executable: svcctl.ExecutablePath,
	}
}

// setup loads configuration and initializes logging
func (a *app) setup(flags *GlobalFlags) error {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.Log.Format = flags.LogFormat
	}

	l, closer, err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = l
	a.closer = closer
	return nil
}

func (a *app) teardown() {
	if a.closer != nil {
		_ = a.closer.Close()
		a.closer = nil
	}
}

// manager builds the Manager for the configured service
func (a *app) manager() (*svcctl.Manager, error) {
	bin := a.cfg.Service.BinaryPath
	if bin == "" {
		var err error
		if bin, err = a.executable(); err != nil {
			return nil, err
		}
	}

	controller := a.controller
	if controller == nil {
		controller = svcctl.NewSystemctlController().
			WithSystemctlPath(a.cfg.Service.Systemctl).
			WithTimeout(a.cfg.Service.CommandTimeout)
	}

	opts := []svcctl.ManagerOption{
		svcctl.WithController(controller),
		svcctl.WithUnitDir(a.cfg.Service.UnitDir),
		svcctl.WithLogger(a.logger),
	}
	if a.elevated != nil {
		opts = append(opts, svcctl.WithPrivilegeCheck(a.elevated))
	}

	return svcctl.NewManager(a.cfg.Service.Name, a.cfg.Service.Description, bin, opts...)
}

// buildRoot creates the root command and all subcommands
func buildRoot(a *app) *cobra.Command {
	flags := &GlobalFlags{}
	root := createRootCommand(a, flags)

	root.AddCommand(
		createStartCommand(a),
		createStopCommand(a),
		createRestartCommand(a),
		createStatusCommand(a),
		createInstallCommand(a),
		createUninstallCommand(a),
		createRunCommand(a),
		createWatchCommand(a),
		createVersionCommand(a),
	)

	return root
}

// createRootCommand creates the root command with persistent flags
func createRootCommand(a *app, flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "svcctl",
		Short: "Install and control a systemd-managed daemon",
		Long: `svcctl installs itself as a systemd service and runs as the daemon
systemd supervises.

Examples:
  sudo svcctl install
  sudo svcctl start
  svcctl status
  sudo svcctl stop
  sudo svcctl uninstall`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "log format: text or json")

	return root
}
