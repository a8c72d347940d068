package svcctl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/google/renameio/v2"
)

// PrivilegeCheck reports whether the process may mutate system state
type PrivilegeCheck func() bool

// IsRoot is the default PrivilegeCheck
func IsRoot() bool {
	return os.Geteuid() == 0
}

// Manager installs, removes and controls a single systemd service.
//
// A Manager lives for a single command invocation. It keeps no state apart
// from the descriptor; durable state is the unit file and systemd itself.
type Manager struct {
	desc       ServiceDescriptor
	unitDir    string
	controller ProcessController
	elevated   PrivilegeCheck
	logger     *slog.Logger
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithController sets the ProcessController used for systemctl calls
func WithController(c ProcessController) ManagerOption {
	return func(m *Manager) {
		m.controller = c
	}
}

// WithUnitDir sets the directory unit files are written to
func WithUnitDir(dir string) ManagerOption {
	return func(m *Manager) {
		m.unitDir = dir
	}
}

// WithPrivilegeCheck replaces the root check guarding Install and Uninstall
func WithPrivilegeCheck(check PrivilegeCheck) ManagerOption {
	return func(m *Manager) {
		m.elevated = check
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager for the named service. binaryPath is the
// program systemd will execute with the run argument; callers normally pass
// ExecutablePath().
func NewManager(name, description, binaryPath string, opts ...ManagerOption) (*Manager, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	abs, err := resolveBinaryPath(binaryPath)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		unitDir:  DefaultUnitDir,
		elevated: IsRoot,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.controller == nil {
		m.controller = NewSystemctlController()
	}
	if m.elevated == nil {
		m.elevated = IsRoot
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("service", name)

	m.desc = ServiceDescriptor{
		Name:           name,
		Description:    description,
		BinaryPath:     abs,
		DescriptorPath: DescriptorPath(m.unitDir, name),
	}

	return m, nil
}

// Name returns the service name
func (m *Manager) Name() string {
	return m.desc.Name
}

// Descriptor returns a copy of the service descriptor
func (m *Manager) Descriptor() ServiceDescriptor {
	return m.desc
}

// DescriptorPath returns the path of the unit file
func (m *Manager) DescriptorPath() string {
	return m.desc.DescriptorPath
}

// BinaryPath returns the path of the binary written into ExecStart
func (m *Manager) BinaryPath() string {
	return m.desc.BinaryPath
}

// SetBinaryPath overrides the binary path; call it before Install
func (m *Manager) SetBinaryPath(path string) error {
	abs, err := resolveBinaryPath(path)
	if err != nil {
		return err
	}
	m.desc.BinaryPath = abs
	return nil
}

// Install writes the unit file, reloads systemd and enables the service
func (m *Manager) Install(ctx context.Context) error {
	if !m.elevated() {
		return &PrivilegeError{Op: "installation"}
	}

	content, err := RenderDescriptor(m.desc)
	if err != nil {
		return err
	}

	path := m.desc.DescriptorPath
	if err := renameio.WriteFile(path, []byte(content), UnitFileMode); err != nil {
		return &FileSystemError{Op: "write", Path: path, Err: err}
	}
	m.logger.Debug("unit file written", "path", path, "binary", m.desc.BinaryPath)

	if err := m.run(ctx, VerbDaemonReload); err != nil {
		return fmt.Errorf("reloading systemd daemon: %w", err)
	}
	if err := m.run(ctx, VerbEnable); err != nil {
		return fmt.Errorf("enabling service: %w", err)
	}

	m.logger.Info("service installed", "path", path)
	return nil
}

// Uninstall stops and disables the service, removes the unit file and reloads
// systemd. Stop and disable are best effort; a missing unit file is not an error.
func (m *Manager) Uninstall(ctx context.Context) error {
	if !m.elevated() {
		return &PrivilegeError{Op: "uninstallation"}
	}

	// Stop the service (ignore errors if it's not running)
	// Disable the service (ignore errors if it's not enabled)
	skipped := &MultiError{}
	skipped.Add(m.run(ctx, VerbStop))
	skipped.Add(m.run(ctx, VerbDisable))
	if err := skipped.Err(); err != nil {
		m.logger.Debug("ignoring best-effort uninstall step failures", "error", err)
	}

	path := m.desc.DescriptorPath
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &FileSystemError{Op: "remove", Path: path, Err: err}
	}

	if err := m.run(ctx, VerbDaemonReload); err != nil {
		return fmt.Errorf("reloading systemd daemon: %w", err)
	}

	m.logger.Info("service uninstalled", "path", path)
	return nil
}

// Start starts the service
func (m *Manager) Start(ctx context.Context) error {
	return m.run(ctx, VerbStart)
}

// Stop stops the service
func (m *Manager) Stop(ctx context.Context) error {
	return m.run(ctx, VerbStop)
}

// Restart restarts the service
func (m *Manager) Restart(ctx context.Context) error {
	return m.run(ctx, VerbRestart)
}

// Status returns the observed run state. An inactive unit is not an error.
// Output systemctl does not document is reported as StateUnknown with a nil error.
func (m *Manager) Status(ctx context.Context) (ServiceState, error) {
	r := m.controller.IsActive(ctx, m.desc.Name)
	if err := r.Error(); err != nil {
		return StateUnknown, err
	}
	if errors.Is(r.Err, ErrStatusAmbiguous) {
		m.logger.Warn("could not classify service status", "output", strings.TrimSpace(r.Output), "exit_code", r.ExitCode)
	}
	return r.State, nil
}

// IsInstalled reports whether the unit file exists. Stat errors other than
// not-exist are also reported as not installed.
func (m *Manager) IsInstalled() bool {
	_, err := os.Stat(m.desc.DescriptorPath)
	return err == nil
}

func (m *Manager) run(ctx context.Context, verb Verb) error {
	name := m.desc.Name
	if !verb.TakesName() {
		name = ""
	}
	r := m.controller.Run(ctx, verb, name)
	if err := r.Error(); err != nil {
		return err
	}
	m.logger.Debug("systemctl succeeded", "verb", verb.String(), "output", strings.TrimSpace(r.Output))
	return nil
}
