package svcctl

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by svcctl operations
var (
	// ErrNotElevated indicates a mutating operation was attempted without root privileges
	ErrNotElevated = errors.New("svcctl: elevated privileges required")

	// ErrStatusAmbiguous indicates systemctl produced status output that could not be classified
	ErrStatusAmbiguous = errors.New("svcctl: ambiguous status output")

	// ErrInvalidDescriptor indicates the service name, description or binary path is unusable
	ErrInvalidDescriptor = errors.New("svcctl: invalid service descriptor")
)

// PrivilegeError is returned when Install or Uninstall runs without elevation
type PrivilegeError struct {
	// Op is the manager operation that was refused
	Op string
}

// Error returns a formatted error message
func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("%s requires root privileges, run with sudo", e.Op)
}

// Is reports whether target is ErrNotElevated
func (e *PrivilegeError) Is(target error) bool {
	return target == ErrNotElevated
}

// ControlCommandError represents a failed systemctl invocation
type ControlCommandError struct {
	// Verb is the systemctl verb that failed
	Verb Verb
	// Name is the unit name, empty for daemon-reload
	Name string
	// ExitCode is the exit status of systemctl, -1 if it never ran
	ExitCode int
	// Output is the combined stdout/stderr captured from systemctl
	Output string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message including the captured output
func (e *ControlCommandError) Error() string {
	var b strings.Builder
	b.WriteString("systemctl ")
	b.WriteString(e.Verb.String())
	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}
	b.WriteString(" failed")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString("\nOutput: ")
		b.WriteString(out)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection
func (e *ControlCommandError) Unwrap() error {
	return e.Err
}

// FileSystemError represents a failed write or removal of the unit file
type FileSystemError struct {
	// Op is the filesystem operation (write, remove)
	Op string
	// Path is the file path involved in the operation
	Path string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s unit file %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// MultiError aggregates errors from best-effort steps
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred", len(m.Errors))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}
