package svcctl

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// ProcessController runs control-plane commands against a unit by name.
//
// Implementations never return a Go error for a non-zero exit; the outcome is
// carried in Result so that the inactive status is an ordinary branch.
type ProcessController interface {
	// Run executes a verb. name is ignored for VerbDaemonReload.
	Run(ctx context.Context, verb Verb, name string) Result
	// IsActive queries the active state of the unit
	IsActive(ctx context.Context, name string) Result
}

// Result is the classified outcome of one systemctl invocation
type Result struct {
	// Verb is the verb that was executed
	Verb Verb
	// Name is the unit name the verb was applied to
	Name string
	// Succeeded is true for exit 0, and for exit 3 on a status query
	Succeeded bool
	// State is the classified run state; only meaningful for VerbIsActive
	State ServiceState
	// ExitCode is the exit status, -1 if the command could not be run
	ExitCode int
	// Output is the combined stdout and stderr
	Output string
	// Err is the underlying exec error, nil on success
	Err error
}

// Error converts a failed result into a *ControlCommandError, or nil
func (r Result) Error() error {
	if r.Succeeded {
		return nil
	}
	return &ControlCommandError{
		Verb:     r.Verb,
		Name:     r.Name,
		ExitCode: r.ExitCode,
		Output:   r.Output,
		Err:      r.Err,
	}
}

// SystemctlController executes the systemctl binary
type SystemctlController struct {
	// SystemctlPath is the path to systemctl binary
	SystemctlPath string

	// Timeout for systemctl operations, zero disables it
	Timeout time.Duration
}

// NewSystemctlController creates a controller using the systemctl found in PATH
func NewSystemctlController() *SystemctlController {
	return &SystemctlController{
		SystemctlPath: DefaultSystemctlPath,
		Timeout:       DefaultCommandTimeout,
	}
}

// WithSystemctlPath sets the systemctl binary to execute
func (c *SystemctlController) WithSystemctlPath(path string) *SystemctlController {
	if path != "" {
		c.SystemctlPath = path
	}
	return c
}

// WithTimeout sets the timeout for operations
func (c *SystemctlController) WithTimeout(d time.Duration) *SystemctlController {
	c.Timeout = d
	return c
}

// exec runs systemctl with args and captures combined output
func (c *SystemctlController) exec(ctx context.Context, args ...string) (string, int, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.SystemctlPath, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return string(output), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(output), exitErr.ExitCode(), err
	}
	return string(output), -1, err
}

// Run executes systemctl <verb> [name]
func (c *SystemctlController) Run(ctx context.Context, verb Verb, name string) Result {
	args := []string{verb.String()}
	if verb.TakesName() {
		args = append(args, name)
	} else {
		name = ""
	}

	output, code, err := c.exec(ctx, args...)
	return Result{
		Verb:      verb,
		Name:      name,
		Succeeded: err == nil,
		State:     StateUnknown,
		ExitCode:  code,
		Output:    output,
		Err:       err,
	}
}

// IsActive runs systemctl is-active name and classifies the answer
func (c *SystemctlController) IsActive(ctx context.Context, name string) Result {
	output, code, err := c.exec(ctx, VerbIsActive.String(), name)
	return classifyStatus(name, output, code, err)
}

// classifyStatus turns an is-active invocation into a Result.
// Exit code 3 is systemd's "unit exists but is not running" and is a
// successful Inactive answer, not a failure.
func classifyStatus(name, output string, code int, err error) Result {
	r := Result{
		Verb:     VerbIsActive,
		Name:     name,
		State:    StateUnknown,
		ExitCode: code,
		Output:   output,
	}

	switch {
	case err == nil:
		r.Succeeded = true
		if state, ok := parseActiveState(output); ok {
			r.State = state
		} else {
			r.Err = ErrStatusAmbiguous
		}
	case code == exitCodeInactive:
		r.Succeeded = true
		r.State = StateInactive
	default:
		r.Err = err
	}

	return r
}
