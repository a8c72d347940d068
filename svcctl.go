package svcctl

import (
	"io/fs"
	"time"
)

// systemd paths and file constants
const (
	// DefaultUnitDir is the directory systemd reads system unit files from
	DefaultUnitDir = "/etc/systemd/system"
	// UnitExtension is the file extension of service unit files
	UnitExtension = ".service"
	// DefaultSystemctlPath is the default path to the systemctl binary
	DefaultSystemctlPath = "systemctl"
	// RunArgument is the argument systemd passes to the binary to enter the daemon loop
	RunArgument = "run"
	// DefaultCommandTimeout bounds a single systemctl invocation
	DefaultCommandTimeout = 30 * time.Second
)

// exitCodeInactive is what systemctl is-active returns for a unit that
// exists but is not running (LSB "program is not running").
const exitCodeInactive = 3

// UnitFileMode is the mode the unit file is written with
const UnitFileMode fs.FileMode = 0o644

// Verb is a systemctl action
type Verb int

const (
	// VerbUnknown represents an unknown verb
	VerbUnknown Verb = iota
	// VerbStart starts the unit
	VerbStart
	// VerbStop stops the unit
	VerbStop
	// VerbRestart restarts the unit
	VerbRestart
	// VerbEnable enables the unit for boot-time start
	VerbEnable
	// VerbDisable disables boot-time start
	VerbDisable
	// VerbDaemonReload reloads unit files; takes no unit name
	VerbDaemonReload
	// VerbIsActive queries the active state
	VerbIsActive
)

// Verb string constants
const (
	verbUnknownStr      = "unknown"
	verbStartStr        = "start"
	verbStopStr         = "stop"
	verbRestartStr      = "restart"
	verbEnableStr       = "enable"
	verbDisableStr      = "disable"
	verbDaemonReloadStr = "daemon-reload"
	verbIsActiveStr     = "is-active"
)

// String returns the systemctl argument for the verb
func (v Verb) String() string {
	switch v {
	case VerbStart:
		return verbStartStr
	case VerbStop:
		return verbStopStr
	case VerbRestart:
		return verbRestartStr
	case VerbEnable:
		return verbEnableStr
	case VerbDisable:
		return verbDisableStr
	case VerbDaemonReload:
		return verbDaemonReloadStr
	case VerbIsActive:
		return verbIsActiveStr
	default:
		return verbUnknownStr
	}
}

// TakesName reports whether the verb is followed by a unit name
func (v Verb) TakesName() bool {
	return v != VerbDaemonReload && v != VerbUnknown
}
