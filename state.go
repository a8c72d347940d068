package svcctl

import "strings"

// ServiceState is the observed run state of a unit. It is never persisted.
type ServiceState int

const (
	// StateUnknown means the state could not be determined
	StateUnknown ServiceState = iota
	// StateActive means the unit is running
	StateActive
	// StateInactive means the unit exists but is not running
	StateInactive
)

const (
	stateUnknownStr  = "unknown"
	stateActiveStr   = "active"
	stateInactiveStr = "inactive"
)

// String returns the string printed by the status command
func (s ServiceState) String() string {
	switch s {
	case StateActive:
		return stateActiveStr
	case StateInactive:
		return stateInactiveStr
	default:
		return stateUnknownStr
	}
}

// parseActiveState maps the stdout of a successful systemctl is-active call.
// The second return value is false when the output is not one systemd documents
// for a zero exit status.
func parseActiveState(output string) (ServiceState, bool) {
	switch strings.TrimSpace(output) {
	case "active", "activating", "reloading", "refreshing":
		return StateActive, true
	case "inactive":
		return StateInactive, true
	default:
		return StateUnknown, false
	}
}
