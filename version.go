package svcctl

// Version is the current version of the svcctl library
const Version = "1.0.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the semantic version
	Version string
	// ControlPlane is the supervisor the library drives
	ControlPlane string
	// RunArgument is the argument the unit passes to the binary
	RunArgument string
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	return VersionInfo{
		Version:      Version,
		ControlPlane: "systemd",
		RunArgument:  RunArgument,
	}
}
