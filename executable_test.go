package svcctl

import (
	"path/filepath"
	"testing"
)

func TestExecutablePath(t *testing.T) {
	p, err := ExecutablePath()
	if err != nil {
		t.Fatalf("ExecutablePath failed: %v", err)
	}
	if !filepath.IsAbs(p) {
		t.Errorf("ExecutablePath() = %q, want absolute path", p)
	}

	// The resolved path is usable as a binary path for a manager.
	m, err := NewManager("svc", "desc", p, WithController(newFakeController()))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if m.BinaryPath() != p {
		t.Errorf("BinaryPath() = %q, want %q", m.BinaryPath(), p)
	}
}

func TestGetVersion(t *testing.T) {
	info := GetVersion()
	if info.Version != Version || info.ControlPlane != "systemd" || info.RunArgument != RunArgument {
		t.Errorf("unexpected version info: %+v", info)
	}
}
