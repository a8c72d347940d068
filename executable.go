package svcctl

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExecutablePath returns the resolved absolute path of the running binary.
// It is the usual binaryPath argument to NewManager.
func ExecutablePath() (string, error) {
	p, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	p, err = filepath.EvalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	return p, nil
}
