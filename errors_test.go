package svcctl

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestPrivilegeError(t *testing.T) {
	err := error(&PrivilegeError{Op: "installation"})

	if !errors.Is(err, ErrNotElevated) {
		t.Error("PrivilegeError should match ErrNotElevated")
	}
	if got, want := err.Error(), "installation requires root privileges, run with sudo"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestControlCommandError(t *testing.T) {
	base := errors.New("exit status 1")

	tests := []struct {
		name string
		err  *ControlCommandError
		want string
	}{
		{
			name: "with unit and output",
			err:  &ControlCommandError{Verb: VerbStart, Name: "svc", ExitCode: 1, Output: "  Access denied\n", Err: base},
			want: "systemctl start svc failed: exit status 1\nOutput: Access denied",
		},
		{
			name: "daemon-reload without output",
			err:  &ControlCommandError{Verb: VerbDaemonReload, ExitCode: 1, Err: base},
			want: "systemctl daemon-reload failed: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, base) {
				t.Error("ControlCommandError should unwrap to the exec error")
			}
		})
	}
}

func TestFileSystemError(t *testing.T) {
	err := &FileSystemError{Op: "remove", Path: "/etc/systemd/system/svc.service", Err: fs.ErrPermission}

	if !errors.Is(err, fs.ErrPermission) {
		t.Error("FileSystemError should unwrap to the underlying error")
	}
	if !strings.Contains(err.Error(), `remove unit file "/etc/systemd/system/svc.service"`) {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestMultiError(t *testing.T) {
	m := &MultiError{}
	m.Add(nil)
	if m.Err() != nil {
		t.Fatal("empty MultiError should return nil from Err")
	}

	stopErr := &ControlCommandError{Verb: VerbStop, Name: "svc", ExitCode: 5}
	m.Add(stopErr)
	if got := m.Err().Error(); got != stopErr.Error() {
		t.Errorf("single error message = %q, want %q", got, stopErr.Error())
	}

	m.Add(errors.New("disable failed"))
	if got := m.Error(); got != "2 errors occurred" {
		t.Errorf("Error() = %q", got)
	}

	var ce *ControlCommandError
	if !errors.As(m.Err(), &ce) || ce.Verb != VerbStop {
		t.Error("errors.As should find the ControlCommandError through MultiError")
	}
}
