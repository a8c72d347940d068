package svcctl

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"unicode"
)

// unitTemplate is the fixed unit grammar systemd is given. Keys and their
// order are part of the contract with systemd; do not reformat.
const unitTemplate = `[Unit]
Description={{.Description}}
After=network.target
StartLimitIntervalSec=0

[Service]
Type=simple
Restart=always
RestartSec=1
User=root
ExecStart={{.BinaryPath}} ` + RunArgument + `
StandardOutput=journal
StandardError=journal
SyslogIdentifier={{.Name}}

[Install]
WantedBy=multi-user.target
`

var descriptorTemplate = template.Must(template.New("unit").Parse(unitTemplate))

// unitNamePattern matches the characters systemd allows in a unit name prefix
var unitNamePattern = regexp.MustCompile(`^[A-Za-z0-9:_.@\-]+$`)

// ServiceDescriptor is the field set a unit file is rendered from
type ServiceDescriptor struct {
	// Name is the unit name without the .service suffix
	Name string
	// Description is the human readable unit description
	Description string
	// BinaryPath is the absolute path of the binary systemd executes
	BinaryPath string
	// DescriptorPath is where the unit file lives; always DescriptorPath(dir, Name)
	DescriptorPath string
}

// DescriptorPath returns the unit file path for name inside dir
func DescriptorPath(dir, name string) string {
	return filepath.Join(dir, name+UnitExtension)
}

// RenderDescriptor renders the unit file for d. Rendering is deterministic:
// identical descriptors produce identical bytes.
func RenderDescriptor(d ServiceDescriptor) (string, error) {
	if err := validateName(d.Name); err != nil {
		return "", err
	}
	if err := validateDescription(d.Description); err != nil {
		return "", err
	}
	if !filepath.IsAbs(d.BinaryPath) {
		return "", fmt.Errorf("%w: binary path %q is not absolute", ErrInvalidDescriptor, d.BinaryPath)
	}
	if strings.ContainsFunc(d.BinaryPath, unicode.IsSpace) {
		return "", fmt.Errorf("%w: binary path %q contains whitespace", ErrInvalidDescriptor, d.BinaryPath)
	}

	// systemd expands %-specifiers in both values; write them literally.
	d.Description = escapeSpecifiers(d.Description)
	d.BinaryPath = escapeSpecifiers(d.BinaryPath)

	var buf strings.Builder
	if err := descriptorTemplate.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("rendering unit file: %w", err)
	}
	return buf.String(), nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty service name", ErrInvalidDescriptor)
	}
	if !unitNamePattern.MatchString(name) {
		return fmt.Errorf("%w: service name %q contains invalid characters", ErrInvalidDescriptor, name)
	}
	if strings.HasSuffix(name, UnitExtension) {
		return fmt.Errorf("%w: service name %q must not include the %s suffix", ErrInvalidDescriptor, name, UnitExtension)
	}
	if strings.HasSuffix(name, "@") {
		return fmt.Errorf("%w: service name %q would name a template unit", ErrInvalidDescriptor, name)
	}
	return nil
}

func validateDescription(desc string) error {
	if strings.ContainsAny(desc, "\r\n") {
		return fmt.Errorf("%w: description must be a single line", ErrInvalidDescriptor)
	}
	return nil
}

func resolveBinaryPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty binary path", ErrInvalidDescriptor)
	}
	if strings.ContainsFunc(path, unicode.IsSpace) {
		return "", fmt.Errorf("%w: binary path %q contains whitespace", ErrInvalidDescriptor, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving binary path: %w", err)
	}
	return abs, nil
}

func escapeSpecifiers(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
