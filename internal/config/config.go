// Package config loads svcctl settings from defaults, an optional TOML file
// and SVCCTL_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. SVCCTL_SERVICE_NAME
const EnvPrefix = "SVCCTL"

// Defaults
const (
	DefaultServiceName        = "svcctl-daemon"
	DefaultServiceDescription = "svcctl daemon - periodic background worker"
	DefaultUnitDir            = "/etc/systemd/system"
	DefaultSystemctl          = "systemctl"
	DefaultInterval           = 30 * time.Second
	DefaultCleanupPause       = 1 * time.Second
	DefaultCommandTimeout     = 30 * time.Second
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

// Config is the top-level configuration
type Config struct {
	Service ServiceConfig `toml:"service" mapstructure:"service"`
	Daemon  DaemonConfig  `toml:"daemon" mapstructure:"daemon"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`
}

// ServiceConfig holds the unit identity and control-plane settings
type ServiceConfig struct {
	Name           string        `toml:"name" mapstructure:"name"`
	Description    string        `toml:"description" mapstructure:"description"`
	BinaryPath     string        `toml:"binary_path" mapstructure:"binary_path"`
	UnitDir        string        `toml:"unit_dir" mapstructure:"unit_dir"`
	Systemctl      string        `toml:"systemctl" mapstructure:"systemctl"`
	CommandTimeout time.Duration `toml:"command_timeout" mapstructure:"command_timeout"`
}

// DaemonConfig holds run loop settings
type DaemonConfig struct {
	Interval     time.Duration `toml:"interval" mapstructure:"interval"`
	CleanupPause time.Duration `toml:"cleanup_pause" mapstructure:"cleanup_pause"`
}

// LogConfig describes the log destination. An empty File logs to stderr,
// which systemd forwards to the journal.
type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Format     string `toml:"format" mapstructure:"format"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// MetricsConfig enables the Prometheus endpoint of the daemon when Listen is set
type MetricsConfig struct {
	Listen string `toml:"listen" mapstructure:"listen"`
	Path   string `toml:"path" mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", DefaultServiceName)
	v.SetDefault("service.description", DefaultServiceDescription)
	v.SetDefault("service.binary_path", "")
	v.SetDefault("service.unit_dir", DefaultUnitDir)
	v.SetDefault("service.systemctl", DefaultSystemctl)
	v.SetDefault("service.command_timeout", DefaultCommandTimeout)
	v.SetDefault("daemon.interval", DefaultInterval)
	v.SetDefault("daemon.cleanup_pause", DefaultCleanupPause)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 0)
	v.SetDefault("log.max_backups", 0)
	v.SetDefault("log.max_age_days", 0)
	v.SetDefault("log.compress", false)
	v.SetDefault("metrics.listen", "")
	v.SetDefault("metrics.path", "/metrics")
}

// Load builds a Config. path may be empty, in which case only defaults and
// the environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at a less helpful point
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service.name must not be empty")
	}
	if c.Service.UnitDir == "" {
		return fmt.Errorf("service.unit_dir must not be empty")
	}
	if c.Daemon.Interval <= 0 {
		return fmt.Errorf("daemon.interval must be positive, got %s", c.Daemon.Interval)
	}
	if c.Daemon.CleanupPause < 0 {
		return fmt.Errorf("daemon.cleanup_pause must not be negative, got %s", c.Daemon.CleanupPause)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
