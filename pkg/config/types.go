package config

import (
	"time"
)

// Config holds all configuration for devbridge
type Config struct {
	Tool    ToolConfig    `mapstructure:"tool" yaml:"tool" validate:"required"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll" validate:"required"`
	State   StateConfig   `mapstructure:"state" yaml:"state" validate:"required"`
	Panel   PanelConfig   `mapstructure:"panel" yaml:"panel" validate:"required"`
	Pairing PairingConfig `mapstructure:"pairing" yaml:"pairing"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ToolConfig describes how to invoke the external tools
type ToolConfig struct {
	// Binary is the device bridge executable name (adb)
	Binary string `mapstructure:"binary" yaml:"binary" validate:"required,excludesall=;&0x7C"`

	// FlutterBinary is the flutter executable name or path
	FlutterBinary string `mapstructure:"flutter_binary" yaml:"flutterBinary" validate:"required"`

	// Timeout bounds every shell invocation
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
}

// PollConfig holds status poller settings
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"min=1s"`
}

// StateConfig selects where preferences and the custom tool path are persisted
type StateConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" validate:"oneof=file sqlite memory"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// PanelConfig holds the panel server listen address
type PanelConfig struct {
	Host string `mapstructure:"host" yaml:"host" validate:"required"`
	Port int    `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
}

// PairingConfig holds wireless pairing settings
type PairingConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=console text json"`
}

// GetPairingTimeout returns the pairing timeout with a default
func (c *Config) GetPairingTimeout() time.Duration {
	if c.Pairing.Timeout > 0 {
		return c.Pairing.Timeout
	}
	return 2 * time.Minute // Default timeout
}

// Verbose reports whether debug logging was requested in the config file
func (c *Config) Verbose() bool {
	return c.Logging.Level == "debug"
}
