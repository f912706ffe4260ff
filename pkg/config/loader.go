package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user directory holding config and state
const DirName = ".devbridge"

// Load reads configuration from the given file (or the default search paths when
// empty), applies DEVBRIDGE_* environment overrides and validates the result
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("DEVBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration without reading any file
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	_ = postProcess(&cfg)
	return &cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("tool.binary", "adb")
	v.SetDefault("tool.flutter_binary", "flutter")
	v.SetDefault("tool.timeout", "30s")

	v.SetDefault("poll.interval", "30s")

	v.SetDefault("state.backend", "file")
	v.SetDefault("state.path", "")

	v.SetDefault("panel.host", "127.0.0.1")
	v.SetDefault("panel.port", 8787)

	v.SetDefault("pairing.timeout", "2m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// postProcess fills in values that depend on the environment
func postProcess(cfg *Config) error {
	if cfg.State.Path == "" && cfg.State.Backend != "memory" {
		dir, err := Dir()
		if err != nil {
			return fmt.Errorf("failed to resolve state directory: %w", err)
		}
		name := "state.yaml"
		if cfg.State.Backend == "sqlite" {
			name = "state.db"
		}
		cfg.State.Path = filepath.Join(dir, name)
	}
	return nil
}

// Dir returns the per-user devbridge directory (~/.devbridge)
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName), nil
}

// SearchPaths lists the config files Load looks at, in order
func SearchPaths(explicit string) []string {
	if strings.TrimSpace(explicit) != "" {
		return []string{explicit}
	}
	paths := []string{filepath.Join(".", "config.yaml")}
	if dir, err := Dir(); err == nil {
		paths = append(paths, filepath.Join(dir, "config.yaml"))
	}
	return paths
}

// Write marshals cfg as YAML to path, creating parent directories
func Write(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg in the on-disk YAML layout
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(toFile(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// fileConfig mirrors Config with viper's snake_case keys and string durations so
// a written file loads back unchanged
type fileConfig struct {
	Tool struct {
		Binary        string `yaml:"binary"`
		FlutterBinary string `yaml:"flutter_binary"`
		Timeout       string `yaml:"timeout"`
	} `yaml:"tool"`
	Poll struct {
		Interval string `yaml:"interval"`
	} `yaml:"poll"`
	State struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path,omitempty"`
	} `yaml:"state"`
	Panel struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"panel"`
	Pairing struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"pairing"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func toFile(cfg *Config) fileConfig {
	var f fileConfig
	f.Tool.Binary = cfg.Tool.Binary
	f.Tool.FlutterBinary = cfg.Tool.FlutterBinary
	f.Tool.Timeout = cfg.Tool.Timeout.String()
	f.Poll.Interval = cfg.Poll.Interval.String()
	f.State.Backend = cfg.State.Backend
	f.State.Path = cfg.State.Path
	f.Panel.Host = cfg.Panel.Host
	f.Panel.Port = cfg.Panel.Port
	f.Pairing.Timeout = cfg.GetPairingTimeout().String()
	f.Logging.Level = cfg.Logging.Level
	f.Logging.Format = cfg.Logging.Format
	return f
}
