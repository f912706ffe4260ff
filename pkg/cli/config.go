package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/flutterfly/devbridge/pkg/config"
	"github.com/flutterfly/devbridge/pkg/util"
)

var (
	configOutputFile     string
	configNonInteractive bool
	configForce          bool
)

// NewConfigCmd creates the config command with subcommands
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage devbridge configuration",
		Long:  `Create, show and validate the devbridge configuration file.`,
	}

	// Add subcommands
	configCmd.AddCommand(NewConfigInitCmd())
	configCmd.AddCommand(NewConfigShowCmd())
	configCmd.AddCommand(NewConfigValidateCmd())

	return configCmd
}

// NewConfigInitCmd creates the config init command
func NewConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a configuration file",
		Long: `Interactively create a configuration file for devbridge.

Settings:
  - adb and flutter executables
  - shell command timeout and poll interval
  - where preferences are stored (file, sqlite or memory)
  - panel listen address`,
		Args: cobra.NoArgs,
		RunE: runConfigInit,
	}

	cmd.Flags().StringVarP(&configOutputFile, "output", "o", "", "Output file path (default: ~/.devbridge/config.yaml)")
	cmd.Flags().BoolVar(&configNonInteractive, "defaults", false, "Write the defaults without prompting")
	cmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")

	return cmd
}

// NewConfigShowCmd creates the config show command
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after defaults, the config file and DEVBRIDGE_* environment overrides are applied.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

// NewConfigValidateCmd creates the config validate command
func NewConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long:  `Check that the configuration loads and is valid without running anything.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := util.GetLogger()
			log.Info("Validating configuration", "paths", config.SearchPaths(configFile))

			if _, err := loadConfig(); err != nil {
				return err
			}

			fmt.Println("✓ Configuration is valid")
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	log := util.GetLogger()

	// Determine output file
	outputFile := configOutputFile
	if outputFile == "" {
		dir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("failed to resolve config directory: %w", err)
		}
		outputFile = filepath.Join(dir, "config.yaml")
	}

	if _, err := os.Stat(outputFile); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", outputFile)
	}

	cfg := config.Default()
	if !configNonInteractive {
		if err := promptConfig(cfg); err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := config.Write(cfg, outputFile); err != nil {
		return err
	}

	log.Info("Configuration created", "file", outputFile)
	color.Green("✓ Created configuration: %s", outputFile)

	return nil
}

// promptConfig asks for each setting, offering the current value as default
func promptConfig(cfg *config.Config) error {
	var err error

	if cfg.Tool.Binary, err = promptString("adb executable", cfg.Tool.Binary); err != nil {
		return err
	}
	if cfg.Tool.FlutterBinary, err = promptString("flutter executable", cfg.Tool.FlutterBinary); err != nil {
		return err
	}
	if cfg.Tool.Timeout, err = promptDuration("Command timeout", cfg.Tool.Timeout); err != nil {
		return err
	}
	if cfg.Poll.Interval, err = promptDuration("Device poll interval", cfg.Poll.Interval); err != nil {
		return err
	}

	backendPrompt := promptui.Select{
		Label: "Store preferences in",
		Items: []string{"file", "sqlite", "memory"},
	}
	_, backend, err := backendPrompt.Run()
	if err != nil {
		return err
	}
	if backend != cfg.State.Backend {
		cfg.State = config.StateConfig{Backend: backend}
		if backend != "memory" {
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			name := "state.yaml"
			if backend == "sqlite" {
				name = "state.db"
			}
			cfg.State.Path = filepath.Join(dir, name)
		}
	}

	if cfg.Panel.Host, err = promptString("Panel host", cfg.Panel.Host); err != nil {
		return err
	}
	portPrompt := promptui.Prompt{
		Label:   "Panel port",
		Default: strconv.Itoa(cfg.Panel.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return errors.New("port must be between 1 and 65535")
			}
			return nil
		},
	}
	port, err := portPrompt.Run()
	if err != nil {
		return err
	}
	cfg.Panel.Port, _ = strconv.Atoi(port)

	return nil
}

func promptString(label, def string) (string, error) {
	return promptValue(label, def, requireValue)
}

func promptDuration(label string, def time.Duration) (time.Duration, error) {
	value, err := promptValue(label, def.String(), func(s string) error {
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.New("expected a duration such as 30s or 2m")
		}
		if d < time.Second {
			return errors.New("must be at least 1s")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return time.ParseDuration(value)
}
