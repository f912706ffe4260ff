package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flutterfly/devbridge/pkg/app"
	"github.com/flutterfly/devbridge/pkg/config"
	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/util"
)

var (
	verbose    bool
	configFile string
	logFormat  string
	ephemeral  bool

	// appOptions are applied to every app built by newApp
	appOptions []app.Option
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devbridge",
		Short: "Manage Android devices over adb for Flutter development",
		Long: `devbridge - connect, list and manage Android devices over adb.

It finds adb on its own (PATH, the default SDK directory or a path you set),
keeps track of connected devices and remembers the last address you used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.InitLoggerWithFormat(verbose, firstNonEmpty(logFormat, "console"))
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./config.yaml or ~/.devbridge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console, text or json")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep preferences in memory only for this run")

	// Device commands
	rootCmd.AddCommand(NewConnectCmd())
	rootCmd.AddCommand(NewDisconnectCmd())
	rootCmd.AddCommand(NewListCmd())
	rootCmd.AddCommand(NewInstallCmd())
	rootCmd.AddCommand(NewKillServerCmd())
	rootCmd.AddCommand(NewTCPIPCmd())
	rootCmd.AddCommand(NewPairCmd())
	rootCmd.AddCommand(NewStatusCmd())

	// Tool location
	rootCmd.AddCommand(NewSetToolPathCmd())
	rootCmd.AddCommand(NewToolPathCmd())

	// Flutter and panel
	rootCmd.AddCommand(NewFlutterCmd())
	rootCmd.AddCommand(NewPanelCmd())

	// Housekeeping
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewCleanCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		renderError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig loads the configuration selected by the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if ephemeral {
		cfg.State = config.StateConfig{Backend: "memory"}
	}
	return cfg, nil
}

// newApp loads the configuration and builds the application. Logging settings
// from the config file apply unless overridden on the command line.
func newApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	util.InitLoggerWithFormat(verbose || cfg.Verbose(), firstNonEmpty(logFormat, cfg.Logging.Format, "console"))

	a, err := app.New(cfg, appOptions...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// renderError prints err with its failure kind, raw tool output and hint
func renderError(w io.Writer, err error) {
	red := color.New(color.FgRed)
	if kind := domain.KindOf(err); kind != "" {
		red.Fprintf(w, "✗ [%s] %s\n", kind, err)
	} else {
		red.Fprintf(w, "✗ %s\n", err)
	}

	output, hint := domain.Detail(err)
	if output = strings.TrimSpace(output); output != "" {
		fmt.Fprintln(w, "  adb output:")
		for _, line := range strings.Split(output, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	if hint != "" {
		color.New(color.FgYellow).Fprintf(w, "  hint: %s\n", hint)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
