package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/platform"
	"github.com/flutterfly/devbridge/pkg/state"
)

var (
	toolPathClear  bool
	toolPathDetect bool
	toolPathSave   bool
	toolPathOutput string
)

// NewSetToolPathCmd creates the set-tool-path command
func NewSetToolPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-tool-path [dir]",
		Short: "Set the directory adb is run from",
		Long: `Store a custom adb directory (usually <sdk>/platform-tools). Once set it is
always used as-is, without probing. Use --clear to go back to automatic lookup.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !toolPathClear && len(args) != 1 {
				return domain.NewInvalidArgument("set-tool-path", "dir", "a directory is required (or use --clear)")
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if toolPathClear {
				if err := a.Store.Delete(state.KeyCustomToolPath); err != nil {
					return fmt.Errorf("failed to clear tool path: %w", err)
				}
				color.Green("✓ Custom adb path cleared")
				return nil
			}

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return domain.NewInvalidArgument("set-tool-path", "dir", fmt.Sprintf("%s is not a directory", dir))
			}

			exe := platform.ExecutableName(platform.Current(), a.Resolver.Binary())
			if _, err := os.Stat(filepath.Join(dir, exe)); err != nil {
				color.Yellow("⚠ %s not found in %s; saving anyway", exe, dir)
			}

			if err := a.Store.Set(state.KeyCustomToolPath, dir); err != nil {
				return fmt.Errorf("failed to save tool path: %w", err)
			}
			color.Green("✓ adb will be run from %s", dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&toolPathClear, "clear", false, "Remove the custom adb path")

	return cmd
}

// NewToolPathCmd creates the tool-path command
func NewToolPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool-path",
		Short: "Show how adb is located",
		Long: `Show the strategy used to run adb: the custom path, PATH, or the default
SDK directory. With --detect, scan the usual SDK locations instead; --save
stores what was found as the custom path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(toolPathOutput)
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if toolPathDetect {
				dir, err := a.Resolver.AutoDetect(ctx)
				if err != nil {
					return err
				}
				color.Green("✓ Found adb in %s", dir)
				if toolPathSave {
					if err := a.Store.Set(state.KeyCustomToolPath, dir); err != nil {
						return fmt.Errorf("failed to save tool path: %w", err)
					}
					fmt.Println("Saved as the custom adb path")
				}
				return nil
			}

			strategy, err := a.Resolver.ResolveStrategy(ctx)
			if err != nil {
				return err
			}

			loc := ToolLocation{
				Strategy: strategy.Kind,
				Dir:      strategy.WorkDir,
				Custom:   state.CustomToolPath(a.Store),
			}
			if format == OutputFormatTable {
				fmt.Printf("Strategy: %s\n", strategy)
				return nil
			}

			var out string
			if format == OutputFormatJSON {
				out, err = formatJSON(loc)
			} else {
				out, err = formatYAML(loc)
			}
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&toolPathDetect, "detect", false, "Scan the usual SDK locations for adb")
	cmd.Flags().BoolVar(&toolPathSave, "save", false, "With --detect, store the directory found")
	cmd.Flags().StringVarP(&toolPathOutput, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}
