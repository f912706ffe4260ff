package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/flutter"
)

var (
	flutterMode string
	flutterDir  string
	flutterList bool
)

// NewFlutterCmd creates the flutter command
func NewFlutterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flutter [command-id]",
		Short: "Run a flutter command in the project",
		Long: `Run one of the catalog's flutter commands in the project directory, with its
output streamed to this terminal. Without an id, pick one from a list.

Build commands take --mode debug|profile|release (default release).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if flutterList {
				for _, c := range a.Flutter.Commands() {
					line, _ := a.Flutter.CommandLine(c.ID, flutter.DefaultMode)
					fmt.Printf("%-18s %-28s %s\n", c.ID, c.Description, line)
				}
				return nil
			}

			mode, err := flutter.ParseBuildMode(flutterMode)
			if err != nil {
				return err
			}

			id := ""
			if len(args) == 1 {
				id = args[0]
			} else {
				id, err = pickFlutterCommand(a.Flutter)
				if err != nil {
					return err
				}
			}

			dir, err := filepath.Abs(flutterDir)
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", flutterDir, err)
			}
			if id != flutter.CmdDoctor && !flutter.DetectProject(dir) {
				return domain.NewInvalidArgument("flutter", "dir", fmt.Sprintf("no %s in %s", flutter.ManifestName, dir))
			}

			result, err := a.Flutter.Run(cmd.Context(), a.Runner, id, mode, dir)
			if err != nil {
				return err
			}
			color.Green("✓ %s finished in %s", result.Command, result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&flutterMode, "mode", "m", string(flutter.DefaultMode), "Build mode: debug, profile or release")
	cmd.Flags().StringVarP(&flutterDir, "dir", "d", ".", "Flutter project directory")
	cmd.Flags().BoolVar(&flutterList, "list", false, "List the available command ids")

	return cmd
}

func pickFlutterCommand(c *flutter.Catalog) (string, error) {
	commands := c.Commands()
	labels := make([]string, len(commands))
	for i, cmd := range commands {
		labels[i] = fmt.Sprintf("%s (%s)", cmd.Description, cmd.ID)
	}

	prompt := promptui.Select{
		Label: "Select flutter command",
		Items: labels,
	}
	i, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("failed to select command: %w", err)
	}
	return commands[i].ID, nil
}
