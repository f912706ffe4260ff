package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flutterfly/devbridge/pkg/state"
)

var (
	cleanAll    bool
	cleanDryRun bool
)

// NewCleanCmd creates the clean command
func NewCleanCmd() *cobra.Command {
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Forget stored preferences",
		Long: `Forget the last used address and port.

Use --all to also forget the custom adb path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return cleanPreferences(os.Stdout, a.Store, cleanAll, cleanDryRun)
		},
	}

	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Also forget the custom adb path")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Show what would be forgotten without forgetting it")

	return cleanCmd
}

// cleanPreferences deletes the stored preference keys, and the tool path with all
func cleanPreferences(w io.Writer, store state.Store, all, dryRun bool) error {
	keys := []string{state.KeyLastUsedIP, state.KeyLastUsedPort}
	if all {
		keys = append(keys, state.KeyCustomToolPath)
	}

	// Only report what is actually stored
	var present []string
	for _, key := range keys {
		if v, ok := store.Get(key); ok {
			present = append(present, key)
			fmt.Fprintf(w, "  - %s = %s\n", key, v)
		}
	}

	if len(present) == 0 {
		fmt.Fprintln(w, "Nothing to clean - no preferences stored")
		return nil
	}

	if dryRun {
		color.New(color.FgCyan).Fprintln(w, "\nDry run mode - nothing was forgotten")
		return nil
	}

	deletedCount := 0
	for _, key := range present {
		if err := store.Delete(key); err != nil {
			color.New(color.FgRed).Fprintf(w, "✗ Failed to forget %s: %v\n", key, err)
			continue
		}
		deletedCount++
	}

	color.New(color.FgGreen).Fprintf(w, "\n✓ Forgot %d preference(s)\n", deletedCount)
	return nil
}
