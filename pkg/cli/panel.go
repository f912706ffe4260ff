package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flutterfly/devbridge/pkg/flutter"
	"github.com/flutterfly/devbridge/pkg/panel"
)

var (
	panelHost string
	panelPort int
	panelDir  string
)

// NewPanelCmd creates the panel command
func NewPanelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Serve the device panel API and WebSocket",
		Long: `Start the panel server: a REST API under /api and the panel command
protocol on /ws. Devices are polled on the configured interval and every
change is pushed to connected panels. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if cmd.Flags().Changed("host") {
				a.Config.Panel.Host = panelHost
			}
			if cmd.Flags().Changed("port") {
				a.Config.Panel.Port = panelPort
			}

			dir, err := filepath.Abs(panelDir)
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", panelDir, err)
			}

			a.Startup(ctx)

			server := a.NewPanel(dir)
			if err := server.Start(); err != nil {
				return err
			}

			watcher := flutter.NewWatcher(dir, func(present bool) {
				if present {
					server.Notify("Flutter project detected in "+dir, panel.TypeInfo)
				} else {
					server.Notify("No "+flutter.ManifestName+" in "+dir, panel.TypeWarning)
				}
			})
			if err := watcher.Start(ctx); err != nil {
				a.Log.Info("Project watcher unavailable", "dir", dir, "error", err.Error())
			} else {
				defer watcher.Stop()
			}

			a.Poller.Start(ctx)

			color.Green("✓ Panel listening on http://%s", server.Addr())
			fmt.Println("Press Ctrl+C to stop")

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop panel: %w", err)
			}
			a.Log.Info("Panel stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&panelHost, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVarP(&panelPort, "port", "p", 0, "Listen port (default from config)")
	cmd.Flags().StringVarP(&panelDir, "dir", "d", ".", "Flutter project directory for flutter commands")

	return cmd
}
