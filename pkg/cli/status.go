package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/flutterfly/devbridge/pkg/adb"
	"github.com/flutterfly/devbridge/pkg/app"
	"github.com/flutterfly/devbridge/pkg/poller"
)

var (
	statusWatch  bool
	statusOutput string
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the device connection status",
		Long: `Poll the device list once and print a one-line status. With --watch, keep
polling on the configured interval in a live view (r refreshes, q quits).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(statusOutput)
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if statusWatch {
				return runStatusWatch(cmd.Context(), a)
			}

			out, err := FormatState(a.Poller.Tick(cmd.Context()), format)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep polling in a live view")
	cmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}

func runStatusWatch(ctx context.Context, a *app.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newStatusModel(a.Poller.Interval(), func() tea.Msg {
		a.Poller.Tick(ctx)
		return nil
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	unsubscribe := a.Poller.Subscribe(func(s poller.State) {
		p.Send(statusStateMsg{state: s, devices: a.Registry.Snapshot()})
	})
	defer unsubscribe()

	a.Poller.Start(ctx)
	defer a.Poller.Stop()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run status view: %w", err)
	}
	return nil
}

type statusStateMsg struct {
	state   poller.State
	devices []adb.DeviceEntry
}

var (
	statusTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusOKStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	statusWarnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	statusErrStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	statusDimStyle   = lipgloss.NewStyle().Faint(true)
)

// statusModel is the bubbletea model behind `status --watch`
type statusModel struct {
	state    poller.State
	devices  []adb.DeviceEntry
	interval time.Duration
	refresh  tea.Cmd
	waiting  bool
}

func newStatusModel(interval time.Duration, refresh tea.Cmd) statusModel {
	return statusModel{
		state:    poller.State{Connectivity: poller.Offline, Summary: poller.SummaryOffline},
		interval: interval,
		refresh:  refresh,
		waiting:  true,
	}
}

func (m statusModel) Init() tea.Cmd {
	return nil
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusStateMsg:
		m.state = msg.state
		m.devices = msg.devices
		m.waiting = false
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refresh
		}
	}
	return m, nil
}

func (m statusModel) View() string {
	var b strings.Builder
	b.WriteString(statusTitleStyle.Render("devbridge status"))
	b.WriteString("\n\n")

	if m.waiting {
		b.WriteString(statusDimStyle.Render("Polling devices..."))
		b.WriteString("\n")
	} else {
		b.WriteString(connectivityBadge(m.state.Connectivity))
		b.WriteString("  ")
		b.WriteString(m.state.Summary)
		b.WriteString("\n")
		if m.state.LastError != "" {
			b.WriteString(statusDimStyle.Render(m.state.LastError))
			b.WriteString("\n")
		}
	}

	if len(m.devices) > 0 {
		b.WriteString("\n")
		for _, d := range m.devices {
			fmt.Fprintf(&b, "  %-24s %-20s %s\n", d.Address, d.DisplayName, d.Status)
		}
	}

	footer := fmt.Sprintf("refresh every %s  |  r refresh  |  q quit", m.interval)
	if !m.state.UpdatedAt.IsZero() {
		footer = "updated " + m.state.UpdatedAt.Format(time.TimeOnly) + "  |  " + footer
	}
	b.WriteString("\n")
	b.WriteString(statusDimStyle.Render(footer))
	b.WriteString("\n")
	return b.String()
}

func connectivityBadge(c poller.Connectivity) string {
	switch c {
	case poller.Connected:
		return statusOKStyle.Render("● connected")
	case poller.Empty:
		return statusWarnStyle.Render("○ no device")
	default:
		return statusErrStyle.Render("✗ offline")
	}
}
