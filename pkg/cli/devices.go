package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/parser"
	"github.com/flutterfly/devbridge/pkg/state"
)

var (
	connectPick bool
	connectCopy bool
	listOutput  string
)

// NewConnectCmd creates the connect command
func NewConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect [ip] [port]",
		Short: "Connect to a device over Wi-Fi",
		Long: `Connect to a device with "adb connect ip:port".

Missing arguments are prompted for, pre-filled with the last address used.
With --pick, choose from devices advertised over mDNS and those already known;
every other device is disconnected first. The optional argument is then the port.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if connectPick {
				port := state.LastUsedPort(a.Store)
				if len(args) > 0 {
					port = args[0]
				}

				candidates, err := a.Registry.FindAddressCandidates(ctx)
				if err != nil {
					return err
				}
				if len(candidates) == 0 {
					return fmt.Errorf("no devices found; run `devbridge connect <ip>` instead")
				}

				picker := promptui.Select{
					Label: "Select device",
					Items: candidates,
				}
				_, choice, err := picker.Run()
				if err != nil {
					return fmt.Errorf("failed to select device: %w", err)
				}

				msg, err := a.Registry.ConnectFromCandidate(ctx, choice, port)
				if err != nil {
					printManualConnect(parser.ExtractIP(choice), port)
					return err
				}
				color.Green("✓ %s", msg)
				return nil
			}

			ip, port, err := connectTarget(a.Store, args)
			if err != nil {
				return err
			}

			if connectCopy {
				manual := "adb connect " + parser.JoinAddress(ip, port)
				if err := clipboard.WriteAll(manual); err != nil {
					a.Log.Info("Clipboard unavailable", "error", err.Error())
				} else {
					fmt.Printf("Copied to clipboard: %s\n", manual)
				}
			}

			msg, err := a.Registry.Connect(ctx, ip, port)
			if err != nil {
				printManualConnect(ip, port)
				return err
			}
			color.Green("✓ %s", msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&connectPick, "pick", false, "Choose from discovered devices")
	cmd.Flags().BoolVar(&connectCopy, "copy", false, "Copy the adb connect command to the clipboard")

	return cmd
}

// connectTarget takes ip and port from args, prompting for whatever is missing
func connectTarget(store state.Store, args []string) (string, string, error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}
	if len(args) == 1 {
		return args[0], state.LastUsedPort(store), nil
	}

	ip, err := promptValue("Device IP address", state.LastUsedIP(store), requireValue)
	if err != nil {
		return "", "", err
	}
	port, err := promptValue("Port", state.LastUsedPort(store), requireValue)
	if err != nil {
		return "", "", err
	}
	return ip, port, nil
}

func promptValue(label, def string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: true,
		Validate:  validate,
	}
	value, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
			return "", fmt.Errorf("cancelled")
		}
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(value), nil
}

func requireValue(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}

// printManualConnect shows the command the user can run by hand after a failure
func printManualConnect(ip, port string) {
	if strings.TrimSpace(ip) == "" {
		return
	}
	color.New(color.FgYellow).Fprintf(os.Stderr, "Try manually: adb connect %s\n", parser.JoinAddress(ip, port))
}

// NewDisconnectCmd creates the disconnect command
func NewDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect [address]",
		Short: "Disconnect one device, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var msg string
			if len(args) == 1 {
				msg, err = a.Registry.DisconnectOne(cmd.Context(), args[0])
			} else {
				msg, err = a.Registry.DisconnectAll(cmd.Context())
			}
			if err != nil {
				return err
			}

			if msg == "" {
				msg = "Disconnected"
			}
			color.Green("✓ %s", msg)
			return nil
		},
	}
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"devices", "ls"},
		Short:   "List attached devices",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(listOutput)
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			devices, err := a.Registry.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			out, err := FormatDevices(devices, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}

// NewInstallCmd creates the install command
func NewInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <path-to-apk>",
		Short: "Install an APK on the connected device",
		Long:  `Install (or reinstall, keeping data) an .apk with "adb install -r".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return domain.NewInvalidArgument("install", "path", fmt.Sprintf("cannot read %s: %v", path, err))
			}
			if info.IsDir() {
				return domain.NewInvalidArgument("install", "path", fmt.Sprintf("%s is a directory", path))
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Printf("Installing %s...\n", path)
			msg, err := a.Registry.InstallPackage(cmd.Context(), path)
			if err != nil {
				return err
			}
			color.Green("✓ %s", msg)
			return nil
		},
	}
}

// NewKillServerCmd creates the kill-server command
func NewKillServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill-server",
		Short: "Stop the adb server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			msg, err := a.Registry.KillServer(cmd.Context())
			if err != nil {
				return err
			}
			color.Green("✓ %s", msg)
			return nil
		},
	}
}

// NewTCPIPCmd creates the tcpip command
func NewTCPIPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tcpip [port]",
		Short: "Restart adbd on the USB device in TCP mode",
		Long: `Restart adbd on the USB-connected device listening on port (default: the
last port used, or 5555) so it can then be reached with "devbridge connect".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			port := state.LastUsedPort(a.Store)
			if len(args) == 1 {
				port = args[0]
			}

			msg, err := a.Registry.ResetPort(cmd.Context(), port)
			if err != nil {
				return err
			}
			color.Green("✓ %s", msg)
			return nil
		},
	}
}
