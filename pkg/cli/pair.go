package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flutterfly/devbridge/pkg/pairing"
)

var (
	pairPNG     string
	pairTimeout time.Duration
)

// NewPairCmd creates the pair command
func NewPairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Pair a device for wireless debugging with a QR code",
		Long: `Show a QR code to scan from Developer options > Wireless debugging >
Pair device with QR code (Android 11+). devbridge waits for the phone to
advertise itself over mDNS and pairs with it.

Examples:
  devbridge pair                  # QR code in the terminal
  devbridge pair --png pair.png   # also write the QR code as an image`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := pairing.NewSession()
			if err != nil {
				return err
			}

			qr, err := session.TerminalQR()
			if err != nil {
				return err
			}
			fmt.Println(qr)

			if pairPNG != "" {
				data, err := session.PNG(256)
				if err != nil {
					return fmt.Errorf("failed to render QR image: %w", err)
				}
				if err := os.WriteFile(pairPNG, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", pairPNG, err)
				}
				fmt.Printf("QR code written to %s\n", pairPNG)
			}

			timeout := pairTimeout
			if timeout <= 0 {
				timeout = a.Config.GetPairingTimeout()
			}
			fmt.Printf("Service: %s  Password: %s\n", session.ServiceName, session.Password)
			fmt.Printf("Waiting up to %s for the device...\n", timeout)

			msg, err := a.Pairer.Run(cmd.Context(), session, timeout)
			if err != nil {
				return err
			}

			color.Green("✓ %s", msg)
			fmt.Println("Connect with: devbridge connect --pick")
			return nil
		},
	}

	cmd.Flags().StringVar(&pairPNG, "png", "", "Also write the QR code to this PNG file")
	cmd.Flags().DurationVar(&pairTimeout, "timeout", 0, "How long to wait for the device (default from config)")

	return cmd
}
