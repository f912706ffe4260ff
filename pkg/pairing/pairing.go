// Package pairing implements Android 11+ wireless debugging pairing by QR code.
//
// The phone scans a WIFI:T:ADB payload, advertises a _adb-tls-pairing._tcp
// service under the session's name, and adb pairs with it using the password.
package pairing

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/flutterfly/devbridge/pkg/adb"
	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/parser"
	"github.com/flutterfly/devbridge/pkg/util"
)

// ServicePrefix starts every generated service name
const ServicePrefix = "devbridge-"

// DefaultPollInterval is how often mDNS services are listed while waiting
const DefaultPollInterval = 2 * time.Second

// Session is one pairing attempt
type Session struct {
	ServiceName string
	Password    string
}

// NewSession creates a session with a random service name and 6-digit password
func NewSession() (*Session, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return nil, fmt.Errorf("failed to generate pairing password: %w", err)
	}

	return &Session{
		ServiceName: ServicePrefix + id[:8],
		Password:    fmt.Sprintf("%06d", n.Int64()),
	}, nil
}

// QRPayload returns the string encoded in the QR code
func (s *Session) QRPayload() string {
	return fmt.Sprintf("WIFI:T:ADB;S:%s;P:%s;;", s.ServiceName, s.Password)
}

// TerminalQR renders the payload for terminal display
func (s *Session) TerminalQR() (string, error) {
	qr, err := qrcode.New(s.QRPayload(), qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	return qr.ToSmallString(false), nil
}

// PNG renders the payload as a PNG image of the given size
func (s *Session) PNG(size int) ([]byte, error) {
	return qrcode.Encode(s.QRPayload(), qrcode.Medium, size)
}

// Pairer waits for the phone to advertise the session and pairs with it
type Pairer struct {
	runner     adb.CommandRunner
	binary     string
	classifier adb.Classifier
	interval   time.Duration
}

// NewPairer creates a pairer that runs adb through r
func NewPairer(r *adb.Resolver) *Pairer {
	return &Pairer{
		runner:     r,
		binary:     r.Binary(),
		classifier: r.Classifier(),
		interval:   DefaultPollInterval,
	}
}

// WithInterval sets the mDNS polling interval
func (p *Pairer) WithInterval(d time.Duration) *Pairer {
	if d > 0 {
		p.interval = d
	}
	return p
}

// WaitForService polls `adb mdns services` until the session's pairing service
// shows up and returns its ip:port
func (p *Pairer) WaitForService(ctx context.Context, s *Session) (string, error) {
	log := util.GetLogger()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		output, err := p.runner.RunCommand(ctx, p.binary+" mdns services")
		if err != nil {
			log.V(1).Info("mdns services failed", "error", err.Error())
		} else {
			for _, svc := range parser.ParseMDNSServices(string(output)) {
				if svc.Type == parser.ServiceTLSPairing && svc.Instance == s.ServiceName {
					log.Info("Pairing service found", "address", svc.Address)
					return svc.Address, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("pairing service %s not found: %w", s.ServiceName, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Pair runs `adb pair` against address with password
func (p *Pairer) Pair(ctx context.Context, address, password string) (string, error) {
	if strings.TrimSpace(address) == "" {
		return "", domain.NewInvalidArgument("pair", "address", "must not be empty")
	}
	if strings.TrimSpace(password) == "" {
		return "", domain.NewInvalidArgument("pair", "password", "must not be empty")
	}

	output, err := p.runner.RunCommand(ctx, fmt.Sprintf("%s pair %s %s", p.binary, address, password))
	if err != nil {
		return "", err
	}
	message := strings.TrimSpace(string(output))
	if !p.classifier.Paired(message) {
		return "", domain.NewCommandFailed("pair", "pairing failed", message, nil)
	}
	return message, nil
}

// Run waits for the session's service (bounded by timeout) and pairs with it
func (p *Pairer) Run(ctx context.Context, s *Session, timeout time.Duration) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	address, err := p.WaitForService(waitCtx, s)
	if err != nil {
		return "", err
	}
	return p.Pair(ctx, address, s.Password)
}
