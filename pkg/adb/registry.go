package adb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/parser"
	"github.com/flutterfly/devbridge/pkg/state"
	"github.com/flutterfly/devbridge/pkg/util"
)

// DeviceStatus is the connectivity of a registry entry
type DeviceStatus string

const (
	StatusOnline       DeviceStatus = "online"
	StatusOffline      DeviceStatus = "offline"
	StatusUnauthorized DeviceStatus = "unauthorized"
)

// DeviceKind distinguishes emulators from real hardware
type DeviceKind string

const (
	KindPhysical DeviceKind = "physicalDevice"
	KindEmulator DeviceKind = "emulator"
)

// DeviceEntry is one known device. Address is the unique key.
type DeviceEntry struct {
	Address     string       `json:"address" yaml:"address"`
	DisplayName string       `json:"displayName" yaml:"displayName"`
	Status      DeviceStatus `json:"status" yaml:"status"`
	Kind        DeviceKind   `json:"kind" yaml:"kind"`
	Model       string       `json:"model,omitempty" yaml:"model,omitempty"`
	Product     string       `json:"product,omitempty" yaml:"product,omitempty"`
	TransportID string       `json:"transportId,omitempty" yaml:"transportId,omitempty"`
}

// CommandRunner runs an adb command string; *Resolver implements it
type CommandRunner interface {
	RunCommand(ctx context.Context, command string) ([]byte, error)
}

// Registry owns the in-process device list and translates user intents into
// adb invocations. All mutations are serialized.
type Registry struct {
	runner     CommandRunner
	store      state.Store
	classifier Classifier
	binary     string

	mu      sync.Mutex
	entries []DeviceEntry

	refreshGroup singleflight.Group
}

// NewRegistry creates an empty registry. A nil classifier selects TextClassifier.
func NewRegistry(runner CommandRunner, store state.Store, binary string, classifier Classifier) *Registry {
	if classifier == nil {
		classifier = TextClassifier{}
	}
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Registry{
		runner:     runner,
		store:      store,
		classifier: classifier,
		binary:     binary,
	}
}

// NewRegistryFromResolver creates a registry that runs commands through r
func NewRegistryFromResolver(r *Resolver, store state.Store) *Registry {
	return NewRegistry(r, store, r.Binary(), r.Classifier())
}

func (g *Registry) command(args ...string) string {
	return strings.Join(append([]string{g.binary}, args...), " ")
}

// Connect connects to address:port. The preference is saved before adb runs,
// so it survives a failed attempt.
func (g *Registry) Connect(ctx context.Context, address, port string) (string, error) {
	log := util.GetLogger()
	address = strings.TrimSpace(address)
	port = strings.TrimSpace(port)

	if err := validateEndpoint("connect", address, port); err != nil {
		return "", err
	}

	if err := state.SavePreference(g.store, address, port); err != nil {
		log.Error(err, "Failed to save connection preference")
	}

	target := parser.JoinAddress(address, port)
	log.Info("Connecting", "target", target)

	output, err := g.runner.RunCommand(ctx, g.command("connect", target))
	if err != nil {
		return "", err
	}
	message := strings.TrimSpace(string(output))
	if !g.classifier.Connected(message) {
		return "", domain.NewCommandFailed("connect", fmt.Sprintf("failed to connect to %s", target), message, nil)
	}

	g.mu.Lock()
	g.upsertLocked(DeviceEntry{
		Address:     target,
		DisplayName: target,
		Status:      StatusOnline,
		Kind:        KindPhysical,
	})
	g.mu.Unlock()

	log.Info("Connected", "target", target)
	return message, nil
}

// ConnectFromCandidate connects to a picked candidate, which may be a labelled
// string such as "Pixel 7 | 192.168.1.5". Every other device is disconnected first.
func (g *Registry) ConnectFromCandidate(ctx context.Context, candidate, port string) (string, error) {
	address := parser.ExtractIP(candidate)
	if address == "" {
		address = strings.TrimSpace(candidate)
	}
	if address == "" {
		return "", domain.NewInvalidArgument("connect", "address", "no device selected")
	}
	if err := validateEndpoint("connect", address, port); err != nil {
		return "", err
	}

	if _, err := g.DisconnectAll(ctx); err != nil {
		return "", err
	}
	return g.Connect(ctx, address, port)
}

// DisconnectAll disconnects every device and clears the registry
func (g *Registry) DisconnectAll(ctx context.Context) (string, error) {
	output, err := g.runner.RunCommand(ctx, g.command("disconnect"))
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.entries = nil
	g.mu.Unlock()

	util.GetLogger().Info("Disconnected all devices")
	return strings.TrimSpace(string(output)), nil
}

// DisconnectOne disconnects a single address and removes its entry
func (g *Registry) DisconnectOne(ctx context.Context, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", domain.NewInvalidArgument("disconnect", "address", "must not be empty")
	}

	// adb treats a bare IPv4 host as host:5555
	if parser.IsIPv4(address) {
		address = parser.JoinAddress(address, state.DefaultPort)
	}

	output, err := g.runner.RunCommand(ctx, g.command("disconnect", address))
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.removeLocked(address)
	g.mu.Unlock()

	util.GetLogger().Info("Disconnected device", "address", address)
	return strings.TrimSpace(string(output)), nil
}

// Refresh lists devices and replaces the registry contents with the result.
// Concurrent callers share a single adb invocation. The shared call outlives
// any one caller's cancellation; each caller stops waiting on its own ctx.
func (g *Registry) Refresh(ctx context.Context) ([]DeviceEntry, error) {
	shared := context.WithoutCancel(ctx)
	ch := g.refreshGroup.DoChan("refresh", func() (interface{}, error) {
		return g.refresh(shared)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("refresh cancelled: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneEntries(res.Val.([]DeviceEntry)), nil
	}
}

func (g *Registry) refresh(ctx context.Context) ([]DeviceEntry, error) {
	output, err := g.runner.RunCommand(ctx, g.command("devices", "-l"))
	if err != nil {
		return nil, err
	}
	text := string(output)
	if !g.classifier.ToolReachable(text) {
		return nil, domain.NewCommandFailed("refresh", "unexpected device list output", text, nil)
	}

	entries := make([]DeviceEntry, 0)
	index := make(map[string]int)
	for _, line := range parser.ParseDeviceList(text) {
		entry := entryFromLine(line)
		if i, ok := index[entry.Address]; ok {
			entries[i] = entry
			continue
		}
		index[entry.Address] = len(entries)
		entries = append(entries, entry)
	}

	g.mu.Lock()
	g.entries = entries
	g.mu.Unlock()

	util.GetLogger().V(1).Info("Refreshed devices", "count", len(entries))
	return cloneEntries(entries), nil
}

// InstallPackage installs (or reinstalls) a local .apk on the connected device
func (g *Registry) InstallPackage(ctx context.Context, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", domain.NewInvalidArgument("install", "path", "must not be empty")
	}
	if !IsPackageFile(path) || strings.Contains(path, `"`) {
		return "", domain.NewInvalidArgument("install", "path", fmt.Sprintf("invalid package file %q (expected .apk)", path))
	}

	util.GetLogger().Info("Installing package", "path", path)
	output, err := g.runner.RunCommand(ctx, g.command("install", "-r", `"`+path+`"`))
	if err != nil {
		return "", err
	}
	message := strings.TrimSpace(string(output))
	if !g.classifier.Installed(message) {
		return "", domain.NewCommandFailed("install", "install failed", message, nil)
	}
	return message, nil
}

// FindAddressCandidates returns addresses the user is likely to connect to:
// mDNS-advertised devices, then registry addresses, with the last used IP first
func (g *Registry) FindAddressCandidates(ctx context.Context) ([]string, error) {
	log := util.GetLogger()
	var candidates []string

	mdnsOK := false
	if output, err := g.runner.RunCommand(ctx, g.command("mdns", "services")); err != nil {
		log.V(1).Info("mdns discovery unavailable", "error", err.Error())
	} else {
		mdnsOK = true
		for _, svc := range parser.ParseMDNSServices(string(output)) {
			if ip := parser.ExtractIP(svc.Address); ip != "" {
				candidates = append(candidates, ip)
			}
		}
	}

	entries, err := g.Refresh(ctx)
	if err != nil {
		if !mdnsOK {
			return nil, err
		}
		log.V(1).Info("Refresh failed while collecting candidates", "error", err.Error())
	}
	for _, e := range entries {
		if parser.IsNetworkAddress(e.Address) {
			if ip := parser.ExtractIP(e.Address); ip != "" {
				candidates = append(candidates, ip)
			}
		}
	}

	return prependLastUsed(dedupe(candidates), state.LastUsedIP(g.store)), nil
}

// KillServer stops the adb server; every connection is dropped with it
func (g *Registry) KillServer(ctx context.Context) (string, error) {
	output, err := g.runner.RunCommand(ctx, g.command("kill-server"))
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.entries = nil
	g.mu.Unlock()

	message := strings.TrimSpace(string(output))
	if message == "" {
		message = "adb server stopped"
	}
	return message, nil
}

// ResetPort restarts adbd on the USB-connected device in TCP mode on port
func (g *Registry) ResetPort(ctx context.Context, port string) (string, error) {
	port = strings.TrimSpace(port)
	if _, err := validatePort("tcpip", port); err != nil {
		return "", err
	}
	if err := g.store.Set(state.KeyLastUsedPort, port); err != nil {
		util.GetLogger().Error(err, "Failed to save last used port")
	}

	output, err := g.runner.RunCommand(ctx, g.command("tcpip", port))
	if err != nil {
		return "", err
	}
	message := strings.TrimSpace(string(output))
	if !g.classifier.TCPModeRestarted(message) {
		return "", domain.NewCommandFailed("tcpip", "failed to restart in TCP mode", message, nil)
	}
	return message, nil
}

// Snapshot returns a copy of the current entries
func (g *Registry) Snapshot() []DeviceEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneEntries(g.entries)
}

// Len returns the number of entries
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *Registry) upsertLocked(entry DeviceEntry) {
	for i := range g.entries {
		if g.entries[i].Address == entry.Address {
			// Keep what a listing already learned about the device
			if g.entries[i].Model != "" {
				entry.DisplayName = g.entries[i].DisplayName
				entry.Model = g.entries[i].Model
				entry.Product = g.entries[i].Product
				entry.TransportID = g.entries[i].TransportID
			}
			g.entries[i] = entry
			return
		}
	}
	g.entries = append(g.entries, entry)
}

func (g *Registry) removeLocked(address string) {
	kept := g.entries[:0]
	for _, e := range g.entries {
		if e.Address != address {
			kept = append(kept, e)
		}
	}
	g.entries = kept
}

func entryFromLine(line parser.DeviceLine) DeviceEntry {
	entry := DeviceEntry{
		Address:     line.Address,
		DisplayName: line.Address,
		Status:      statusFromToken(line.State),
		Kind:        KindPhysical,
		Model:       line.Model,
		Product:     line.Product,
		TransportID: line.TransportID,
	}
	if strings.Contains(line.Address, "emulator") {
		entry.Kind = KindEmulator
	}
	if line.Model != "" {
		entry.DisplayName = strings.ReplaceAll(line.Model, "_", " ")
	}
	return entry
}

func statusFromToken(token string) DeviceStatus {
	switch token {
	case "device":
		return StatusOnline
	case "unauthorized":
		return StatusUnauthorized
	default:
		return StatusOffline
	}
}

func cloneEntries(entries []DeviceEntry) []DeviceEntry {
	out := make([]DeviceEntry, len(entries))
	copy(out, entries)
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// prependLastUsed moves last to the front, removing any later duplicate
func prependLastUsed(candidates []string, last string) []string {
	last = strings.TrimSpace(last)
	if last == "" {
		return candidates
	}
	if len(candidates) > 0 && candidates[0] == last {
		return candidates
	}
	out := make([]string, 0, len(candidates)+1)
	out = append(out, last)
	for _, c := range candidates {
		if c != last {
			out = append(out, c)
		}
	}
	return out
}
