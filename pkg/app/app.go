// Package app wires every devbridge component from a loaded configuration.
package app

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/flutterfly/devbridge/pkg/adb"
	"github.com/flutterfly/devbridge/pkg/config"
	"github.com/flutterfly/devbridge/pkg/flutter"
	"github.com/flutterfly/devbridge/pkg/pairing"
	"github.com/flutterfly/devbridge/pkg/panel"
	"github.com/flutterfly/devbridge/pkg/poller"
	"github.com/flutterfly/devbridge/pkg/shell"
	"github.com/flutterfly/devbridge/pkg/state"
	"github.com/flutterfly/devbridge/pkg/util"
)

// App owns one instance of every component. It is built once and passed
// explicitly to whatever needs it.
type App struct {
	Config   *config.Config
	Log      logr.Logger
	Store    state.Store
	Runner   *shell.ExecRunner
	Resolver *adb.Resolver
	Registry *adb.Registry
	Poller   *poller.Poller
	Flutter  *flutter.Catalog
	Pairer   *pairing.Pairer
}

// Option customizes App construction
type Option func(*options)

type options struct {
	runner   shell.Runner
	resolver []adb.ResolverOption
}

// WithRunner replaces the shell runner used for adb
func WithRunner(r shell.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithResolverOptions passes extra options to the adb resolver
func WithResolverOptions(opts ...adb.ResolverOption) Option {
	return func(o *options) {
		o.resolver = append(o.resolver, opts...)
	}
}

// New opens the state store and builds every component from cfg
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := state.Open(cfg.State)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	execRunner := shell.NewExecRunner(cfg.Tool.Timeout)
	var runner shell.Runner = execRunner
	if o.runner != nil {
		runner = o.runner
	}

	resolverOpts := append([]adb.ResolverOption{adb.WithBinary(cfg.Tool.Binary)}, o.resolver...)
	resolver := adb.NewResolver(runner, store, resolverOpts...)
	registry := adb.NewRegistryFromResolver(resolver, store)

	return &App{
		Config:   cfg,
		Log:      util.GetLogger(),
		Store:    store,
		Runner:   execRunner,
		Resolver: resolver,
		Registry: registry,
		Poller:   poller.New(registry, cfg.Poll.Interval),
		Flutter:  flutter.NewCatalog(cfg.Tool.FlutterBinary),
		Pairer:   pairing.NewPairer(resolver),
	}, nil
}

// Startup logs where adb was found. A missing tool is not fatal.
func (a *App) Startup(ctx context.Context) {
	if custom := state.CustomToolPath(a.Store); custom != "" {
		a.Log.Info("Using custom adb path", "path", custom)
		return
	}

	dir, err := a.Resolver.AutoDetect(ctx)
	if err != nil {
		a.Log.Info("adb not detected in the usual SDK locations", "error", err.Error())
		return
	}
	a.Log.Info("adb detected", "dir", dir)
}

// NewPanel builds the panel server serving this app's registry and poller
func (a *App) NewPanel(projectDir string) *panel.Server {
	return panel.NewServer(panel.Options{
		Host:       a.Config.Panel.Host,
		Port:       a.Config.Panel.Port,
		Devices:    a.Registry,
		Status:     a.Poller,
		Flutter:    a.Flutter,
		Launcher:   a.Runner,
		ProjectDir: projectDir,
	})
}

// Close stops the poller and closes the state store
func (a *App) Close() error {
	a.Poller.Stop()
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("failed to close state store: %w", err)
	}
	return nil
}
