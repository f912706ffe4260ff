package adb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/platform"
	"github.com/flutterfly/devbridge/pkg/shell"
	"github.com/flutterfly/devbridge/pkg/state"
	"github.com/flutterfly/devbridge/pkg/util"
)

// DefaultBinary is the adb executable name
const DefaultBinary = "adb"

// Resolver finds a working way to invoke adb and runs commands through it
type Resolver struct {
	runner     shell.Runner
	store      state.Store
	classifier Classifier
	binary     string
	family     platform.Family
	home       string
	env        platform.EnvLookup
	stat       func(string) (os.FileInfo, error)
}

// ResolverOption customizes a Resolver
type ResolverOption func(*Resolver)

// WithBinary sets the adb executable name
func WithBinary(binary string) ResolverOption {
	return func(r *Resolver) {
		if strings.TrimSpace(binary) != "" {
			r.binary = strings.TrimSpace(binary)
		}
	}
}

// WithPlatform overrides the operating system family and home directory
func WithPlatform(family platform.Family, home string) ResolverOption {
	return func(r *Resolver) {
		r.family = family
		r.home = home
	}
}

// WithEnv overrides the environment lookup used for catalog paths
func WithEnv(env platform.EnvLookup) ResolverOption {
	return func(r *Resolver) {
		r.env = env
	}
}

// WithStat overrides the filesystem check used by AutoDetect
func WithStat(stat func(string) (os.FileInfo, error)) ResolverOption {
	return func(r *Resolver) {
		r.stat = stat
	}
}

// WithClassifier replaces the output classifier
func WithClassifier(c Classifier) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.classifier = c
		}
	}
}

// NewResolver creates a resolver for the running platform
func NewResolver(runner shell.Runner, store state.Store, opts ...ResolverOption) *Resolver {
	home, _ := os.UserHomeDir()
	r := &Resolver{
		runner:     runner,
		store:      store,
		classifier: TextClassifier{},
		binary:     DefaultBinary,
		family:     platform.Current(),
		home:       home,
		env:        os.LookupEnv,
		stat:       os.Stat,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Binary returns the adb executable name
func (r *Resolver) Binary() string {
	return r.binary
}

// Classifier returns the output classifier in use
func (r *Resolver) Classifier() Classifier {
	return r.classifier
}

// Command builds an adb command string
func (r *Resolver) Command(args ...string) string {
	return strings.Join(append([]string{r.binary}, args...), " ")
}

// ResolveStrategy determines how to invoke adb. A stored custom path always
// wins and is trusted without probing; otherwise PATH is probed, then the
// default SDK directory.
func (r *Resolver) ResolveStrategy(ctx context.Context) (Strategy, error) {
	log := util.GetLogger()

	if custom := state.CustomToolPath(r.store); custom != "" {
		log.V(1).Info("Using custom adb path", "path", custom)
		return Strategy{Kind: StrategyCustom, WorkDir: custom}, nil
	}

	if r.probe(ctx, "") {
		log.V(1).Info("adb reachable through PATH")
		return Strategy{Kind: StrategyBare}, nil
	}

	defaultDir, err := platform.DefaultSDKDir(r.family, r.home)
	if err != nil {
		log.V(1).Info("No default SDK directory", "platform", r.family, "error", err.Error())
	} else if r.probe(ctx, defaultDir) {
		log.V(1).Info("adb found in default SDK directory", "path", defaultDir)
		return Strategy{Kind: StrategyPathOverride, WorkDir: defaultDir}, nil
	}

	return Strategy{}, domain.NewToolNotFound("resolve", "", nil)
}

// ResolveBaseDirectory returns the working directory of the resolved strategy;
// empty when adb is reachable through PATH
func (r *Resolver) ResolveBaseDirectory(ctx context.Context) (string, error) {
	s, err := r.ResolveStrategy(ctx)
	if err != nil {
		return "", err
	}
	return s.WorkDir, nil
}

// RunCommand runs command directly and, on failure, retries it in the resolved
// adb directory
func (r *Resolver) RunCommand(ctx context.Context, command string) ([]byte, error) {
	log := util.GetLogger()

	output, err := r.runner.Run(ctx, command, "")
	if err == nil {
		return output, nil
	}
	log.V(1).Info("Direct execution failed", "command", command, "error", err.Error(), "output", string(output))
	if ctx.Err() != nil {
		return output, domain.NewCommandFailed("run", "command cancelled", string(output), ctx.Err())
	}

	strategy, rerr := r.ResolveStrategy(ctx)
	if rerr != nil {
		return output, domain.NewToolNotFound("run", string(output), err)
	}

	// adb answered on PATH, so the failure belongs to the command itself
	if strategy.UsesPath() {
		return output, domain.NewCommandFailed("run", "adb command failed", string(output), err)
	}

	log.V(1).Info("Retrying in adb directory", "command", command, "strategy", strategy.String())
	retryOutput, retryErr := r.runner.Run(ctx, command, strategy.WorkDir)
	if retryErr == nil {
		return retryOutput, nil
	}

	if toolRan(retryErr) {
		return retryOutput, domain.NewCommandFailed("run", "adb command failed", string(retryOutput), retryErr)
	}
	return retryOutput, domain.NewToolNotFound("run", string(retryOutput), retryErr)
}

// AutoDetect scans the candidate directories for an adb executable that answers
// the probe. The result is not persisted.
func (r *Resolver) AutoDetect(ctx context.Context) (string, error) {
	log := util.GetLogger()

	dirs, err := platform.CandidateDirs(r.family, r.home, r.env)
	if err != nil {
		return "", err
	}

	exe := platform.ExecutableName(r.family, r.binary)
	for _, dir := range dirs {
		info, err := r.stat(filepath.Join(dir, exe))
		if err != nil || info.IsDir() {
			log.V(1).Info("adb not present", "dir", dir)
			continue
		}
		if r.probe(ctx, dir) {
			log.Info("Found adb", "dir", dir)
			return dir, nil
		}
	}

	return "", domain.NewToolNotFound("detect", "", nil)
}

// probe runs "adb devices" in workDir and swallows any failure
func (r *Resolver) probe(ctx context.Context, workDir string) bool {
	output, err := r.runner.Run(ctx, r.Command("devices"), workDir)
	if err != nil {
		util.GetLogger().V(1).Info("Probe failed", "workDir", workDir, "error", err.Error())
		return false
	}
	return r.classifier.ToolReachable(string(output))
}

// toolRan reports whether err came from the tool itself rather than the shell
// failing to find it
func toolRan(err error) bool {
	var exitErr *shell.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	switch exitErr.ExitCode {
	case 126, 127, 9009:
		return false
	}
	return true
}
