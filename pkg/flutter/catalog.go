package flutter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/shell"
	"github.com/flutterfly/devbridge/pkg/util"
)

// BuildMode selects the flutter build flavour
type BuildMode string

const (
	ModeDebug   BuildMode = "debug"
	ModeProfile BuildMode = "profile"
	ModeRelease BuildMode = "release"
)

// DefaultMode is used when no mode is given
const DefaultMode = ModeRelease

// Command ids accepted from the panel and the CLI
const (
	CmdDoctor          = "runFlutterDoctor"
	CmdGetPackages     = "getPackages"
	CmdUpgradePackages = "upgradePackages"
	CmdClean           = "cleanProject"
	CmdRun             = "runApp"
	CmdBuildAPK        = "buildAPK"
	CmdBuildAAB        = "buildAAB"
)

// Command is one catalog entry
type Command struct {
	ID          string
	Description string
	args        []string
	// takesMode appends --<mode> to the arguments
	takesMode bool
}

var commands = map[string]Command{
	CmdDoctor:          {ID: CmdDoctor, Description: "Run flutter doctor", args: []string{"doctor"}},
	CmdGetPackages:     {ID: CmdGetPackages, Description: "Get packages", args: []string{"pub", "get"}},
	CmdUpgradePackages: {ID: CmdUpgradePackages, Description: "Upgrade packages", args: []string{"pub", "upgrade"}},
	CmdClean:           {ID: CmdClean, Description: "Clean the project", args: []string{"clean"}},
	CmdRun:             {ID: CmdRun, Description: "Run the app", args: []string{"run"}},
	CmdBuildAPK:        {ID: CmdBuildAPK, Description: "Build an APK", args: []string{"build", "apk"}, takesMode: true},
	CmdBuildAAB:        {ID: CmdBuildAAB, Description: "Build an app bundle (AAB)", args: []string{"build", "appbundle"}, takesMode: true},
}

// Launcher runs a command attached to a visible terminal
type Launcher interface {
	Launch(ctx context.Context, command string, workDir string) (*shell.ExecutionResult, error)
}

// Catalog maps command ids to flutter command lines
type Catalog struct {
	binary string
}

// NewCatalog creates a catalog for the given flutter executable
func NewCatalog(binary string) *Catalog {
	if strings.TrimSpace(binary) == "" {
		binary = "flutter"
	}
	return &Catalog{binary: binary}
}

// ParseBuildMode parses a build mode; empty selects DefaultMode
func ParseBuildMode(s string) (BuildMode, error) {
	switch BuildMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultMode, nil
	case ModeDebug:
		return ModeDebug, nil
	case ModeProfile:
		return ModeProfile, nil
	case ModeRelease:
		return ModeRelease, nil
	default:
		return "", domain.NewInvalidArgument("flutter", "mode", fmt.Sprintf("unknown build mode %q (debug, profile, release)", s))
	}
}

// Commands returns the catalog entries sorted by id
func (c *Catalog) Commands() []Command {
	out := make([]Command, 0, len(commands))
	for _, cmd := range commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CommandLine returns the shell string for id
func (c *Catalog) CommandLine(id string, mode BuildMode) (string, error) {
	cmd, ok := commands[id]
	if !ok {
		return "", domain.NewInvalidArgument("flutter", "commandId", fmt.Sprintf("unknown command %q", id))
	}

	parts := append([]string{c.binary}, cmd.args...)
	if cmd.takesMode {
		if mode == "" {
			mode = DefaultMode
		}
		if _, err := ParseBuildMode(string(mode)); err != nil {
			return "", err
		}
		parts = append(parts, "--"+string(mode))
	}
	return strings.Join(parts, " "), nil
}

// Run launches the command for id in dir
func (c *Catalog) Run(ctx context.Context, l Launcher, id string, mode BuildMode, dir string) (*shell.ExecutionResult, error) {
	line, err := c.CommandLine(id, mode)
	if err != nil {
		return nil, err
	}

	util.GetLogger().Info("Running flutter command", "id", id, "command", line, "dir", dir)
	result, err := l.Launch(ctx, line, dir)
	if err != nil {
		return result, fmt.Errorf("failed to run %s: %w", id, err)
	}
	return result, nil
}
