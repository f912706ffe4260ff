package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/flutterfly/devbridge/pkg/util"
)

// DefaultTimeout bounds a command when the runner was built without one
const DefaultTimeout = 30 * time.Second

// ExecRunner runs commands through the platform shell (sh -c or cmd /C)
type ExecRunner struct {
	// Timeout bounds every Run call
	Timeout time.Duration

	// Stdout and Stderr receive the output of Launch; nil means the process's own
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner with the given per-command timeout
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

// Run executes command with a timeout and captures combined output
func (r *ExecRunner) Run(ctx context.Context, command string, workDir string) ([]byte, error) {
	log := util.GetLogger()
	log.V(1).Info("Executing command", "command", command, "workDir", workDir)

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Create context with timeout
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := shellCommand(execCtx, resolveInWorkDir(command, workDir))
	cmd.Dir = workDir
	// Children of the shell may hold the output pipe after it is killed
	cmd.WaitDelay = time.Second

	start := time.Now()
	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return output, fmt.Errorf("command %q cancelled: %w", command, ctx.Err())
		}
		if execCtx.Err() != nil {
			return output, fmt.Errorf("command %q timed out after %s: %w", command, timeout, execCtx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.V(1).Info("Command failed", "command", command, "exitCode", exitErr.ExitCode(), "duration", duration)
			return output, &ExitError{Command: command, ExitCode: exitErr.ExitCode(), Output: output}
		}
		// Command failed to start
		return output, fmt.Errorf("failed to execute command: %w", err)
	}

	log.V(1).Info("Command completed", "command", command, "duration", duration)
	return output, nil
}

// Launch runs command attached to the terminal, streaming its output. It is the
// equivalent of sending a command to a visible terminal and is not bounded by
// Timeout; cancel ctx to stop it.
func (r *ExecRunner) Launch(ctx context.Context, command string, workDir string) (*ExecutionResult, error) {
	log := util.GetLogger()
	log.Info("Launching command", "command", command, "workDir", workDir)

	cmd := shellCommand(ctx, command)
	cmd.Dir = workDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = writerOr(r.Stdout, os.Stdout)
	cmd.Stderr = writerOr(r.Stderr, os.Stderr)

	// Execute
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	// Get exit code
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Command failed to start or was killed
			return nil, fmt.Errorf("failed to execute command: %w", err)
		}
	}

	result := &ExecutionResult{
		Command:  command,
		ExitCode: exitCode,
		Duration: duration,
		WorkDir:  workDir,
		Error:    err,
	}

	log.Info("Command completed", "exitCode", exitCode, "duration", duration)

	if exitCode != 0 {
		return result, fmt.Errorf("command failed with exit code: %d", exitCode)
	}

	return result, nil
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// resolveInWorkDir rewrites the leading word of command to an absolute path when
// workDir contains an executable of that name. POSIX shells never search the
// current directory, so a tool directory used as the working directory would
// otherwise be ignored.
func resolveInWorkDir(command, workDir string) string {
	if workDir == "" {
		return command
	}
	trimmed := strings.TrimLeft(command, " \t")
	name, rest, _ := strings.Cut(trimmed, " ")
	if name == "" || strings.ContainsAny(name, `/\"'`) {
		return command
	}

	for _, candidate := range executableNames(name) {
		path := filepath.Join(workDir, candidate)
		if isExecutable(path) {
			quoted := quote(path)
			if rest == "" {
				return quoted
			}
			return quoted + " " + rest
		}
	}
	return command
}

func executableNames(name string) []string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return []string{name + ".exe", name}
	}
	return []string{name}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}

// quote wraps path in double quotes for the platform shell
func quote(path string) string {
	if runtime.GOOS == "windows" {
		return `"` + path + `"`
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`").Replace(path) + `"`
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
