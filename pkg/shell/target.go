package shell

import (
	"context"
	"fmt"
	"time"
)

// Runner executes a shell command string, optionally inside workDir, and returns
// the combined output
type Runner interface {
	Run(ctx context.Context, command string, workDir string) ([]byte, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, command string, workDir string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, command string, workDir string) ([]byte, error) {
	return f(ctx, command, workDir)
}

// ExecutionResult contains the results of a launched command
type ExecutionResult struct {
	// Command that was launched
	Command string

	// ExitCode from the process
	ExitCode int

	// Duration of execution
	Duration time.Duration

	// WorkDir where the execution happened
	WorkDir string

	// Error if execution failed
	Error error
}

// ExitError reports a command that ran but exited non-zero
type ExitError struct {
	Command  string
	ExitCode int
	Output   []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q failed with exit code: %d", e.Command, e.ExitCode)
}
