package adb

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/flutterfly/devbridge/pkg/shell"
)

// call is one recorded shell invocation
type call struct {
	Command string
	WorkDir string
}

// reply is what the fake returns for a matching command
type reply struct {
	output string
	err    error
}

// fakeRunner is a shell.Runner that records invocations and answers from a
// table keyed by "workDir|command"; a key without "|" matches any workDir
type fakeRunner struct {
	mu      sync.Mutex
	calls   []call
	replies map[string]reply
	// handler, when set, takes precedence over replies
	handler func(command, workDir string) ([]byte, error)
}

var errNotFound = &shell.ExitError{Command: "adb", ExitCode: 127, Output: []byte("sh: adb: not found")}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{replies: make(map[string]reply)}
}

func (f *fakeRunner) on(command, output string) *fakeRunner {
	f.replies[command] = reply{output: output}
	return f
}

func (f *fakeRunner) onIn(workDir, command, output string) *fakeRunner {
	f.replies[workDir+"|"+command] = reply{output: output}
	return f
}

func (f *fakeRunner) fail(command string, err error) *fakeRunner {
	f.replies[command] = reply{err: err}
	return f
}

func (f *fakeRunner) Run(_ context.Context, command string, workDir string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Command: command, WorkDir: workDir})
	handler := f.handler
	f.mu.Unlock()

	if handler != nil {
		return handler(command, workDir)
	}

	if r, ok := f.replies[workDir+"|"+command]; ok {
		return []byte(r.output), r.err
	}
	if r, ok := f.replies[command]; ok && (workDir == "" || !f.hasScoped(command)) {
		return []byte(r.output), r.err
	}
	return nil, errNotFound
}

// hasScoped reports whether command only answers in a specific workDir
func (f *fakeRunner) hasScoped(command string) bool {
	for key := range f.replies {
		if strings.HasSuffix(key, "|"+command) {
			return true
		}
	}
	return false
}

func (f *fakeRunner) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRunner) commands() []string {
	var out []string
	for _, c := range f.Calls() {
		out = append(out, c.Command)
	}
	return out
}

var errGeneric = errors.New("exit status 1")
