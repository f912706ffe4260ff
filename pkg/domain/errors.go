// Package domain contains the error taxonomy shared by every devbridge component.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the four failure categories. Use errors.Is against these.
var (
	ErrToolNotFound        = errors.New("tool not found")
	ErrCommandFailed       = errors.New("command failed")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// ToolNotFoundHint is the remediation shown whenever no invocation strategy works
const ToolNotFoundHint = "install the Android SDK platform-tools or set a custom adb path with `devbridge set-tool-path <dir>`"

// Kind identifies a failure category
type Kind string

const (
	KindToolNotFound        Kind = "TOOL_NOT_FOUND"
	KindCommandFailed       Kind = "COMMAND_FAILED"
	KindInvalidArgument     Kind = "INVALID_ARGUMENT"
	KindUnsupportedPlatform Kind = "UNSUPPORTED_PLATFORM"
)

// sentinel maps a Kind to its sentinel error
func (k Kind) sentinel() error {
	switch k {
	case KindToolNotFound:
		return ErrToolNotFound
	case KindCommandFailed:
		return ErrCommandFailed
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindUnsupportedPlatform:
		return ErrUnsupportedPlatform
	}
	return nil
}

// Error is a structured failure with enough detail for a caller to render it
type Error struct {
	Kind    Kind
	Op      string // Operation that failed (connect, refresh, resolve...)
	Message string
	Output  string // Raw tool output, if any
	Hint    string // User-facing remediation, if any
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// NewToolNotFound creates a ToolNotFound error carrying the standard remediation hint
func NewToolNotFound(op, output string, err error) *Error {
	return &Error{
		Kind:    KindToolNotFound,
		Op:      op,
		Message: "adb not found on this machine",
		Output:  output,
		Hint:    ToolNotFoundHint,
		Err:     err,
	}
}

// NewCommandFailed creates a CommandFailed error carrying the raw tool output
func NewCommandFailed(op, message, output string, err error) *Error {
	return &Error{
		Kind:    KindCommandFailed,
		Op:      op,
		Message: message,
		Output:  output,
		Err:     err,
	}
}

// NewInvalidArgument creates an InvalidArgument error
func NewInvalidArgument(op, field, message string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Op:      op,
		Message: fmt.Sprintf("%s: %s", field, message),
	}
}

// NewUnsupportedPlatform creates an UnsupportedPlatform error
func NewUnsupportedPlatform(platform string) *Error {
	return &Error{
		Kind:    KindUnsupportedPlatform,
		Op:      "platform",
		Message: fmt.Sprintf("invalid platform %q", platform),
	}
}

// KindOf returns the Kind of err, or "" when err is not a domain error
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Detail returns the raw output and hint carried by err, if any
func Detail(err error) (output, hint string) {
	var de *Error
	if errors.As(err, &de) {
		return de.Output, de.Hint
	}
	return "", ""
}
