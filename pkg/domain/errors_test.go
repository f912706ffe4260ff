package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"tool not found", NewToolNotFound("run", "", nil), ErrToolNotFound, true},
		{"command failed", NewCommandFailed("connect", "refused", "failed to connect", nil), ErrCommandFailed, true},
		{"invalid argument", NewInvalidArgument("connect", "address", "must not be empty"), ErrInvalidArgument, true},
		{"unsupported platform", NewUnsupportedPlatform("plan9"), ErrUnsupportedPlatform, true},
		{"kind mismatch", NewInvalidArgument("connect", "port", "bad"), ErrToolNotFound, false},
		{"wrapped", fmt.Errorf("outer: %w", NewToolNotFound("run", "", nil)), ErrToolNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
			}
		})
	}
}

func TestToolNotFoundCarriesHint(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewToolNotFound("run", "sh: adb: not found", errors.New("exit status 127")))

	if KindOf(err) != KindToolNotFound {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindToolNotFound)
	}
	output, hint := Detail(err)
	if output != "sh: adb: not found" {
		t.Errorf("Detail() output = %q", output)
	}
	if hint != ToolNotFoundHint {
		t.Errorf("Detail() hint = %q", hint)
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewCommandFailed("connect", "adb connect failed", "", errors.New("exit status 1"))
	want := "connect: adb connect failed: exit status 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf() should be empty for non-domain errors")
	}
}
