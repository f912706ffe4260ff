package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("tool:\n  binary: adb\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tool.Timeout != 30*time.Second {
		t.Errorf("Tool.Timeout = %v, want 30s", cfg.Tool.Timeout)
	}
	if cfg.Poll.Interval != 30*time.Second {
		t.Errorf("Poll.Interval = %v, want 30s", cfg.Poll.Interval)
	}
	if cfg.Panel.Host != "127.0.0.1" || cfg.Panel.Port != 8787 {
		t.Errorf("Panel = %s:%d, want 127.0.0.1:8787", cfg.Panel.Host, cfg.Panel.Port)
	}
	if cfg.State.Backend != "file" {
		t.Errorf("State.Backend = %q, want file", cfg.State.Backend)
	}
	if !strings.HasSuffix(cfg.State.Path, filepath.Join(DirName, "state.yaml")) {
		t.Errorf("State.Path = %q, want default under %s", cfg.State.Path, DirName)
	}
	if cfg.GetPairingTimeout() != 2*time.Minute {
		t.Errorf("GetPairingTimeout() = %v, want 2m", cfg.GetPairingTimeout())
	}
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
tool:
  binary: adb
  timeout: 5s
poll:
  interval: 10s
state:
  backend: sqlite
  path: ` + filepath.Join(dir, "state.db") + `
panel:
  port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tool.Timeout != 5*time.Second {
		t.Errorf("Tool.Timeout = %v, want 5s", cfg.Tool.Timeout)
	}
	if cfg.Poll.Interval != 10*time.Second {
		t.Errorf("Poll.Interval = %v, want 10s", cfg.Poll.Interval)
	}
	if cfg.State.Backend != "sqlite" {
		t.Errorf("State.Backend = %q, want sqlite", cfg.State.Backend)
	}
	if cfg.Panel.Port != 9000 {
		t.Errorf("Panel.Port = %d, want 9000", cfg.Panel.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("state:\n  backend: memory\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEVBRIDGE_PANEL_PORT", "9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Panel.Port != 9100 {
		t.Errorf("Panel.Port = %d, want 9100 from env", cfg.Panel.Port)
	}
	if cfg.State.Path != "" {
		t.Errorf("memory backend should not get a default path, got %q", cfg.State.Path)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "state:\n  backend: redis\n"},
		{"port out of range", "panel:\n  port: 70000\n"},
		{"shell metacharacters in binary", "tool:\n  binary: \"adb; rm -rf /\"\n"},
		{"pipe in binary", "tool:\n  binary: \"adb | tee log\"\n"},
		{"ampersand in binary", "tool:\n  binary: \"adb && true\"\n"},
		{"timeout too short", "tool:\n  timeout: 10ms\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load() expected error for %s", tt.name)
			}
		})
	}
}

func TestValidateBinary(t *testing.T) {
	tests := []struct {
		binary  string
		wantErr bool
	}{
		{"adb", false},
		{"/opt/android-sdk/platform-tools/adb", false},
		{"adb|tee", true},
		{"adb;ls", true},
		{"adb&", true},
	}

	for _, tt := range tests {
		t.Run(tt.binary, func(t *testing.T) {
			cfg := Default()
			cfg.Tool.Binary = tt.binary
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default()
	cfg.Tool.Timeout = 12 * time.Second
	cfg.Panel.Port = 8900
	cfg.State.Backend = "memory"
	cfg.State.Path = ""

	if err := Write(cfg, path); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Tool.Timeout != 12*time.Second {
		t.Errorf("Tool.Timeout = %v, want 12s", loaded.Tool.Timeout)
	}
	if loaded.Panel.Port != 8900 {
		t.Errorf("Panel.Port = %d, want 8900", loaded.Panel.Port)
	}
	if loaded.State.Backend != "memory" {
		t.Errorf("State.Backend = %q, want memory", loaded.State.Backend)
	}
}

func TestSearchPaths(t *testing.T) {
	if got := SearchPaths("/tmp/custom.yaml"); len(got) != 1 || got[0] != "/tmp/custom.yaml" {
		t.Errorf("SearchPaths(explicit) = %v", got)
	}
	got := SearchPaths("")
	if len(got) == 0 || got[0] != filepath.Join(".", "config.yaml") {
		t.Errorf("SearchPaths(\"\") = %v, want ./config.yaml first", got)
	}
}
