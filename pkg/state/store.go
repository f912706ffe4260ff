package state

import (
	"fmt"
	"strings"

	"github.com/flutterfly/devbridge/pkg/config"
)

// Keys persisted by devbridge
const (
	KeyCustomToolPath = "user_adb_path"
	KeyLastUsedIP     = "last_used_ip"
	KeyLastUsedPort   = "last_used_port"
)

// DefaultPort is the adb TCP port used when no preference has been stored
const DefaultPort = "5555"

// Store is a persisted key-value store for preferences and the tool path override
type Store interface {
	// Get returns the value for key and whether it was ever set
	Get(key string) (string, bool)

	// Set persists value under key
	Set(key, value string) error

	// Delete removes key; deleting an absent key is not an error
	Delete(key string) error

	// Close releases the backend
	Close() error
}

// Open creates the store selected by cfg.Backend
func Open(cfg config.StateConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend: %s", cfg.Backend)
	}
}

// LastUsedIP returns the last address passed to connect, or ""
func LastUsedIP(s Store) string {
	v, _ := s.Get(KeyLastUsedIP)
	return v
}

// LastUsedPort returns the last port passed to connect, or DefaultPort
func LastUsedPort(s Store) string {
	if v, ok := s.Get(KeyLastUsedPort); ok && v != "" {
		return v
	}
	return DefaultPort
}

// CustomToolPath returns the user-configured tool directory, or ""
func CustomToolPath(s Store) string {
	v, _ := s.Get(KeyCustomToolPath)
	return strings.TrimSpace(v)
}

// SavePreference stores the connection preference
func SavePreference(s Store, ip, port string) error {
	if err := s.Set(KeyLastUsedIP, ip); err != nil {
		return fmt.Errorf("failed to save last used ip: %w", err)
	}
	if err := s.Set(KeyLastUsedPort, port); err != nil {
		return fmt.Errorf("failed to save last used port: %w", err)
	}
	return nil
}
