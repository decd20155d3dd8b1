// Package config loads the optional server configuration file. Every field
// is a pointer so the file can be partial; absent fields fall back to the
// compiled-in defaults via the Get accessors, and command-line flags override
// both.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults used when the config file omits a field.
const (
	DefaultListenAddr = ":8080"
	DefaultDBPath     = "telemetry.db"
)

// Config is the root server configuration. The schema is deliberately small:
// tuning knobs that belong to the domain (query windows, liveness policy) are
// compiled in, not configured.
type Config struct {
	ListenAddr *string `json:"listen_addr,omitempty"`
	DBPath     *string `json:"db_path,omitempty"`
	Debug      *bool   `json:"debug,omitempty"`
}

// Load reads a Config from a JSON file. The file must carry a .json extension
// and stay under the size cap; fields omitted from the file are left nil so
// the accessors report defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// GetListenAddr returns the configured listen address or the default.
func (c *Config) GetListenAddr() string {
	if c == nil || c.ListenAddr == nil {
		return DefaultListenAddr
	}
	return *c.ListenAddr
}

// GetDBPath returns the configured database path or the default.
func (c *Config) GetDBPath() string {
	if c == nil || c.DBPath == nil {
		return DefaultDBPath
	}
	return *c.DBPath
}

// GetDebug reports whether the admin debug routes should be mounted.
func (c *Config) GetDebug() bool {
	if c == nil || c.Debug == nil {
		return false
	}
	return *c.Debug
}
