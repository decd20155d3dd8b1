package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfigFile(t, "server.json",
		`{"listen_addr": ":9090", "db_path": "/var/lib/telemetry.db", "debug": true}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.GetListenAddr(); got != ":9090" {
		t.Errorf("GetListenAddr() = %q, want %q", got, ":9090")
	}
	if got := cfg.GetDBPath(); got != "/var/lib/telemetry.db" {
		t.Errorf("GetDBPath() = %q, want %q", got, "/var/lib/telemetry.db")
	}
	if !cfg.GetDebug() {
		t.Error("GetDebug() = false, want true")
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfigFile(t, "server.json", `{"listen_addr": ":9090"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.GetListenAddr(); got != ":9090" {
		t.Errorf("GetListenAddr() = %q, want %q", got, ":9090")
	}
	if got := cfg.GetDBPath(); got != DefaultDBPath {
		t.Errorf("GetDBPath() = %q, want default %q", got, DefaultDBPath)
	}
	if cfg.GetDebug() {
		t.Error("GetDebug() = true, want default false")
	}
}

func TestNilConfigReportsDefaults(t *testing.T) {
	var cfg *Config
	if got := cfg.GetListenAddr(); got != DefaultListenAddr {
		t.Errorf("GetListenAddr() = %q, want %q", got, DefaultListenAddr)
	}
	if got := cfg.GetDBPath(); got != DefaultDBPath {
		t.Errorf("GetDBPath() = %q, want %q", got, DefaultDBPath)
	}
	if cfg.GetDebug() {
		t.Error("GetDebug() = true, want false")
	}
}

func TestLoadRejectsWrongExtension(t *testing.T) {
	path := writeConfigFile(t, "server.yaml", `listen_addr: ":9090"`)

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), ".json") {
		t.Errorf("Load = %v, want .json extension error", err)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfigFile(t, "server.json", `{not json`)

	if _, err := Load(path); err == nil {
		t.Error("Load succeeded on malformed JSON, want error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Load succeeded on missing file, want error")
	}
}
