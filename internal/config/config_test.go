package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATA_DIR", "SQLITE_PATH", "CALENDAR_DIR", "LOG_LEVEL",
		"ALPACA_API_KEY", "ALPACA_API_SECRET", "ALPACA_BASE_URL",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  data_dir: "/var/lib/mktcal/data"
  sqlite_path: "/var/lib/mktcal/cache.db"
server:
  host: "0.0.0.0"
  port: 8080
calendars:
  dir: "/etc/mktcal/calendars"
  default: "CME_Equity"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.DataDir != "/var/lib/mktcal/data" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.SQLitePath != "/var/lib/mktcal/cache.db" {
		t.Errorf("Storage.SQLitePath = %q", cfg.Storage.SQLitePath)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Calendars.Dir != "/etc/mktcal/calendars" {
		t.Errorf("Calendars.Dir = %q", cfg.Calendars.Dir)
	}
	if cfg.Calendars.Default != "CME_Equity" {
		t.Errorf("Calendars.Default = %q", cfg.Calendars.Default)
	}
	if cfg.Alpaca.APIKey != "test-key" || cfg.Alpaca.APISecret != "test-secret" {
		t.Errorf("Alpaca = %+v", cfg.Alpaca)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8090 {
		t.Errorf("default server = %+v", cfg.Server)
	}
	if cfg.Calendars.Default != "NYSE" {
		t.Errorf("default calendar = %q", cfg.Calendars.Default)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  data_dir: "/original/data"
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
`)

	t.Setenv("DATA_DIR", "/env/data")
	t.Setenv("ALPACA_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want env override", cfg.Alpaca.APIKey)
	}
	// api_secret keeps the YAML value since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want YAML value", cfg.Alpaca.APISecret)
	}

	// Canonical Alpaca SDK variables win over everything.
	t.Setenv("APCA_API_KEY_ID", "apca-key")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alpaca.APIKey != "apca-key" {
		t.Errorf("Alpaca.APIKey = %q, want APCA override", cfg.Alpaca.APIKey)
	}
}
