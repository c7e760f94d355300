// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "jardin-test-secret-key-32-bytes!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "gateway.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("JARDIN_DB_PATH", "")
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

auth:
  jwt_secret: "`+testSecret+`"

live:
  ping_interval: "10s"
  pong_wait: "25s"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Live.PingInterval != 10*time.Second {
		t.Errorf("Live.PingInterval = %v, want %v", cfg.Live.PingInterval, 10*time.Second)
	}
	if cfg.Live.PongWait != 25*time.Second {
		t.Errorf("Live.PongWait = %v, want %v", cfg.Live.PongWait, 25*time.Second)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
}

func TestLoad_DefaultDurations(t *testing.T) {
	t.Setenv("JARDIN_DB_PATH", "")
	configPath := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
auth:
  jwt_secret: "`+testSecret+`"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Live.PingInterval != DefaultPingInterval {
		t.Errorf("Live.PingInterval = %v, want %v", cfg.Live.PingInterval, DefaultPingInterval)
	}
	if cfg.Live.PongWait != DefaultPongWait {
		t.Errorf("Live.PongWait = %v, want %v", cfg.Live.PongWait, DefaultPongWait)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("JARDIN_DB_PATH", "")
	t.Setenv("TEST_JARDIN_SECRET", testSecret)
	t.Setenv("TEST_JARDIN_ADDR", "127.0.0.1:9090")

	configPath := writeConfig(t, `
server:
  http_addr: "${TEST_JARDIN_ADDR}"
database:
  path: "./test.db"
auth:
  jwt_secret: "${TEST_JARDIN_SECRET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTPAddr != "127.0.0.1:9090" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:9090")
	}
	if cfg.Auth.JWTSecret != testSecret {
		t.Errorf("Auth.JWTSecret = %q, want expanded secret", cfg.Auth.JWTSecret)
	}
}

func TestLoad_DBPathOverride(t *testing.T) {
	t.Setenv("JARDIN_DB_PATH", "/tmp/override.db")
	configPath := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
auth:
  jwt_secret: "`+testSecret+`"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want override", cfg.Database.Path)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("JARDIN_DB_PATH", "")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing http addr",
			content: "database:\n  path: x.db\nauth:\n  jwt_secret: \"" + testSecret + "\"\n",
			wantErr: "server.http_addr is required",
		},
		{
			name:    "tailscale without hostname",
			content: "tailscale:\n  enabled: true\ndatabase:\n  path: x.db\nauth:\n  jwt_secret: \"" + testSecret + "\"\n",
			wantErr: "tailscale.hostname is required",
		},
		{
			name:    "missing database path",
			content: "server:\n  http_addr: \":8080\"\nauth:\n  jwt_secret: \"" + testSecret + "\"\n",
			wantErr: "database.path is required",
		},
		{
			name:    "short secret",
			content: "server:\n  http_addr: \":8080\"\ndatabase:\n  path: x.db\nauth:\n  jwt_secret: short\n",
			wantErr: "auth.jwt_secret must be at least 32 bytes",
		},
		{
			name:    "bad duration",
			content: "server:\n  http_addr: \":8080\"\ndatabase:\n  path: x.db\nauth:\n  jwt_secret: \"" + testSecret + "\"\nlive:\n  ping_interval: soon\n",
			wantErr: "parsing ping_interval",
		},
		{
			name:    "pong wait not above ping interval",
			content: "server:\n  http_addr: \":8080\"\ndatabase:\n  path: x.db\nauth:\n  jwt_secret: \"" + testSecret + "\"\nlive:\n  ping_interval: 30s\n  pong_wait: 30s\n",
			wantErr: "live.pong_wait",
		},
		{
			name:    "invalid yaml",
			content: "server: [unclosed",
			wantErr: "parsing config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("Load() error = %v, want reading config file error", err)
	}
}

func TestExpandEnvVars_UnsetBecomesEmpty(t *testing.T) {
	t.Setenv("JARDIN_SET", "yes")
	got := expandEnvVars("a=${JARDIN_SET} b=${JARDIN_DEFINITELY_UNSET_VAR}")
	if got != "a=yes b=" {
		t.Errorf("expandEnvVars() = %q, want %q", got, "a=yes b=")
	}
}
