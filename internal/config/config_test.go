package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/cct/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "2m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "cct"
user = "cct"
password = "cct"

[storage]
enabled = true
container_name = "compliance"
connection_string = "DefaultEndpointsProtocol=http;AccountName=cctstore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/cctstore;"

[audit]
store = "postgres"

[api]
base_path = "/api"
max_body_size = "2MB"

[api.pagination]
default_page_size = 25
max_page_size = 50
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "cct" {
		t.Errorf("db name: got %s, want cct", cfg.Database.Name)
	}
	if !cfg.Audit.Durable() {
		t.Errorf("audit store: got %s, want postgres", cfg.Audit.Store)
	}
	if !cfg.Storage.Enabled || cfg.Storage.ContainerName != "compliance" {
		t.Errorf("storage: got %+v", cfg.Storage)
	}
	if cfg.API.MaxBodySizeBytes() != 2<<20 {
		t.Errorf("max body size: got %d, want %d", cfg.API.MaxBodySizeBytes(), 2<<20)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.Domain.FirstCaseID != 1001 {
		t.Errorf("first case id: got %d, want 1001", cfg.Domain.FirstCaseID)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: got %s, want 30s", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv(config.EnvCCTEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	t.Setenv(config.EnvCCTVersion, "2.0.0")
	t.Setenv(config.EnvServerPort, "3000")
	t.Setenv(config.EnvAuditStore, config.AuditStoreMemory)
	t.Setenv(config.EnvFirstCaseID, "5000")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Audit.Durable() {
		t.Error("audit store should be memory from env")
	}
	if cfg.Domain.FirstCaseID != 5000 {
		t.Errorf("first case id: got %d, want 5000", cfg.Domain.FirstCaseID)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Audit.Store != config.AuditStoreMemory {
		t.Errorf("audit store default: got %s, want memory", cfg.Audit.Store)
	}
	if cfg.Storage.Enabled {
		t.Error("storage should default to disabled")
	}
	if cfg.API.MaxBodySizeBytes() != 1<<20 {
		t.Errorf("max body size default: got %d, want %d", cfg.API.MaxBodySizeBytes(), 1<<20)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "postgres audit without database",
			content: "[audit]\nstore = \"postgres\"\n",
			wantErr: "database",
		},
		{
			name:    "unknown audit store",
			content: "[audit]\nstore = \"sqlite\"\n",
			wantErr: "audit",
		},
		{
			name:    "bad shutdown timeout",
			content: "shutdown_timeout = \"soon\"\n",
			wantErr: "shutdown_timeout",
		},
		{
			name:    "storage enabled without connection",
			content: "[storage]\nenabled = true\n",
			wantErr: "storage",
		},
		{
			name:    "bad port",
			content: "",
			env:     map[string]string{config.EnvServerPort: "70000"},
			wantErr: "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != "" {
				writeConfig(t, dir, config.BaseConfigFile, tt.content)
			}
			chdir(t, dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
