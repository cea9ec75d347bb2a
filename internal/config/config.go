package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/cct/pkg/database"
	"github.com/JaimeStill/cct/pkg/storage"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCCTEnv             = "CCT_ENV"
	EnvCCTShutdownTimeout = "CCT_SHUTDOWN_TIMEOUT"
	EnvCCTVersion         = "CCT_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "CCT_DB_HOST",
	Port:            "CCT_DB_PORT",
	Name:            "CCT_DB_NAME",
	User:            "CCT_DB_USER",
	Password:        "CCT_DB_PASSWORD",
	SSLMode:         "CCT_DB_SSL_MODE",
	MaxOpenConns:    "CCT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CCT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CCT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CCT_DB_CONN_TIMEOUT",
	Schema:          "CCT_DB_SCHEMA",
}

var storageEnv = &storage.Env{
	Enabled:          "CCT_STORAGE_ENABLED",
	ContainerName:    "CCT_STORAGE_CONTAINER_NAME",
	ConnectionString: "CCT_STORAGE_CONNECTION_STRING",
	KeyPrefix:        "CCT_STORAGE_KEY_PREFIX",
}

// Config is the root configuration for the cct service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Audit           AuditConfig     `toml:"audit"`
	Domain          DomainConfig    `toml:"domain"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the CCT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCCTEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Audit.Merge(&overlay.Audit)
	c.Domain.Merge(&overlay.Domain)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Audit.Finalize(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if c.Audit.Durable() {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Domain.Finalize(); err != nil {
		return fmt.Errorf("domain: %w", err)
	}
	return nil
}
func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCCTShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCCTVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvCCTEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
