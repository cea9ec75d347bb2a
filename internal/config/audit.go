package config

import (
	"fmt"
	"os"
	"strconv"
)

// Audit store backends.
const (
	AuditStoreMemory   = "memory"
	AuditStorePostgres = "postgres"
)

const (
	EnvAuditStore  = "CCT_AUDIT_STORE"
	EnvFirstCaseID = "CCT_DOMAIN_FIRST_CASE_ID"
)

// AuditConfig selects the audit log backend.
type AuditConfig struct {
	Store string `toml:"store"`
}

// Durable reports whether audit entries are persisted to PostgreSQL.
func (c *AuditConfig) Durable() bool {
	return c.Store == AuditStorePostgres
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuditConfig) Finalize() error {
	if c.Store == "" {
		c.Store = AuditStoreMemory
	}
	if v := os.Getenv(EnvAuditStore); v != "" {
		c.Store = v
	}

	switch c.Store {
	case AuditStoreMemory, AuditStorePostgres:
		return nil
	}
	return fmt.Errorf("invalid store %q: expected %s or %s", c.Store, AuditStoreMemory, AuditStorePostgres)
}

// Merge overwrites non-zero fields from overlay.
func (c *AuditConfig) Merge(overlay *AuditConfig) {
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
}

// DomainConfig holds tunables of the claim and case systems.
type DomainConfig struct {
	FirstCaseID int `toml:"first_case_id"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *DomainConfig) Finalize() error {
	if c.FirstCaseID == 0 {
		c.FirstCaseID = 1001
	}
	if v := os.Getenv(EnvFirstCaseID); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.FirstCaseID = id
		}
	}
	if c.FirstCaseID < 1 {
		return fmt.Errorf("invalid first_case_id: %d", c.FirstCaseID)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *DomainConfig) Merge(overlay *DomainConfig) {
	if overlay.FirstCaseID != 0 {
		c.FirstCaseID = overlay.FirstCaseID
	}
}
