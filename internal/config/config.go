package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/porticoestate/location-hierarchy/internal/hierarchy"
)

// Config holds everything a run of the analyzer needs
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Analyzer AnalyzerConfig `toml:"analyzer"`
	Web      WebConfig      `toml:"web"`
	Debug    bool           `toml:"debug"`
}

// DatabaseConfig selects the store backend
type DatabaseConfig struct {
	Driver         string `toml:"driver"` // "postgres" or "sqlite"
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	Name           string `toml:"name"`
	SSLMode        string `toml:"sslmode"`
	Path           string `toml:"path"` // sqlite file
	MaxConnections int    `toml:"max_connections"`
}

// AnalyzerConfig tunes the reconciliation run
type AnalyzerConfig struct {
	Loc1              string   `toml:"loc1"`
	NameEvidence      bool     `toml:"name_evidence"`
	InheritBygningsnr bool     `toml:"inherit_bygningsnr"`
	MaxLoc2NameLength int      `toml:"max_loc2_name_length"`
	AuditTable        string   `toml:"audit_table"`
	ExcludeTables     []string `toml:"exclude_tables"`
}

// WebConfig contains HTTP server settings
type WebConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	APIKey         string `toml:"api_key"`
	ExecuteEnabled bool   `toml:"execute_enabled"` // exposes POST /api/execute
}

// FromEnv builds a configuration from environment variables, falling back
// to defaults for everything unset.
func FromEnv() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         GetEnv("DB_DRIVER", "postgres"),
			Host:           GetEnv("PGHOST", "localhost"),
			Port:           GetEnvInt("PGPORT", 5432),
			User:           GetEnv("PGUSER", "portico"),
			Password:       GetEnv("PGPASSWORD", ""),
			Name:           GetEnv("PGDATABASE", "portico"),
			SSLMode:        GetEnv("PGSSLMODE", "disable"),
			Path:           GetEnv("SQLITE_PATH", "locations.db"),
			MaxConnections: GetEnvInt("DB_MAX_CONNECTIONS", 5),
		},
		Analyzer: AnalyzerConfig{
			Loc1:              GetEnv("ANALYZE_LOC1", ""),
			NameEvidence:      GetEnvBool("ANALYZE_NAME_EVIDENCE", true),
			InheritBygningsnr: GetEnvBool("ANALYZE_INHERIT_BYGNINGSNR", false),
			MaxLoc2NameLength: GetEnvInt("ANALYZE_MAX_LOC2_NAME", 256),
			AuditTable:        GetEnv("ANALYZE_AUDIT_TABLE", "location_mapping"),
			ExcludeTables:     GetEnvList("ANALYZE_EXCLUDE_TABLES", nil),
		},
		Web: WebConfig{
			Host:           GetEnv("WEB_HOST", "localhost"),
			Port:           GetEnvInt("WEB_PORT", 8080),
			APIKey:         GetEnv("WEB_API_KEY", ""),
			ExecuteEnabled: GetEnvBool("WEB_EXECUTE_ENABLED", false),
		},
		Debug: GetEnvBool("DEBUG", false),
	}
}

// Load reads .env, builds the environment configuration, overlays the TOML
// file at path when path is not empty and validates the outcome.
func Load(path string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}
	cfg := FromEnv()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the analyzer cannot work with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Analyzer.MaxLoc2NameLength < 2 {
		return fmt.Errorf("max_loc2_name_length must be at least 2, got %d", c.Analyzer.MaxLoc2NameLength)
	}
	if c.Analyzer.AuditTable == "" {
		return fmt.Errorf("audit_table must not be empty")
	}
	return nil
}

// AnalyzerOptions converts the analyzer settings for a run
func (c *Config) AnalyzerOptions() hierarchy.Options {
	return hierarchy.Options{
		NameEvidence:          c.Analyzer.NameEvidence,
		InheritBuildingNumber: c.Analyzer.InheritBygningsnr,
		MaxLoc2NameLength:     c.Analyzer.MaxLoc2NameLength,
		AuditTable:            c.Analyzer.AuditTable,
		ExcludeTables:         c.Analyzer.ExcludeTables,
		Debug:                 c.Debug,
	}
}
