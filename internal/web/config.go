package web

import (
	"github.com/porticoestate/location-hierarchy/internal/config"
	"github.com/porticoestate/location-hierarchy/internal/hierarchy"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Features FeatureConfig
	Analyzer hierarchy.Options
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	APIKey string
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	ExecuteEnabled bool
}

// ConfigFrom derives the server configuration from the application config
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Server:   ServerConfig{Port: cfg.Web.Port, Host: cfg.Web.Host},
		Auth:     AuthConfig{APIKey: cfg.Web.APIKey},
		Features: FeatureConfig{ExecuteEnabled: cfg.Web.ExecuteEnabled},
		Analyzer: cfg.AnalyzerOptions(),
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, Host: "localhost"},
		Analyzer: hierarchy.DefaultOptions(),
	}
}
