// Package config provides unified configuration for the pforte boundary.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (PFORTE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the pforte boundary.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Tokens        TokenConfig         `yaml:"tokens"`
	Trust         TrustConfig         `yaml:"trust"`
	Directory     DirectoryConfig     `yaml:"directory"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server and environment settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 30s

	// Production enables the Secure cookie flag, cookie Domain scoping,
	// and the dashboard-origin login rule.
	Production bool `yaml:"production"`

	// DashboardDomain is the primary public-facing domain (the staff
	// dashboard). Used for cookie scoping and the login origin rule.
	DashboardDomain string `yaml:"dashboard_domain"`

	// PublicDomain is the secondary public-facing domain (the visitor
	// site).
	PublicDomain string `yaml:"public_domain"`
}

// TokenConfig holds the credential codec settings.
type TokenConfig struct {
	AccessSecret      string `yaml:"access_secret"`
	AccessSecretFile  string `yaml:"access_secret_file"` // _file variant for access_secret
	RefreshSecret     string `yaml:"refresh_secret"`
	RefreshSecretFile string `yaml:"refresh_secret_file"` // _file variant for refresh_secret

	// AccessTTL is the access token lifetime (default: 15m).
	AccessTTL time.Duration `yaml:"access_ttl"`

	// RefreshLifetime is the refresh token lifetime, either a Go
	// duration ("720h") or a unit phrase ("30 days"). Default: "30 days".
	// It also bounds the cookie Max-Age.
	RefreshLifetime string `yaml:"refresh_lifetime"`
}

// RefreshTTL parses the configured refresh lifetime.
func (c TokenConfig) RefreshTTL() (time.Duration, error) {
	return ParseLifetime(c.RefreshLifetime)
}

// TrustConfig holds the server-to-server allowlist.
type TrustConfig struct {
	// Peers lists trusted (IP, token) pairs. The default deployment
	// carries two slots.
	Peers []PeerConfig `yaml:"peers"`
}

// PeerConfig describes a single trusted caller.
type PeerConfig struct {
	IP        string `yaml:"ip"`
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"` // _file variant for token
}

// DirectoryConfig holds principal store settings.
type DirectoryConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds log level and debug category settings. Both can
// be overridden by PFORTE_LOG_LEVEL and PFORTE_DEBUG.
type LoggingConfig struct {
	Level string `yaml:"level"` // default: "INFO"
	Debug string `yaml:"debug"` // comma-separated categories, e.g. "session,guard"
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Tokens: TokenConfig{
			AccessTTL:       15 * time.Minute,
			RefreshLifetime: "30 days",
		},
		Directory: DirectoryConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
			Logging: LoggingConfig{
				Level: "INFO",
			},
		},
	}
}
