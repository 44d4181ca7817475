package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, PFORTE_CONFIG env, ./config.yaml, /etc/pforte/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PFORTE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/pforte/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("PFORTE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/pforte/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PFORTE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PFORTE_PRODUCTION"); v != "" {
		cfg.Server.Production = v == "true" || v == "1"
	}
	if v := os.Getenv("PFORTE_DASHBOARD_DOMAIN"); v != "" {
		cfg.Server.DashboardDomain = v
	}
	if v := os.Getenv("PFORTE_PUBLIC_DOMAIN"); v != "" {
		cfg.Server.PublicDomain = v
	}
	if v := os.Getenv("PFORTE_ACCESS_SECRET"); v != "" {
		cfg.Tokens.AccessSecret = v
	}
	if v := os.Getenv("PFORTE_REFRESH_SECRET"); v != "" {
		cfg.Tokens.RefreshSecret = v
	}
	if v := os.Getenv("PFORTE_REFRESH_LIFETIME"); v != "" {
		cfg.Tokens.RefreshLifetime = v
	}
	if v := os.Getenv("PFORTE_DIRECTORY"); v != "" {
		cfg.Directory.Type = v
	}
	if v := os.Getenv("PFORTE_DSN"); v != "" {
		cfg.Directory.Postgres.DSN = v
	}

	// Two fixed peer slots for env-only deployments.
	applyPeerEnv(cfg, "PFORTE_PEER1_IP", "PFORTE_PEER1_TOKEN")
	applyPeerEnv(cfg, "PFORTE_PEER2_IP", "PFORTE_PEER2_TOKEN")
}

// applyPeerEnv appends one allowlist entry when both env vars are set.
// An existing entry with the same IP is overridden instead.
func applyPeerEnv(cfg *Config, ipVar, tokenVar string) {
	ip, token := os.Getenv(ipVar), os.Getenv(tokenVar)
	if ip == "" || token == "" {
		return
	}
	for i := range cfg.Trust.Peers {
		if cfg.Trust.Peers[i].IP == ip {
			cfg.Trust.Peers[i].Token = token
			return
		}
	}
	cfg.Trust.Peers = append(cfg.Trust.Peers, PeerConfig{IP: ip, Token: token})
}

// resolveFileReferences loads the content of any _file-suffixed field
// into its plain counterpart. The plain field wins when both are set.
func resolveFileReferences(cfg *Config) error {
	var err error
	if cfg.Tokens.AccessSecret, err = resolveRef(cfg.Tokens.AccessSecret, cfg.Tokens.AccessSecretFile); err != nil {
		return fmt.Errorf("tokens.access_secret_file: %w", err)
	}
	if cfg.Tokens.RefreshSecret, err = resolveRef(cfg.Tokens.RefreshSecret, cfg.Tokens.RefreshSecretFile); err != nil {
		return fmt.Errorf("tokens.refresh_secret_file: %w", err)
	}
	if cfg.Directory.Postgres.DSN, err = resolveRef(cfg.Directory.Postgres.DSN, cfg.Directory.Postgres.DSNFile); err != nil {
		return fmt.Errorf("directory.postgres.dsn_file: %w", err)
	}
	for i := range cfg.Trust.Peers {
		if cfg.Trust.Peers[i].Token, err = resolveRef(cfg.Trust.Peers[i].Token, cfg.Trust.Peers[i].TokenFile); err != nil {
			return fmt.Errorf("trust.peers[%d].token_file: %w", i, err)
		}
	}
	return nil
}

// resolveRef returns value when set, otherwise the trimmed content of
// the referenced file.
func resolveRef(value, file string) (string, error) {
	if value != "" || file == "" {
		return value, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
