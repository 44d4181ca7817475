package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// Token secrets are required and must differ, or a forged refresh
	// token could be replayed as an access token.
	if c.Tokens.AccessSecret == "" {
		errs = append(errs, fmt.Errorf("tokens.access_secret or tokens.access_secret_file is required"))
	}
	if c.Tokens.RefreshSecret == "" {
		errs = append(errs, fmt.Errorf("tokens.refresh_secret or tokens.refresh_secret_file is required"))
	}
	if c.Tokens.AccessSecret != "" && c.Tokens.AccessSecret == c.Tokens.RefreshSecret {
		errs = append(errs, fmt.Errorf("tokens.access_secret and tokens.refresh_secret must differ"))
	}

	if c.Tokens.AccessTTL <= 0 {
		errs = append(errs, fmt.Errorf("tokens.access_ttl must be positive"))
	}
	if _, err := c.Tokens.RefreshTTL(); err != nil {
		errs = append(errs, fmt.Errorf("tokens.refresh_lifetime: %w", err))
	}

	// directory.type must be a known value.
	switch c.Directory.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("directory.type must be \"memory\" or \"postgres\", got %q", c.Directory.Type))
	}

	// If directory.type is "postgres", DSN or DSNFile must be set.
	if c.Directory.Type == "postgres" && c.Directory.Postgres.DSN == "" {
		errs = append(errs, fmt.Errorf("directory.postgres.dsn or directory.postgres.dsn_file is required when directory.type is \"postgres\""))
	}

	// Production deployments need a cookie domain.
	if c.Server.Production && c.Server.DashboardDomain == "" {
		errs = append(errs, fmt.Errorf("server.dashboard_domain is required when server.production is true"))
	}

	// Peer entries need both fields.
	for i, p := range c.Trust.Peers {
		if p.IP == "" || p.Token == "" {
			errs = append(errs, fmt.Errorf("trust.peers[%d]: ip and token are both required", i))
		}
	}

	return errors.Join(errs...)
}
