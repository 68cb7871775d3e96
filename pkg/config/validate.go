package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Reasoner.BackendURL == "" {
		errs = append(errs, fmt.Errorf("reasoner.backend_url is required"))
	}
	if c.Reasoner.Model == "" {
		errs = append(errs, fmt.Errorf("reasoner.model is required"))
	}
	if c.Reasoner.MaxToolRounds <= 0 {
		errs = append(errs, fmt.Errorf("reasoner.max_tool_rounds must be > 0, got %d", c.Reasoner.MaxToolRounds))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	switch c.Catalog.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("catalog.type must be \"memory\" or \"postgres\", got %q", c.Catalog.Type))
	}
	if c.Catalog.Type == "postgres" {
		if c.Catalog.Postgres.DSN == "" && c.Catalog.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("catalog.postgres.dsn or catalog.postgres.dsn_file is required when catalog.type is \"postgres\""))
		}
	}

	return errors.Join(errs...)
}
