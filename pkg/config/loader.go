package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/legichat/legichat/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, LEGICHAT_CONFIG env, ./config.yaml, /etc/legichat/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	debug.Log("config", "configuration loaded",
		"file", filePath, "storage", cfg.Storage.Type, "catalog", cfg.Catalog.Type)
	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. LEGICHAT_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/legichat/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("LEGICHAT_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/legichat/config.yaml",
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
// Environment values win over both defaults and the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEGICHAT_BACKEND_URL"); v != "" {
		cfg.Reasoner.BackendURL = v
	}
	if v := os.Getenv("LEGICHAT_API_KEY"); v != "" {
		cfg.Reasoner.APIKey = v
	}
	if v := os.Getenv("LEGICHAT_MODEL"); v != "" {
		cfg.Reasoner.Model = v
	}
	if v := os.Getenv("LEGICHAT_SYSTEM_PROMPT"); v != "" {
		cfg.Reasoner.SystemPrompt = v
	}
	if v := os.Getenv("LEGICHAT_MAX_TOOL_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Reasoner.MaxToolRounds = n
		}
	}
	if v := os.Getenv("LEGICHAT_GENERATION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reasoner.GenerationTimeout = d
		}
	}
	if v := os.Getenv("LEGICHAT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LEGICHAT_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("LEGICHAT_STORAGE_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("LEGICHAT_CATALOG"); v != "" {
		cfg.Catalog.Type = v
	}
	if v := os.Getenv("LEGICHAT_CATALOG_DSN"); v != "" {
		cfg.Catalog.Postgres.DSN = v
	}
	if v := os.Getenv("LEGICHAT_METRICS"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Observability.Metrics.Enabled = enabled
		}
	}
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// reasoner.api_key_file -> reasoner.api_key
	if cfg.Reasoner.APIKeyFile != "" && cfg.Reasoner.APIKey == "" {
		val, err := readSecretFile(cfg.Reasoner.APIKeyFile)
		if err != nil {
			return fmt.Errorf("reasoner.api_key_file: %w", err)
		}
		cfg.Reasoner.APIKey = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// catalog.postgres.dsn_file -> catalog.postgres.dsn
	if cfg.Catalog.Postgres.DSNFile != "" && cfg.Catalog.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Catalog.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("catalog.postgres.dsn_file: %w", err)
		}
		cfg.Catalog.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
