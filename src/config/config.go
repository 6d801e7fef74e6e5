package config

import (
	"fmt"
	"os"
	"strconv"

	"mobility-observer/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Overlay environment overrides (.env is optional)
	config.applyEnvOverrides()

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyEnvOverrides lets deployment secrets stay out of the YAML file.
// Recognized variables: MOBILITY_DB_CONNECTION, MOBILITY_DB_PATH, MOBILITY_PORT.
func (c *Config) applyEnvOverrides() {
	// Ignore a missing .env; process environment still applies.
	_ = godotenv.Load()

	if v := os.Getenv("MOBILITY_DB_CONNECTION"); v != "" {
		c.Storage.DBConnectionString = v
	}
	if v := os.Getenv("MOBILITY_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("MOBILITY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}

	// Validate Ingest configuration
	switch c.Ingest.Format {
	case "", "auto", "lorawan", "gateway":
	default:
		return fmt.Errorf("unknown dataset format: %s", c.Ingest.Format)
	}
	switch c.Ingest.TimestampRule {
	case "", "first", "median":
	default:
		return fmt.Errorf("unknown timestamp rule: %s", c.Ingest.TimestampRule)
	}
	if c.Ingest.DataRetentionDays <= 0 {
		return fmt.Errorf("data retention days must be greater than 0")
	}

	// Validate Estimator configuration
	if c.Estimator.PrecisionMeters < 0 {
		return fmt.Errorf("estimator precision cannot be negative")
	}
	if q := c.Estimator.Quantile; q != nil && (*q < 0 || *q > 1) {
		return fmt.Errorf("estimator quantile must be within [0, 1]")
	}

	return nil
}

// -----------------------------------------------------------------------------

// PrecisionMeters returns the anchor grid precision, defaulted to 100 m.
func (c *Config) PrecisionMeters() float64 {
	if c.Estimator.PrecisionMeters == 0 {
		return 100
	}
	return c.Estimator.PrecisionMeters
}

// -----------------------------------------------------------------------------

// SummaryQuantile returns the time-of-day quantile. An absent setting means
// the median; an explicit 0 is honored as the minimum.
func (c *Config) SummaryQuantile() float64 {
	if c.Estimator.Quantile == nil {
		return 0.5
	}
	return *c.Estimator.Quantile
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
