// Package config provides configuration management for the ledger service.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Ledger   LedgerConfig
	Debug    bool
}

// DatabaseConfig represents database connection configuration.
type DatabaseConfig struct {
	Driver   string // sqlite3 or mysql
	Path     string // SQLite database file path
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port string
}

// LedgerConfig represents ledger behavior configuration.
type LedgerConfig struct {
	ChartPath string // YAML chart-of-accounts seed file
	AuditPath string // bbolt audit trail file
	Currency  string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnvOrDefault("LEDGER_DB_DRIVER", "sqlite3"),
			Path:     getEnvOrDefault("LEDGER_DB_PATH", "./data/ledger.db"),
			Host:     getEnvOrDefault("LEDGER_DB_HOST", "localhost"),
			Port:     getEnvOrDefault("LEDGER_DB_PORT", "3306"),
			User:     os.Getenv("LEDGER_DB_USER"),
			Password: os.Getenv("LEDGER_DB_PASSWORD"),
			Name:     os.Getenv("LEDGER_DB_NAME"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("LEDGER_PORT", "8080"),
		},
		Ledger: LedgerConfig{
			ChartPath: getEnvOrDefault("LEDGER_CHART_PATH", "config/chart-of-accounts.yaml"),
			AuditPath: getEnvOrDefault("LEDGER_AUDIT_PATH", "./data/audit.db"),
			Currency:  getEnvOrDefault("LEDGER_CURRENCY", "USD"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all fields required for the configured driver are set.
func (c *Config) Validate() error {
	var missing []string

	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			missing = append(missing, "LEDGER_DB_PATH")
		}
	case "mysql":
		if c.Database.User == "" {
			missing = append(missing, "LEDGER_DB_USER")
		}
		if c.Database.Password == "" {
			missing = append(missing, "LEDGER_DB_PASSWORD")
		}
		if c.Database.Name == "" {
			missing = append(missing, "LEDGER_DB_NAME")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// GetDSN returns the MySQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
