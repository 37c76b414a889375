package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	CORS     CORSConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port         int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Driver       string `env:"DB_DRIVER" envDefault:"postgres"`
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         int    `env:"DB_PORT" envDefault:"5432"`
	Username     string `env:"DB_USERNAME" envDefault:"postgres"`
	Password     string `env:"DB_PASSWORD" envDefault:"password"`
	DBName       string `env:"DB_NAME" envDefault:"budget"`
	SSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadConfig reads an optional .env file and then the process environment
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted safely
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid SERVER_PORT %d: must be between 1 and 65535", c.Server.Port))
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid DB_DRIVER %q: must be %q or %q", c.Database.Driver, DriverPostgres, DriverMemory))
	}

	if c.Database.Driver == DriverPostgres {
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			problems = append(problems, fmt.Sprintf("invalid DB_PORT %d", c.Database.Port))
		}
		if strings.TrimSpace(c.Auth.JWTSecret) == "" {
			problems = append(problems, "JWT_SECRET is required")
		}
	}

	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "JWT_TTL must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
