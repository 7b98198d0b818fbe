// Package config provides application configuration management using Viper.
// It supports loading configuration from YAML files and environment
// variables, with built-in validation for production and development
// environments. One file configures both binaries: the remote store server
// reads the server/auth/storage sections, the device agent reads the sync
// section.
package config

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const defaultAPIKey = "change-me-api-key"

// Config holds all application configuration / Contient toute la configuration de l'application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Environment string            `mapstructure:"environment"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Sync        SyncConfig        `mapstructure:"sync"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Cors        CorsConfig        `mapstructure:"cors"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds server configuration / Configuration serveur
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// AuthConfig holds the shared-secret settings / Paramètres du secret partagé
type AuthConfig struct {
	APIKey string `mapstructure:"api_key"` // Static shared secret checked on every request / Secret partagé statique
}

// StorageConfig holds remote store persistence configuration / Configuration de persistance du store distant
type StorageConfig struct {
	Type           string `mapstructure:"type"`            // Backend: "file" or "sqlite"
	Path           string `mapstructure:"path"`            // JSON document path for the file backend
	DSN            string `mapstructure:"dsn"`             // Data Source Name for the sqlite backend
	MigrationsPath string `mapstructure:"migrations_path"` // Path to migration files
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
}

// SyncConfig holds device-agent sync configuration / Configuration de synchronisation de l'agent
type SyncConfig struct {
	ServerURL      string        `mapstructure:"server_url"`      // Remote store base URL
	APIKey         string        `mapstructure:"api_key"`         // Shared secret presented to the remote store
	Interval       time.Duration `mapstructure:"interval"`        // Auto-sync tick interval
	StateDir       string        `mapstructure:"state_dir"`       // Directory for cache and pending slot documents
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // Per-request transport timeout
}

// RateLimiterConfig holds rate limiter configuration / Configuration limiteur de débit
type RateLimiterConfig struct {
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
	Enabled bool    `mapstructure:"enabled"`
}

// CorsConfig holds CORS configuration / Configuration CORS
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logging configuration / Configuration logging
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IsProduction checks if environment is production / Vérifie si l'environnement est production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment checks if environment is development / Vérifie si l'environnement est development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig loads configuration from YAML and env vars / Charge la config depuis YAML et variables d'env
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("environment", "development")

	v.SetDefault("auth.api_key", defaultAPIKey)

	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.path", "data.json")
	v.SetDefault("storage.dsn", "istakip.db?_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("storage.migrations_path", "migrations/sqlite")

	v.SetDefault("sync.server_url", "http://localhost:8080")
	v.SetDefault("sync.api_key", defaultAPIKey)
	v.SetDefault("sync.interval", "30s")
	v.SetDefault("sync.state_dir", ".istakip")
	v.SetDefault("sync.request_timeout", "10s")

	v.SetDefault("rate_limiter.rps", 10)
	v.SetDefault("rate_limiter.burst", 20)
	v.SetDefault("rate_limiter.enabled", true)

	// The original deployment served browsers and devices alike / * by default
	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	v.BindEnv("auth.api_key", "API_KEY")
	v.BindEnv("sync.api_key", "SYNC_API_KEY")
	v.BindEnv("sync.server_url", "SYNC_SERVER_URL")
	v.BindEnv("storage.dsn", "STORAGE_DSN")

	var cfg Config
	err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates configuration / Valide la configuration
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	return c.validateRateLimiter()
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}

// validateAuth validates the shared-secret configuration
func (c *Config) validateAuth() error {
	if c.Auth.APIKey == "" {
		return errors.New("auth.api_key is required")
	}

	if c.IsProduction() {
		if c.Auth.APIKey == defaultAPIKey {
			return errors.New("auth.api_key cannot use default value in production - set API_KEY environment variable")
		}
		if len(c.Auth.APIKey) < 16 {
			return errors.New("auth.api_key must be ≥16 chars in production")
		}
	}

	return nil
}

// validateStorage validates remote store persistence configuration
func (c *Config) validateStorage() error {
	validTypes := []string{"file", "sqlite", "sqlite3", ""}
	storageType := strings.ToLower(c.Storage.Type)

	if !slices.Contains(validTypes, storageType) {
		return errors.New("storage.type must be one of: file, sqlite")
	}

	if (storageType == "sqlite" || storageType == "sqlite3") && c.Storage.DSN == "" {
		return errors.New("storage.dsn is required for the sqlite backend")
	}

	return nil
}

// validateSync validates device-agent sync configuration
func (c *Config) validateSync() error {
	if c.Sync.ServerURL == "" {
		return errors.New("sync.server_url is required")
	}

	if c.Sync.Interval <= 0 {
		return errors.New("sync.interval must be positive")
	}

	if c.Sync.RequestTimeout <= 0 {
		return errors.New("sync.request_timeout must be positive")
	}

	return nil
}

// validateRateLimiter validates rate limiter configuration
func (c *Config) validateRateLimiter() error {
	if !c.RateLimiter.Enabled {
		return nil
	}

	if c.RateLimiter.RPS <= 0 {
		return errors.New("rate_limiter.rps must be positive when enabled")
	}

	if c.RateLimiter.Burst <= 0 {
		return errors.New("rate_limiter.burst must be positive when enabled")
	}

	return nil
}
