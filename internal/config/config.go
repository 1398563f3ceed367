// Package config reads the shopping list server settings from the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultCORSOrigins     = "*"
	DefaultAuthMode        = "none"
	DefaultStoreDriver     = StoreMemory
	DefaultDBPath          = "shoplist.db"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Environment variable names.
const (
	EnvServerPort      = "SHOPLIST_SERVER_PORT"
	EnvLogLevel        = "SHOPLIST_LOG_LEVEL"
	EnvShutdownTimeout = "SHOPLIST_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "SHOPLIST_METRICS_ENABLED"
	EnvCORSOrigins     = "SHOPLIST_CORS_ORIGINS"
	EnvAuthMode        = "SHOPLIST_AUTH_MODE"
	EnvBasicAuthUsers  = "SHOPLIST_BASIC_AUTH_USERS"
	EnvAPIKeys         = "SHOPLIST_API_KEYS" //nolint:gosec // env var name, not a credential
	EnvStoreDriver     = "SHOPLIST_STORE"
	EnvDBPath          = "SHOPLIST_DB_PATH"
	EnvSchemaFile      = "SHOPLIST_SCHEMA_FILE"
)

// Config holds the server configuration.
type Config struct {
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	CORSOrigins     []string

	// AuthMode is one of none, basic, apikey, multi.
	AuthMode string
	// BasicAuthUsers has the form "user1:bcrypt_hash,user2:bcrypt_hash".
	BasicAuthUsers string
	// APIKeys has the form "key1:client1,key2:client2".
	APIKeys string

	// StoreDriver selects where lists are kept: memory or sqlite.
	StoreDriver string
	DBPath      string

	// SchemaFile replaces the built-in validation rules when set.
	SchemaFile string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidAuthMode        = errors.New("auth mode must be one of: none, basic, apikey, multi")
	ErrInvalidBasicAuthConfig = errors.New("basic auth users must be set when auth mode is basic")
	ErrInvalidAPIKeyConfig    = errors.New("API keys must be set when auth mode is apikey")
	ErrInvalidMultiAuthConfig = errors.New("basic auth users or API keys must be set when auth mode is multi")
	ErrInvalidStoreDriver     = errors.New("store must be one of: memory, sqlite")
	ErrMissingDBPath          = errors.New("database path must be set when store is sqlite")
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validAuthModes = map[string]bool{
	"none":   true,
	"basic":  true,
	"apikey": true,
	"multi":  true,
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		CORSOrigins:     []string{DefaultCORSOrigins},
		AuthMode:        DefaultAuthMode,
		StoreDriver:     DefaultStoreDriver,
		DBPath:          DefaultDBPath,
	}
}

// FromEnv applies environment variables on top of the defaults without
// validating the result, so that command line flags can still override it.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}
	return cfg, nil
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvCORSOrigins); val != "" {
		c.CORSOrigins = splitList(val)
	}

	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.AuthMode, EnvAuthMode)
	setString(&c.BasicAuthUsers, EnvBasicAuthUsers)
	setString(&c.APIKeys, EnvAPIKeys)
	setString(&c.StoreDriver, EnvStoreDriver)
	setString(&c.DBPath, EnvDBPath)
	setString(&c.SchemaFile, EnvSchemaFile)

	return nil
}

func setString(dst *string, env string) {
	if val := os.Getenv(env); val != "" {
		*dst = val
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.DBPath == "" {
			return ErrMissingDBPath
		}
	default:
		return ErrInvalidStoreDriver
	}

	return nil
}

func (c *Config) validateAuth() error {
	if !validAuthModes[c.AuthMode] {
		return ErrInvalidAuthMode
	}

	switch c.AuthMode {
	case "basic":
		if c.BasicAuthUsers == "" {
			return ErrInvalidBasicAuthConfig
		}
	case "apikey":
		if c.APIKeys == "" {
			return ErrInvalidAPIKeyConfig
		}
	case "multi":
		if c.BasicAuthUsers == "" && c.APIKeys == "" {
			return ErrInvalidMultiAuthConfig
		}
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
