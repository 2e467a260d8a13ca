package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all tracker configuration
type Config struct {
	Service  ServiceConfig
	Database DatabaseConfig
	Events   EventsConfig
	Store    StoreConfig
	Features FeatureFlags
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// EventsConfig holds the redis invalidation bus settings
type EventsConfig struct {
	Enabled       bool
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// StoreConfig holds relationship store settings
type StoreConfig struct {
	// MaxEntries is a soft watermark; stale entries are evicted past it
	MaxEntries     int
	RefreshTimeout time.Duration
}

// FeatureFlags for rollout toggles
type FeatureFlags struct {
	EnableEventBus      bool
	EnableFieldRules    bool
	StrictLinkConflicts bool
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "tracker"),
			User:        getEnv("POSTGRES_USER", "tracker"),
			Password:    getEnv("POSTGRES_PASSWORD", "tracker"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 4),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Events: EventsConfig{
			Enabled:       getEnvBool("EVENTS_ENABLED", true),
			Addr:          getEnv("REDIS_ADDR", "localhost:6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			ChannelPrefix: getEnv("EVENTS_CHANNEL_PREFIX", "tracker:inval"),
		},
		Store: StoreConfig{
			MaxEntries:     getEnvInt("STORE_MAX_ENTRIES", 4096),
			RefreshTimeout: getEnvDuration("STORE_REFRESH_TIMEOUT", 15*time.Second),
		},
		Features: FeatureFlags{
			EnableEventBus:      getEnvBool("ENABLE_EVENT_BUS", true),
			EnableFieldRules:    getEnvBool("ENABLE_FIELD_RULES", true),
			StrictLinkConflicts: getEnvBool("STRICT_LINK_CONFLICTS", true),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Events.Enabled && c.Events.Addr == "" {
		return fmt.Errorf("redis addr is required when events are enabled")
	}

	if strings.ContainsAny(c.Events.ChannelPrefix, " \t") {
		return fmt.Errorf("invalid events channel prefix: %q", c.Events.ChannelPrefix)
	}

	if c.Store.MaxEntries < 1 {
		return fmt.Errorf("store max entries must be positive")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
