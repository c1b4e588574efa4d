// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Log         LogConfig
	Storage     StorageConfig
	Analytics   AnalyticsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxLifetime  time.Duration
	SSLMode      string
	EnsureSchema bool
}

// DSN returns the connection string for the database
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_max_conn_lifetime=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode, c.MaxOpenConns, c.MaxLifetime,
	)
}

// NATSConfig holds NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver          string
	RetryMaxElapsed time.Duration
}

// AnalyticsConfig holds analytics service configuration
type AnalyticsConfig struct {
	EventsTopic       string
	TopContentLimit   int
	SeriesLimit       int
	TrendFeatureCount int
	// PredictionMetrics maps prediction types to the metric series they forecast
	PredictionMetrics map[string]string
}

// predictionTypes are the keys of AnalyticsConfig.PredictionMetrics
var predictionTypes = []string{"engagement", "growth", "sentiment", "trend", "event"}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "pulse"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			EnsureSchema: getEnvAsBool("DB_ENSURE_SCHEMA", true),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
			RetryMaxElapsed: getEnvAsDuration("ANALYTICS_RETRY_MAX_ELAPSED", 5*time.Second),
		},
		Analytics: AnalyticsConfig{
			EventsTopic:       getEnv("ANALYTICS_EVENTS_TOPIC", "analytics"),
			TopContentLimit:   getEnvAsInt("ANALYTICS_TOP_CONTENT_LIMIT", 5),
			SeriesLimit:       getEnvAsInt("ANALYTICS_SERIES_LIMIT", 100),
			TrendFeatureCount: getEnvAsInt("ANALYTICS_TREND_FEATURE_COUNT", 3),
			PredictionMetrics: map[string]string{
				"engagement": getEnv("ANALYTICS_PREDICTION_METRIC_ENGAGEMENT", "engagement_rate"),
				"growth":     getEnv("ANALYTICS_PREDICTION_METRIC_GROWTH", "total_users"),
				"sentiment":  getEnv("ANALYTICS_PREDICTION_METRIC_SENTIMENT", "average_sentiment"),
				"trend":      getEnv("ANALYTICS_PREDICTION_METRIC_TREND", "total_posts"),
				"event":      getEnv("ANALYTICS_PREDICTION_METRIC_EVENT", "event_count"),
			},
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	switch config.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	if config.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}

	if config.Analytics.TopContentLimit <= 0 {
		return fmt.Errorf("top content limit must be positive")
	}

	if config.Analytics.SeriesLimit <= 0 {
		return fmt.Errorf("series limit must be positive")
	}

	if config.Analytics.TrendFeatureCount <= 0 {
		return fmt.Errorf("trend feature count must be positive")
	}

	for _, t := range predictionTypes {
		if config.Analytics.PredictionMetrics[t] == "" {
			return fmt.Errorf("prediction metric for %s must be set", t)
		}
	}

	if config.Environment != "development" && config.Database.Password == "postgres" && config.Storage.Driver == DriverPostgres {
		return fmt.Errorf("database password must be set in non-development environments")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
