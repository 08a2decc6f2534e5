// Package config loads TOML configuration with environment variable
// overrides and schema validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for the pricing service.
type Config struct {
	// ServiceName identifies the service in logs and metrics.
	ServiceName string `mapstructure:"service_name"`
	// Version of the service.
	Version string `mapstructure:"version"`
	// Environment is dev, staging or prod.
	Environment string `mapstructure:"environment"`
	// HTTP server settings.
	HTTP HTTPConfig `mapstructure:"http"`
	// Database settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Redis settings.
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Logger settings.
	Logger LoggerConfig `mapstructure:"logger"`
	// Metrics settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// RateLimit settings for the HTTP API.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	// Batch settings for batch calculations.
	Batch BatchConfig `mapstructure:"batch"`
	// Outbox settings for the event relay.
	Outbox OutboxConfig `mapstructure:"outbox"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	// Host to listen on.
	Host string `mapstructure:"host"`
	// Port to listen on.
	Port int `mapstructure:"port"`
	// ReadTimeout in seconds.
	ReadTimeout int `mapstructure:"read_timeout"`
	// WriteTimeout in seconds.
	WriteTimeout int `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	// Driver is mysql, postgres or sqlite.
	Driver string `mapstructure:"driver"`
	// DSN is the data source name.
	DSN string `mapstructure:"dsn"`
	// MaxOpenConns caps open connections.
	MaxOpenConns int `mapstructure:"max_open_conns"`
	// MaxIdleConns caps idle connections.
	MaxIdleConns int `mapstructure:"max_idle_conns"`
	// ConnMaxLifetime in seconds.
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"`
	// LogEnabled turns on SQL logging.
	LogEnabled bool `mapstructure:"log_enabled"`
	// SlowQueryThreshold in milliseconds.
	SlowQueryThreshold int `mapstructure:"slow_query_threshold"`
}

// RedisConfig holds Redis settings.
type RedisConfig struct {
	// Host of the Redis server.
	Host string `mapstructure:"host"`
	// Port of the Redis server.
	Port int `mapstructure:"port"`
	// Password, empty when auth is disabled.
	Password string `mapstructure:"password"`
	// DB number.
	DB int `mapstructure:"db"`
	// MaxPoolSize caps pooled connections.
	MaxPoolSize int `mapstructure:"max_pool_size"`
	// ConnTimeout in seconds.
	ConnTimeout int `mapstructure:"conn_timeout"`
	// ReadTimeout in seconds.
	ReadTimeout int `mapstructure:"read_timeout"`
	// WriteTimeout in seconds.
	WriteTimeout int `mapstructure:"write_timeout"`
}

// KafkaConfig holds Kafka producer settings.
type KafkaConfig struct {
	// Brokers to connect to.
	Brokers []string `mapstructure:"brokers"`
	// MaxRetries per message before giving up.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBackoff in milliseconds between attempts.
	RetryBackoff int `mapstructure:"retry_backoff"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is json or text.
	Format string `mapstructure:"format"`
	// Output is stdout, file or both.
	Output string `mapstructure:"output"`
	// FilePath of the log file.
	FilePath string `mapstructure:"file_path"`
	// MaxSize in MB before rotation.
	MaxSize int `mapstructure:"max_size"`
	// MaxBackups to keep.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAge in days.
	MaxAge int `mapstructure:"max_age"`
	// Compress rotated files.
	Compress bool `mapstructure:"compress"`
	// WithCaller adds source location to records.
	WithCaller bool `mapstructure:"with_caller"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on.
	Enabled bool `mapstructure:"enabled"`
	// Port for the metrics HTTP server.
	Port int `mapstructure:"port"`
	// Path of the metrics endpoint.
	Path string `mapstructure:"path"`
}

// RateLimitConfig holds request rate limit settings.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	Enabled bool `mapstructure:"enabled"`
	// QPS allowed per client.
	QPS int `mapstructure:"qps"`
	// Burst allowed per client.
	Burst int `mapstructure:"burst"`
}

// BatchConfig holds batch calculation settings.
type BatchConfig struct {
	// MaxRows caps the number of inputs per batch request.
	MaxRows int `mapstructure:"max_rows"`
	// Workers sizes the pool that prices batch rows.
	Workers int `mapstructure:"workers"`
}

// OutboxConfig holds outbox relay settings.
type OutboxConfig struct {
	// PollInterval in seconds between relay passes.
	PollInterval int `mapstructure:"poll_interval"`
	// BatchSize caps messages per relay pass.
	BatchSize int `mapstructure:"batch_size"`
	// RetentionHours before sent messages are purged.
	RetentionHours int `mapstructure:"retention_hours"`
}

// Load reads the TOML file at configPath, applies defaults and APP_ prefixed
// environment variable overrides, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// APP_HTTP_PORT overrides http.port and so on.
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database DSN is required for %s driver", c.Database.Driver)
	}
	if c.Batch.MaxRows <= 0 {
		return fmt.Errorf("invalid batch max_rows: %d", c.Batch.MaxRows)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d", c.Batch.Workers)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.qps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("batch.max_rows", 100)
	v.SetDefault("batch.workers", 8)

	v.SetDefault("outbox.poll_interval", 2)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.retention_hours", 24)
}

// GetEnv returns the environment variable for key, or defaultValue when unset.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
