// Package config provides configuration management for the prompt version
// store and retrieval engine.
//
// Configuration is loaded from multiple sources in this order:
//  1. A ".env" file, if present (best-effort, missing file is not an error)
//  2. Environment variables
//  3. Config file defaults set in setDefaults()
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete application configuration, covering every
// recognized configuration option, plus the ambient
// server/logging stack.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Vector      VectorConfig   `mapstructure:"vector"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Concurrency Concurrency    `mapstructure:"concurrency"`
	Logging     LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the HTTP transport and PreciseTime probe settings.
type ServerConfig struct {
	Host                       string        `mapstructure:"host"`
	Port                       int           `mapstructure:"port"`
	ShutdownTimeout            time.Duration `mapstructure:"shutdown_timeout"`
	PreciseTimeProbeURL        string        `mapstructure:"precise_time_probe_url"`
	PreciseTimeIntervalSeconds int           `mapstructure:"precise_time_interval_seconds"`
	QueueItemTimeoutSeconds    int           `mapstructure:"queue_item_timeout_seconds"`
}

// DatabaseBackend selects the Store realization.
type DatabaseBackend string

const (
	BackendEmbedded DatabaseBackend = "embedded"
	BackendHosted   DatabaseBackend = "hosted"
)

// DatabaseConfig recognizes database.type/path/hosted_url/hosted_key/
// connection_string.
type DatabaseConfig struct {
	Type             DatabaseBackend `mapstructure:"type"`
	Path             string          `mapstructure:"path"`
	HostedURL        string          `mapstructure:"hosted_url"`
	HostedKey        string          `mapstructure:"hosted_key"`
	ConnectionString string          `mapstructure:"connection_string"`
}

// ProviderPriority selects which EmbeddingProvider is tried first.
type ProviderPriority string

const (
	PriorityRemoteFirst ProviderPriority = "remote_first"
	PriorityLocalFirst  ProviderPriority = "local_first"
)

// VectorConfig recognizes the vector.* options.
type VectorConfig struct {
	Enabled          bool             `mapstructure:"enabled"`
	Dimension        int              `mapstructure:"dimension"`
	EmbeddingModel   string           `mapstructure:"embedding_model"`
	EmbeddingAPIKey  string           `mapstructure:"embedding_api_key"`
	EmbeddingAPIURL  string           `mapstructure:"embedding_api_url"`
	LocalModelID     string           `mapstructure:"local_model_id"`
	UseModelScope    bool             `mapstructure:"use_modelscope"`
	ProviderPriority ProviderPriority `mapstructure:"provider_priority"`
	BatchSize        int              `mapstructure:"batch_size"`
	MaxLength        int              `mapstructure:"max_length"`
}

// CacheBackend selects the L1 backing store.
type CacheBackend string

const (
	CacheMemory     CacheBackend = "memory"
	CacheFilesystem CacheBackend = "filesystem"
)

// CacheConfig recognizes the cache.* options.
type CacheConfig struct {
	Enabled            bool         `mapstructure:"enabled"`
	Type               CacheBackend `mapstructure:"type"`
	MaxCapacity        int          `mapstructure:"max_capacity"`
	TTLSeconds         int          `mapstructure:"ttl_seconds"`
	IdleTimeoutSeconds int          `mapstructure:"idle_timeout_seconds"`
	Dir                string       `mapstructure:"dir"`
}

// RedisConfig backs the L2 cache tier and invalidation bus.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// Concurrency recognizes concurrency.queue_max_size.
type Concurrency struct {
	QueueMaxSize int `mapstructure:"queue_max_size"`
}

// LoggingConfig recognizes the logging.* options.
type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"`
	FilePath      string `mapstructure:"file_path"`
	MaxSizeMB     int    `mapstructure:"max_size_mb"`
	BackupCount   int    `mapstructure:"backup_count"`
	ConsoleOutput bool   `mapstructure:"console_output"`
}

// Validate validates the full configuration tree.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}
	if err := c.Vector.Validate(); err != nil {
		return fmt.Errorf("vector config validation failed: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", sc.Port)
	}
	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}
	return nil
}

func (dc *DatabaseConfig) Validate() error {
	switch dc.Type {
	case BackendEmbedded:
		if dc.Path == "" {
			return errors.New("database.path is required when database.type is 'embedded'")
		}
	case BackendHosted:
		if dc.HostedURL == "" && dc.ConnectionString == "" {
			return errors.New("database.hosted_url or database.connection_string is required when database.type is 'hosted'")
		}
	default:
		return fmt.Errorf("database.type must be 'embedded' or 'hosted', got %q", dc.Type)
	}
	return nil
}

func (vc *VectorConfig) Validate() error {
	if !vc.Enabled {
		return nil
	}
	if vc.ProviderPriority != PriorityRemoteFirst && vc.ProviderPriority != PriorityLocalFirst {
		return fmt.Errorf("vector.provider_priority must be 'remote_first' or 'local_first', got %q", vc.ProviderPriority)
	}
	if vc.BatchSize <= 0 {
		return errors.New("vector.batch_size must be positive")
	}
	return nil
}

func (cc *CacheConfig) Validate() error {
	if !cc.Enabled {
		return nil
	}
	if cc.Type != CacheMemory && cc.Type != CacheFilesystem {
		return fmt.Errorf("cache.type must be 'memory' or 'filesystem', got %q", cc.Type)
	}
	if cc.Type == CacheFilesystem && cc.Dir == "" {
		return errors.New("cache.dir is required when cache.type is 'filesystem'")
	}
	if cc.MaxCapacity <= 0 {
		return errors.New("cache.max_capacity must be positive")
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, lc.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of %v)", lc.Level, validLevels)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Load loads configuration from a ".env" file (if present), environment
// variables, and built-in defaults, using a layered
// viper+godotenv pattern.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.SetEnvPrefix("")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnv("database.type", "DATABASE_TYPE")
	bindEnv("database.path", "DATABASE_PATH")
	bindEnv("database.hosted_url", "DATABASE_HOSTED_URL")
	bindEnv("database.hosted_key", "DATABASE_HOSTED_KEY")
	bindEnv("database.connection_string", "DATABASE_CONNECTION_STRING")

	bindEnv("vector.enabled", "VECTOR_ENABLED")
	bindEnv("vector.dimension", "VECTOR_DIMENSION")
	bindEnv("vector.embedding_model", "VECTOR_EMBEDDING_MODEL")
	bindEnv("vector.embedding_api_key", "VECTOR_EMBEDDING_API_KEY")
	bindEnv("vector.embedding_api_url", "VECTOR_EMBEDDING_API_URL")
	bindEnv("vector.local_model_id", "VECTOR_LOCAL_MODEL_ID")
	bindEnv("vector.use_modelscope", "VECTOR_USE_MODELSCOPE")
	bindEnv("vector.provider_priority", "VECTOR_PROVIDER_PRIORITY")
	bindEnv("vector.batch_size", "VECTOR_BATCH_SIZE")
	bindEnv("vector.max_length", "VECTOR_MAX_LENGTH")

	bindEnv("cache.enabled", "CACHE_ENABLED")
	bindEnv("cache.type", "CACHE_TYPE")
	bindEnv("cache.max_capacity", "CACHE_MAX_CAPACITY")
	bindEnv("cache.ttl_seconds", "CACHE_TTL_SECONDS")
	bindEnv("cache.idle_timeout_seconds", "CACHE_IDLE_TIMEOUT_SECONDS")
	bindEnv("cache.dir", "CACHE_DIR")

	bindEnv("redis.url", "REDIS_URL")

	bindEnv("concurrency.queue_max_size", "QUEUE_MAX_SIZE")

	bindEnv("logging.level", "LOG_LEVEL")
	bindEnv("logging.format", "LOG_FORMAT")
	bindEnv("logging.file_path", "LOG_FILE_PATH")
	bindEnv("logging.max_size_mb", "LOG_MAX_SIZE_MB")
	bindEnv("logging.backup_count", "LOG_BACKUP_COUNT")
	bindEnv("logging.console_output", "LOG_CONSOLE_OUTPUT")

	bindEnv("server.host", "SERVER_HOST")
	bindEnv("server.port", "PORT")
	bindEnv("server.precise_time_probe_url", "PRECISE_TIME_PROBE_URL")
	bindEnv("server.precise_time_interval_seconds", "PRECISE_TIME_INTERVAL_SECONDS")
	bindEnv("server.queue_item_timeout_seconds", "QUEUE_ITEM_TIMEOUT_SECONDS")

	bindEnv("environment", "ENV")

	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func bindEnv(key, env string) {
	//nolint:errcheck // BindEnv only errors with invalid args, safe with string literals
	viper.BindEnv(key, env)
}

func setDefaults() {
	viper.SetDefault("environment", "development")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdown_timeout", "15s")
	viper.SetDefault("server.precise_time_probe_url", "https://www.google.com")
	viper.SetDefault("server.precise_time_interval_seconds", 45)
	viper.SetDefault("server.queue_item_timeout_seconds", 30)

	viper.SetDefault("database.type", "embedded")
	viper.SetDefault("database.path", "./data/prompts.db")

	viper.SetDefault("vector.enabled", true)
	viper.SetDefault("vector.dimension", 0) // 0 => resolved from the embedding provider
	viper.SetDefault("vector.embedding_model", "text-embedding-3-small")
	viper.SetDefault("vector.provider_priority", "remote_first")
	viper.SetDefault("vector.batch_size", 32)
	viper.SetDefault("vector.max_length", 8192)
	viper.SetDefault("vector.use_modelscope", false)

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.type", "memory")
	viper.SetDefault("cache.max_capacity", 2048)
	viper.SetDefault("cache.ttl_seconds", 3600)
	viper.SetDefault("cache.idle_timeout_seconds", 600)
	viper.SetDefault("cache.dir", "./data/cache")

	viper.SetDefault("redis.url", "")

	viper.SetDefault("concurrency.queue_max_size", 256)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.file_path", "")
	viper.SetDefault("logging.max_size_mb", 100)
	viper.SetDefault("logging.backup_count", 3)
	viper.SetDefault("logging.console_output", true)
}

// GetServerAddress returns the server's listen address.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDevelopment reports whether the environment is development/dev.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// HostedConfigured reports whether a hosted backend has enough
// configuration to be dialed, used by SyncEngine wiring to decide
// whether both backends are configured.
func (dc *DatabaseConfig) HostedConfigured() bool {
	return dc.HostedURL != "" || dc.ConnectionString != ""
}
