package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig contains gRPC and HTTP server settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	HTTPPort int    `yaml:"http_port"` // defaults to Port+1
}

// DatabaseConfig contains PostgreSQL connection settings.
// Driver "memory" runs the service against the in-process store.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig contains the balance cache settings
type RedisConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Password          string `yaml:"password"`
	DB                int    `yaml:"db"`
	BalanceTTLSeconds int    `yaml:"balance_ttl_seconds"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// StorageConfig contains receipt storage settings
type StorageConfig struct {
	Type             string   `yaml:"type"`       // "mock" only for now
	UploadDir        string   `yaml:"upload_dir"` // For mock storage
	BaseURL          string   `yaml:"base_url"`   // Server base URL for mock URLs
	MaxFileSize      int64    `yaml:"max_file_size_mb"`
	AllowedTypes     []string `yaml:"allowed_types"`
	UploadURLTTLMins int      `yaml:"upload_url_ttl_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `yaml:"format"` // "json" or "text"
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// LedgerConfig contains concurrency and paging limits of the ledger
type LedgerConfig struct {
	LockTimeoutMs   int   `yaml:"lock_timeout_ms"`
	ExpiryBatchSize int   `yaml:"expiry_batch_size"`
	MaxPageSize     int32 `yaml:"max_page_size"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	Embedded                bool   `yaml:"embedded"` // run jobs inside the server process
	ExpireVirtualCurrency   string `yaml:"expire_virtual_currency"`
	ReconcileWalletBalances string `yaml:"reconcile_wallet_balances"`
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Redis
	if val := os.Getenv("REDIS_HOST"); val != "" {
		c.Redis.Host = val
		c.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Redis.Port)
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Storage
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
	if val := os.Getenv("LOG_FILE"); val != "" {
		c.Log.File = val
	}

	// Ledger
	if val := os.Getenv("LEDGER_LOCK_TIMEOUT_MS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Ledger.LockTimeoutMs)
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = c.Server.Port + 1
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	// Redis validation
	if c.Redis.Enabled {
		if c.Redis.Host == "" {
			c.Redis.Host = "localhost"
		}
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
		if c.Redis.BalanceTTLSeconds <= 0 {
			c.Redis.BalanceTTLSeconds = 300
		}
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Storage validation
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	if c.Storage.UploadURLTTLMins == 0 {
		c.Storage.UploadURLTTLMins = 15
	}
	if c.Storage.MaxFileSize == 0 {
		c.Storage.MaxFileSize = 10
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "application/pdf"}
	}

	// Ledger defaults
	if c.Ledger.LockTimeoutMs == 0 {
		c.Ledger.LockTimeoutMs = 5000
	}
	if c.Ledger.LockTimeoutMs < 0 {
		return fmt.Errorf("invalid ledger lock timeout: %d", c.Ledger.LockTimeoutMs)
	}
	if c.Ledger.ExpiryBatchSize == 0 {
		c.Ledger.ExpiryBatchSize = 500
	}
	if c.Ledger.MaxPageSize == 0 {
		c.Ledger.MaxPageSize = 100
	}

	// Scheduler defaults
	if c.Scheduler.ExpireVirtualCurrency == "" {
		c.Scheduler.ExpireVirtualCurrency = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.ReconcileWalletBalances == "" {
		c.Scheduler.ReconcileWalletBalances = "0 0 3 * * *" // 3 AM UTC
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the gRPC server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHTTPAddress returns the side HTTP server address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// GetRedisAddress returns the Redis address
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// LockTimeout returns the maximum wait for a wallet lock
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Ledger.LockTimeoutMs) * time.Millisecond
}

// BalanceCacheTTL returns how long a cached balance may be served
func (c *Config) BalanceCacheTTL() time.Duration {
	return time.Duration(c.Redis.BalanceTTLSeconds) * time.Second
}
