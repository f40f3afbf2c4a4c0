package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"

	UploadsDisk  = "disk"
	UploadsMinio = "minio"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Minio    MinioConfig    `mapstructure:"minio"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	BodyLimit      string        `mapstructure:"body_limit"`
	StaticDir      string        `mapstructure:"static_dir"`
}

// StorageConfig selects and configures the guide store
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	DataFile   string `mapstructure:"data_file"`
	UploadsDir string `mapstructure:"uploads_dir"`
}

// UploadsConfig holds upload validation and backend settings
type UploadsConfig struct {
	Backend      string   `mapstructure:"backend"`
	MaxBytes     int64    `mapstructure:"max_bytes"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	URLPrefix    string   `mapstructure:"url_prefix"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// MinioConfig holds S3-compatible object storage configuration
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	EditorSecret       string        `mapstructure:"editor_secret"`
	EditorTokenTTL     time.Duration `mapstructure:"editor_token_ttl"`
	TokenIssuer        string        `mapstructure:"token_issuer"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Guidebook")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 4001)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.body_limit", "50M")
	v.SetDefault("server.static_dir", "")

	// Storage defaults
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.data_file", "data/guides.json")
	v.SetDefault("storage.uploads_dir", "data/uploads")

	// Upload defaults
	v.SetDefault("uploads.backend", UploadsDisk)
	v.SetDefault("uploads.max_bytes", 5*1024*1024)
	v.SetDefault("uploads.allowed_types", []string{"image/jpeg", "image/png", "image/gif", "image/webp"})
	v.SetDefault("uploads.url_prefix", "/uploads")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "guidebook")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30s")
	v.SetDefault("database.migrations_path", "migrations")

	// Redis defaults
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.prefix", "guidebook:")

	// Minio defaults
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "guide-uploads")
	v.SetDefault("minio.use_ssl", false)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")
	v.SetDefault("security.editor_secret", "")
	v.SetDefault("security.editor_token_ttl", "720h")
	v.SetDefault("security.token_issuer", "guidebook")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("app.debug", "APP_DEBUG")

	// Server
	v.BindEnv("server.port", "PORT", "SERVER_PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	v.BindEnv("server.request_timeout", "SERVER_REQUEST_TIMEOUT")
	v.BindEnv("server.static_dir", "SERVER_STATIC_DIR")

	// Storage
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.data_file", "GUIDES_FILE")
	v.BindEnv("storage.uploads_dir", "UPLOADS_DIR")

	// Uploads
	v.BindEnv("uploads.backend", "UPLOADS_BACKEND")
	v.BindEnv("uploads.max_bytes", "UPLOADS_MAX_BYTES")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.ssl_mode", "DB_SSL_MODE")
	v.BindEnv("database.migrations_path", "DB_MIGRATIONS_PATH")

	// Redis
	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("redis.prefix", "REDIS_PREFIX")

	// Minio
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")
	v.BindEnv("minio.use_ssl", "MINIO_USE_SSL")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.output", "LOG_OUTPUT")
	v.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	v.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	v.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")
	v.BindEnv("security.editor_secret", "EDITOR_SECRET")
	v.BindEnv("security.editor_token_ttl", "EDITOR_TOKEN_TTL")

	// Metrics
	v.BindEnv("metrics.enabled", "ENABLE_METRICS")
}

// Validate checks the settings that select storage drivers and limits
func (cfg *Config) Validate() error {
	switch cfg.Storage.Driver {
	case DriverFile:
		if cfg.Storage.DataFile == "" {
			return fmt.Errorf("storage data file is required for the file driver")
		}
	case DriverMemory, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Uploads.Backend {
	case UploadsDisk:
		if cfg.Storage.UploadsDir == "" {
			return fmt.Errorf("uploads directory is required for the disk backend")
		}
	case UploadsMinio:
		if cfg.Minio.Bucket == "" {
			return fmt.Errorf("minio bucket is required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown uploads backend %q", cfg.Uploads.Backend)
	}

	if cfg.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads max bytes must be positive")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	return nil
}

// GetDSN returns the database connection string
func (cfg *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// Address returns the listen address of the server
func (cfg *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// AuthEnabled reports whether mutating routes require an editor token
func (cfg *SecurityConfig) AuthEnabled() bool {
	return cfg.EditorSecret != ""
}
