package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/tally/pkg/logos"
	"github.com/platinummonkey/tally/pkg/observability"
)

// Mail providers
const (
	MailProviderLog    = "log"
	MailProviderResend = "resend"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	S3            S3Config
	Stripe        StripeConfig
	Mail          MailConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodyBytes    int64

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

// RedisConfig holds Redis settings. An empty URL keeps login throttling in memory.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// S3Config holds logo storage settings. An empty bucket disables logo upload.
type S3Config struct {
	logos.Config
	CacheSize int
	CacheTTL  time.Duration
}

// Enabled reports whether logo storage is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// StripeConfig holds billing webhook settings
type StripeConfig struct {
	WebhookSecret string
	Tolerance     time.Duration
}

// MailConfig holds outgoing email settings
type MailConfig struct {
	Provider     string
	From         string
	ResendAPIKey string
	ResendURL    string
}

// AuthConfig holds session and login throttling settings
type AuthConfig struct {
	SessionTTL    time.Duration
	LoginAttempts int
	LoginWindow   time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		S3:            loadS3Config(),
		Stripe:        loadStripeConfig(),
		Mail:          loadMailConfig(),
		Auth:          loadAuthConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("TALLY_HOST", "0.0.0.0"),
		Port:            getEnv("TALLY_PORT", "8080"),
		ReadTimeout:     getEnvDuration("TALLY_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("TALLY_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     getEnvDuration("TALLY_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("TALLY_SHUTDOWN_TIMEOUT", 30*time.Second),
		CORSOrigins:     getEnvList("TALLY_CORS_ORIGINS", nil),
		MaxBodyBytes:    getEnvInt64("TALLY_MAX_BODY_BYTES", 10<<20),
		HealthPort:      getEnv("TALLY_HEALTH_PORT", "9090"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("TALLY_DATABASE_URL", ""),
		MaxOpenConns:    getEnvInt("TALLY_DATABASE_MAX_OPEN_CONNS", 20),
		MaxIdleConns:    getEnvInt("TALLY_DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("TALLY_DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		MigrateOnStart:  getEnvBool("TALLY_DATABASE_MIGRATE", true),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("TALLY_REDIS_URL", ""),
		Password: getEnv("TALLY_REDIS_PASSWORD", ""),
		DB:       getEnvInt("TALLY_REDIS_DB", 0),
		PoolSize: getEnvInt("TALLY_REDIS_POOL_SIZE", 10),
	}
}

func loadS3Config() S3Config {
	return S3Config{
		Config: logos.Config{
			Endpoint:     getEnv("TALLY_S3_ENDPOINT", ""),
			Region:       getEnv("TALLY_S3_REGION", "us-east-1"),
			Bucket:       getEnv("TALLY_S3_BUCKET", ""),
			AccessKey:    getEnv("TALLY_S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("TALLY_S3_SECRET_KEY", ""),
			UsePathStyle: getEnvBool("TALLY_S3_USE_PATH_STYLE", false),
		},
		CacheSize: getEnvInt("TALLY_LOGO_CACHE_SIZE", 256),
		CacheTTL:  getEnvDuration("TALLY_LOGO_CACHE_TTL", 10*time.Minute),
	}
}

func loadStripeConfig() StripeConfig {
	return StripeConfig{
		WebhookSecret: getEnv("TALLY_STRIPE_WEBHOOK_SECRET", ""),
		Tolerance:     getEnvDuration("TALLY_STRIPE_TOLERANCE", 5*time.Minute),
	}
}

func loadMailConfig() MailConfig {
	return MailConfig{
		Provider:     strings.ToLower(getEnv("TALLY_MAIL_PROVIDER", MailProviderLog)),
		From:         getEnv("TALLY_MAIL_FROM", "invoices@localhost"),
		ResendAPIKey: getEnv("TALLY_RESEND_API_KEY", ""),
		ResendURL:    getEnv("TALLY_RESEND_URL", "https://api.resend.com/"),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		SessionTTL:    getEnvDuration("TALLY_SESSION_TTL", 30*24*time.Hour),
		LoginAttempts: getEnvInt("TALLY_LOGIN_ATTEMPTS", 5),
		LoginWindow:   getEnvDuration("TALLY_LOGIN_WINDOW", time.Minute),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("TALLY_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("TALLY_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("TALLY_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("TALLY_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("TALLY_OTEL_SERVICE_NAME", "tally"),
		OTelServiceVersion: getEnv("TALLY_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("TALLY_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("TALLY_OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required (TALLY_DATABASE_URL)")
	}

	switch c.Mail.Provider {
	case MailProviderLog:
	case MailProviderResend:
		if c.Mail.ResendAPIKey == "" {
			return fmt.Errorf("resend API key is required when the mail provider is resend")
		}
		if c.Mail.From == "" {
			return fmt.Errorf("mail from address is required when the mail provider is resend")
		}
	default:
		return fmt.Errorf("invalid mail provider: %s (must be log or resend)", c.Mail.Provider)
	}

	if c.Auth.LoginAttempts <= 0 {
		return fmt.Errorf("login attempts must be positive")
	}
	if c.Auth.LoginWindow <= 0 || c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("login window and session TTL must be positive")
	}

	if c.S3.Enabled() && c.S3.CacheSize <= 0 {
		return fmt.Errorf("logo cache size must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
