package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// DefaultEncryptionKey is a development-only token vault key
const DefaultEncryptionKey = "gR2S4YVd_FqjUKPTy3lNMHvrYb2n0V5xsV6pQNwbabE="

// Config holds all application configuration. It is built once in main and
// passed to constructors; nothing reads the environment after startup.
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Stripe      StripeConfig
	Vault       VaultConfig
	Secrets     SecretsConfig
	Logger      LoggerConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
}

// ServerConfig holds listener configuration
type ServerConfig struct {
	Host            string
	Port            int
	MetricsPort     int
	GRPCPort        int // 0 disables the gRPC health server
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Driver         string
	URL            string
	Host           string
	User           string
	Password       string
	Database       string
	SSLMode        string
	Port           int
	MaxConns       int32
	MinConns       int32
	QueryTimeout   time.Duration
	PersistTimeout time.Duration
	MigrateOnStart bool
}

// StripeConfig holds payment processor configuration
type StripeConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// MaxConcurrency bounds in-flight processor calls
	MaxConcurrency  int64
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// VaultConfig configures the customer token vault's encryption keys
type VaultConfig struct {
	// KeyPath is the secret path of the primary key (env var name for SECRET_MANAGER=env)
	KeyPath string
	// PreviousKeyPaths are older keys still accepted for decryption
	PreviousKeyPaths []string
}

// SecretsConfig selects and configures the secret backend
type SecretsConfig struct {
	Backend        string // env, file, vault, aws
	FileDir        string
	VaultAddress   string
	VaultToken     string
	VaultRoleID    string
	VaultSecretID  string
	VaultMountPath string
	AWSRegion      string
	AWSEndpoint    string
	CacheTTL       time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// AuthConfig configures optional bearer token authentication
type AuthConfig struct {
	// JWTSecret enables HS256 token checks when non-empty
	JWTSecret string
	Issuer    string
}

// RateLimitConfig configures per-client rate limiting
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	Enabled           bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	environment := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Environment: environment,
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("PORT", 8000),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			GRPCPort:        getEnvAsInt("GRPC_PORT", 0),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			URL:            getEnv("DATABASE_URL", ""),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvAsInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", ""),
			Database:       getEnv("DB_NAME", "payment_intents"),
			SSLMode:        getEnv("DB_SSL_MODE", "disable"),
			MaxConns:       int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:       int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			QueryTimeout:   getEnvAsDuration("DB_QUERY_TIMEOUT", 2*time.Second),
			PersistTimeout: getEnvAsDuration("DB_PERSIST_TIMEOUT", 5*time.Second),
			MigrateOnStart: getEnvAsBool("MIGRATE_ON_START", false),
		},
		Stripe: StripeConfig{
			APIKey:          getEnv("STRIPE_API_KEY", "sk_test_placeholder"),
			BaseURL:         getEnv("STRIPE_BASE_URL", ""),
			Timeout:         getEnvAsDuration("STRIPE_TIMEOUT", 20*time.Second),
			MaxConcurrency:  int64(getEnvAsInt("STRIPE_MAX_CONCURRENCY", 32)),
			BreakerFailures: uint32(getEnvAsInt("STRIPE_BREAKER_FAILURES", 5)),
			BreakerCooldown: getEnvAsDuration("STRIPE_BREAKER_COOLDOWN", 30*time.Second),
		},
		Vault: VaultConfig{
			KeyPath:          getEnv("ENCRYPTION_KEY_PATH", "ENCRYPTION_KEY"),
			PreviousKeyPaths: getEnvAsList("ENCRYPTION_PREVIOUS_KEY_PATHS"),
		},
		Secrets: SecretsConfig{
			Backend:        strings.ToLower(getEnv("SECRET_MANAGER", "env")),
			FileDir:        getEnv("SECRETS_DIR", "./secrets"),
			VaultAddress:   getEnv("VAULT_ADDR", ""),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultRoleID:    getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:  getEnv("VAULT_SECRET_ID", ""),
			VaultMountPath: getEnv("VAULT_MOUNT_PATH", "secret"),
			AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
			AWSEndpoint:    getEnv("AWS_SECRETS_ENDPOINT", ""),
			CacheTTL:       getEnvAsDuration("SECRET_CACHE_TTL", 5*time.Minute),
		},
		Logger: LoggerConfig{
			Level:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Development: getEnvAsBool("LOG_DEVELOPMENT", environment != "production"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" && c.Database.Password == "" {
			return fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
		}
	case StoreDriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Database.Driver)
	}

	if c.Stripe.APIKey == "" {
		return fmt.Errorf("STRIPE_API_KEY is required")
	}
	if c.IsProduction() && c.Stripe.APIKey == "sk_test_placeholder" {
		return fmt.Errorf("STRIPE_API_KEY must be set in production")
	}
	if c.Stripe.MaxConcurrency <= 0 {
		return fmt.Errorf("STRIPE_MAX_CONCURRENCY must be positive")
	}
	if c.Vault.KeyPath == "" {
		return fmt.Errorf("ENCRYPTION_KEY_PATH is required")
	}

	switch c.Secrets.Backend {
	case "env", "file", "aws":
	case "vault":
		if c.Secrets.VaultAddress == "" {
			return fmt.Errorf("VAULT_ADDR is required when SECRET_MANAGER=vault")
		}
	default:
		return fmt.Errorf("unsupported SECRET_MANAGER %q", c.Secrets.Backend)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ConnectionString returns the PostgreSQL connection string.
// DATABASE_URL takes precedence over the discrete DB_* settings.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("20s") or bare seconds ("20")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
