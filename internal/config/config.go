package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// minJWTSecretLength mirrors the HS256 key size.
const minJWTSecretLength = 32

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
	CORS     CORSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	CacheTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLSeconds int
	BcryptCost            int
}

// KafkaConfig configures the user event stream. No brokers disables it.
type KafkaConfig struct {
	Brokers         []string
	UserEventsTopic string
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	AllowedOrigins string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "user-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			CacheTTLSeconds: getEnvAsInt("REDIS_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLSeconds: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_SECONDS", 3600),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Kafka: KafkaConfig{
			Brokers:         getEnvAsList("KAFKA_BROKERS"),
			UserEventsTopic: getEnv("KAFKA_USER_EVENTS_TOPIC", "user-events"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", true),
			Endpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
	}

	if err := cfg.Auth.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a AuthConfig) validate() error {
	if a.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if len(a.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	}
	if a.AccessTokenTTLSeconds <= 0 {
		return errors.New("AUTH_ACCESS_TOKEN_TTL_SECONDS must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued session tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLSeconds) * time.Second
}

// CacheTTL returns how long cached profiles live.
func (r RedisConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
