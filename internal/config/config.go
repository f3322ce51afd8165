package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Delivery DeliveryConfig
	Reminder ReminderConfig
	Draft    DraftConfig
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
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// DeliveryConfig holds per-role webhook endpoints for the chat
// delivery adapters. A role with no URL falls back to the logging
// adapter.
type DeliveryConfig struct {
	DAWebhookURL         string
	SupervisorWebhookURL string
	ClientWebhookURL     string
	SendTimeoutSeconds   int
}

// ReminderConfig configures the client "respond later" delays.
type ReminderConfig struct {
	ShortDelayMinutes int
	LongDelayMinutes  int
}

// DraftConfig controls ticket-draft session storage.
type DraftConfig struct {
	TTLMinutes int
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
			Name:                  getEnv("APP_NAME", "triage-service"),
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
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Delivery: DeliveryConfig{
			DAWebhookURL:         getEnv("DELIVERY_DA_WEBHOOK_URL", ""),
			SupervisorWebhookURL: getEnv("DELIVERY_SUPERVISOR_WEBHOOK_URL", ""),
			ClientWebhookURL:     getEnv("DELIVERY_CLIENT_WEBHOOK_URL", ""),
			SendTimeoutSeconds:   getEnvAsInt("DELIVERY_SEND_TIMEOUT_SECONDS", 5),
		},
		Reminder: ReminderConfig{
			ShortDelayMinutes: getEnvAsInt("REMINDER_SHORT_DELAY_MINUTES", 10),
			LongDelayMinutes:  getEnvAsInt("REMINDER_LONG_DELAY_MINUTES", 15),
		},
		Draft: DraftConfig{
			TTLMinutes: getEnvAsInt("DRAFT_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
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

// SendTimeout bounds one delivery attempt so a slow recipient cannot
// stall the rest of a fan-out.
func (d DeliveryConfig) SendTimeout() time.Duration {
	if d.SendTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.SendTimeoutSeconds) * time.Second
}

// ShortDelay returns the shorter "remind me later" delay.
func (r ReminderConfig) ShortDelay() time.Duration {
	return time.Duration(r.ShortDelayMinutes) * time.Minute
}

// LongDelay returns the longer "remind me later" delay.
func (r ReminderConfig) LongDelay() time.Duration {
	return time.Duration(r.LongDelayMinutes) * time.Minute
}

// TTL returns how long an unfinished draft survives.
func (d DraftConfig) TTL() time.Duration {
	if d.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(d.TTLMinutes) * time.Minute
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
