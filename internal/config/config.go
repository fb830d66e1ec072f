package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	// Clinic
	ClinicID          string
	ClinicTimezone    string
	DefaultLocale     string
	SearchHorizonDays int

	AdminJWTSecret string

	// External calendar bridge
	CalendarBridgeURL         string
	CalendarBridgeTimeout     time.Duration
	CalendarBridgeMaxAttempts int
	CalendarBridgeBackoff     time.Duration
	CalendarBridgeMaxBackoff  time.Duration
	BreakerFailureThreshold   int
	BreakerRecoveryTimeout    time.Duration

	// Mirror queue
	UseMemoryQueue      bool
	MirrorQueueURL      string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 2*time.Hour),

		ClinicID:          getEnv("CLINIC_ID", "default"),
		ClinicTimezone:    getEnv("CLINIC_TIMEZONE", "Europe/Berlin"),
		DefaultLocale:     strings.ToLower(strings.TrimSpace(getEnv("DEFAULT_LOCALE", "de"))),
		SearchHorizonDays: getEnvAsInt("SEARCH_HORIZON_DAYS", 30),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CalendarBridgeURL:         strings.TrimRight(getEnv("CALENDAR_BRIDGE_URL", ""), "/"),
		CalendarBridgeTimeout:     getEnvAsDuration("CALENDAR_BRIDGE_TIMEOUT", 5*time.Second),
		CalendarBridgeMaxAttempts: getEnvAsInt("CALENDAR_BRIDGE_MAX_ATTEMPTS", 3),
		CalendarBridgeBackoff:     getEnvAsDuration("CALENDAR_BRIDGE_BACKOFF", 2*time.Second),
		CalendarBridgeMaxBackoff:  getEnvAsDuration("CALENDAR_BRIDGE_MAX_BACKOFF", 10*time.Second),
		BreakerFailureThreshold:   getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 3),
		BreakerRecoveryTimeout:    getEnvAsDuration("BREAKER_RECOVERY_TIMEOUT", 30*time.Second),

		UseMemoryQueue:      getEnvAsBool("USE_MEMORY_QUEUE", true),
		MirrorQueueURL:      getEnv("MIRROR_QUEUE_URL", ""),
		AWSRegion:           getEnv("AWS_REGION", "eu-central-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// BridgeEnabled reports whether bookings should be mirrored to the external calendar.
func (c *Config) BridgeEnabled() bool {
	return c != nil && c.CalendarBridgeURL != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
