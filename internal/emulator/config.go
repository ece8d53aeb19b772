package emulator

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the emulator configuration, loaded from environment
// variables. The emulator is a development stand-in for the hosted
// FeatherVault service: defaults favor a zero-configuration local start.
type Config struct {
	// Server configuration
	Host string
	Port int

	// APIKey, when set, requires callers to present it as a bearer
	// token. Empty disables authentication (local development).
	APIKey string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Store selects the secret store backend: "memory" or "redis".
	Store string

	// Redis configuration, used when Store is "redis".
	Redis RedisConfig

	// SweepInterval is how often expired secret versions are purged.
	// Zero disables the sweeper.
	SweepInterval time.Duration

	// Telemetry configuration
	LogLevel    string
	MetricsPath string
}

// RedisConfig holds Redis connection settings for the redis store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns the host:port address for the Redis connection.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LoadConfig loads the emulator configuration from environment variables.
func LoadConfig() (*Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8420"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	requestTimeout, err := strconv.Atoi(getEnvOrDefault("REQUEST_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := strconv.Atoi(getEnvOrDefault("SHUTDOWN_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	sweepInterval, err := strconv.Atoi(getEnvOrDefault("SWEEP_INTERVAL", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	store := getEnvOrDefault("STORE", "memory")
	if store != "memory" && store != "redis" {
		return nil, fmt.Errorf("invalid STORE %q: must be \"memory\" or \"redis\"", store)
	}

	redisPort, err := strconv.Atoi(getEnvOrDefault("REDIS_PORT", "6379"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return &Config{
		Host:            getEnvOrDefault("HOST", "0.0.0.0"),
		Port:            port,
		APIKey:          os.Getenv("API_KEY"),
		RequestTimeout:  time.Duration(requestTimeout) * time.Second,
		ShutdownTimeout: time.Duration(shutdownTimeout) * time.Second,
		Store:           store,
		Redis: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		SweepInterval: time.Duration(sweepInterval) * time.Second,
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		MetricsPath:   getEnvOrDefault("METRICS_PATH", "/metrics"),
	}, nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
