package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohamedkhairy/streamta/internal/models"
)

// Config holds all configuration for the streaming engine binary
type Config struct {
	// Common
	Environment string
	LogLevel    string

	Engine     EngineConfig
	MarketData MarketDataConfig
	Redis      RedisConfig
	Publisher  PublisherConfig
	API        APIConfig

	// PerfProfile selects between the "short" and "full" benchmark
	// parameter sets. Correctness is unaffected.
	PerfProfile string
}

// EngineConfig holds streaming engine configuration
type EngineConfig struct {
	EmitProvisionalUpdates bool
	SuppressQuotes         bool
	Timeframes             []string
}

// MarketDataConfig holds market data provider configuration
type MarketDataConfig struct {
	Provider          string // "mock" or "websocket"
	WebSocketURL      string
	Symbols           []string
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

// RedisConfig holds Redis configuration for the update publisher
type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// PublisherConfig holds update publisher configuration
type PublisherConfig struct {
	StreamName   string
	BatchSize    int
	BatchTimeout time.Duration
}

// APIConfig holds HTTP API configuration
type APIConfig struct {
	Port int
}

// Load loads configuration from the environment, reading .env if present
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if it doesn't)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Engine: EngineConfig{
			EmitProvisionalUpdates: getEnvAsBool("ENGINE_EMIT_PROVISIONAL", true),
			SuppressQuotes:         getEnvAsBool("ENGINE_SUPPRESS_QUOTES", false),
			Timeframes:             getEnvAsStringSlice("ENGINE_TIMEFRAMES", []string{"tick", "1m"}),
		},
		MarketData: MarketDataConfig{
			Provider:          getEnv("MARKET_DATA_PROVIDER", "mock"),
			WebSocketURL:      getEnv("MARKET_DATA_WS_URL", ""),
			Symbols:           getEnvAsStringSlice("MARKET_DATA_SYMBOLS", []string{"AAPL"}),
			ReconnectDelay:    getEnvAsDuration("MARKET_DATA_RECONNECT_DELAY", 1*time.Second),
			MaxReconnectDelay: getEnvAsDuration("MARKET_DATA_MAX_RECONNECT_DELAY", 30*time.Second),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		Publisher: PublisherConfig{
			StreamName:   getEnv("PUBLISHER_STREAM_NAME", "indicator.updates"),
			BatchSize:    getEnvAsInt("PUBLISHER_BATCH_SIZE", 100),
			BatchTimeout: getEnvAsDuration("PUBLISHER_BATCH_TIMEOUT", 100*time.Millisecond),
		},
		API: APIConfig{
			Port: getEnvAsInt("API_PORT", 8090),
		},

		PerfProfile: getEnv("STREAMTA_PERF_PROFILE", "short"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.MarketData.Symbols) == 0 {
		return fmt.Errorf("MARKET_DATA_SYMBOLS must contain at least one symbol")
	}
	if c.MarketData.Provider == "websocket" && c.MarketData.WebSocketURL == "" {
		return fmt.Errorf("MARKET_DATA_WS_URL is required for the websocket provider")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}
	if c.PerfProfile != "short" && c.PerfProfile != "full" {
		return fmt.Errorf("STREAMTA_PERF_PROFILE must be \"short\" or \"full\"")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// Timeframes parses the configured timeframe list.
func (c *Config) Timeframes() ([]models.Timeframe, error) {
	out := make([]models.Timeframe, 0, len(c.Engine.Timeframes))
	for _, s := range c.Engine.Timeframes {
		tf, err := models.ParseTimeframe(s)
		if err != nil {
			return nil, err
		}
		out = append(out, tf)
	}
	return out, nil
}
