package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	CoinGecko CoinGeckoConfig
	Market    MarketConfig
	Reddit    RedditConfig

	// Scoring pipeline
	Scoring ScoringConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// CoinGeckoConfig holds CoinGecko API configuration
type CoinGeckoConfig struct {
	BaseURL string
	APIKey  string
}

// MarketConfig holds the market data API configuration
type MarketConfig struct {
	BaseURL string
}

// RedditConfig holds Reddit scraping configuration
type RedditConfig struct {
	BaseURL   string
	UserAgent string
}

// ScoringConfig holds the scoring pipeline configuration
// Weights and ranges are injected into the scorer/normalizer constructors;
// nothing in the pipeline reads ambient process state.
type ScoringConfig struct {
	// Dimension weights (must sum to 1.0)
	WeightMarket    float64
	WeightSentiment float64
	WeightCommunity float64
	WeightDeveloper float64
	WeightEnergy    float64

	// Retry policy per dimension
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Timeouts
	DimensionTimeout time.Duration
	RunTimeout       time.Duration

	// Assets to score: "id:SYMBOL,id:SYMBOL"
	Assets []AssetSpec

	// Per-asset energy consumption index in [0,1] (higher = more energy)
	EnergyIndex map[string]float64

	// Cron schedule for the scoring job
	Schedule string
}

// AssetSpec pairs a canonical asset id with its market symbol
type AssetSpec struct {
	ID     string
	Symbol string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "cryptoscore"),
			User:            getEnv("DB_USER", "cryptoscore"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External APIs
		CoinGecko: CoinGeckoConfig{
			BaseURL: getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			APIKey:  getEnv("COINGECKO_API_KEY", ""),
		},
		Market: MarketConfig{
			BaseURL: getEnv("MARKET_BASE_URL", "https://api.binance.com"),
		},
		Reddit: RedditConfig{
			BaseURL:   getEnv("REDDIT_BASE_URL", "https://old.reddit.com"),
			UserAgent: getEnv("REDDIT_USER_AGENT", "cryptoscore/1.0"),
		},

		// Scoring
		Scoring: ScoringConfig{
			WeightMarket:     getEnvAsFloat("WEIGHT_MARKET", 0.30),
			WeightSentiment:  getEnvAsFloat("WEIGHT_SENTIMENT", 0.25),
			WeightCommunity:  getEnvAsFloat("WEIGHT_COMMUNITY", 0.15),
			WeightDeveloper:  getEnvAsFloat("WEIGHT_DEVELOPER", 0.15),
			WeightEnergy:     getEnvAsFloat("WEIGHT_ENERGY", 0.15),
			MaxAttempts:      getEnvAsInt("RETRY_MAX_ATTEMPTS", 4),
			BaseDelay:        getEnvAsDuration("RETRY_BASE_DELAY", "1s"),
			MaxDelay:         getEnvAsDuration("RETRY_MAX_DELAY", "30s"),
			DimensionTimeout: getEnvAsDuration("DIMENSION_TIMEOUT", "1m"),
			RunTimeout:       getEnvAsDuration("RUN_TIMEOUT", "5m"),
			Assets:           parseAssets(getEnv("ASSETS", "bitcoin:BTCUSDT,ethereum:ETHUSDT,solana:SOLUSDT")),
			EnergyIndex:      parseFloatMap(getEnv("ENERGY_INDEX", defaultEnergyIndex)),
			Schedule:         getEnv("SCORING_SCHEDULE", "0 0 * * * *"), // hourly
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// defaultEnergyIndex is the per-asset energy consumption index
// (higher means more energy consumed; the normalizer inverts it)
const defaultEnergyIndex = "bitcoin=0.8,ethereum=0.6,solana=0.1,binancecoin=0.4," +
	"ripple=0.2,kaito=0.4,bittensor=0.3,berachain-bera=0.3,hyperliquid=0.5,sui=0.15"

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	sum := c.Scoring.WeightMarket + c.Scoring.WeightSentiment + c.Scoring.WeightCommunity +
		c.Scoring.WeightDeveloper + c.Scoring.WeightEnergy
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("dimension weights must sum to 1.0, got %.3f", sum)
	}

	if len(c.Scoring.Assets) == 0 {
		return fmt.Errorf("ASSETS must list at least one id:SYMBOL pair")
	}

	if c.Scoring.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// parseAssets parses "id:SYMBOL,id:SYMBOL" pairs
func parseAssets(value string) []AssetSpec {
	assets := make([]AssetSpec, 0)
	for _, pair := range strings.Split(value, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		assets = append(assets, AssetSpec{ID: parts[0], Symbol: parts[1]})
	}
	return assets
}

// parseFloatMap parses "key=1.0,key=2.0" pairs
func parseFloatMap(value string) map[string]float64 {
	out := make(map[string]float64)
	for _, pair := range strings.Split(value, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		f, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		out[parts[0]] = f
	}
	return out
}
