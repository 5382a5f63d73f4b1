package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// OpenAI configuration for the embedding provider
	OpenAIAPIBase       string
	OpenAIAPIKey        string
	EmbeddingModel      string
	EmbeddingDimensions int

	// Matching configuration
	MatchThreshold float64

	// Data paths
	FoodDBPath string
	DataDir    string
	StaticDir  string

	// HTTP server
	ListenAddr string

	// Telegram bot (optional, disabled when empty)
	BotToken string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{}

	// Required configurations
	openAIAPIKey := os.Getenv("OPENAI_API_KEY")
	if openAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	cfg.OpenAIAPIKey = openAIAPIKey

	// Optional configurations with defaults
	cfg.OpenAIAPIBase = getEnvWithDefault("OPENAI_API_BASE", "https://api.openai.com/v1")
	cfg.EmbeddingModel = getEnvWithDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	cfg.FoodDBPath = getEnvWithDefault("FOOD_DB_PATH", "data/food_db.json")
	cfg.DataDir = getEnvWithDefault("DATA_DIR", "data/badger")
	cfg.StaticDir = getEnvWithDefault("STATIC_DIR", "frontend/build")
	cfg.ListenAddr = getEnvWithDefault("LISTEN_ADDR", ":8080")
	cfg.BotToken = os.Getenv("BOT_TOKEN")

	cfg.EmbeddingDimensions, err = strconv.Atoi(getEnvWithDefault("EMBEDDING_DIMENSIONS", "1536"))
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_DIMENSIONS: %w", err)
	}
	if cfg.EmbeddingDimensions <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS must be positive")
	}

	cfg.MatchThreshold, err = strconv.ParseFloat(getEnvWithDefault("MATCH_THRESHOLD", "0.3"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_THRESHOLD: %w", err)
	}

	// Log configuration with sensitive data redacted
	logCfg := *cfg
	if len(logCfg.OpenAIAPIKey) > 8 {
		logCfg.OpenAIAPIKey = logCfg.OpenAIAPIKey[:8] + "...REDACTED..."
	}
	if len(logCfg.BotToken) > 8 {
		logCfg.BotToken = logCfg.BotToken[:8] + "...REDACTED..."
	}
	log.Printf("Configuration loaded: %+v", logCfg)
	return cfg, nil
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
