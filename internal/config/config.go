package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string
	LogLevel    string
	CatalogPath string

	SearchWorkers int
	DefaultUserID string

	MatchBatchSize  int
	MatchBatchPause time.Duration

	ResearchStaleAfter     time.Duration
	ResearchReaperSchedule string

	SAMAPIKey           string
	SAMBaseURL          string
	SAMRequestsPerMin   int
	IngestionWindowDays int
}

// Load reads configuration from the environment, after loading an optional .env file.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{
		Env:                    getEnv("APP_ENV", "production"),
		ListenAddr:             getEnv("LISTEN_ADDR", ":4000"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		CatalogPath:            os.Getenv("CATALOG_PATH"),
		SearchWorkers:          getEnvAsInt("SEARCH_WORKERS", 4),
		DefaultUserID:          getEnv("DEFAULT_USER_ID", "1"),
		MatchBatchSize:         getEnvAsInt("MATCH_BATCH_SIZE", 10),
		MatchBatchPause:        getEnvAsDuration("MATCH_BATCH_PAUSE", 100*time.Millisecond),
		ResearchStaleAfter:     getEnvAsDuration("RESEARCH_STALE_AFTER", 30*time.Minute),
		ResearchReaperSchedule: getEnv("RESEARCH_REAPER_SCHEDULE", "@every 5m"),
		SAMAPIKey:              os.Getenv("SAM_API_KEY"),
		SAMBaseURL:             os.Getenv("SAM_BASE_URL"),
		SAMRequestsPerMin:      getEnvAsInt("SAM_REQUESTS_PER_MINUTE", 10),
		IngestionWindowDays:    getEnvAsInt("INGESTION_WINDOW_DAYS", 30),
	}

	if cfg.SearchWorkers <= 0 {
		return cfg, fmt.Errorf("SEARCH_WORKERS must be positive, got %d", cfg.SearchWorkers)
	}
	if cfg.MatchBatchSize <= 0 {
		return cfg, fmt.Errorf("MATCH_BATCH_SIZE must be positive, got %d", cfg.MatchBatchSize)
	}
	if cfg.IngestionWindowDays <= 0 {
		return cfg, fmt.Errorf("INGESTION_WINDOW_DAYS must be positive, got %d", cfg.IngestionWindowDays)
	}
	return cfg, nil
}

// RequireDatabase returns an error when DATABASE_URL is not set.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
