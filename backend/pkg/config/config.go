package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Trello
	TrelloAPIKey  string
	TrelloToken   string // service-wide fallback token
	TrelloBaseURL string

	// Store
	SQLitePath string

	// Webhooks
	WebhookSecret string

	// Progress rollup
	DoneListPatterns []string // list-name substrings that mark a card done
	UpstreamTimeout  time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		TrelloAPIKey:     getEnv("TRELLO_API_KEY", ""),
		TrelloToken:      getEnv("TRELLO_TOKEN", ""),
		TrelloBaseURL:    getEnv("TRELLO_BASE_URL", "https://api.trello.com/1"),
		SQLitePath:       getEnv("SQLITE_PATH", "./data.db"),
		WebhookSecret:    getEnv("WEBHOOK_SECRET", ""),
		DoneListPatterns: getEnvList("DONE_LIST_PATTERNS", []string{"done", "complete"}),
		UpstreamTimeout:  time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.TrelloAPIKey == "" {
		return fmt.Errorf("TRELLO_API_KEY is required")
	}
	if c.TrelloBaseURL == "" {
		return fmt.Errorf("TRELLO_BASE_URL is required")
	}
	if c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required")
	}
	if len(c.DoneListPatterns) == 0 {
		return fmt.Errorf("DONE_LIST_PATTERNS must not be empty")
	}
	// TRELLO_TOKEN and WEBHOOK_SECRET are optional: requests carry their
	// own token, and unsigned webhooks are accepted when no secret is set
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
