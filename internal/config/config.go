// Package config loads the bot configuration from the environment and the
// optional shop catalog file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend identifiers accepted in STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the environment-provided configuration surface.
type Config struct {
	ListenAddr string

	// Discord
	PublicKey     string // hex-encoded Ed25519 verification key
	BotToken      string
	ApplicationID string
	DiscordAPIURL string

	// Balance storage
	StorageBackend string
	PostgresDSN    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// Image classification
	OpenAIAPIKey string
	OpenAIAPIURL string
	OpenAIModel  string

	// Outbound call budget
	HTTPTimeout time.Duration

	CatalogPath string
}

// Load reads configuration from the environment. DISCORD_PUBLIC_KEY is the
// only hard requirement: without it no request can be authenticated.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     getenv("LISTEN_ADDR", ":8080"),
		PublicKey:      os.Getenv("DISCORD_PUBLIC_KEY"),
		BotToken:       os.Getenv("BOT_TOKEN"),
		ApplicationID:  os.Getenv("APPLICATION_ID"),
		DiscordAPIURL:  getenv("DISCORD_API_URL", "https://discord.com/api/v10"),
		StorageBackend: getenv("STORAGE_BACKEND", BackendMemory),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		OpenAIAPIKey:   os.Getenv("API_KEY"),
		OpenAIAPIURL:   getenv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:    getenv("OPENAI_MODEL", "gpt-3.5-turbo"),
		HTTPTimeout:    15 * time.Second,
		CatalogPath:    getenv("SHOP_CATALOG_PATH", "config/catalog.yaml"),
	}

	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
		}
		cfg.RedisDB = db
	}

	if raw := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", raw, err)
		}
		cfg.HTTPTimeout = d
	}

	if strings.TrimSpace(cfg.PublicKey) == "" {
		return nil, fmt.Errorf("DISCORD_PUBLIC_KEY is required")
	}

	switch cfg.StorageBackend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
