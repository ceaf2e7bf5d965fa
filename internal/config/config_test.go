package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_PUBLIC_KEY", "abc123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.StorageBackend != BackendMemory {
		t.Fatalf("StorageBackend = %q, want memory", cfg.StorageBackend)
	}
	if cfg.DiscordAPIURL != "https://discord.com/api/v10" {
		t.Fatalf("DiscordAPIURL = %q", cfg.DiscordAPIURL)
	}
	if cfg.OpenAIModel != "gpt-3.5-turbo" {
		t.Fatalf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoadRequiresPublicKey(t *testing.T) {
	t.Setenv("DISCORD_PUBLIC_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without DISCORD_PUBLIC_KEY")
	}
}

func TestLoadPostgresBackendRequiresDSN(t *testing.T) {
	t.Setenv("DISCORD_PUBLIC_KEY", "abc123")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for postgres backend without a DSN")
	}

	t.Setenv("POSTGRES_DSN", "postgres://localhost/ecobot?sslmode=disable")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StorageBackend != BackendPostgres {
		t.Fatalf("StorageBackend = %q", cfg.StorageBackend)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("DISCORD_PUBLIC_KEY", "abc123")
	t.Setenv("STORAGE_BACKEND", "dynamo")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("DISCORD_PUBLIC_KEY", "abc123")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("HTTP_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("RedisDB = %d, want 3", cfg.RedisDB)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("DISCORD_PUBLIC_KEY", "abc123")
	t.Setenv("REDIS_DB", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a non-numeric REDIS_DB")
	}
}
