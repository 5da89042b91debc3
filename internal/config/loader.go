package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. YAML file if TRACKER_CONFIG is set
//  3. environment variables, e.g. PUBG_API_KEY -> pubg_api_key
//
// A .env file in the working directory is read first and never overrides
// variables already set.
func Load(ctx context.Context) (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorage loads the same layers but only validates the storage backends,
// for maintenance tools that never call the PUBG API.
func LoadStorage(ctx context.Context) (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateStorage(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue("", ".", envValue)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// listKeys are decoded from comma-separated env values
var listKeys = map[string]bool{
	"allowed_origins": true,
	"seed_players":    true,
}

func envValue(key, value string) (string, interface{}) {
	key = strings.ToLower(key)
	if !listKeys[key] {
		return key, value
	}
	return key, splitList(value)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks required settings and resolves the display time zone
func (c *Config) Validate() error {
	if c.PUBGAPIKey == "" {
		return invalid("PUBG_API_KEY is required")
	}
	if c.RequestsPerMinute <= 0 {
		return invalid("requests_per_minute must be positive")
	}
	if c.PollInterval <= 0 {
		return invalid("poll_interval must be positive")
	}
	if err := c.validateStorage(); err != nil {
		return err
	}

	switch c.Sink {
	case SinkLog:
	case SinkDiscord:
		if c.DiscordWebhookURL == "" && (c.DiscordBotToken == "" || c.DiscordChannelID == "") {
			return invalid("discord sink needs DISCORD_WEBHOOK_URL or DISCORD_BOT_TOKEN with DISCORD_CHANNEL_ID")
		}
	default:
		return invalid("unknown sink %q", c.Sink)
	}

	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return invalid("display_timezone: %v", err)
	}
	c.location = loc
	return nil
}

func (c *Config) validateStorage() error {
	switch c.PlayerStore {
	case BackendMemory, BackendPostgres:
	default:
		return invalid("unknown player_store %q", c.PlayerStore)
	}
	switch c.LedgerBackend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return invalid("unknown ledger_backend %q", c.LedgerBackend)
	}
	if (c.PlayerStore == BackendPostgres || c.LedgerBackend == BackendPostgres) && c.PostgresURL == "" {
		return invalid("POSTGRES_URL is required for the postgres backend")
	}
	if c.LedgerBackend == BackendRedis && c.RedisURL == "" {
		return invalid("REDIS_URL is required for the redis ledger")
	}
	return nil
}
