// Package config loads process configuration from defaults, an optional YAML
// file and the environment.
package config

import (
	"time"
)

// Backend names
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	SinkDiscord = "discord"
	SinkLog     = "log"
)

// Config contains process configuration
type Config struct {
	// Env is "development" or "production"; it selects the log encoder
	Env      string `koanf:"env"`
	LogLevel string `koanf:"log_level"`
	// LogFile additionally writes logs to a rotated file when set
	LogFile       string `koanf:"log_file"`
	LogMaxSizeMB  int    `koanf:"log_max_size_mb"`
	LogMaxBackups int    `koanf:"log_max_backups"`
	LogMaxAgeDays int    `koanf:"log_max_age_days"`

	// HTTP command surface
	HTTPAddr           string   `koanf:"http_addr"`
	AllowedOrigins     []string `koanf:"allowed_origins"`
	AdminToken         string   `koanf:"admin_token"`
	RateLimitPerSecond float64  `koanf:"rate_limit_per_second"`
	RateLimitBurst     int      `koanf:"rate_limit_burst"`

	// PUBG API
	PUBGAPIKey            string        `koanf:"pubg_api_key"`
	PUBGBaseURL           string        `koanf:"pubg_base_url"`
	DefaultShard          string        `koanf:"default_shard"`
	RequestsPerMinute     int           `koanf:"requests_per_minute"`
	RequestTimeout        time.Duration `koanf:"request_timeout"`
	RateLimitTelemetry    bool          `koanf:"rate_limit_telemetry"`
	ResolveOnRegistration bool          `koanf:"resolve_on_registration"`
	RetryMaxAttempts      int           `koanf:"retry_max_attempts"`
	RetryBaseDelay        time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay         time.Duration `koanf:"retry_max_delay"`

	// Monitor
	PollInterval           time.Duration `koanf:"poll_interval"`
	MaxMatchesPerPlayer    int           `koanf:"max_matches_per_player"`
	MaxMatchesPerCycle     int           `koanf:"max_matches_per_cycle"`
	PollConcurrency        int           `koanf:"poll_concurrency"`
	MatchTimeout           time.Duration `koanf:"match_timeout"`
	MaxConsecutiveFailures int           `koanf:"max_consecutive_failures"`
	LedgerRetention        time.Duration `koanf:"ledger_retention"`

	// Storage
	PlayerStore   string   `koanf:"player_store"`
	LedgerBackend string   `koanf:"ledger_backend"`
	PostgresURL   string   `koanf:"postgres_url"`
	RedisURL      string   `koanf:"redis_url"`
	RedisKey      string   `koanf:"redis_key"`
	SeedPlayers   []string `koanf:"seed_players"`

	// Notification
	Sink               string        `koanf:"sink"`
	DiscordBotToken    string        `koanf:"discord_bot_token"`
	DiscordChannelID   string        `koanf:"discord_channel_id"`
	DiscordWebhookURL  string        `koanf:"discord_webhook_url"`
	DiscordMaxAttempts int           `koanf:"discord_max_attempts"`
	DiscordBaseDelay   time.Duration `koanf:"discord_base_delay"`
	DisplayTimezone    string        `koanf:"display_timezone"`

	location *time.Location
}

// New returns a Config populated with defaults
func New() *Config {
	return &Config{
		Env:           "production",
		LogLevel:      "info",
		LogMaxSizeMB:  100,
		LogMaxBackups: 5,
		LogMaxAgeDays: 28,

		HTTPAddr:           ":8080",
		RateLimitPerSecond: 5,
		RateLimitBurst:     10,

		DefaultShard:          "steam",
		RequestsPerMinute:     10,
		RequestTimeout:        30 * time.Second,
		ResolveOnRegistration: true,
		RetryMaxAttempts:      3,
		RetryBaseDelay:        time.Second,
		RetryMaxDelay:         30 * time.Second,

		PollInterval:           time.Minute,
		MaxMatchesPerPlayer:    5,
		MaxMatchesPerCycle:     5,
		PollConcurrency:        4,
		MatchTimeout:           5 * time.Minute,
		MaxConsecutiveFailures: 3,
		LedgerRetention:        30 * 24 * time.Hour,

		PlayerStore:   BackendPostgres,
		LedgerBackend: BackendPostgres,
		RedisKey:      "pubgtracker:processed_matches",

		Sink:               SinkDiscord,
		DiscordMaxAttempts: 3,
		DiscordBaseDelay:   2 * time.Second,
		DisplayTimezone:    "UTC",
	}
}

// Location is the display time zone, resolved during validation
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// IsDevelopment reports whether development logging is selected
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
