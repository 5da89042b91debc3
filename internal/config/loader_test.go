package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/squadwatch/pubg-tracker/internal/config"
)

var configEnvVars = []string{
	"TRACKER_CONFIG", "PUBG_API_KEY", "POSTGRES_URL", "REDIS_URL", "SINK",
	"LEDGER_BACKEND", "PLAYER_STORE", "DISCORD_WEBHOOK_URL", "DISCORD_BOT_TOKEN",
	"DISCORD_CHANNEL_ID", "POLL_INTERVAL", "REQUESTS_PER_MINUTE", "DISPLAY_TIMEZONE",
	"SEED_PLAYERS", "MAX_MATCHES_PER_CYCLE", "ALLOWED_ORIGINS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func setEnv(kv map[string]string) {
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When the API key is missing", func() {
			_, err := config.Load(ctx)

			convey.Convey("Then loading fails validation", func() {
				convey.So(errors.Is(err, config.ErrInvalid), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When only memory backends and the log sink are selected", func() {
			setEnv(map[string]string{
				"PUBG_API_KEY":   "key",
				"PLAYER_STORE":   "memory",
				"LEDGER_BACKEND": "memory",
				"SINK":           "log",
			})
			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults fill the rest", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.PollInterval, convey.ShouldEqual, time.Minute)
				convey.So(cfg.RequestsPerMinute, convey.ShouldEqual, 10)
				convey.So(cfg.MaxMatchesPerCycle, convey.ShouldEqual, 5)
				convey.So(cfg.DefaultShard, convey.ShouldEqual, "steam")
				convey.So(cfg.Location(), convey.ShouldEqual, time.UTC)
			})
		})

		convey.Convey("When environment variables override defaults", func() {
			setEnv(map[string]string{
				"PUBG_API_KEY":          "key",
				"POSTGRES_URL":          "postgres://localhost/tracker",
				"DISCORD_WEBHOOK_URL":   "https://discord.com/api/webhooks/1/abc",
				"POLL_INTERVAL":         "90s",
				"REQUESTS_PER_MINUTE":   "30",
				"DISPLAY_TIMEZONE":      "Africa/Johannesburg",
				"SEED_PLAYERS":          "alice, bob@psn,,",
				"MAX_MATCHES_PER_CYCLE": "8",
				"ALLOWED_ORIGINS":       "https://a.example,https://b.example",
			})
			cfg, err := config.Load(ctx)

			convey.Convey("Then typed values are decoded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.PollInterval, convey.ShouldEqual, 90*time.Second)
				convey.So(cfg.RequestsPerMinute, convey.ShouldEqual, 30)
				convey.So(cfg.MaxMatchesPerCycle, convey.ShouldEqual, 8)
				convey.So(cfg.SeedPlayers, convey.ShouldResemble, []string{"alice", "bob@psn"})
				convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
				convey.So(cfg.Location().String(), convey.ShouldEqual, "Africa/Johannesburg")
			})
		})

		convey.Convey("When a YAML file is provided", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "tracker.yaml")
			yaml := "pubg_api_key: from-file\nplayer_store: memory\nledger_backend: redis\nredis_url: redis://localhost:6379/0\nsink: log\nmax_matches_per_player: 3\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			setEnv(map[string]string{"TRACKER_CONFIG": path, "PUBG_API_KEY": "from-env"})

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.PUBGAPIKey, convey.ShouldEqual, "from-env")
				convey.So(cfg.LedgerBackend, convey.ShouldEqual, config.BackendRedis)
				convey.So(cfg.MaxMatchesPerPlayer, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the postgres backend has no URL", func() {
			setEnv(map[string]string{"PUBG_API_KEY": "key", "SINK": "log"})
			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrInvalid), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the discord sink has no credentials", func() {
			setEnv(map[string]string{
				"PUBG_API_KEY":      "key",
				"PLAYER_STORE":      "memory",
				"LEDGER_BACKEND":    "memory",
				"DISCORD_BOT_TOKEN": "token",
			})
			_, err := config.Load(ctx)

			convey.Convey("Then a bot token without a channel is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalid), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an unknown backend is named", func() {
			setEnv(map[string]string{
				"PUBG_API_KEY":   "key",
				"LEDGER_BACKEND": "sqlite",
				"SINK":           "log",
				"POSTGRES_URL":   "postgres://localhost/tracker",
			})
			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrInvalid), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the time zone is unknown", func() {
			setEnv(map[string]string{
				"PUBG_API_KEY":     "key",
				"PLAYER_STORE":     "memory",
				"LEDGER_BACKEND":   "memory",
				"SINK":             "log",
				"DISPLAY_TIMEZONE": "Mars/Olympus",
			})
			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrInvalid), convey.ShouldBeTrue)
			})
		})
	})
}

func TestLoadStorage(t *testing.T) {
	convey.Convey("Given a maintenance tool loading storage settings", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When no API key is set but the redis ledger is configured", func() {
			setEnv(map[string]string{
				"PLAYER_STORE":   "memory",
				"LEDGER_BACKEND": "redis",
				"REDIS_URL":      "redis://localhost:6379/0",
			})
			cfg, err := config.LoadStorage(ctx)

			convey.Convey("Then loading succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.RedisKey, convey.ShouldEqual, "pubgtracker:processed_matches")
			})
		})

		convey.Convey("When the redis ledger lacks a URL", func() {
			setEnv(map[string]string{"PLAYER_STORE": "memory", "LEDGER_BACKEND": "redis"})
			_, err := config.LoadStorage(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrInvalid), convey.ShouldBeTrue)
			})
		})
	})
}
