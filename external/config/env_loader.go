package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	internalconfig "github.com/sunny-bot/sunny/internal/config"
)

type envConfig struct {
	Env               string        `env:"ENV" envDefault:"production"`
	DiscordToken      string        `env:"DISCORD_TOKEN,required"`
	CommandPrefix     string        `env:"CMD_PREFIX,required"`
	IdleCheckInterval time.Duration `env:"IDLE_CHECK_INTERVAL" envDefault:"60s"`
	PresenceText      string        `env:"PRESENCE_TEXT" envDefault:"📻 Tropico News Today 🧨"`
	PresenceURL       string        `env:"PRESENCE_URL" envDefault:"https://www.youtube.com/watch?v=BmKMrUMS9lg"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	SessionWebhookURL string        `env:"SESSION_WEBHOOK_URL"`
}

// Load reads an optional .env file and then the process environment.
func Load(dotenvFiles ...string) (*internalconfig.Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		slog.Debug(".env file not found; using process environment")
	}

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:               raw.Env,
		DiscordToken:      raw.DiscordToken,
		CommandPrefix:     raw.CommandPrefix,
		IdleCheckInterval: raw.IdleCheckInterval,
		PresenceText:      raw.PresenceText,
		PresenceURL:       raw.PresenceURL,
		DatabaseURL:       raw.DatabaseURL,
		SessionWebhookURL: raw.SessionWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
