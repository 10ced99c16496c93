package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env               string
	DiscordToken      string
	CommandPrefix     string
	IdleCheckInterval time.Duration
	PresenceText      string
	PresenceURL       string
	DatabaseURL       string
	SessionWebhookURL string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.IdleCheckInterval <= 0 {
		return fmt.Errorf("IDLE_CHECK_INTERVAL must be positive, got %s", c.IdleCheckInterval)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "CMD_PREFIX", value: c.CommandPrefix},
		{name: "PRESENCE_TEXT", value: c.PresenceText},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}
