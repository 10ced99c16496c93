package session

import "github.com/sunny-bot/sunny/internal/discord"

// Config identifies one voice session. It is built once per join and copied by value
// into every handler of that session; moving to another channel means a new Config.
type Config struct {
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
	Client         discord.Client
}
