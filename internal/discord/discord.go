package discord

import (
	"context"
	"errors"
)

// ErrGuildNotCached means the gateway state holds no data for a guild yet, so its
// voice membership is unknown rather than empty.
var ErrGuildNotCached = errors.New("guild not in gateway state cache")

// Presence statuses accepted by SetPresence.
const (
	StatusOnline       = "online"
	StatusIdle         = "idle"
	StatusDoNotDisturb = "dnd"
	StatusInvisible    = "invisible"
)

type ReadyEvent struct {
	UserID string
}

// VoiceStateEvent is a voice connection change of any participant.
// An empty AfterChannelID means the participant has no voice channel anymore.
type VoiceStateEvent struct {
	GuildID         string
	UserID          string
	BeforeChannelID string
	AfterChannelID  string
}

type MessageEvent struct {
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorIsBot bool
	Content     string
}

type VoiceParticipant struct {
	UserID string
}

// Presence is a streaming activity shown on the bot profile.
type Presence struct {
	Name   string
	URL    string
	Status string
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title        string
	Description  string
	URL          string
	ThumbnailURL string
	Color        int
	Fields       []EmbedField
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Run() error
	GetBotUserID() (string, error)
	// ListVoiceChannelParticipants fails with ErrGuildNotCached for a guild missing from the cache.
	ListVoiceChannelParticipants(guildID, channelID string) ([]VoiceParticipant, error)
	GetUserVoiceChannelID(guildID, userID string) (string, error)
	JoinVoiceChannel(guildID, channelID string) error
	// LeaveVoiceChannel succeeds when the bot is not connected in guildID.
	LeaveVoiceChannel(guildID string) error
	SendChannelMessage(channelID, content string) error
	SendChannelEmbed(channelID string, embed Embed) error
	SetPresence(presence Presence) error
	RegisterReadyHandler(handler func(ReadyEvent))
	RegisterVoiceStateUpdateHandler(handler func(VoiceStateEvent))
	RegisterMessageHandler(handler func(MessageEvent))
}
