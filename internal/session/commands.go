package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sunny-bot/sunny/internal/discord"
	"golang.org/x/time/rate"
)

const (
	commandJoin  = "join"
	commandLeave = "leave"
	commandPing  = "ping"

	// Both names repost the current track embed.
	commandNowPlaying      = "nowplaying"
	commandNowPlayingShort = "np"

	commandRefill = 2 * time.Second
	commandBurst  = 3
)

// commandLimiter hands out one token bucket per user.
type commandLimiter struct {
	mu    sync.Mutex
	users map[string]*rate.Limiter
}

func newCommandLimiter() *commandLimiter {
	return &commandLimiter{users: make(map[string]*rate.Limiter)}
}

func (l *commandLimiter) allow(userID string) bool {
	l.mu.Lock()
	lim, ok := l.users[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(commandRefill), commandBurst)
		l.users[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (m *Manager) HandleMessage(event discord.MessageEvent) {
	if event.AuthorIsBot || event.GuildID == "" {
		return
	}
	name, ok := parseCommand(m.cfg.CommandPrefix, event.Content)
	if !ok {
		return
	}
	if !m.commands.allow(event.AuthorID) {
		slog.Debug("text command rate limited", "guild_id", event.GuildID, "command", name, "user_id", event.AuthorID)
		return
	}
	slog.Info("text command received", "guild_id", event.GuildID, "channel_id", event.ChannelID, "command", name, "user_id", event.AuthorID)

	ctx := context.Background()
	switch name {
	case commandPing:
		m.reply(event, messagePong)
	case commandJoin:
		m.handleJoin(ctx, event)
	case commandLeave:
		m.handleLeave(ctx, event)
	case commandNowPlaying, commandNowPlayingShort:
		m.handleNowPlaying(ctx, event)
	}
}

func (m *Manager) handleJoin(ctx context.Context, event discord.MessageEvent) {
	voiceChannelID, err := m.discord.GetUserVoiceChannelID(event.GuildID, event.AuthorID)
	if err != nil {
		slog.Error("failed to resolve user voice channel", "error", err, "guild_id", event.GuildID, "user_id", event.AuthorID)
		m.reply(event, messageVoiceLookupFailed)
		return
	}
	if voiceChannelID == "" {
		m.reply(event, messageJoinVoiceFirst)
		return
	}
	if _, err := m.Start(ctx, event.GuildID, voiceChannelID, event.ChannelID); err != nil {
		m.reply(event, messageJoinFailed)
		return
	}
	m.reply(event, joinedMessage(voiceChannelID))
}

func (m *Manager) handleLeave(ctx context.Context, event discord.MessageEvent) {
	if _, ok := m.Session(event.GuildID); !ok {
		m.reply(event, messageNotInVoice)
		return
	}
	if err := m.Leave(ctx, event.GuildID, LeaveReasonCommand); err != nil {
		slog.Error("failed to leave voice on command", "error", err, "guild_id", event.GuildID)
		m.reply(event, messageLeaveFailed)
		return
	}
	m.reply(event, messageLeft)
}

func (m *Manager) handleNowPlaying(ctx context.Context, event discord.MessageEvent) {
	err := m.sendNowPlaying(ctx, m.discord, event.GuildID, event.ChannelID)
	switch {
	case errors.Is(err, ErrNoCurrentTrack):
		m.reply(event, messageNothingPlaying)
	case err != nil:
		slog.Error("failed to send now playing on command", "error", err, "guild_id", event.GuildID)
	}
}

func (m *Manager) reply(event discord.MessageEvent, content string) {
	emit(m.discord.SendChannelMessage(event.ChannelID, content),
		"failed to reply to text command", "guild_id", event.GuildID, "channel_id", event.ChannelID)
}

// parseCommand returns the lowercased command name following prefix.
func parseCommand(prefix, content string) (string, bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}
