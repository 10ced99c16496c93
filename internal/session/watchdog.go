package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/sunny-bot/sunny/internal/discord"
)

// idleTickThreshold is the number of consecutive alone ticks tolerated; the next one leaves.
const idleTickThreshold = 5

// Leaver disconnects the bot from voice in a guild. It must be safe to call when
// the bot is already disconnected.
type Leaver interface {
	Leave(ctx context.Context, guildID string, reason LeaveReason) error
}

// IdleWatchdog leaves the voice channel after the bot has been alone in it for
// more than idleTickThreshold consecutive ticks. Ticks may overlap; the counter
// tolerates a lost increment or reset.
type IdleWatchdog struct {
	cfg    Config
	leaver Leaver
	idle   atomic.Int64
}

func NewIdleWatchdog(cfg Config, leaver Leaver) *IdleWatchdog {
	return &IdleWatchdog{
		cfg:    cfg,
		leaver: leaver,
	}
}

// OnTick is a no-op once ctx is done; a session's context ends when it leaves.
func (w *IdleWatchdog) OnTick(ctx context.Context) *Event {
	if ctx.Err() != nil {
		return nil
	}
	botUserID, err := w.cfg.Client.GetBotUserID()
	if err != nil {
		slog.Error("failed to resolve bot user id for idle check", "error", err, "guild_id", w.cfg.GuildID)
		return nil
	}
	participants, err := w.cfg.Client.ListVoiceChannelParticipants(w.cfg.GuildID, w.cfg.VoiceChannelID)
	if errors.Is(err, discord.ErrGuildNotCached) {
		slog.Error("guild missing from voice state cache; skipping idle check", "error", err, "guild_id", w.cfg.GuildID)
		return nil
	}
	if err != nil {
		slog.Error("failed to fetch voice membership", "error", err, "guild_id", w.cfg.GuildID, "channel_id", w.cfg.VoiceChannelID)
		return nil
	}

	if !isAlone(participants, botUserID) {
		w.idle.Store(0)
		return nil
	}

	prev := w.idle.Add(1) - 1
	slog.Debug("bot alone in voice channel", "guild_id", w.cfg.GuildID, "channel_id", w.cfg.VoiceChannelID, "idle_ticks", prev+1)
	if prev < idleTickThreshold {
		return nil
	}

	slog.Info("leaving voice channel after idle timeout", "guild_id", w.cfg.GuildID, "channel_id", w.cfg.VoiceChannelID, "idle_ticks", prev+1)
	emit(w.leaver.Leave(ctx, w.cfg.GuildID, LeaveReasonIdleTimeout),
		"failed to leave voice after idle timeout", "guild_id", w.cfg.GuildID)
	emit(w.cfg.Client.SendChannelMessage(w.cfg.TextChannelID, messageIdleFarewell),
		"failed to send idle farewell", "guild_id", w.cfg.GuildID, "channel_id", w.cfg.TextChannelID)
	return nil
}

func (w *IdleWatchdog) idleTicks() int64 {
	return w.idle.Load()
}

// isAlone reports whether nobody but botUserID is in the participant list.
func isAlone(participants []discord.VoiceParticipant, botUserID string) bool {
	for _, p := range participants {
		if p.UserID != botUserID {
			return false
		}
	}
	return true
}
