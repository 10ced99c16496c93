package session

import (
	"context"
	"log/slog"

	"github.com/sunny-bot/sunny/internal/discord"
)

// Router reacts to gateway events that are not bound to a single session.
type Router struct {
	client   discord.Client
	leaver   Leaver
	presence discord.Presence
}

func NewRouter(client discord.Client, leaver Leaver, presence discord.Presence) *Router {
	return &Router{
		client:   client,
		leaver:   leaver,
		presence: presence,
	}
}

func (r *Router) OnReady(_ context.Context, event discord.ReadyEvent) {
	if err := r.client.SetPresence(r.presence); err != nil {
		slog.Debug("presence update failed", "error", err, "user_id", event.UserID)
		return
	}
	slog.Debug("presence set", "user_id", event.UserID, "activity", r.presence.Name, "status", r.presence.Status)
}

// OnVoiceStateUpdate cleans up after the bot was removed from voice by someone else.
func (r *Router) OnVoiceStateUpdate(ctx context.Context, event discord.VoiceStateEvent) {
	botUserID, err := r.client.GetBotUserID()
	if err != nil {
		slog.Error("failed to resolve bot user id", "error", err)
		return
	}
	if event.UserID != botUserID {
		return
	}
	if event.AfterChannelID != "" {
		return
	}
	if event.GuildID == "" {
		slog.Error("guild id missing from bot voice state update", "user_id", event.UserID, "before_channel_id", event.BeforeChannelID)
		return
	}

	if err := r.leaver.Leave(ctx, event.GuildID, LeaveReasonForcedDisconnect); err != nil {
		slog.Error("failed to leave voice after forced disconnect", "error", err, "guild_id", event.GuildID)
		return
	}
	slog.Info("left voice after forced disconnect", "guild_id", event.GuildID, "before_channel_id", event.BeforeChannelID)
}
