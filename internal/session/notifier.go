package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sunny-bot/sunny/internal/discord"
	"github.com/sunny-bot/sunny/internal/playback"
)

var ErrNoCurrentTrack = errors.New("no track is playing")

// NowPlayingSender composes and posts the "now playing" notification for a guild.
type NowPlayingSender func(ctx context.Context, client discord.Client, guildID, channelID string) error

type TrackSource interface {
	Current(guildID string) (playback.Track, bool)
}

type PlaybackNotifier struct {
	cfg  Config
	send NowPlayingSender
}

func NewPlaybackNotifier(cfg Config, send NowPlayingSender) *PlaybackNotifier {
	return &PlaybackNotifier{
		cfg:  cfg,
		send: send,
	}
}

// OnTrackEvent only reacts to track starts. Send failures stay here.
func (n *PlaybackNotifier) OnTrackEvent(ctx context.Context, event Event) *Event {
	if event.Kind != EventTrackPlay {
		return nil
	}
	if err := n.send(ctx, n.cfg.Client, n.cfg.GuildID, n.cfg.TextChannelID); err != nil {
		slog.Error("failed to send now playing notification", "error", err, "guild_id", n.cfg.GuildID, "channel_id", n.cfg.TextChannelID)
	}
	return nil
}

func NewNowPlayingSender(tracks TrackSource) NowPlayingSender {
	return func(_ context.Context, client discord.Client, guildID, channelID string) error {
		track, ok := tracks.Current(guildID)
		if !ok {
			return fmt.Errorf("guild %s: %w", guildID, ErrNoCurrentTrack)
		}
		return client.SendChannelEmbed(channelID, nowPlayingEmbed(track))
	}
}

func nowPlayingEmbed(t playback.Track) discord.Embed {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = nowPlayingUnknownTitle
	}
	artist := strings.TrimSpace(t.Artist)
	if artist == "" {
		artist = nowPlayingUnknownArtist
	}
	requestedBy := strings.TrimSpace(t.RequestedBy)
	if requestedBy == "" {
		requestedBy = nowPlayingUnknownListener
	}

	return discord.Embed{
		Title:        nowPlayingTitle,
		Description:  fmt.Sprintf("**%s**", artist),
		URL:          t.URL,
		ThumbnailURL: t.ThumbnailURL,
		Color:        nowPlayingColor,
		Fields: []discord.EmbedField{
			{Name: "Track", Value: fmt.Sprintf("**%s**", title)},
			{Name: "Requested by", Value: requestedBy, Inline: true},
		},
	}
}
