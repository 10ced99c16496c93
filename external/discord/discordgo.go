package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/sunny-bot/sunny/internal/discord"
)

type Client struct {
	session *discordgo.Session
	token   string
	// handlers registered before Connect; attached ahead of Open so READY is not missed.
	pending []interface{}

	mu        sync.RWMutex
	botUserID string
}

func NewClient(token string) discordpkg.Client {
	return &Client{
		token: token,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(
		discordgo.IntentsGuilds |
			discordgo.IntentsGuildVoiceStates |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsMessageContent,
	)
	s.State.TrackVoice = true
	for _, h := range c.pending {
		s.AddHandler(h)
	}
	c.pending = nil
	if err := s.Open(); err != nil {
		return err
	}
	_, err = c.GetBotUserID()
	return err
}

func (c *Client) addHandler(h interface{}) {
	if c.session == nil {
		c.pending = append(c.pending, h)
		return
	}
	c.session.AddHandler(h)
}

func (c *Client) setBotUserID(userID string) {
	c.mu.Lock()
	c.botUserID = userID
	c.mu.Unlock()
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) Run() error {
	select {}
}

func (c *Client) JoinVoiceChannel(guildID, channelID string) error {
	if c.session == nil {
		return fmt.Errorf("discord session is not initialized")
	}
	_, err := c.session.ChannelVoiceJoin(guildID, channelID, false, true)
	return err
}

func (c *Client) LeaveVoiceChannel(guildID string) error {
	if c.session == nil {
		return nil
	}
	c.session.RLock()
	vc, ok := c.session.VoiceConnections[guildID]
	c.session.RUnlock()
	if !ok || vc == nil {
		slog.Debug("no voice connection to leave", "guild_id", guildID)
		return nil
	}
	return vc.Disconnect()
}

func (c *Client) SendChannelMessage(channelID, content string) error {
	if c.session == nil {
		return fmt.Errorf("discord session is not initialized")
	}
	_, err := c.session.ChannelMessageSend(channelID, content)
	return err
}

func (c *Client) SendChannelEmbed(channelID string, embed discordpkg.Embed) error {
	if c.session == nil {
		return fmt.Errorf("discord session is not initialized")
	}
	_, err := c.session.ChannelMessageSendEmbed(channelID, toMessageEmbed(embed))
	return err
}

func toMessageEmbed(e discordpkg.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
		Color:       e.Color,
	}
	if e.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return out
}

func (c *Client) SetPresence(presence discordpkg.Presence) error {
	if c.session == nil {
		return fmt.Errorf("discord session is not initialized")
	}
	return c.session.UpdateStatusComplex(toUpdateStatusData(presence))
}

func toUpdateStatusData(p discordpkg.Presence) discordgo.UpdateStatusData {
	status := p.Status
	if status == "" {
		status = discordpkg.StatusOnline
	}
	usd := discordgo.UpdateStatusData{Status: status}
	if p.Name == "" {
		return usd
	}
	activity := &discordgo.Activity{Name: p.Name, Type: discordgo.ActivityTypeGame}
	if p.URL != "" {
		activity.Type = discordgo.ActivityTypeStreaming
		activity.URL = p.URL
	}
	usd.Activities = []*discordgo.Activity{activity}
	return usd
}

func (c *Client) RegisterReadyHandler(handler func(discordpkg.ReadyEvent)) {
	c.addHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		if r == nil {
			return
		}
		userID := ""
		if r.User != nil {
			userID = r.User.ID
			c.setBotUserID(userID)
		}
		slog.Info("discord gateway ready", "user_id", userID, "guilds", len(r.Guilds))
		handler(discordpkg.ReadyEvent{UserID: userID})
	})
}

func (c *Client) RegisterVoiceStateUpdateHandler(handler func(discordpkg.VoiceStateEvent)) {
	c.addHandler(func(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
		if vs == nil || vs.VoiceState == nil {
			return
		}
		handler(toVoiceStateEvent(vs))
	})
}

// toVoiceStateEvent keeps events with an empty guild id; the consumer decides how to report them.
func toVoiceStateEvent(vs *discordgo.VoiceStateUpdate) discordpkg.VoiceStateEvent {
	beforeChannelID := ""
	if vs.BeforeUpdate != nil {
		beforeChannelID = vs.BeforeUpdate.ChannelID
	}
	return discordpkg.VoiceStateEvent{
		GuildID:         vs.GuildID,
		UserID:          vs.UserID,
		BeforeChannelID: beforeChannelID,
		AfterChannelID:  vs.ChannelID,
	}
}

func (c *Client) RegisterMessageHandler(handler func(discordpkg.MessageEvent)) {
	c.addHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m == nil || m.Message == nil || m.Author == nil {
			return
		}
		handler(discordpkg.MessageEvent{
			GuildID:     m.GuildID,
			ChannelID:   m.ChannelID,
			AuthorID:    m.Author.ID,
			AuthorIsBot: m.Author.Bot,
			Content:     m.Content,
		})
	})
}

func (c *Client) GetUserVoiceChannelID(guildID, userID string) (string, error) {
	if c.session == nil {
		return "", nil
	}
	if c.session.State != nil {
		vs, err := c.session.State.VoiceState(guildID, userID)
		if err == nil && vs != nil {
			return vs.ChannelID, nil
		}
	}

	// Cache may be cold right after bot startup; ask Discord API directly as fallback.
	vs, err := c.session.UserVoiceState(guildID, userID)
	if err != nil {
		if isRESTNotFound(err) {
			return "", nil
		}
		return "", err
	}
	if vs == nil {
		return "", nil
	}
	return vs.ChannelID, nil
}

func isRESTNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == http.StatusNotFound
}

// ListVoiceChannelParticipants reads the gateway state cache only. A known guild with an
// empty channel yields no participants; an unknown guild is an error.
func (c *Client) ListVoiceChannelParticipants(guildID, channelID string) ([]discordpkg.VoiceParticipant, error) {
	if c.session == nil || c.session.State == nil {
		return nil, fmt.Errorf("discord session is not initialized")
	}
	guild, err := c.session.State.Guild(guildID)
	if err != nil || guild == nil {
		return nil, fmt.Errorf("guild %s: %w", guildID, discordpkg.ErrGuildNotCached)
	}
	c.session.State.RLock()
	defer c.session.State.RUnlock()
	participants := make([]discordpkg.VoiceParticipant, 0)
	seen := make(map[string]struct{})
	for _, state := range guild.VoiceStates {
		if state == nil || state.ChannelID != channelID || state.UserID == "" {
			continue
		}
		if _, exists := seen[state.UserID]; exists {
			continue
		}
		seen[state.UserID] = struct{}{}
		participants = append(participants, discordpkg.VoiceParticipant{UserID: state.UserID})
	}
	return participants, nil
}

func (c *Client) GetBotUserID() (string, error) {
	c.mu.RLock()
	cached := c.botUserID
	c.mu.RUnlock()
	if cached != "" {
		return cached, nil
	}
	if c.session == nil {
		return "", fmt.Errorf("discord session is not initialized")
	}
	if c.session.State != nil && c.session.State.User != nil && c.session.State.User.ID != "" {
		c.setBotUserID(c.session.State.User.ID)
		return c.session.State.User.ID, nil
	}
	u, err := c.session.User("@me")
	if err != nil {
		return "", err
	}
	c.setBotUserID(u.ID)
	return u.ID, nil
}
