package session

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sunny-bot/sunny/internal/config"
	"github.com/sunny-bot/sunny/internal/discord"
	"github.com/sunny-bot/sunny/internal/playback"
	"github.com/sunny-bot/sunny/internal/repository"
	"github.com/sunny-bot/sunny/internal/webhook"
)

type sentMessage struct {
	channelID string
	content   string
}

type sentEmbed struct {
	channelID string
	embed     discord.Embed
}

type mockDiscordClient struct {
	mu sync.Mutex

	botUserID            string
	botUserIDErr         error
	participants         map[string][]discord.VoiceParticipant
	participantsErr      error
	userVoiceChannelByID map[string]string
	joinErr              error
	joinDelay            time.Duration
	leaveErr             error
	sendErr              error
	presenceErr          error

	sendCalls     []sentMessage
	embedCalls    []sentEmbed
	joinCalls     []string
	leaveCalls    []string
	presenceCalls []discord.Presence
}

func newMockDiscordClient() *mockDiscordClient {
	return &mockDiscordClient{
		botUserID:    "bot-self",
		participants: make(map[string][]discord.VoiceParticipant),
	}
}

func (m *mockDiscordClient) setParticipants(channelID string, userIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]discord.VoiceParticipant, 0, len(userIDs))
	for _, id := range userIDs {
		list = append(list, discord.VoiceParticipant{UserID: id})
	}
	m.participants[channelID] = list
}

func (m *mockDiscordClient) Connect(_ context.Context) error { return nil }
func (m *mockDiscordClient) Close() error                    { return nil }
func (m *mockDiscordClient) Run() error                      { return nil }

func (m *mockDiscordClient) GetBotUserID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.botUserIDErr != nil {
		return "", m.botUserIDErr
	}
	return m.botUserID, nil
}

func (m *mockDiscordClient) ListVoiceChannelParticipants(_, channelID string) ([]discord.VoiceParticipant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.participantsErr != nil {
		return nil, m.participantsErr
	}
	return append([]discord.VoiceParticipant(nil), m.participants[channelID]...), nil
}

func (m *mockDiscordClient) GetUserVoiceChannelID(_, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userVoiceChannelByID == nil {
		return "", nil
	}
	return m.userVoiceChannelByID[userID], nil
}

func (m *mockDiscordClient) JoinVoiceChannel(guildID, channelID string) error {
	m.mu.Lock()
	delay := m.joinDelay
	m.mu.Unlock()
	time.Sleep(delay)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.joinCalls = append(m.joinCalls, guildID+":"+channelID)
	return m.joinErr
}

func (m *mockDiscordClient) LeaveVoiceChannel(guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveCalls = append(m.leaveCalls, guildID)
	return m.leaveErr
}

func (m *mockDiscordClient) SendChannelMessage(channelID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls = append(m.sendCalls, sentMessage{channelID: channelID, content: content})
	return m.sendErr
}

func (m *mockDiscordClient) SendChannelEmbed(channelID string, embed discord.Embed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls = append(m.embedCalls, sentEmbed{channelID: channelID, embed: embed})
	return m.sendErr
}

func (m *mockDiscordClient) SetPresence(presence discord.Presence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presenceCalls = append(m.presenceCalls, presence)
	return m.presenceErr
}

func (m *mockDiscordClient) RegisterReadyHandler(_ func(discord.ReadyEvent))             {}
func (m *mockDiscordClient) RegisterVoiceStateUpdateHandler(_ func(discord.VoiceStateEvent)) {}
func (m *mockDiscordClient) RegisterMessageHandler(_ func(discord.MessageEvent))         {}

func (m *mockDiscordClient) sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sendCalls...)
}

func (m *mockDiscordClient) embeds() []sentEmbed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentEmbed(nil), m.embedCalls...)
}

func (m *mockDiscordClient) joins() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.joinCalls...)
}

func (m *mockDiscordClient) leaves() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.leaveCalls...)
}

func (m *mockDiscordClient) countSent(content string) int {
	n := 0
	for _, s := range m.sent() {
		if s.content == content {
			n++
		}
	}
	return n
}

type leaveCall struct {
	guildID string
	reason  LeaveReason
}

type mockLeaver struct {
	mu    sync.Mutex
	err   error
	calls []leaveCall
}

func (m *mockLeaver) Leave(_ context.Context, guildID string, reason LeaveReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, leaveCall{guildID: guildID, reason: reason})
	return m.err
}

func (m *mockLeaver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockRepository struct {
	mu            sync.Mutex
	createErr     error
	createCount   int
	completeCalls []repository.CompleteSessionInput
	orphanReasons []string
	orphanCount   int64
	closed        bool
}

func (m *mockRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createCount++
	return &repository.Session{
		ID:             fmt.Sprintf("session-%d", m.createCount),
		GuildID:        input.GuildID,
		VoiceChannelID: input.VoiceChannelID,
		TextChannelID:  input.TextChannelID,
		StartedAt:      input.StartedAt,
		Status:         repository.SessionStatusRunning,
	}, nil
}

func (m *mockRepository) CompleteSession(_ context.Context, input repository.CompleteSessionInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls = append(m.completeCalls, input)
	return nil
}

func (m *mockRepository) CompleteRunningSessions(_ context.Context, _ time.Time, endReason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orphanReasons = append(m.orphanReasons, endReason)
	return m.orphanCount, nil
}

func (m *mockRepository) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *mockRepository) completed() []repository.CompleteSessionInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.CompleteSessionInput(nil), m.completeCalls...)
}

type mockWebhookSender struct {
	mu       sync.Mutex
	payloads []webhook.SessionEndedPayload
}

func (m *mockWebhookSender) SendSessionEnded(_ context.Context, payload webhook.SessionEndedPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *mockWebhookSender) sent() []webhook.SessionEndedPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]webhook.SessionEndedPayload(nil), m.payloads...)
}

func newTestConfig(client discord.Client) Config {
	return Config{
		GuildID:        "guild-1",
		VoiceChannelID: "vc-1",
		TextChannelID:  "text-1",
		Client:         client,
	}
}

func newTestManager(dc *mockDiscordClient, repo *mockRepository, wh *mockWebhookSender) *Manager {
	cfg := &config.Config{
		Env:               "test",
		DiscordToken:      "token",
		CommandPrefix:     "~",
		IdleCheckInterval: time.Hour,
		PresenceText:      "📻 Tropico News Today 🧨",
		PresenceURL:       "https://www.youtube.com/watch?v=BmKMrUMS9lg",
	}
	return NewManager(cfg, dc, repo, wh, playback.NewBoard())
}

// syncBuffer lets background goroutines log while a test reads the output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) countErrors(msg string) int {
	n := 0
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.Contains(line, `"level":"ERROR"`) && strings.Contains(line, `"msg":"`+msg+`"`) {
			n++
		}
	}
	return n
}

func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(message)
}
