package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sunny-bot/sunny/internal/config"
	"github.com/sunny-bot/sunny/internal/discord"
	"github.com/sunny-bot/sunny/internal/playback"
	"github.com/sunny-bot/sunny/internal/repository"
	"github.com/sunny-bot/sunny/internal/webhook"
)

const finalizeTimeout = 15 * time.Second

var ErrSessionNotFound = errors.New("no voice session in guild")

// Session is one active voice session and the handlers bound to it.
type Session struct {
	cfg       Config
	record    *repository.Session
	startedAt time.Time
	watchdog  *IdleWatchdog
	notifier  *PlaybackNotifier
	cancel    context.CancelFunc
}

func (s *Session) Config() Config {
	return s.cfg
}

// Dispatch routes an event to the handler owning its kind.
func (s *Session) Dispatch(ctx context.Context, event Event) *Event {
	switch {
	case event.Kind == EventTick:
		return s.watchdog.OnTick(ctx)
	case event.Kind.isTrack():
		return s.notifier.OnTrackEvent(ctx, event)
	default:
		slog.Warn("unknown session event", "kind", event.Kind.String(), "guild_id", s.cfg.GuildID)
		return nil
	}
}

// Manager owns the voice sessions of every guild, one per guild.
type Manager struct {
	cfg            *config.Config
	discord        discord.Client
	repo           repository.Repository
	webhook        webhook.Sender
	board          *playback.Board
	sendNowPlaying NowPlayingSender
	commands       *commandLimiter

	mu         sync.Mutex
	sessions   map[string]*Session
	guildLocks map[string]*sync.Mutex
	finalizing sync.WaitGroup
}

func NewManager(cfg *config.Config, dc discord.Client, repo repository.Repository, wh webhook.Sender, board *playback.Board) *Manager {
	return &Manager{
		cfg:            cfg,
		discord:        dc,
		repo:           repo,
		webhook:        wh,
		board:          board,
		sendNowPlaying: NewNowPlayingSender(board),
		commands:       newCommandLimiter(),
		sessions:       make(map[string]*Session),
		guildLocks:     make(map[string]*sync.Mutex),
	}
}

// Start joins voiceChannelID and begins idle watching. A session already running in
// the guild is ended first unless it is bound to the same channels.
func (m *Manager) Start(ctx context.Context, guildID, voiceChannelID, textChannelID string) (*Session, error) {
	slog.Info("start session requested", "guild_id", guildID, "channel_id", voiceChannelID, "text_channel_id", textChannelID)
	unlock := m.lockGuild(guildID)
	defer unlock()

	m.mu.Lock()
	existing, exists := m.sessions[guildID]
	if exists && existing.cfg.VoiceChannelID == voiceChannelID && existing.cfg.TextChannelID == textChannelID {
		m.mu.Unlock()
		slog.Info("session already active", "guild_id", guildID, "channel_id", voiceChannelID)
		return existing, nil
	}
	if exists {
		delete(m.sessions, guildID)
	}
	m.mu.Unlock()
	if exists {
		m.finish(existing, LeaveReasonMoved)
	}

	if err := m.discord.JoinVoiceChannel(guildID, voiceChannelID); err != nil {
		slog.Error("failed to join voice channel", "error", err, "guild_id", guildID, "channel_id", voiceChannelID)
		return nil, fmt.Errorf("join voice channel: %w", err)
	}
	slog.Info("joined voice channel", "guild_id", guildID, "channel_id", voiceChannelID)

	startedAt := time.Now()
	record, err := m.repo.CreateSession(ctx, repository.CreateSessionInput{
		GuildID:        guildID,
		VoiceChannelID: voiceChannelID,
		TextChannelID:  textChannelID,
		StartedAt:      startedAt,
	})
	if err != nil {
		slog.Error("failed to record voice session; continuing without history", "error", err, "guild_id", guildID)
		record = nil
	}

	cfg := Config{
		GuildID:        guildID,
		VoiceChannelID: voiceChannelID,
		TextChannelID:  textChannelID,
		Client:         m.discord,
	}
	tickCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:       cfg,
		record:    record,
		startedAt: startedAt,
		notifier:  NewPlaybackNotifier(cfg, m.sendNowPlaying),
		cancel:    cancel,
	}
	s.watchdog = NewIdleWatchdog(cfg, sessionLeaver{manager: m, session: s})

	m.mu.Lock()
	m.sessions[guildID] = s
	m.mu.Unlock()

	go m.runIdleTicker(tickCtx, s)
	slog.Info("session activated", "guild_id", guildID, "channel_id", voiceChannelID, "idle_check_interval", m.cfg.IdleCheckInterval.String())
	return s, nil
}

// runIdleTicker fires one watchdog tick per interval until the session ends. A tick
// never waits for the previous one.
func (m *Manager) runIdleTicker(ctx context.Context, s *Session) {
	ticker := time.NewTicker(m.cfg.IdleCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("idle ticker stopped", "guild_id", s.cfg.GuildID)
			return
		case <-ticker.C:
			go s.Dispatch(ctx, Event{Kind: EventTick})
		}
	}
}

// Leave disconnects from voice in guildID and ends its session. Calling it for a guild
// without a session only makes sure the voice connection is gone.
func (m *Manager) Leave(_ context.Context, guildID string, reason LeaveReason) error {
	unlock := m.lockGuild(guildID)
	defer unlock()
	return m.leaveLocked(guildID, nil, reason)
}

// sessionLeaver ends only the session it was created for. A watchdog of a replaced
// session must not end its successor.
type sessionLeaver struct {
	manager *Manager
	session *Session
}

func (l sessionLeaver) Leave(_ context.Context, guildID string, reason LeaveReason) error {
	unlock := l.manager.lockGuild(guildID)
	defer unlock()
	return l.manager.leaveLocked(guildID, l.session, reason)
}

// lockGuild serializes Start and Leave within one guild.
func (m *Manager) lockGuild(guildID string) func() {
	m.mu.Lock()
	l, ok := m.guildLocks[guildID]
	if !ok {
		l = &sync.Mutex{}
		m.guildLocks[guildID] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// leaveLocked requires the guild lock. A non-nil owner that is no longer the guild's
// session is ignored.
func (m *Manager) leaveLocked(guildID string, owner *Session, reason LeaveReason) error {
	m.mu.Lock()
	s, ok := m.sessions[guildID]
	if ok && owner != nil && s != owner {
		m.mu.Unlock()
		slog.Debug("ignoring leave from replaced session", "guild_id", guildID, "reason", string(reason))
		return nil
	}
	if ok {
		delete(m.sessions, guildID)
	}
	m.mu.Unlock()

	if ok {
		m.finish(s, reason)
	} else {
		slog.Debug("leave requested without active session", "guild_id", guildID, "reason", string(reason))
	}

	if err := m.discord.LeaveVoiceChannel(guildID); err != nil {
		return fmt.Errorf("leave voice channel: %w", err)
	}
	return nil
}

// StopAll ends every session and waits for their bookkeeping to finish.
func (m *Manager) StopAll(ctx context.Context) int {
	m.mu.Lock()
	guildIDs := make([]string, 0, len(m.sessions))
	for guildID := range m.sessions {
		guildIDs = append(guildIDs, guildID)
	}
	m.mu.Unlock()

	for _, guildID := range guildIDs {
		emit(m.Leave(ctx, guildID, LeaveReasonShutdown), "failed to leave voice on shutdown", "guild_id", guildID)
	}
	m.finalizing.Wait()
	return len(guildIDs)
}

// Shutdown ends every session, waits for their history writes and then closes the
// repository.
func (m *Manager) Shutdown(ctx context.Context) int {
	n := m.StopAll(ctx)
	m.repo.Close()
	return n
}

// PublishTrackEvent is the entry point for the playback subsystem.
func (m *Manager) PublishTrackEvent(ctx context.Context, guildID string, event Event) error {
	s, ok := m.Session(guildID)
	if !ok {
		return fmt.Errorf("guild %s: %w", guildID, ErrSessionNotFound)
	}
	switch event.Kind {
	case EventTrackPlay:
		m.board.Set(guildID, event.Track)
	case EventTrackEnd, EventTrackError:
		m.board.Clear(guildID)
	}
	s.Dispatch(ctx, event)
	return nil
}

func (m *Manager) Session(guildID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

// CloseOrphanSessions completes history rows a previous process left running.
func (m *Manager) CloseOrphanSessions(ctx context.Context) error {
	n, err := m.repo.CompleteRunningSessions(ctx, time.Now(), string(LeaveReasonRestart))
	if err != nil {
		return fmt.Errorf("complete orphan sessions: %w", err)
	}
	if n > 0 {
		slog.Warn("closed orphan voice sessions from previous run", "count", n)
	}
	return nil
}

// finish stops the session's ticker and records its end in the background.
func (m *Manager) finish(s *Session, reason LeaveReason) {
	s.cancel()
	m.board.Clear(s.cfg.GuildID)
	slog.Info("voice session ended", "guild_id", s.cfg.GuildID, "channel_id", s.cfg.VoiceChannelID, "reason", string(reason))

	m.finalizing.Add(1)
	go func() {
		defer m.finalizing.Done()
		m.finalizeSession(s, reason, time.Now())
	}()
}

func (m *Manager) finalizeSession(s *Session, reason LeaveReason, endedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if s.record != nil {
		emit(m.repo.CompleteSession(ctx, repository.CompleteSessionInput{
			SessionID: s.record.ID,
			EndedAt:   endedAt,
			EndReason: string(reason),
		}), "failed to complete voice session record", "session_id", s.record.ID, "guild_id", s.cfg.GuildID)
	}
	emit(m.webhook.SendSessionEnded(ctx, webhook.SessionEndedPayload{
		GuildID:         s.cfg.GuildID,
		VoiceChannelID:  s.cfg.VoiceChannelID,
		TextChannelID:   s.cfg.TextChannelID,
		Reason:          string(reason),
		StartedAt:       s.startedAt,
		EndedAt:         endedAt,
		DurationSeconds: int64(endedAt.Sub(s.startedAt).Seconds()),
	}), "failed to send session ended webhook", "guild_id", s.cfg.GuildID)
}
