package session

import (
	"context"
	"errors"
	"testing"

	"github.com/sunny-bot/sunny/internal/discord"
	"github.com/sunny-bot/sunny/internal/playback"
)

func commandMessage(content string) discord.MessageEvent {
	return discord.MessageEvent{
		GuildID:   "guild-1",
		ChannelID: "text-1",
		AuthorID:  "user-1",
		Content:   content,
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantOK  bool
	}{
		{name: "plain", content: "~join", want: "join", wantOK: true},
		{name: "uppercase", content: "~LEAVE", want: "leave", wantOK: true},
		{name: "arguments", content: "  ~ping now please ", want: "ping", wantOK: true},
		{name: "space after prefix", content: "~ join", want: "join", wantOK: true},
		{name: "no prefix", content: "join", wantOK: false},
		{name: "prefix only", content: "~", wantOK: false},
		{name: "empty", content: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCommand("~", tt.content)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

func TestHandleMessage_Ping(t *testing.T) {
	dc := newMockDiscordClient()
	manager := newTestManager(dc, &mockRepository{}, &mockWebhookSender{})

	manager.HandleMessage(commandMessage("~ping"))

	sent := dc.sent()
	if len(sent) != 1 || sent[0].channelID != "text-1" || sent[0].content != messagePong {
		t.Fatalf("unexpected replies: %+v", sent)
	}
}

func TestHandleMessage_IgnoresBotsAndDirectMessages(t *testing.T) {
	dc := newMockDiscordClient()
	manager := newTestManager(dc, &mockRepository{}, &mockWebhookSender{})

	fromBot := commandMessage("~ping")
	fromBot.AuthorIsBot = true
	direct := commandMessage("~ping")
	direct.GuildID = ""

	manager.HandleMessage(fromBot)
	manager.HandleMessage(direct)
	manager.HandleMessage(commandMessage("hello there"))

	if len(dc.sent()) != 0 {
		t.Fatalf("expected no replies, got %+v", dc.sent())
	}
}

func TestHandleMessage_JoinRequiresVoiceChannel(t *testing.T) {
	dc := newMockDiscordClient()
	manager := newTestManager(dc, &mockRepository{}, &mockWebhookSender{})

	manager.HandleMessage(commandMessage("~join"))

	if dc.countSent(messageJoinVoiceFirst) != 1 {
		t.Fatalf("expected join hint, got %+v", dc.sent())
	}
	if _, ok := manager.Session("guild-1"); ok {
		t.Fatal("expected no session")
	}
}

func TestHandleMessage_JoinStartsSession(t *testing.T) {
	dc := newMockDiscordClient()
	dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	manager := newTestManager(dc, &mockRepository{}, &mockWebhookSender{})
	t.Cleanup(func() { manager.StopAll(context.Background()) })

	manager.HandleMessage(commandMessage("~join"))

	s, ok := manager.Session("guild-1")
	if !ok {
		t.Fatal("expected session to start")
	}
	if s.Config().VoiceChannelID != "vc-1" || s.Config().TextChannelID != "text-1" {
		t.Fatalf("unexpected session config: %+v", s.Config())
	}
	if dc.countSent(joinedMessage("vc-1")) != 1 {
		t.Fatalf("expected joined reply, got %+v", dc.sent())
	}
}

func TestHandleMessage_JoinFailureReplies(t *testing.T) {
	dc := newMockDiscordClient()
	dc.userVoiceChannelByID = map[string]string{"user-1": "vc-1"}
	dc.joinErr = errors.New("missing permissions")
	manager := newTestManager(dc, &mockRepository{}, &mockWebhookSender{})

	manager.HandleMessage(commandMessage("~join"))

	if dc.countSent(messageJoinFailed) != 1 {
		t.Fatalf("expected join failure reply, got %+v", dc.sent())
	}
}

func TestHandleMessage_LeaveWithoutSession(t *testing.T) {
	dc := newMockDiscordClient()
	manager := newTestManager(dc, &mockRepository{}, &mockWebhookSender{})

	manager.HandleMessage(commandMessage("~leave"))

	if dc.countSent(messageNotInVoice) != 1 {
		t.Fatalf("expected not in voice reply, got %+v", dc.sent())
	}
	if len(dc.leaves()) != 0 {
		t.Fatal("expected no voice disconnect")
	}
}

func TestHandleMessage_LeaveEndsSession(t *testing.T) {
	dc := newMockDiscordClient()
	repo := &mockRepository{}
	manager := newTestManager(dc, repo, &mockWebhookSender{})

	if _, err := manager.Start(context.Background(), "guild-1", "vc-1", "text-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	manager.HandleMessage(commandMessage("~leave"))
	manager.StopAll(context.Background())

	if dc.countSent(messageLeft) != 1 {
		t.Fatalf("expected left reply, got %+v", dc.sent())
	}
	completed := repo.completed()
	if len(completed) != 1 || completed[0].EndReason != string(LeaveReasonCommand) {
		t.Fatalf("unexpected completions: %+v", completed)
	}
}

func TestHandleMessage_RateLimitsPerUser(t *testing.T) {
	dc := newMockDiscordClient()
	manager := newTestManager(dc, &mockRepository{}, &mockWebhookSender{})

	for i := 0; i < commandBurst+2; i++ {
		manager.HandleMessage(commandMessage("~ping"))
	}
	other := commandMessage("~ping")
	other.AuthorID = "user-2"
	manager.HandleMessage(other)

	if got := dc.countSent(messagePong); got != commandBurst+1 {
		t.Fatalf("expected %d replies, got %d", commandBurst+1, got)
	}
}

func TestHandleMessage_NowPlayingPostsCurrentTrack(t *testing.T) {
	dc := newMockDiscordClient()
	manager := newTestManager(dc, &mockRepository{}, &mockWebhookSender{})
	manager.board.Set("guild-1", playback.Track{Title: "Tropico News Today", Artist: "Presidente"})

	manager.HandleMessage(commandMessage("~np"))
	manager.HandleMessage(commandMessage("~nowplaying"))

	embeds := dc.embeds()
	if len(embeds) != 2 {
		t.Fatalf("expected 2 embeds, got %d", len(embeds))
	}
	if embeds[0].channelID != "text-1" || embeds[0].embed.Fields[0].Value != "**Tropico News Today**" {
		t.Fatalf("unexpected embed: %+v", embeds[0])
	}
}

func TestHandleMessage_NowPlayingWithoutTrack(t *testing.T) {
	dc := newMockDiscordClient()
	manager := newTestManager(dc, &mockRepository{}, &mockWebhookSender{})

	manager.HandleMessage(commandMessage("~np"))

	if len(dc.embeds()) != 0 {
		t.Fatal("expected no embed without a current track")
	}
	if dc.countSent(messageNothingPlaying) != 1 {
		t.Fatalf("expected nothing playing reply, got %+v", dc.sent())
	}
}
