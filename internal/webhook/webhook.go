package webhook

import (
	"context"
	"time"
)

const EventSessionEnded = "voice_session.ended"

// SessionEndedPayload is posted once per voice session after it ends.
type SessionEndedPayload struct {
	GuildID         string    `json:"guild_id"`
	VoiceChannelID  string    `json:"voice_channel_id"`
	TextChannelID   string    `json:"text_channel_id"`
	Reason          string    `json:"reason"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int64     `json:"duration_seconds"`
}

// Envelope wraps every outgoing webhook body.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type Sender interface {
	SendSessionEnded(ctx context.Context, payload SessionEndedPayload) error
}
