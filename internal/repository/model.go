package repository

import "time"

type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is one voice session of the bot, from join to leave.
type Session struct {
	ID             string
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
	StartedAt      time.Time
	EndedAt        *time.Time
	EndReason      string
	Status         SessionStatus
}
