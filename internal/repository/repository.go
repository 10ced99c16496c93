package repository

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
	StartedAt      time.Time
}

type CompleteSessionInput struct {
	SessionID string
	EndedAt   time.Time
	EndReason string
}

type Repository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	CompleteSession(ctx context.Context, input CompleteSessionInput) error
	// CompleteRunningSessions closes sessions left running by a previous process and returns how many were closed.
	CompleteRunningSessions(ctx context.Context, endedAt time.Time, endReason string) (int64, error)
	// Close releases the underlying connections. Call it after the last write.
	Close()
}
