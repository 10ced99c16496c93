package repository

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sunny-bot/sunny/internal/repository"
)

// NoopRepository hands out in-memory ids and stores nothing. Used when DATABASE_URL is empty.
type NoopRepository struct {
	seq atomic.Int64
}

func NewNoopRepository() repository.Repository {
	return &NoopRepository{}
}

func (r *NoopRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	return &repository.Session{
		ID:             "local-" + strconv.FormatInt(r.seq.Add(1), 10),
		GuildID:        input.GuildID,
		VoiceChannelID: input.VoiceChannelID,
		TextChannelID:  input.TextChannelID,
		StartedAt:      input.StartedAt,
		Status:         repository.SessionStatusRunning,
	}, nil
}

func (r *NoopRepository) Close() {}

func (r *NoopRepository) CompleteSession(_ context.Context, _ repository.CompleteSessionInput) error {
	return nil
}

func (r *NoopRepository) CompleteRunningSessions(_ context.Context, _ time.Time, _ string) (int64, error) {
	return 0, nil
}
