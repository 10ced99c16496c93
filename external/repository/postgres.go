package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sunny-bot/sunny/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO voice_sessions (guild_id, voice_channel_id, text_channel_id, started_at, status)
		 VALUES ($1, $2, $3, $4, 'running')
		 RETURNING id, guild_id, voice_channel_id, text_channel_id, started_at, ended_at, end_reason, status`,
		input.GuildID, input.VoiceChannelID, input.TextChannelID, input.StartedAt)
	var s repository.Session
	var endedAt *time.Time
	err := row.Scan(&s.ID, &s.GuildID, &s.VoiceChannelID, &s.TextChannelID, &s.StartedAt, &endedAt, &s.EndReason, &s.Status)
	if err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	return &s, nil
}

func (r *PostgresRepository) CompleteSession(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE voice_sessions SET status = 'completed', ended_at = $2, end_reason = $3
		 WHERE id = $1 AND status = 'running'`,
		input.SessionID, input.EndedAt, input.EndReason)
	return err
}

func (r *PostgresRepository) CompleteRunningSessions(ctx context.Context, endedAt time.Time, endReason string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE voice_sessions SET status = 'completed', ended_at = $1, end_reason = $2
		 WHERE status = 'running'`,
		endedAt, endReason)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
