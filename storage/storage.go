package storage

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"card-battle-server/session"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS session_mirror (
	session_id UUID PRIMARY KEY,
	status     TEXT NOT NULL,
	snapshot   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_session_mirror_status ON session_mirror(status);
CREATE TABLE IF NOT EXISTS battle_history (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	session_id    UUID NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	status        TEXT NOT NULL,
	end_reason    TEXT,
	winner_id     TEXT,
	player0_id    TEXT NOT NULL,
	player1_id    TEXT,
	player0_score INT NOT NULL DEFAULT 0,
	player1_score INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_battle_history_session ON battle_history(session_id);
CREATE INDEX IF NOT EXISTS idx_battle_history_winner ON battle_history(winner_id);
`

// Store persists the durable mirror of session state in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the mirror tables exist.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence
// occurs; all Store methods are nil-safe.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// UpsertSessionMirror replaces the stored snapshot for sessionID. The
// snapshot is the authoritative in-memory state serialized after a
// mutation; a newer write simply overwrites an older one.
func (s *Store) UpsertSessionMirror(ctx context.Context, sessionID, status string, snapshot []byte) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO session_mirror (session_id, status, snapshot, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id)
		DO UPDATE SET status = $2, snapshot = $3, updated_at = now()`,
		sessionID, status, snapshot)
	return err
}

// InsertBattleResult records a finished or aborted session for history.
// winner_id is NULL for aborted sessions.
func (s *Store) InsertBattleResult(ctx context.Context, sum session.EndSummary) error {
	if s == nil || s.pool == nil {
		return nil
	}
	var p0, p1 *string
	var s0, s1 int
	if len(sum.PlayerIDs) > 0 {
		p0 = &sum.PlayerIDs[0]
		s0 = sum.Scores[0]
	}
	if len(sum.PlayerIDs) > 1 {
		p1 = &sum.PlayerIDs[1]
		s1 = sum.Scores[1]
	}
	var winner *string
	if sum.Winner != "" {
		winner = &sum.Winner
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO battle_history (session_id, status, end_reason, winner_id, player0_id, player1_id, player0_score, player1_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sum.SessionID, sum.Status, sum.Reason, winner, p0, p1, s0, s1)
	return err
}
