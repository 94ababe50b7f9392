package storage

import (
	"context"

	"card-battle-server/session"
)

// SessionStore abstracts the durable mirror of session state.
// Implementations can be swapped for testing (mocks) or different backends.
// Writes are fire-and-forget relative to the authoritative in-memory state.
type SessionStore interface {
	// UpsertSessionMirror replaces the stored snapshot for a session.
	// Each write carries the full current snapshot, so last-writer-wins.
	UpsertSessionMirror(ctx context.Context, sessionID, status string, snapshot []byte) error

	// InsertBattleResult records a session that reached a terminal status.
	InsertBattleResult(ctx context.Context, sum session.EndSummary) error

	// Lifecycle
	Close()
}

// Ensure *Store implements SessionStore at compile time.
var _ SessionStore = (*Store)(nil)
