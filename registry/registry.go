package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"card-battle-server/catalog"
	"card-battle-server/config"
	"card-battle-server/session"
	"card-battle-server/sessionerrors"
)

// Registry owns the authoritative in-memory map from session identifier to
// session. All operations complete against this map; durability is a side
// effect handled elsewhere, never a precondition.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	cfg *config.Config
	cat *catalog.Catalog

	// Configure is applied to every new session before its actor starts;
	// main wires the storage and history hooks here. May be nil.
	Configure func(s *session.Session)

	reaperCancel chan struct{}
}

// New creates an empty registry.
func New(cfg *config.Config, cat *catalog.Catalog) *Registry {
	return &Registry{
		sessions:     make(map[string]*session.Session),
		cfg:          cfg,
		cat:          cat,
		reaperCancel: make(chan struct{}),
	}
}

// Create makes a new session with creatorID in slot 0, registers it, and
// starts its actor goroutine.
func (r *Registry) Create(creatorID string) *session.Session {
	id := uuid.NewString()
	s := session.New(id, r.cfg, r.cat, creatorID)
	s.OnClosed = r.Remove
	if r.Configure != nil {
		r.Configure(s)
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	go s.Run()
	slog.Info("session created", "tag", "registry", "session", id, "creator", creatorID)
	return s
}

// Get returns the session for id, or a NotFound error.
func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, sessionerrors.NotFound("unknown session: %s", id)
	}
	return s, nil
}

// Exists reports whether a session with id is registered.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	_, ok := r.sessions[id]
	r.mu.RUnlock()
	return ok
}

// Remove deletes the session from the registry. Called by the session actor
// when it exits; safe to call for an already-removed id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		slog.Info("session removed", "tag", "registry", "session", id)
	}
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RunReaper periodically expires sessions that have idled in waiting past
// the configured timeout. Should be run as a goroutine; StopReaper ends it.
func (r *Registry) RunReaper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.reaperCancel:
			return
		case <-ticker.C:
			r.expireIdle()
		}
	}
}

// StopReaper stops the reaper goroutine.
func (r *Registry) StopReaper() {
	close(r.reaperCancel)
}

func (r *Registry) expireIdle() {
	timeout := time.Duration(r.cfg.WaitingIdleTimeoutSec) * time.Second
	if timeout <= 0 {
		return
	}
	cutoff := time.Now().Add(-timeout)

	r.mu.RLock()
	var stale []*session.Session
	for _, s := range r.sessions {
		if s.CreatedAt.Before(cutoff) {
			stale = append(stale, s)
		}
	}
	r.mu.RUnlock()

	// The expire action is a no-op for sessions that progressed past
	// waiting; the actor decides.
	for _, s := range stale {
		select {
		case s.Actions <- session.Action{Type: session.ActionExpire}:
		case <-s.Done:
		}
	}
}
