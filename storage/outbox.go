package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const writeTimeout = 5 * time.Second

type mirrorWrite struct {
	sessionID string
	status    string
	snapshot  []byte
}

// Outbox is the write-behind queue between session actors and the durable
// store. Enqueue never blocks the caller; a single drain goroutine issues
// the writes. Writes for one session are coalesced (each carries the full
// snapshot, so only the newest matters) and issued in enqueue order, which
// keeps per-session writes ordered. A failed write is logged and the
// snapshot is retried on the next drain unless a newer one replaced it.
type Outbox struct {
	store SessionStore

	mu      sync.Mutex
	pending map[string]mirrorWrite
	order   []string

	kick chan struct{}
	done chan struct{}
}

// NewOutbox creates an outbox writing through store. A nil store disables
// all writes.
func NewOutbox(store SessionStore) *Outbox {
	return &Outbox{
		store:   store,
		pending: make(map[string]mirrorWrite),
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Enqueue schedules a mirror write for the session, replacing any pending
// older snapshot for the same session.
func (o *Outbox) Enqueue(sessionID, status string, snapshot []byte) {
	if o == nil || o.store == nil {
		return
	}
	o.mu.Lock()
	if _, queued := o.pending[sessionID]; !queued {
		o.order = append(o.order, sessionID)
	}
	o.pending[sessionID] = mirrorWrite{sessionID: sessionID, status: status, snapshot: snapshot}
	o.mu.Unlock()

	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// Run drains the outbox until Stop is called. Should be run as a goroutine.
func (o *Outbox) Run() {
	for {
		select {
		case <-o.done:
			o.drain()
			return
		case <-o.kick:
			o.drain()
		}
	}
}

// Stop ends the Run loop after a final drain.
func (o *Outbox) Stop() {
	close(o.done)
}

// Pending returns the number of sessions with queued writes.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

func (o *Outbox) drain() {
	for {
		o.mu.Lock()
		if len(o.order) == 0 {
			o.mu.Unlock()
			return
		}
		id := o.order[0]
		o.order = o.order[1:]
		w, ok := o.pending[id]
		if ok {
			delete(o.pending, id)
		}
		o.mu.Unlock()
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := o.store.UpsertSessionMirror(ctx, w.sessionID, w.status, w.snapshot)
		cancel()
		if err != nil {
			// The in-memory session stays authoritative; keep the snapshot
			// for the next drain unless a newer one was enqueued meanwhile.
			slog.Warn("session mirror write failed", "tag", "storage",
				"session", w.sessionID, "err", err)
			o.mu.Lock()
			if _, queued := o.pending[w.sessionID]; !queued {
				o.pending[w.sessionID] = w
				o.order = append(o.order, w.sessionID)
			}
			o.mu.Unlock()
			return
		}
	}
}
