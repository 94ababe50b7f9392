package session

import (
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"card-battle-server/catalog"
	"card-battle-server/config"
	"card-battle-server/wsutil"
)

// Status is a session's lifecycle state. Transitions are monotonic except
// for the aborted exit (see statemachine.go).
type Status int

const (
	StatusWaiting Status = iota
	StatusSelecting
	StatusBattle
	StatusFinished
	StatusAborted
)

// String returns the protocol string for a Status.
func (st Status) String() string {
	switch st {
	case StatusWaiting:
		return "waiting"
	case StatusSelecting:
		return "selecting"
	case StatusBattle:
		return "battle"
	case StatusFinished:
		return "finished"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Turn phases while a session is in battle.
const (
	PhasePlay  = "play"
	PhaseChain = "chain"
)

// Turn tracks whose move it is. Meaningful only while Status == StatusBattle.
type Turn struct {
	ActiveIdx int
	Round     int // 1-based
	Phase     string
}

// Slot is a participant's position within a session. Slot order is fixed at
// join time and determines turn order.
type Slot struct {
	PlayerID string
	Deck     []string // selected card IDs, immutable once Ready
	Played   map[string]bool
	Ready    bool
	Score    int
}

// CardsLeft returns how many of the slot's deck cards are still unplayed.
func (sl *Slot) CardsLeft() int {
	return len(sl.Deck) - len(sl.Played)
}

// Subscriber is one live connection attached to a session. Send is the
// connection's outbound channel.
type Subscriber struct {
	PlayerID string
	Send     chan []byte
}

// ActionType enumerates the kinds of actions a session actor can process.
type ActionType int

const (
	ActionJoin ActionType = iota
	ActionSelectCards
	ActionPlayCard
	ActionGetState
	ActionLeave
	ActionDisconnect
	ActionExpire // waiting session exceeded the idle timeout
)

// Action is one mutating or read intent sent into the session's action
// channel. Sub is the originating connection; replies go to its Send.
type Action struct {
	Type         ActionType
	Sub          *Subscriber
	PlayerID     string
	Cards        []string
	CardID       string
	TargetCardID string
}

// EndSummary describes a session that reached a terminal status. Passed to
// OnEnded so the storage layer can record history without importing this
// package's internals.
type EndSummary struct {
	SessionID string
	Status    string
	Reason    string
	Winner    string
	PlayerIDs []string
	Scores    []int
}

// Session is one game room. All fields are owned by the session's actor
// goroutine; the only supported way to mutate a session is through Actions.
type Session struct {
	ID        string
	Status    Status
	Slots     []*Slot
	Turn      Turn
	Log       []BattleLogEntry
	Events    map[int]*SpecialEvent
	Winner    string
	CreatedAt time.Time

	cfg *config.Config
	cat *catalog.Catalog

	subs map[*Subscriber]struct{}

	// pullLimiter throttles getRoomState pulls; a throttled pull is answered
	// from lastSnapshot instead of being dropped.
	pullLimiter  *rate.Limiter
	lastSnapshot []byte

	// lastPlay memoizes each slot's most recent applied play so a client
	// retry returns the original result instead of double-applying.
	lastPlay []*playMemo

	Actions chan Action
	Done    chan struct{}

	// OnMutated is called after every applied mutation with the marshaled
	// session snapshot; used for the write-behind durable mirror. May be nil.
	OnMutated func(sessionID, status string, snapshot []byte)

	// OnEnded is called once when the session reaches finished or aborted.
	// May be nil.
	OnEnded func(sum EndSummary)

	// OnClosed is called when a terminal session has no attached connections
	// left and the actor exits. May be nil.
	OnClosed func(sessionID string)
}

// New creates a session in waiting status with the creator occupying slot 0.
func New(id string, cfg *config.Config, cat *catalog.Catalog, creatorID string) *Session {
	interval := time.Duration(cfg.SnapshotMinIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	return &Session{
		ID:     id,
		Status: StatusWaiting,
		Slots: []*Slot{{
			PlayerID: creatorID,
			Played:   make(map[string]bool),
		}},
		Events:      make(map[int]*SpecialEvent),
		CreatedAt:   time.Now(),
		cfg:         cfg,
		cat:         cat,
		subs:        make(map[*Subscriber]struct{}),
		pullLimiter: rate.NewLimiter(rate.Every(interval), 1),
		lastPlay:    make([]*playMemo, 2),
		Actions:     make(chan Action, 16),
		Done:        make(chan struct{}),
	}
}

// Run is the session's actor loop. It processes actions sequentially until
// the session is terminal and the last connection has detached.
// Should be run as a goroutine.
func (s *Session) Run() {
	defer close(s.Done)
	defer func() {
		if s.OnClosed != nil {
			s.OnClosed(s.ID)
		}
	}()

	for action := range s.Actions {
		switch action.Type {
		case ActionJoin:
			s.handleJoin(action)
		case ActionSelectCards:
			s.handleSelectCards(action)
		case ActionPlayCard:
			s.handlePlayCard(action)
		case ActionGetState:
			s.handleGetState(action)
		case ActionLeave:
			s.handleLeave(action)
		case ActionDisconnect:
			s.handleDisconnect(action)
		case ActionExpire:
			s.handleExpire()
		}
		if s.terminal() && len(s.subs) == 0 {
			return
		}
	}
}

func (s *Session) terminal() bool {
	return s.Status == StatusFinished || s.Status == StatusAborted
}

// slotIndex returns the slot index for playerID, or -1.
func (s *Session) slotIndex(playerID string) int {
	for i, sl := range s.Slots {
		if sl.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// playerConnected reports whether any attached connection belongs to
// playerID.
func (s *Session) playerConnected(playerID string) bool {
	for sub := range s.subs {
		if sub.PlayerID == playerID {
			return true
		}
	}
	return false
}

func (s *Session) attach(sub *Subscriber) {
	s.subs[sub] = struct{}{}
}

func (s *Session) detach(sub *Subscriber) {
	delete(s.subs, sub)
}

// Subscribers returns the number of attached connections. Only safe to call
// from the actor goroutine or tests that do not run the actor.
func (s *Session) Subscribers() int {
	return len(s.subs)
}

func (s *Session) sendTo(sub *Subscriber, v interface{}) {
	if sub == nil || sub.Send == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshaling message", "tag", "session", "session", s.ID, "err", err)
		return
	}
	wsutil.SafeSend(sub.Send, data)
}

func (s *Session) broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshaling broadcast", "tag", "session", "session", s.ID, "err", err)
		return
	}
	for sub := range s.subs {
		wsutil.SafeSend(sub.Send, data)
	}
}

// mutated refreshes the cached snapshot and hands it to the durable mirror.
// Call after every applied mutation; the mirror never blocks the actor.
func (s *Session) mutated() {
	snap := s.BuildSnapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("marshaling snapshot", "tag", "session", "session", s.ID, "err", err)
		return
	}
	s.lastSnapshot = data
	if s.OnMutated != nil {
		s.OnMutated(s.ID, s.Status.String(), data)
	}
}

func (s *Session) broadcastSnapshot() {
	if s.lastSnapshot == nil {
		s.mutated()
	}
	for sub := range s.subs {
		wsutil.SafeSend(sub.Send, s.lastSnapshot)
	}
}

// ended fires the OnEnded hook. Call exactly once, at the transition into a
// terminal status.
func (s *Session) ended(reason string) {
	if s.OnEnded == nil {
		return
	}
	sum := EndSummary{
		SessionID: s.ID,
		Status:    s.Status.String(),
		Reason:    reason,
		Winner:    s.Winner,
	}
	for _, sl := range s.Slots {
		sum.PlayerIDs = append(sum.PlayerIDs, sl.PlayerID)
		sum.Scores = append(sum.Scores, sl.Score)
	}
	s.OnEnded(sum)
}
