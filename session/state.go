package session

import "time"

// EventDoublePoints is the special-event kind that doubles awarded points
// for its round.
const EventDoublePoints = "double-points"

// BattleLogEntry is one applied card play. Immutable once appended; a
// session's log order is the total order of its plays.
type BattleLogEntry struct {
	Round         int       `json:"round"`
	PlayerIndex   int       `json:"playerIndex"`
	CardID        string    `json:"cardId"`
	TargetCardID  string    `json:"targetCardId,omitempty"`
	EffectKind    string    `json:"effectKind"`
	PointsAwarded int       `json:"pointsAwarded"`
	Description   string    `json:"description"`
	Timestamp     time.Time `json:"timestamp"`
}

// SpecialEvent is a round-scoped modifier. At most one exists per round;
// Active is set the first time the round is reached.
type SpecialEvent struct {
	Round       int    `json:"round"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// SlotView is the client-facing representation of a player slot. Deck
// contents are not exposed; the log reveals played cards.
type SlotView struct {
	PlayerID  string `json:"playerId"`
	Ready     bool   `json:"ready"`
	Score     int    `json:"score"`
	DeckSize  int    `json:"deckSize"`
	CardsLeft int    `json:"cardsLeft"`
	Connected bool   `json:"connected"`
}

// TurnView is the client-facing representation of the current turn.
type TurnView struct {
	ActivePlayerIndex int    `json:"activePlayerIndex"`
	Round             int    `json:"round"`
	Phase             string `json:"phase"`
}

// SnapshotMsg is the full session state sent to clients for
// resynchronization. Idempotent: safe to deliver redundantly.
type SnapshotMsg struct {
	Type      string           `json:"type"`
	SessionID string           `json:"sessionId"`
	Status    string           `json:"status"`
	Players   []SlotView       `json:"players"`
	Turn      *TurnView        `json:"turn,omitempty"`
	Log       []BattleLogEntry `json:"log"`
	Events    []SpecialEvent   `json:"events,omitempty"`
	Winner    string           `json:"winner,omitempty"`
}

// BuildSnapshot returns the current full-state snapshot. Only safe to call
// from the actor goroutine or tests that do not run the actor.
func (s *Session) BuildSnapshot() SnapshotMsg {
	snap := SnapshotMsg{
		Type:      "roomState",
		SessionID: s.ID,
		Status:    s.Status.String(),
		Players:   make([]SlotView, 0, len(s.Slots)),
		Log:       s.Log,
		Winner:    s.Winner,
	}
	if snap.Log == nil {
		snap.Log = []BattleLogEntry{}
	}
	for _, sl := range s.Slots {
		snap.Players = append(snap.Players, SlotView{
			PlayerID:  sl.PlayerID,
			Ready:     sl.Ready,
			Score:     sl.Score,
			DeckSize:  len(sl.Deck),
			CardsLeft: sl.CardsLeft(),
			Connected: s.playerConnected(sl.PlayerID),
		})
	}
	if s.Status == StatusBattle {
		snap.Turn = &TurnView{
			ActivePlayerIndex: s.Turn.ActiveIdx,
			Round:             s.Turn.Round,
			Phase:             s.Turn.Phase,
		}
	}
	// Stable round order so redundant snapshots compare equal.
	for round := 1; round <= s.cfg.RoundLimit; round++ {
		if ev, ok := s.Events[round]; ok {
			snap.Events = append(snap.Events, *ev)
		}
	}
	return snap
}

// --- Discrete server-to-client events produced by the session actor ---

// JoinedRoomMsg confirms a join to the joining connection.
type JoinedRoomMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// JoinRoomErrorMsg rejects a join to the joining connection only.
type JoinRoomErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PlayerJoinedMsg announces a (re)joined participant to the whole session.
type PlayerJoinedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Rejoined bool   `json:"rejoined,omitempty"`
}

// PlayerLeftMsg announces a detached participant. Leaving does not reset
// session state; the player may rejoin while the session is live.
type PlayerLeftMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// CardsSelectedMsg confirms a deck selection to the selecting connection.
type CardsSelectedMsg struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId"`
}

// BattleStartMsg announces the selecting -> battle transition.
type BattleStartMsg struct {
	Type              string `json:"type"`
	SessionID         string `json:"sessionId"`
	ActivePlayerIndex int    `json:"activePlayerIndex"`
	Round             int    `json:"round"`
}

// SpecialEventMsg announces a newly activated special event.
type SpecialEventMsg struct {
	Type  string       `json:"type"`
	Event SpecialEvent `json:"event"`
}

// CardPlayedMsg carries one resolved play. Duplicate is set when the entry
// is a replayed acknowledgment of an already-applied intent.
type CardPlayedMsg struct {
	Type      string         `json:"type"`
	Entry     BattleLogEntry `json:"entry"`
	Duplicate bool           `json:"duplicate,omitempty"`
}

// TurnEndedMsg carries the post-advance snapshot after a turn passes.
type TurnEndedMsg struct {
	Type     string      `json:"type"`
	Snapshot SnapshotMsg `json:"snapshot"`
}

// GameEndedMsg carries the final results once the session finishes.
type GameEndedMsg struct {
	Type    string     `json:"type"`
	Winner  string     `json:"winner"`
	Players []SlotView `json:"players"`
}

// ErrorMsg is sent to a single connection when its intent is rejected.
type ErrorMsg struct {
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
