package session

import (
	"encoding/json"
	"testing"
	"time"

	"card-battle-server/catalog"
	"card-battle-server/config"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.SnapshotMinIntervalMS = 10 // short for testing
	return cfg
}

// attackDeck is a full 5-card deck of plain attack cards from the built-in
// catalog (powers 2, 3, 4, 5, 6 in order).
var attackDeck = []string{"atk-jab", "atk-strike", "atk-slash", "atk-smash", "atk-rampage"}

func newSub(playerID string) *Subscriber {
	return &Subscriber{PlayerID: playerID, Send: make(chan []byte, 100)}
}

// newTestSession creates a session with alice (slot 0) and bob (slot 1)
// joined. The actor goroutine is not started; tests drive handlers directly.
func newTestSession(cfg *config.Config) (*Session, *Subscriber, *Subscriber) {
	if cfg == nil {
		cfg = testConfig()
	}
	s := New("test-session", cfg, catalog.Default(), "alice")
	subA := newSub("alice")
	subB := newSub("bob")
	s.handleJoin(Action{Type: ActionJoin, Sub: subA, PlayerID: "alice"})
	s.handleJoin(Action{Type: ActionJoin, Sub: subB, PlayerID: "bob"})
	return s, subA, subB
}

// startBattle selects the given decks for both players and asserts the
// session reached battle.
func startBattle(t *testing.T, s *Session, subA, subB *Subscriber, deckA, deckB []string) {
	t.Helper()
	s.handleSelectCards(Action{Type: ActionSelectCards, Sub: subA, PlayerID: "alice", Cards: deckA})
	s.handleSelectCards(Action{Type: ActionSelectCards, Sub: subB, PlayerID: "bob", Cards: deckB})
	if s.Status != StatusBattle {
		t.Fatalf("expected battle after both decks selected, got %s", s.Status)
	}
}

// play resolves one card play directly and fails the test on error.
func play(t *testing.T, s *Session, slotIdx int, cardID, targetCardID string) *PlayResult {
	t.Helper()
	res, err := s.resolvePlay(slotIdx, cardID, targetCardID)
	if err != nil {
		t.Fatalf("resolvePlay(%d, %s) failed: %s", slotIdx, cardID, err.Message)
	}
	return res
}

// drainChannel reads all available messages from a channel.
func drainChannel(ch chan []byte) [][]byte {
	var msgs [][]byte
	for {
		select {
		case msg := <-ch:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

// waitForMessages waits briefly for messages to arrive, then drains the
// channel.
func waitForMessages(ch chan []byte, timeout time.Duration) [][]byte {
	var msgs [][]byte
	timer := time.After(timeout)
	for {
		select {
		case msg := <-ch:
			msgs = append(msgs, msg)
		case <-timer:
			return append(msgs, drainChannel(ch)...)
		}
	}
}

// countByType counts messages of each protocol type in msgs.
func countByType(t *testing.T, msgs [][]byte) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	for _, m := range msgs {
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(m, &env); err != nil {
			t.Fatalf("unmarshaling message %q: %v", m, err)
		}
		counts[env.Type]++
	}
	return counts
}
