package session

import (
	"testing"

	"card-battle-server/catalog"
)

func TestSecondJoinMovesWaitingToSelecting(t *testing.T) {
	s := New("s1", testConfig(), catalog.Default(), "alice")
	if s.Status != StatusWaiting {
		t.Fatalf("new session should be waiting, got %s", s.Status)
	}

	subA := newSub("alice")
	s.handleJoin(Action{Type: ActionJoin, Sub: subA, PlayerID: "alice"})
	if s.Status != StatusWaiting {
		t.Errorf("creator joining alone should keep waiting, got %s", s.Status)
	}

	subB := newSub("bob")
	s.handleJoin(Action{Type: ActionJoin, Sub: subB, PlayerID: "bob"})
	if s.Status != StatusSelecting {
		t.Errorf("second slot filled should move to selecting, got %s", s.Status)
	}
	if len(s.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(s.Slots))
	}
}

func TestDuplicateJoinIsNoOp(t *testing.T) {
	s, _, subB := newTestSession(nil)

	// Bob joins again (e.g. a retried join signal).
	s.handleJoin(Action{Type: ActionJoin, Sub: subB, PlayerID: "bob"})

	if len(s.Slots) != 2 {
		t.Errorf("duplicate join must not add a slot, got %d", len(s.Slots))
	}
	if s.Status != StatusSelecting {
		t.Errorf("duplicate join must not re-fire transitions, got %s", s.Status)
	}
}

func TestJoinFullRoomRejected(t *testing.T) {
	s, _, _ := newTestSession(nil)

	subC := newSub("carol")
	s.handleJoin(Action{Type: ActionJoin, Sub: subC, PlayerID: "carol"})

	if len(s.Slots) != 2 {
		t.Fatalf("third player must not get a slot, got %d slots", len(s.Slots))
	}
	counts := countByType(t, drainChannel(subC.Send))
	if counts["joinRoomError"] != 1 {
		t.Errorf("expected joinRoomError for full room, got %v", counts)
	}
}

func TestSelectCardsValidation(t *testing.T) {
	s, subA, _ := newTestSession(nil)

	// Wrong deck size.
	s.handleSelectCards(Action{Type: ActionSelectCards, Sub: subA, PlayerID: "alice",
		Cards: []string{"atk-jab"}})
	if s.Slots[0].Ready {
		t.Error("short deck must not set ready")
	}

	// Duplicate card.
	s.handleSelectCards(Action{Type: ActionSelectCards, Sub: subA, PlayerID: "alice",
		Cards: []string{"atk-jab", "atk-jab", "atk-slash", "atk-smash", "atk-rampage"}})
	if s.Slots[0].Ready {
		t.Error("deck with duplicates must not set ready")
	}

	// Unknown card.
	s.handleSelectCards(Action{Type: ActionSelectCards, Sub: subA, PlayerID: "alice",
		Cards: []string{"atk-jab", "atk-strike", "atk-slash", "atk-smash", "no-such-card"}})
	if s.Slots[0].Ready {
		t.Error("deck with unknown card must not set ready")
	}

	counts := countByType(t, drainChannel(subA.Send))
	if counts["error"] != 3 {
		t.Errorf("expected 3 error responses, got %v", counts)
	}
}

func TestExactlyOneBattleStartDespiteDoubleReady(t *testing.T) {
	s, subA, subB := newTestSession(nil)

	s.handleSelectCards(Action{Type: ActionSelectCards, Sub: subA, PlayerID: "alice", Cards: attackDeck})
	s.handleSelectCards(Action{Type: ActionSelectCards, Sub: subB, PlayerID: "bob", Cards: attackDeck})
	// Bob retries the ready intent after a missed ack.
	s.handleSelectCards(Action{Type: ActionSelectCards, Sub: subB, PlayerID: "bob", Cards: attackDeck})

	if s.Status != StatusBattle {
		t.Fatalf("expected battle, got %s", s.Status)
	}
	counts := countByType(t, drainChannel(subA.Send))
	if counts["battleStart"] != 1 {
		t.Errorf("expected exactly 1 battleStart, got %d", counts["battleStart"])
	}
	bobCounts := countByType(t, drainChannel(subB.Send))
	if bobCounts["cardsSelected"] != 2 {
		t.Errorf("retried ready should be re-acknowledged, got %v", bobCounts)
	}
}

func TestBattleStartSeedsFinalRoundEvent(t *testing.T) {
	s, subA, subB := newTestSession(nil)
	startBattle(t, s, subA, subB, attackDeck, attackDeck)

	ev, ok := s.Events[s.cfg.RoundLimit]
	if !ok {
		t.Fatal("expected a special event seeded for the final round")
	}
	if ev.Kind != EventDoublePoints {
		t.Errorf("expected double-points event, got %s", ev.Kind)
	}
	if ev.Active {
		t.Error("final round event must not be active in round 1")
	}
	if len(s.Events) != 1 {
		t.Errorf("expected exactly one event per round value, got %d", len(s.Events))
	}
}

func TestDisconnectMidBattleAbortsWithoutWinner(t *testing.T) {
	s, subA, subB := newTestSession(nil)
	startBattle(t, s, subA, subB, attackDeck, attackDeck)

	s.handleDisconnect(Action{Type: ActionDisconnect, Sub: subA, PlayerID: "alice"})

	if s.Status != StatusAborted {
		t.Fatalf("expected aborted after participant loss, got %s", s.Status)
	}
	if s.Winner != "" {
		t.Errorf("aborted session must have no winner, got %q", s.Winner)
	}

	// No further mutation is accepted.
	if _, err := s.resolvePlay(1, "atk-jab", ""); err == nil {
		t.Error("expected play in aborted session to be rejected")
	}

	snap := s.BuildSnapshot()
	if snap.Status != "aborted" {
		t.Errorf("snapshot must report aborted, got %s", snap.Status)
	}
}

func TestExplicitLeaveDoesNotAbort(t *testing.T) {
	s, subA, subB := newTestSession(nil)
	startBattle(t, s, subA, subB, attackDeck, attackDeck)

	s.handleLeave(Action{Type: ActionLeave, Sub: subB, PlayerID: "bob"})

	if s.Status != StatusBattle {
		t.Fatalf("explicit leave must not abort, got %s", s.Status)
	}

	// Bob rejoins without penalty.
	subB2 := newSub("bob")
	s.handleJoin(Action{Type: ActionJoin, Sub: subB2, PlayerID: "bob"})
	if len(s.Slots) != 2 || s.Slots[1].Score != 0 {
		t.Error("rejoin must restore bob's existing slot untouched")
	}
	counts := countByType(t, drainChannel(subB2.Send))
	if counts["joinedRoom"] != 1 {
		t.Errorf("expected joinedRoom on rejoin, got %v", counts)
	}
}

func TestExpireOnlyReclaimsWaitingSessions(t *testing.T) {
	s, subA, subB := newTestSession(nil)
	startBattle(t, s, subA, subB, attackDeck, attackDeck)

	s.handleExpire()
	if s.Status != StatusBattle {
		t.Errorf("expire must not touch a battle session, got %s", s.Status)
	}

	w := New("s2", testConfig(), catalog.Default(), "alice")
	w.handleExpire()
	if w.Status != StatusAborted {
		t.Errorf("expire must abort an idle waiting session, got %s", w.Status)
	}
}

func TestIllegalTransitionIgnored(t *testing.T) {
	s := New("s1", testConfig(), catalog.Default(), "alice")
	if s.transition(StatusBattle) {
		t.Error("waiting -> battle must be rejected")
	}
	if s.Status != StatusWaiting {
		t.Errorf("status must be unchanged, got %s", s.Status)
	}

	s.Status = StatusFinished
	if s.transition(StatusAborted) {
		t.Error("terminal sessions must not become aborted")
	}
}
