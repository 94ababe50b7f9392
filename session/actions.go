package session

import (
	"log/slog"

	"card-battle-server/sessionerrors"
	"card-battle-server/wsutil"
)

func kindString(k sessionerrors.Kind) string {
	switch k {
	case sessionerrors.KindValidation:
		return "validation"
	case sessionerrors.KindNotFound:
		return "not_found"
	case sessionerrors.KindConflict:
		return "conflict"
	case sessionerrors.KindPersistence:
		return "persistence"
	default:
		return "internal"
	}
}

// sendErr reports a rejected intent to the originating connection only.
// Errors local to one intent never affect the session's other connections.
func (s *Session) sendErr(sub *Subscriber, err *sessionerrors.Error) {
	s.sendTo(sub, ErrorMsg{Type: "error", Kind: kindString(err.Kind), Message: err.Message})
}

func (s *Session) handleJoin(a Action) {
	if s.terminal() {
		s.sendTo(a.Sub, JoinRoomErrorMsg{Type: "joinRoomError",
			Message: "session is " + s.Status.String()})
		return
	}

	idx := s.slotIndex(a.PlayerID)
	rejoined := idx >= 0
	if !rejoined {
		if len(s.Slots) >= 2 {
			s.sendTo(a.Sub, JoinRoomErrorMsg{Type: "joinRoomError", Message: "room is full"})
			return
		}
		s.Slots = append(s.Slots, &Slot{
			PlayerID: a.PlayerID,
			Played:   make(map[string]bool),
		})
	}

	s.attach(a.Sub)
	s.sendTo(a.Sub, JoinedRoomMsg{Type: "joinedRoom", SessionID: s.ID, Status: s.Status.String()})

	// Second slot filled: waiting -> selecting. A duplicate join signal for
	// an existing participant must not re-fire this.
	if !rejoined && len(s.Slots) == 2 {
		if s.transition(StatusSelecting) {
			slog.Info("both slots filled, selecting decks", "tag", "session", "session", s.ID)
		}
	}

	s.mutated()
	s.broadcast(PlayerJoinedMsg{Type: "playerJoined", PlayerID: a.PlayerID, Rejoined: rejoined})
	s.broadcastSnapshot()
}

func (s *Session) handleSelectCards(a Action) {
	if s.Status != StatusSelecting {
		s.sendErr(a.Sub, sessionerrors.Conflict("deck selection is only allowed while selecting, session is %s", s.Status))
		return
	}
	idx := s.slotIndex(a.PlayerID)
	if idx < 0 {
		s.sendErr(a.Sub, sessionerrors.NotFound("player %s has no slot in this session", a.PlayerID))
		return
	}
	slot := s.Slots[idx]

	// Duplicate ready intent after a missed ack: acknowledge again, change
	// nothing.
	if slot.Ready {
		s.sendTo(a.Sub, CardsSelectedMsg{Type: "cardsSelected", Success: true, PlayerID: a.PlayerID})
		return
	}

	if len(a.Cards) != s.cfg.DeckSize {
		s.sendErr(a.Sub, sessionerrors.Validation("deck must contain exactly %d cards, got %d", s.cfg.DeckSize, len(a.Cards)))
		return
	}
	seen := make(map[string]bool, len(a.Cards))
	for _, id := range a.Cards {
		if seen[id] {
			s.sendErr(a.Sub, sessionerrors.Validation("deck contains duplicate card %s", id))
			return
		}
		seen[id] = true
		if _, err := s.cat.Lookup(id); err != nil {
			s.sendErr(a.Sub, sessionerrors.NotFound("unknown card: %s", id))
			return
		}
	}

	slot.Deck = append([]string(nil), a.Cards...)
	slot.Ready = true
	s.sendTo(a.Sub, CardsSelectedMsg{Type: "cardsSelected", Success: true, PlayerID: a.PlayerID})

	if len(s.Slots) == 2 && s.Slots[0].Ready && s.Slots[1].Ready {
		if s.startBattle() {
			slog.Info("battle started", "tag", "session", "session", s.ID,
				"p0", s.Slots[0].PlayerID, "p1", s.Slots[1].PlayerID)
			s.broadcast(BattleStartMsg{
				Type:              "battleStart",
				SessionID:         s.ID,
				ActivePlayerIndex: s.Turn.ActiveIdx,
				Round:             s.Turn.Round,
			})
		}
	}

	s.mutated()
	s.broadcastSnapshot()
}

// handleGetState answers a snapshot pull. Pulls are rate-limited per
// session; a throttled pull is answered from the cached snapshot, which is
// refreshed on every mutation, so the requester still gets recent state.
func (s *Session) handleGetState(a Action) {
	if s.pullLimiter.Allow() || s.lastSnapshot == nil {
		s.mutated()
	}
	if a.Sub != nil && a.Sub.Send != nil {
		wsutil.SafeSend(a.Sub.Send, s.lastSnapshot)
	}
}

func (s *Session) handleLeave(a Action) {
	s.detach(a.Sub)
	s.broadcast(PlayerLeftMsg{Type: "playerLeft", PlayerID: a.PlayerID})
}

// handleDisconnect is the abrupt-loss path. If the lost connection leaves an
// unfinished session without one of its original participants, the session
// aborts with no winner.
func (s *Session) handleDisconnect(a Action) {
	s.detach(a.Sub)
	if s.terminal() {
		return
	}
	playerID := a.Sub.PlayerID
	if playerID == "" {
		playerID = a.PlayerID
	}
	if s.slotIndex(playerID) >= 0 && !s.playerConnected(playerID) {
		s.abort("participant disconnected")
		return
	}
	s.broadcast(PlayerLeftMsg{Type: "playerLeft", PlayerID: playerID})
}

// handleExpire reclaims a session that idled in waiting past the timeout.
func (s *Session) handleExpire() {
	if s.Status != StatusWaiting {
		return
	}
	s.abort("idle timeout")
	// Detach whatever is still attached so the actor can exit.
	for sub := range s.subs {
		s.detach(sub)
	}
}
