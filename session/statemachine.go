package session

import "log/slog"

// legal status edges. aborted is reachable from any non-terminal state and
// is handled separately in transition.
var legalEdges = map[Status]Status{
	StatusWaiting:   StatusSelecting,
	StatusSelecting: StatusBattle,
	StatusBattle:    StatusFinished,
}

// transition moves the session to the target status if the edge is legal.
// Re-entering the current status is a no-op and must not re-fire side
// effects, so callers branch on the return value.
func (s *Session) transition(to Status) bool {
	if s.Status == to {
		return false
	}
	if to == StatusAborted {
		if s.terminal() {
			return false
		}
		s.Status = StatusAborted
		return true
	}
	if legalEdges[s.Status] != to {
		slog.Warn("illegal status transition ignored", "tag", "session",
			"session", s.ID, "from", s.Status.String(), "to", to.String())
		return false
	}
	s.Status = to
	return true
}

// startBattle performs the selecting -> battle transition: seeds the final
// round's special event and initializes the turn. Returns false if the
// transition already happened.
func (s *Session) startBattle() bool {
	if !s.transition(StatusBattle) {
		return false
	}
	s.Turn = Turn{ActiveIdx: 0, Round: 1, Phase: PhasePlay}
	s.seedSpecialEvents()
	s.activateEventsForRound(s.Turn.Round)
	return true
}

// seedSpecialEvents creates the fixed per-round special events. Policy for
// this game shape: the final round always carries a score-doubling event.
func (s *Session) seedSpecialEvents() {
	round := s.cfg.RoundLimit
	if _, exists := s.Events[round]; exists {
		return
	}
	s.Events[round] = &SpecialEvent{
		Round:       round,
		Kind:        EventDoublePoints,
		Description: "Final round: all points are doubled!",
		Active:      false,
	}
}

// activateEventsForRound flips the round's event to active the first time
// that round is reached. Returns the event if it was newly activated.
func (s *Session) activateEventsForRound(round int) *SpecialEvent {
	ev, ok := s.Events[round]
	if !ok || ev.Active {
		return nil
	}
	ev.Active = true
	return ev
}

// doublePointsActive reports whether an active double-points event covers
// the given round.
func (s *Session) doublePointsActive(round int) bool {
	ev, ok := s.Events[round]
	return ok && ev.Active && ev.Kind == EventDoublePoints
}

// abort drives the session to aborted. No winner is assigned and no further
// mutation is accepted afterwards.
func (s *Session) abort(reason string) {
	if !s.transition(StatusAborted) {
		return
	}
	slog.Info("session aborted", "tag", "session", "session", s.ID, "reason", reason)
	s.mutated()
	s.broadcastSnapshot()
	s.ended(reason)
}

// finishBattle performs the battle -> finished transition and computes the
// winner. Tie policy: the session creator (slot 0) wins ties; strictly
// greater score wins otherwise.
func (s *Session) finishBattle() bool {
	if !s.transition(StatusFinished) {
		return false
	}
	winIdx := 0
	if len(s.Slots) == 2 && s.Slots[1].Score > s.Slots[0].Score {
		winIdx = 1
	}
	s.Winner = s.Slots[winIdx].PlayerID
	return true
}
