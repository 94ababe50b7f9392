package session

import (
	"fmt"
	"time"

	"card-battle-server/catalog"
	"card-battle-server/sessionerrors"
)

// Effect kinds recorded in the battle log.
const (
	LogAttack     = "attack"
	LogBlock      = "block"
	LogBlockMiss  = "block-miss"
	LogCombo      = "combo"
	LogComboChain = "combo-chain"
	LogSpecial    = "special"
)

// PlayResult is the outcome of one resolved card play.
type PlayResult struct {
	Entry           BattleLogEntry
	TurnAdvanced    bool
	SessionFinished bool

	// Duplicate marks a replayed acknowledgment of an already-applied
	// intent; nothing was mutated.
	Duplicate bool

	// ActivatedEvent is a special event that became active because this
	// play advanced into its round; nil otherwise.
	ActivatedEvent *SpecialEvent
}

type playMemo struct {
	cardID string
	result PlayResult
}

// resolvePlay validates and applies one card play for the slot at slotIdx.
// Score changes and the log append happen inside the actor's single-threaded
// processing, so the whole step is atomic relative to other mutations.
func (s *Session) resolvePlay(slotIdx int, cardID, targetCardID string) (*PlayResult, *sessionerrors.Error) {
	if s.Status != StatusBattle {
		return nil, sessionerrors.Conflict("session is %s, not in battle", s.Status)
	}
	slot := s.Slots[slotIdx]

	// Clients retry plays after a missed ack. A resubmission of the slot's
	// most recent applied play returns the original result unchanged.
	if memo := s.lastPlay[slotIdx]; memo != nil && memo.cardID == cardID {
		dup := memo.result
		dup.Duplicate = true
		dup.ActivatedEvent = nil
		return &dup, nil
	}

	inDeck := false
	for _, id := range slot.Deck {
		if id == cardID {
			inDeck = true
			break
		}
	}
	if !inDeck {
		return nil, sessionerrors.NotFound("card %s is not in your selected deck", cardID)
	}
	if slot.Played[cardID] {
		return nil, sessionerrors.Conflict("card %s was already played", cardID)
	}
	if slotIdx != s.Turn.ActiveIdx {
		return nil, sessionerrors.Conflict("it is not your turn")
	}

	card, err := s.cat.Lookup(cardID)
	if err != nil {
		return nil, sessionerrors.NotFound("unknown card: %s", cardID)
	}

	points := card.Power
	if s.doublePointsActive(s.Turn.Round) {
		points *= 2
	}

	oppIdx := 1 - slotIdx
	opp := s.Slots[oppIdx]
	entry := BattleLogEntry{
		Round:        s.Turn.Round,
		PlayerIndex:  slotIdx,
		CardID:       cardID,
		TargetCardID: targetCardID,
		Timestamp:    time.Now(),
	}
	advance := true

	switch card.Type {
	case catalog.TypeAttack:
		slot.Score += points
		entry.EffectKind = LogAttack
		entry.PointsAwarded = points
		entry.Description = fmt.Sprintf("%s played %s for %d points", slot.PlayerID, card.Name, points)

	case catalog.TypeDefense:
		target := s.lastEntryBy(oppIdx, s.Turn.Round)
		if target != nil && targetCardID != "" && target.CardID == targetCardID {
			blocked := target.PointsAwarded / 2
			opp.Score -= blocked
			entry.EffectKind = LogBlock
			entry.PointsAwarded = blocked
			entry.Description = fmt.Sprintf("%s blocked %d points of %s with %s",
				slot.PlayerID, blocked, target.CardID, card.Name)
		} else {
			// A missed block still consumes the card and is logged, but has
			// no score effect.
			entry.EffectKind = LogBlockMiss
			entry.Description = fmt.Sprintf("%s played %s but the block found no target", slot.PlayerID, card.Name)
		}

	case catalog.TypeCombo:
		total := points + card.EffectValue(catalog.EffectComboBonus)
		slot.Score += total
		entry.PointsAwarded = total
		if card.HasEffect(catalog.EffectChain) && slot.CardsLeft() > 1 {
			// Chain: the same player acts again. An exhausted deck still
			// ends the turn.
			advance = false
			entry.EffectKind = LogComboChain
			entry.Description = fmt.Sprintf("%s chained %s for %d points and keeps the turn", slot.PlayerID, card.Name, total)
		} else {
			entry.EffectKind = LogCombo
			entry.Description = fmt.Sprintf("%s played combo %s for %d points", slot.PlayerID, card.Name, total)
		}

	case catalog.TypeSpecial:
		oppDelta := 0
		for _, eff := range card.Effects {
			switch eff.Kind {
			case catalog.EffectCancelCombo:
				oppDelta += s.cancelLastComboBonus(oppIdx)
			case catalog.EffectFlatDamage:
				opp.Score -= eff.Value
				oppDelta += eff.Value
			}
		}
		entry.EffectKind = LogSpecial
		entry.PointsAwarded = oppDelta
		entry.Description = fmt.Sprintf("%s played %s, draining %d points from %s",
			slot.PlayerID, card.Name, oppDelta, opp.PlayerID)
	}

	slot.Played[cardID] = true
	s.Log = append(s.Log, entry)

	res := PlayResult{Entry: entry}
	if advance {
		res.ActivatedEvent = s.advanceTurn()
		res.TurnAdvanced = true
	} else {
		s.Turn.Phase = PhaseChain
	}
	res.SessionFinished = s.Status == StatusFinished

	memo := res
	memo.ActivatedEvent = nil
	s.lastPlay[slotIdx] = &playMemo{cardID: cardID, result: memo}
	return &res, nil
}

// lastEntryBy returns the most recent log entry by playerIdx in the given
// round, or nil.
func (s *Session) lastEntryBy(playerIdx, round int) *BattleLogEntry {
	for i := len(s.Log) - 1; i >= 0; i-- {
		e := &s.Log[i]
		if e.PlayerIndex == playerIdx && e.Round == round {
			return e
		}
	}
	return nil
}

// cancelLastComboBonus removes the bonus portion of the opponent's most
// recent combo play from their score and returns the amount removed.
func (s *Session) cancelLastComboBonus(playerIdx int) int {
	for i := len(s.Log) - 1; i >= 0; i-- {
		e := &s.Log[i]
		if e.PlayerIndex != playerIdx {
			continue
		}
		if e.EffectKind != LogCombo && e.EffectKind != LogComboChain {
			continue
		}
		card, err := s.cat.Lookup(e.CardID)
		if err != nil {
			return 0
		}
		base := card.Power
		if s.doublePointsActive(e.Round) {
			base *= 2
		}
		bonus := e.PointsAwarded - base
		if bonus <= 0 {
			return 0
		}
		s.Slots[playerIdx].Score -= bonus
		return bonus
	}
	return 0
}

// advanceTurn passes the turn to the other slot, incrementing the round on
// wrap to slot 0. Slots with exhausted decks are skipped; once the round
// limit is exceeded the battle finishes.
func (s *Session) advanceTurn() *SpecialEvent {
	var activated *SpecialEvent
	for {
		s.Turn.ActiveIdx = 1 - s.Turn.ActiveIdx
		s.Turn.Phase = PhasePlay
		if s.Turn.ActiveIdx == 0 {
			s.Turn.Round++
			if s.Turn.Round > s.cfg.RoundLimit {
				s.finishBattle()
				return activated
			}
			if ev := s.activateEventsForRound(s.Turn.Round); ev != nil {
				activated = ev
			}
		}
		if s.Slots[s.Turn.ActiveIdx].CardsLeft() > 0 {
			return activated
		}
	}
}

func (s *Session) handlePlayCard(a Action) {
	idx := s.slotIndex(a.PlayerID)
	if idx < 0 {
		s.sendErr(a.Sub, sessionerrors.NotFound("player %s has no slot in this session", a.PlayerID))
		return
	}

	res, rerr := s.resolvePlay(idx, a.CardID, a.TargetCardID)
	if rerr != nil {
		s.sendErr(a.Sub, rerr)
		return
	}

	if res.Duplicate {
		s.sendTo(a.Sub, CardPlayedMsg{Type: "cardPlayed", Entry: res.Entry, Duplicate: true})
		return
	}

	s.mutated()
	s.broadcast(CardPlayedMsg{Type: "cardPlayed", Entry: res.Entry})
	if res.ActivatedEvent != nil {
		s.broadcast(SpecialEventMsg{Type: "specialEvent", Event: *res.ActivatedEvent})
	}
	if res.TurnAdvanced && !res.SessionFinished {
		s.broadcast(TurnEndedMsg{Type: "turnEnded", Snapshot: s.BuildSnapshot()})
	}
	if res.SessionFinished {
		s.broadcast(GameEndedMsg{Type: "gameEnded", Winner: s.Winner, Players: s.BuildSnapshot().Players})
		s.ended("completed")
	}
	s.broadcastSnapshot()
}

// ReplayScores reconstructs both slots' scores from the battle log alone.
// Attack and combo entries credit the acting player; block and special
// entries debit the opponent; a missed block changes nothing.
func ReplayScores(log []BattleLogEntry) [2]int {
	var scores [2]int
	for _, e := range log {
		switch e.EffectKind {
		case LogAttack, LogCombo, LogComboChain:
			scores[e.PlayerIndex] += e.PointsAwarded
		case LogBlock, LogSpecial:
			scores[1-e.PlayerIndex] -= e.PointsAwarded
		}
	}
	return scores
}
