package catalog

// CardType is the fixed vocabulary of card types the battle resolver
// understands.
type CardType string

const (
	TypeAttack  CardType = "attack"
	TypeDefense CardType = "defense"
	TypeCombo   CardType = "combo"
	TypeSpecial CardType = "special"
)

// Effect kinds a card may declare.
const (
	// EffectComboBonus adds Value points on top of a combo card's power.
	EffectComboBonus = "combo-bonus"
	// EffectChain lets the same player act again without ending the turn.
	EffectChain = "chain"
	// EffectCancelCombo removes the opponent's most recent combo bonus.
	EffectCancelCombo = "cancel-combo"
	// EffectFlatDamage subtracts Value points from the opponent's score.
	EffectFlatDamage = "flat-damage"
)

// Effect is one declared card effect. Value is meaningful for combo-bonus
// and flat-damage; ignored for the rest.
type Effect struct {
	Kind  string `json:"kind"`
	Value int    `json:"value,omitempty"`
}

// Card is immutable card metadata as served by the catalog.
type Card struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    CardType `json:"type"`
	Power   int      `json:"power"`
	Effects []Effect `json:"effects,omitempty"`
}

// HasEffect reports whether the card declares an effect of the given kind.
func (c *Card) HasEffect(kind string) bool {
	for _, e := range c.Effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// EffectValue returns the summed Value of all effects of the given kind.
func (c *Card) EffectValue(kind string) int {
	total := 0
	for _, e := range c.Effects {
		if e.Kind == kind {
			total += e.Value
		}
	}
	return total
}
