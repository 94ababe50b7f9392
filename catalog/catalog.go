package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"card-battle-server/sessionerrors"
)

// Catalog resolves card identifiers to immutable metadata. It is built once
// at startup and never mutated afterwards, so lookups are safe from any
// goroutine.
type Catalog struct {
	cards map[string]*Card
}

// New builds a catalog from the given cards. Duplicate or invalid entries
// are rejected.
func New(cards []Card) (*Catalog, error) {
	m := make(map[string]*Card, len(cards))
	for i := range cards {
		c := cards[i]
		if c.ID == "" {
			return nil, fmt.Errorf("card at index %d has empty id", i)
		}
		if _, dup := m[c.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", c.ID)
		}
		switch c.Type {
		case TypeAttack, TypeDefense, TypeCombo, TypeSpecial:
		default:
			return nil, fmt.Errorf("card %q has unknown type %q", c.ID, c.Type)
		}
		if c.Power < 0 {
			return nil, fmt.Errorf("card %q has negative power", c.ID)
		}
		m[c.ID] = &c
	}
	return &Catalog{cards: m}, nil
}

// LoadFile builds a catalog from a JSON file holding an array of cards.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return New(cards)
}

// Lookup returns the card for id, or a NotFound error.
func (c *Catalog) Lookup(id string) (*Card, error) {
	card, ok := c.cards[id]
	if !ok {
		return nil, sessionerrors.NotFound("unknown card: %s", id)
	}
	return card, nil
}

// Size returns the number of cards in the catalog.
func (c *Catalog) Size() int {
	return len(c.cards)
}

// Default returns the built-in card set used when no cards file is
// configured.
func Default() *Catalog {
	cat, err := New(builtinCards)
	if err != nil {
		// builtinCards is a compile-time constant set; a failure here is a
		// programming error.
		panic(err)
	}
	return cat
}

var builtinCards = []Card{
	{ID: "atk-jab", Name: "Jab", Type: TypeAttack, Power: 2},
	{ID: "atk-strike", Name: "Strike", Type: TypeAttack, Power: 3},
	{ID: "atk-slash", Name: "Slash", Type: TypeAttack, Power: 4},
	{ID: "atk-smash", Name: "Smash", Type: TypeAttack, Power: 5},
	{ID: "atk-rampage", Name: "Rampage", Type: TypeAttack, Power: 6},
	{ID: "def-parry", Name: "Parry", Type: TypeDefense, Power: 1},
	{ID: "def-shield", Name: "Shield Wall", Type: TypeDefense, Power: 2},
	{ID: "def-counter", Name: "Counter Stance", Type: TypeDefense, Power: 3},
	{ID: "cmb-onetwo", Name: "One-Two", Type: TypeCombo, Power: 2,
		Effects: []Effect{{Kind: EffectComboBonus, Value: 1}}},
	{ID: "cmb-flurry", Name: "Flurry", Type: TypeCombo, Power: 3,
		Effects: []Effect{{Kind: EffectComboBonus, Value: 2}}},
	{ID: "cmb-chain", Name: "Chain Step", Type: TypeCombo, Power: 1,
		Effects: []Effect{{Kind: EffectComboBonus, Value: 1}, {Kind: EffectChain}}},
	{ID: "cmb-relay", Name: "Relay Rush", Type: TypeCombo, Power: 2,
		Effects: []Effect{{Kind: EffectChain}}},
	{ID: "spc-disrupt", Name: "Disrupt", Type: TypeSpecial, Power: 0,
		Effects: []Effect{{Kind: EffectCancelCombo}}},
	{ID: "spc-bolt", Name: "Bolt", Type: TypeSpecial, Power: 0,
		Effects: []Effect{{Kind: EffectFlatDamage, Value: 3}}},
	{ID: "spc-havoc", Name: "Havoc", Type: TypeSpecial, Power: 0,
		Effects: []Effect{{Kind: EffectCancelCombo}, {Kind: EffectFlatDamage, Value: 2}}},
}
