package game

import (
	"encoding/json"
	"fmt"
)

// Persisted forms. Cards travel as full definition snapshots so upgrades
// survive a round trip without a catalog lookup.

type instanceData struct {
	ID             string `json:"id"`
	Card           *Card  `json:"card"`
	Temporary      bool   `json:"temporary,omitempty"`
	LockedTurns    int    `json:"locked_turns,omitempty"`
	EncryptedTurns int    `json:"encrypted_turns,omitempty"`
}

type playerData struct {
	Actor     Actor          `json:"actor"`
	Credits   int            `json:"credits"`
	Artifacts []*Artifact    `json:"artifacts,omitempty"`
	Deck      []instanceData `json:"deck"`
	Build     Build          `json:"build"`
	Stats     Stats          `json:"stats"`
	NextID    int            `json:"next_id"`
}

type enemyData struct {
	Actor         Actor        `json:"actor"`
	ID            string       `json:"id"`
	Damage        int          `json:"damage"`
	AttackPattern []IntentType `json:"attack_pattern,omitempty"`
	PatternIndex  int          `json:"pattern_index"`
	Abilities     []Ability    `json:"abilities,omitempty"`
	Intent        Intent       `json:"intent"`
}

type zonesData struct {
	Draw        []instanceData `json:"draw"`
	Hand        []instanceData `json:"hand"`
	Discard     []instanceData `json:"discard"`
	Exhaust     []instanceData `json:"exhaust"`
	MaxHandSize int            `json:"max_hand_size"`
	NextTemp    int            `json:"next_temp"`
}

// --- Card ---

func (c *Card) Serialize() ([]byte, error) {
	return json.Marshal(c)
}

func DeserializeCard(data []byte) (*Card, error) {
	var c Card
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode card: %w", err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("decode card: missing id")
	}
	return &c, nil
}

// --- Actor ---

func (a *Actor) Serialize() ([]byte, error) {
	return json.Marshal(a)
}

func DeserializeActor(data []byte) (*Actor, error) {
	var a Actor
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode actor: %w", err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("decode actor: %w", err)
	}
	return &a, nil
}

func (a *Actor) validate() error {
	if a.Statuses == nil {
		a.Statuses = make(map[StatusKey]int)
	}
	if a.Health < 0 || a.Health > a.MaxHealth {
		return fmt.Errorf("%s: health %d outside [0, %d]", a.Name, a.Health, a.MaxHealth)
	}
	if a.Defense < 0 {
		return fmt.Errorf("%s: negative defense %d", a.Name, a.Defense)
	}
	if a.ActionPoints < 0 || a.ActionPoints > a.MaxActionPoints {
		return fmt.Errorf("%s: action points %d outside [0, %d]", a.Name, a.ActionPoints, a.MaxActionPoints)
	}
	return nil
}

// --- Player ---

func (p *Player) Serialize() ([]byte, error) {
	return json.Marshal(playerData{
		Actor:     p.Actor,
		Credits:   p.Credits,
		Artifacts: p.Artifacts,
		Deck:      encodeInstances(p.Deck),
		Build:     p.Build,
		Stats:     p.Stats,
		NextID:    p.nextID,
	})
}

func DeserializePlayer(data []byte) (*Player, error) {
	var d playerData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	if err := d.Actor.validate(); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	deck, err := decodeInstances(d.Deck)
	if err != nil {
		return nil, fmt.Errorf("decode player deck: %w", err)
	}
	return &Player{
		Actor:     d.Actor,
		Credits:   d.Credits,
		Artifacts: d.Artifacts,
		Deck:      deck,
		Build:     d.Build,
		Stats:     d.Stats,
		nextID:    d.NextID,
	}, nil
}

// --- Enemy ---

func (e *Enemy) Serialize() ([]byte, error) {
	return json.Marshal(enemyData{
		Actor:         e.Actor,
		ID:            e.ID,
		Damage:        e.Damage,
		AttackPattern: e.AttackPattern,
		PatternIndex:  e.PatternIndex,
		Abilities:     e.Abilities,
		Intent:        e.Intent,
	})
}

func DeserializeEnemy(data []byte) (*Enemy, error) {
	var d enemyData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode enemy: %w", err)
	}
	if err := d.Actor.validate(); err != nil {
		return nil, fmt.Errorf("decode enemy: %w", err)
	}
	return &Enemy{
		Actor:         d.Actor,
		ID:            d.ID,
		Damage:        d.Damage,
		AttackPattern: d.AttackPattern,
		PatternIndex:  d.PatternIndex,
		Abilities:     d.Abilities,
		Intent:        d.Intent,
	}, nil
}

// --- Zones ---

func (z *Zones) Serialize() ([]byte, error) {
	return json.Marshal(zonesData{
		Draw:        encodeInstances(z.DrawPile),
		Hand:        encodeInstances(z.Hand),
		Discard:     encodeInstances(z.DiscardPile),
		Exhaust:     encodeInstances(z.ExhaustPile),
		MaxHandSize: z.MaxHandSize,
		NextTemp:    z.nextTemp,
	})
}

// DeserializeZones restores piles. The RNG is not persisted; rng drives
// shuffles and encryption from here on.
func DeserializeZones(data []byte, rng RNG) (*Zones, error) {
	var d zonesData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}
	z := NewZones(rng, d.MaxHandSize)
	z.nextTemp = d.NextTemp
	var err error
	if z.DrawPile, err = decodeInstances(d.Draw); err != nil {
		return nil, fmt.Errorf("decode draw pile: %w", err)
	}
	if z.Hand, err = decodeInstances(d.Hand); err != nil {
		return nil, fmt.Errorf("decode hand: %w", err)
	}
	if z.DiscardPile, err = decodeInstances(d.Discard); err != nil {
		return nil, fmt.Errorf("decode discard pile: %w", err)
	}
	if z.ExhaustPile, err = decodeInstances(d.Exhaust); err != nil {
		return nil, fmt.Errorf("decode exhaust pile: %w", err)
	}
	return z, nil
}

func encodeInstances(cards []*CardInstance) []instanceData {
	out := make([]instanceData, 0, len(cards))
	for _, ci := range cards {
		out = append(out, instanceData{
			ID:             ci.ID,
			Card:           ci.Card,
			Temporary:      ci.Temporary,
			LockedTurns:    ci.LockedTurns,
			EncryptedTurns: ci.EncryptedTurns,
		})
	}
	return out
}

func decodeInstances(in []instanceData) ([]*CardInstance, error) {
	var out []*CardInstance
	for _, d := range in {
		if d.Card == nil {
			return nil, fmt.Errorf("instance %q has no card", d.ID)
		}
		out = append(out, &CardInstance{
			Card:           d.Card,
			ID:             d.ID,
			Temporary:      d.Temporary,
			LockedTurns:    d.LockedTurns,
			EncryptedTurns: d.EncryptedTurns,
		})
	}
	return out, nil
}
