package game

import "fmt"

// Upgrade scaling.
const (
	UpgradeDamageFactor   = 1.5
	UpgradeHealFactor     = 1.3
	UpgradeDiscountChance = 0.3
)

// --- Card definition (static, from catalogs) ---

// Effect is one step of a card's resolution. Effects are data; the Resolver
// interprets them in list order.
type Effect struct {
	Type     EffectType `json:"type" yaml:"type"`
	Value    int        `json:"value,omitempty" yaml:"value,omitempty"`
	Status   StatusKey  `json:"status,omitempty" yaml:"status,omitempty"`     // buff/debuff key
	Duration int        `json:"duration,omitempty" yaml:"duration,omitempty"` // buff/debuff stacks
	Special  SpecialID  `json:"special,omitempty" yaml:"special,omitempty"`
	Hits     int        `json:"hits,omitempty" yaml:"hits,omitempty"`     // brute_force max hits
	Chance   float64    `json:"chance,omitempty" yaml:"chance,omitempty"` // brute_force hit chance
}

// Modifier adds a flat amount to outgoing values of the kind named by Affects.
type Modifier struct {
	Affects string `json:"affects" yaml:"affects"` // "damage" or "defense"
	Value   int    `json:"value" yaml:"value"`
}

const (
	AffectsDamage  = "damage"
	AffectsDefense = "defense"
)

type Card struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Cost        int        `json:"cost" yaml:"cost"`
	Type        CardType   `json:"type" yaml:"type"`
	Team        string     `json:"team,omitempty" yaml:"team,omitempty"`
	Rarity      Rarity     `json:"rarity,omitempty" yaml:"rarity,omitempty"`
	Effects     []Effect   `json:"effects,omitempty" yaml:"effects,omitempty"`
	Modifiers   []Modifier `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Upgraded    bool       `json:"upgraded,omitempty" yaml:"upgraded,omitempty"`
	Exhaust     bool       `json:"exhaust,omitempty" yaml:"exhaust,omitempty"`
}

func (c *Card) String() string {
	if c.Upgraded {
		return c.Name + "+"
	}
	return c.Name
}

// Clone returns a deep copy of the definition.
func (c *Card) Clone() *Card {
	cp := *c
	cp.Effects = append([]Effect(nil), c.Effects...)
	cp.Modifiers = append([]Modifier(nil), c.Modifiers...)
	return &cp
}

// ExhaustsOnPlay reports whether the card leaves circulation after being played.
func (c *Card) ExhaustsOnPlay() bool {
	return c.Exhaust || c.Type == CardPower
}

// NeedsTarget reports whether playing the card requires an enemy target.
func (c *Card) NeedsTarget() bool {
	for _, e := range c.Effects {
		switch e.Type {
		case EffectDamage, EffectDebuff:
			return true
		case EffectSpecial:
			if specialTargetsEnemy(e.Special) {
				return true
			}
		}
	}
	return false
}

// ModifierTotal sums the card's modifiers that affect the given value kind.
func (c *Card) ModifierTotal(affects string) int {
	total := 0
	for _, m := range c.Modifiers {
		if m.Affects == affects {
			total += m.Value
		}
	}
	return total
}

// upgradedCopy returns the upgraded definition. The discount roll decides the
// cost reduction. Returns nil when the card is already upgraded.
func (c *Card) upgradedCopy(discount bool) *Card {
	if c.Upgraded {
		return nil
	}
	up := c.Clone()
	up.Upgraded = true
	for i := range up.Effects {
		e := &up.Effects[i]
		switch e.Type {
		case EffectDamage, EffectDefense:
			e.Value = int(float64(e.Value) * UpgradeDamageFactor)
		case EffectHeal:
			e.Value = int(float64(e.Value) * UpgradeHealFactor)
		case EffectDraw:
			e.Value++
		case EffectBuff, EffectDebuff:
			e.Duration++
		case EffectSpecial:
			if specialTargetsEnemy(e.Special) || e.Special == SpecialBackdoor {
				e.Value = int(float64(e.Value) * UpgradeDamageFactor)
			}
		}
	}
	if discount && up.Cost > 1 {
		up.Cost--
	}
	return up
}

// --- CardInstance (runtime card in a pile) ---

type CardInstance struct {
	Card *Card
	ID   string // unique instance ID ("<card id>#<n>", temporaries "<card id>#tmp<n>")

	Temporary      bool
	LockedTurns    int
	EncryptedTurns int
}

func (ci *CardInstance) String() string {
	if ci == nil {
		return "(empty)"
	}
	return ci.Card.String()
}

// DisplayString returns a human-readable description for hand listings.
func (ci *CardInstance) DisplayString() string {
	if ci == nil {
		return "(empty)"
	}
	s := fmt.Sprintf("%s [%d]", ci.Card, ci.Card.Cost)
	if ci.EncryptedTurns > 0 {
		s += fmt.Sprintf(" (encrypted %d)", ci.EncryptedTurns)
	}
	if ci.LockedTurns > 0 {
		s += fmt.Sprintf(" (locked %d)", ci.LockedTurns)
	}
	if ci.Temporary {
		s += " (temp)"
	}
	return s
}

// Playable reports whether the instance can be selected for play.
func (ci *CardInstance) Playable() bool {
	return ci.LockedTurns <= 0 && ci.EncryptedTurns <= 0
}
