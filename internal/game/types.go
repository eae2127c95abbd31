package game

import "fmt"

// --- Enums ---

// Phase is a state of the combat state machine.
type Phase int

const (
	PhaseStart Phase = iota
	PhasePlayerTurn
	PhaseEnemyTurn
	PhaseVictory
	PhaseDefeat
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "Start"
	case PhasePlayerTurn:
		return "Player Turn"
	case PhaseEnemyTurn:
		return "Enemy Turn"
	case PhaseVictory:
		return "Victory"
	case PhaseDefeat:
		return "Defeat"
	default:
		return "None"
	}
}

// Terminal reports whether the phase ends the combat.
func (p Phase) Terminal() bool {
	return p == PhaseVictory || p == PhaseDefeat
}

// CardType classifies a card. Attack and skill plays are counted per turn.
type CardType string

const (
	CardAttack  CardType = "attack"
	CardDefense CardType = "defense"
	CardSkill   CardType = "skill"
	CardPower   CardType = "power"
)

// Rarity is flavor plus reward weighting for catalogs; the engine never reads it.
type Rarity string

const (
	RarityBasic    Rarity = "basic"
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
)

// EffectType selects the resolver handler for an Effect.
type EffectType string

const (
	EffectDamage  EffectType = "damage"
	EffectDefense EffectType = "defense"
	EffectHeal    EffectType = "heal"
	EffectDraw    EffectType = "draw"
	EffectEnergy  EffectType = "energy"
	EffectBuff    EffectType = "buff"
	EffectDebuff  EffectType = "debuff"
	EffectSpecial EffectType = "special"
)

// IntentType is one token of an enemy attack pattern.
type IntentType string

const (
	IntentAttack  IntentType = "attack"
	IntentDefend  IntentType = "defend"
	IntentDebuff  IntentType = "debuff"
	IntentSpecial IntentType = "special"
)

// --- Action types ---

type ActionType int

const (
	ActionPlayCard ActionType = iota
	ActionEndTurn
)

func (a ActionType) String() string {
	switch a {
	case ActionPlayCard:
		return "Play Card"
	case ActionEndTurn:
		return "End Turn"
	default:
		return "Unknown"
	}
}

// Action is a legal player input during the player turn.
type Action struct {
	Type        ActionType
	HandIndex   int // index into the hand (ActionPlayCard)
	TargetIndex int // index into the enemy list, -1 when the card needs no target
	Card        *CardInstance
	Desc        string // human-readable description
}

func (a Action) String() string {
	if a.Desc != "" {
		return a.Desc
	}
	return a.Type.String()
}

// Result is the terminal outcome of a combat.
type Result int

const (
	ResultNone Result = iota
	ResultVictory
	ResultDefeat
)

func (r Result) String() string {
	switch r {
	case ResultVictory:
		return "victory"
	case ResultDefeat:
		return "defeat"
	default:
		return "none"
	}
}

func describeTarget(name string, index int) string {
	return fmt.Sprintf("%s (#%d)", name, index+1)
}
