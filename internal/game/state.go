package game

import "fmt"

const (
	DefaultMaxHealth       = 70
	DefaultMaxActionPoints = 3
	DefaultHandSize        = 5
	DefaultMaxHandSize     = 10
	DefaultMaxTurns        = 200
)

// Build holds per-build player parameters.
type Build struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	MaxHealth        int    `json:"max_health,omitempty" yaml:"max_health,omitempty"`
	MaxActionPoints  int    `json:"max_action_points,omitempty" yaml:"max_action_points,omitempty"`
	OpeningHandBonus int    `json:"opening_hand_bonus,omitempty" yaml:"opening_hand_bonus,omitempty"`
	RetainDefense    int    `json:"retain_defense,omitempty" yaml:"retain_defense,omitempty"` // defense kept across the turn boundary
}

// Stats are monotonic run-spanning counters.
type Stats struct {
	CardsPlayed     int `json:"cards_played"`
	DamageDealt     int `json:"damage_dealt"`
	DamageTaken     int `json:"damage_taken"`
	DefenseGained   int `json:"defense_gained"`
	CardsExhausted  int `json:"cards_exhausted"`
	TurnsTaken      int `json:"turns_taken"`
	EnemiesDefeated int `json:"enemies_defeated"`
	CombatsWon      int `json:"combats_won"`
	CombatsLost     int `json:"combats_lost"`
}

// --- Player ---

// Player is the run-persistent side of a combat. Deck is the master deck;
// combat piles hold the same instances while a combat is running.
type Player struct {
	Actor
	Credits   int
	Artifacts []*Artifact // acquisition order
	Deck      []*CardInstance
	Build     Build
	Stats     Stats

	nextID int
}

// NewPlayer creates a player for the given build with one instance per card.
func NewPlayer(name string, build Build, deck []*Card) *Player {
	hp := build.MaxHealth
	if hp <= 0 {
		hp = DefaultMaxHealth
	}
	ap := build.MaxActionPoints
	if ap <= 0 {
		ap = DefaultMaxActionPoints
	}
	p := &Player{
		Actor: NewActor(name, hp, ap),
		Build: build,
	}
	for _, c := range deck {
		p.AddCard(c)
	}
	return p
}

// AddCard appends a new instance of the card to the master deck.
func (p *Player) AddCard(c *Card) *CardInstance {
	p.nextID++
	ci := &CardInstance{
		Card: c,
		ID:   fmt.Sprintf("%s#%d", c.ID, p.nextID),
	}
	p.Deck = append(p.Deck, ci)
	return ci
}

// RemoveCard removes an instance from the master deck by instance ID.
func (p *Player) RemoveCard(id string) bool {
	for i, ci := range p.Deck {
		if ci.ID == id {
			p.Deck = append(p.Deck[:i], p.Deck[i+1:]...)
			return true
		}
	}
	return false
}

// Upgrade upgrades a master-deck instance by ID.
func (p *Player) Upgrade(id string, rng RNG) bool {
	for _, ci := range p.Deck {
		if ci.ID == id {
			return UpgradeInstance(ci, rng)
		}
	}
	return false
}

// AddArtifact appends an artifact. Order of acquisition is evaluation order.
func (p *Player) AddArtifact(a *Artifact) {
	p.Artifacts = append(p.Artifacts, a)
}

// RemoveArtifact removes the first artifact with the given ID.
func (p *Player) RemoveArtifact(id string) bool {
	for i, a := range p.Artifacts {
		if a.ID == id {
			p.Artifacts = append(p.Artifacts[:i], p.Artifacts[i+1:]...)
			return true
		}
	}
	return false
}

// HasArtifact reports whether the player owns an artifact with the given ID.
func (p *Player) HasArtifact(id string) bool {
	for _, a := range p.Artifacts {
		if a.ID == id {
			return true
		}
	}
	return false
}

// --- Enemy ---

// AbilityType names an enemy special ability.
type AbilityType string

const (
	AbilityMultiAttack AbilityType = "multi_attack"
	AbilityLifeDrain   AbilityType = "life_drain"
	AbilityEncrypt     AbilityType = "encrypt"
	AbilityLock        AbilityType = "lock"
	AbilityPoison      AbilityType = "poison"
	AbilityBurn        AbilityType = "burn"
	AbilityFortify     AbilityType = "fortify"
	AbilityRepair      AbilityType = "repair"
)

// Ability is one declared enemy special ability. Zero fields fall back to
// defaults derived from the enemy's base damage.
type Ability struct {
	Type  AbilityType `json:"type" yaml:"type"`
	Name  string      `json:"name,omitempty" yaml:"name,omitempty"`
	Value int         `json:"value,omitempty" yaml:"value,omitempty"`
	Hits  int         `json:"hits,omitempty" yaml:"hits,omitempty"`
	Turns int         `json:"turns,omitempty" yaml:"turns,omitempty"`
}

func (a Ability) String() string {
	if a.Name != "" {
		return a.Name
	}
	return string(a.Type)
}

// Intent is an enemy's next action, concrete and player-visible. Execution
// reads these fields, so what is shown is what happens.
type Intent struct {
	Type        IntentType `json:"type"`
	Damage      int        `json:"damage,omitempty"` // per hit
	Hits        int        `json:"hits,omitempty"`
	Defense     int        `json:"defense,omitempty"`
	Heal        int        `json:"heal,omitempty"`
	Status      StatusKey  `json:"status,omitempty"`
	Duration    int        `json:"duration,omitempty"` // status stacks or lock turns
	Count       int        `json:"count,omitempty"`    // cards to encrypt
	Ability     *Ability   `json:"ability,omitempty"`
	Description string     `json:"description"`
}

func (in Intent) String() string {
	return in.Description
}

type Enemy struct {
	Actor
	ID            string
	Damage        int // base damage
	AttackPattern []IntentType
	PatternIndex  int
	Abilities     []Ability
	Intent        Intent
}

// NewEnemy creates an enemy at full health with its pattern cursor at 0.
func NewEnemy(id, name string, health, damage int, pattern []IntentType, abilities []Ability) *Enemy {
	return &Enemy{
		Actor:         NewActor(name, health, 0),
		ID:            id,
		Damage:        damage,
		AttackPattern: append([]IntentType(nil), pattern...),
		Abilities:     append([]Ability(nil), abilities...),
	}
}

// --- Session ---

// Deferred is an effect queued for the start of the next player turn.
type Deferred struct {
	Source string
	Effect Effect
}

// Session is the ephemeral per-combat state.
type Session struct {
	Turn       int
	PlayerTurn bool

	// Per-turn counters, reset at every player-turn start.
	CardsPlayed   int
	AttacksPlayed int
	SkillsPlayed  int
	DamageDealt   int

	Deferred []Deferred
}

// resetTurn clears the per-turn counters.
func (s *Session) resetTurn() {
	s.CardsPlayed = 0
	s.AttacksPlayed = 0
	s.SkillsPlayed = 0
	s.DamageDealt = 0
}

// Defer queues an effect for the next player turn.
func (s *Session) Defer(source string, e Effect) {
	s.Deferred = append(s.Deferred, Deferred{Source: source, Effect: e})
}

// takeDeferred drains the deferred queue in FIFO order.
func (s *Session) takeDeferred() []Deferred {
	d := s.Deferred
	s.Deferred = nil
	return d
}
