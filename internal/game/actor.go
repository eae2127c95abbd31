package game

// Actor is the combat-facing state shared by the player and enemies.
// Health stays within [0, MaxHealth], Defense never goes negative and
// ActionPoints stay within [0, MaxActionPoints].
type Actor struct {
	Name            string            `json:"name"`
	Health          int               `json:"health"`
	MaxHealth       int               `json:"max_health"`
	Defense         int               `json:"defense"`
	ActionPoints    int               `json:"action_points"`
	MaxActionPoints int               `json:"max_action_points"`
	Statuses        map[StatusKey]int `json:"statuses,omitempty"`
}

// NewActor creates an actor at full health.
func NewActor(name string, maxHealth, maxAP int) Actor {
	return Actor{
		Name:            name,
		Health:          maxHealth,
		MaxHealth:       maxHealth,
		MaxActionPoints: maxAP,
		Statuses:        make(map[StatusKey]int),
	}
}

// DamageResult records how one damage instance went through the pipeline.
type DamageResult struct {
	Base          int // amount before the vulnerable multiplier
	Incoming      int // amount after the vulnerable multiplier
	Blocked       int // portion absorbed by defense
	Dealt         int // health actually lost
	DefenseBefore int
	DefenseAfter  int
	HealthBefore  int
	HealthAfter   int
}

// IsDefeated reports whether the actor's health reached 0.
func (a *Actor) IsDefeated() bool {
	return a.Health <= 0
}

// Status returns the amount of the given status (0 when inactive).
func (a *Actor) Status(key StatusKey) int {
	if a.Statuses == nil {
		return 0
	}
	return a.Statuses[key]
}

// AddStatus stacks amount onto key. Stacking is additive. Returns the new total.
func (a *Actor) AddStatus(key StatusKey, amount int) int {
	if a.Statuses == nil {
		a.Statuses = make(map[StatusKey]int)
	}
	total := a.Statuses[key] + amount
	if total <= 0 {
		delete(a.Statuses, key)
		return 0
	}
	a.Statuses[key] = total
	return total
}

// ClearStatuses removes every status, duration counters and persistent
// modifiers alike. Used at combat boundaries.
func (a *Actor) ClearStatuses() {
	a.Statuses = make(map[StatusKey]int)
}

// OutgoingDamage applies the attacker's strength and weak to a base amount.
func (a *Actor) OutgoingDamage(base int) int {
	amount := base + a.Status(StatusStrength)
	if a.Status(StatusWeak) > 0 {
		amount = int(float64(amount) * WeakFactor)
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// incoming applies the vulnerable multiplier.
func (a *Actor) incoming(amount int) int {
	if amount < 0 {
		amount = 0
	}
	if a.Status(StatusVulnerable) > 0 {
		amount = int(float64(amount) * VulnerableFactor)
	}
	return amount
}

// TakeDamage runs the damage pipeline: vulnerable multiplies the amount by
// 1.5 (floored), defense absorbs what it can and is spent by the full
// multiplied amount, and the remainder comes off health.
func (a *Actor) TakeDamage(amount int) DamageResult {
	res := DamageResult{
		Base:          amount,
		DefenseBefore: a.Defense,
		HealthBefore:  a.Health,
	}
	res.Incoming = a.incoming(amount)

	dealt := res.Incoming - a.Defense
	if dealt < 0 {
		dealt = 0
	}
	a.Defense -= res.Incoming
	if a.Defense < 0 {
		a.Defense = 0
	}
	res.Blocked = res.Incoming - dealt
	res.Dealt = a.LoseHealth(dealt)

	res.DefenseAfter = a.Defense
	res.HealthAfter = a.Health
	return res
}

// TakeDamageIgnoringDefense runs the pipeline without the defense step.
func (a *Actor) TakeDamageIgnoringDefense(amount int) DamageResult {
	res := DamageResult{
		Base:          amount,
		DefenseBefore: a.Defense,
		DefenseAfter:  a.Defense,
		HealthBefore:  a.Health,
	}
	res.Incoming = a.incoming(amount)
	res.Dealt = a.LoseHealth(res.Incoming)
	res.HealthAfter = a.Health
	return res
}

// LoseHealth removes health directly, bypassing defense. Returns the health
// actually lost.
func (a *Actor) LoseHealth(amount int) int {
	if amount <= 0 || a.Health <= 0 {
		return 0
	}
	if amount > a.Health {
		amount = a.Health
	}
	a.Health -= amount
	return amount
}

// Heal restores up to amount health without exceeding MaxHealth. Returns the
// health actually restored.
func (a *Actor) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	if room := a.MaxHealth - a.Health; amount > room {
		amount = room
	}
	if amount < 0 {
		amount = 0
	}
	a.Health += amount
	return amount
}

// DefenseGain applies dexterity to a base defense amount.
func (a *Actor) DefenseGain(base int) int {
	amount := base + a.Status(StatusDexterity)
	if amount < 0 {
		amount = 0
	}
	return amount
}

// GainDefense adds defense. Frozen actors gain nothing. Returns the amount added.
func (a *Actor) GainDefense(amount int) int {
	if amount <= 0 || a.Status(StatusFrozen) > 0 {
		return 0
	}
	a.Defense += amount
	return amount
}

// SpendAP spends n action points. It fails without mutating when the actor
// cannot afford it.
func (a *Actor) SpendAP(n int) bool {
	if n < 0 || a.ActionPoints < n {
		return false
	}
	a.ActionPoints -= n
	return true
}

// GainAP adds action points, capped at MaxActionPoints. Returns the amount added.
func (a *Actor) GainAP(n int) int {
	if n <= 0 {
		return 0
	}
	if room := a.MaxActionPoints - a.ActionPoints; n > room {
		n = room
	}
	if n < 0 {
		n = 0
	}
	a.ActionPoints += n
	return n
}

// ResetAP refills action points for a new turn.
func (a *Actor) ResetAP() {
	a.ActionPoints = a.MaxActionPoints
}
