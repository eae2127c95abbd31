package game

import "sort"

// StatusKey names a status. Keys fall into two families: duration counters,
// which decay by one on every status pass, and persistent modifiers
// (strength, dexterity), which only reset at combat boundaries.
type StatusKey string

const (
	StatusVulnerable StatusKey = "vulnerable"
	StatusWeak       StatusKey = "weak"
	StatusPoisoned   StatusKey = "poisoned"
	StatusBurning    StatusKey = "burning"
	StatusStunned    StatusKey = "stunned"
	StatusFrozen     StatusKey = "frozen"
	StatusStrength   StatusKey = "strength"
	StatusDexterity  StatusKey = "dexterity"
)

const (
	VulnerableFactor = 1.5
	WeakFactor       = 0.75
	BurnDamage       = 3
)

// statusOrder fixes the order of the per-turn pass so damage and expiry
// events come out the same way every run.
var statusOrder = []StatusKey{
	StatusPoisoned,
	StatusBurning,
	StatusVulnerable,
	StatusWeak,
	StatusStunned,
	StatusFrozen,
	StatusStrength,
	StatusDexterity,
}

// Persistent reports whether the key is a persistent modifier.
func (k StatusKey) Persistent() bool {
	return k == StatusStrength || k == StatusDexterity
}

// StatusTick describes what one status pass did to an actor.
type StatusTick struct {
	PoisonDamage int
	BurnDamage   int
	Expired      []StatusKey
	HealthBefore int
	HealthAfter  int
	Died         bool
}

// TickStatuses runs the per-turn status pass on an actor. Poison deals
// ceil(stacks/2) and burning deals BurnDamage as direct health loss, each
// computed before its counter decrements. Every other duration counter
// decrements by one. The pass stops as soon as the actor's health hits 0.
func TickStatuses(a *Actor) StatusTick {
	tick := StatusTick{HealthBefore: a.Health}

	for _, key := range orderedStatusKeys(a.Statuses) {
		if key.Persistent() {
			continue
		}
		amount := a.Statuses[key]
		if amount <= 0 {
			continue
		}

		switch key {
		case StatusPoisoned:
			dmg := (amount + 1) / 2
			tick.PoisonDamage = a.LoseHealth(dmg)
		case StatusBurning:
			tick.BurnDamage = a.LoseHealth(BurnDamage)
		}

		a.Statuses[key] = amount - 1
		if a.Statuses[key] == 0 {
			delete(a.Statuses, key)
			tick.Expired = append(tick.Expired, key)
		}

		if a.IsDefeated() {
			tick.Died = true
			break
		}
	}

	tick.HealthAfter = a.Health
	return tick
}

// orderedStatusKeys returns the keys of m in statusOrder, followed by any
// unknown keys sorted by name.
func orderedStatusKeys(m map[StatusKey]int) []StatusKey {
	keys := make([]StatusKey, 0, len(m))
	known := make(map[StatusKey]bool, len(statusOrder))
	for _, k := range statusOrder {
		known[k] = true
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []StatusKey
	for k := range m {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}
