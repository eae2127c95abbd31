package game

import (
	"fmt"

	"github.com/peterkuimelis/netrun/internal/log"
)

// SpecialID is the data-side name of a special effect.
type SpecialID string

const (
	SpecialIgnoreDefense SpecialID = "ignore_defense"
	SpecialBruteForce    SpecialID = "brute_force"
	SpecialDDoSAttack    SpecialID = "ddos_attack"
	SpecialDataSiphon    SpecialID = "data_siphon"
	SpecialExploit       SpecialID = "exploit"
	SpecialBackdoor      SpecialID = "backdoor"
	SpecialRecursion     SpecialID = "recursion"
)

const (
	DefaultBruteForceHits   = 3
	DefaultBruteForceChance = 0.5
)

// Special is the closed set of special effects. Only types in this package
// can implement it, and decodeSpecial is the single place an id maps to a
// variant.
type Special interface {
	ID() SpecialID
	resolve(r *Resolver, ci *CardInstance, target *Enemy)
}

// IgnoreDefense deals damage that skips the defense step.
type IgnoreDefense struct{ Damage int }

// BruteForce rolls MaxHits independent hits at HitChance each.
type BruteForce struct {
	Damage    int
	MaxHits   int
	HitChance float64
}

// DDoSAttack multiplies its damage by the attacks played this turn, itself included.
type DDoSAttack struct{ Damage int }

// DataSiphon deals damage and heals the player by the health removed.
type DataSiphon struct{ Damage int }

// Exploit deals double damage to a vulnerable target.
type Exploit struct{ Damage int }

// Backdoor grants defense at the start of the next player turn.
type Backdoor struct{ Defense int }

// Recursion puts a temporary copy of the played card into the hand.
type Recursion struct{}

func (IgnoreDefense) ID() SpecialID { return SpecialIgnoreDefense }
func (BruteForce) ID() SpecialID    { return SpecialBruteForce }
func (DDoSAttack) ID() SpecialID    { return SpecialDDoSAttack }
func (DataSiphon) ID() SpecialID    { return SpecialDataSiphon }
func (Exploit) ID() SpecialID       { return SpecialExploit }
func (Backdoor) ID() SpecialID      { return SpecialBackdoor }
func (Recursion) ID() SpecialID     { return SpecialRecursion }

// decodeSpecial maps a special effect descriptor to its variant.
func decodeSpecial(e Effect) (Special, bool) {
	switch e.Special {
	case SpecialIgnoreDefense:
		return IgnoreDefense{Damage: e.Value}, true
	case SpecialBruteForce:
		s := BruteForce{Damage: e.Value, MaxHits: e.Hits, HitChance: e.Chance}
		if s.MaxHits <= 0 {
			s.MaxHits = DefaultBruteForceHits
		}
		if s.HitChance <= 0 {
			s.HitChance = DefaultBruteForceChance
		}
		return s, true
	case SpecialDDoSAttack:
		return DDoSAttack{Damage: e.Value}, true
	case SpecialDataSiphon:
		return DataSiphon{Damage: e.Value}, true
	case SpecialExploit:
		return Exploit{Damage: e.Value}, true
	case SpecialBackdoor:
		return Backdoor{Defense: e.Value}, true
	case SpecialRecursion:
		return Recursion{}, true
	}
	return nil, false
}

// specialTargetsEnemy reports whether the special needs an enemy target.
func specialTargetsEnemy(id SpecialID) bool {
	switch id {
	case SpecialIgnoreDefense, SpecialBruteForce, SpecialDDoSAttack, SpecialDataSiphon, SpecialExploit:
		return true
	}
	return false
}

func (s IgnoreDefense) resolve(r *Resolver, ci *CardInstance, target *Enemy) {
	if !alive(target) {
		return
	}
	r.dealDamage(ci, target, s.Damage, true)
}

func (s BruteForce) resolve(r *Resolver, ci *CardInstance, target *Enemy) {
	hits := 0
	for i := 0; i < s.MaxHits; i++ {
		if !alive(target) {
			break
		}
		if r.rng.Float64() < s.HitChance {
			r.dealDamage(ci, target, s.Damage, false)
			hits++
		}
	}
	r.rec.emit(log.NewSpecialEvent(r.rec.t(), r.rec.p(), r.player.Name, ci.Card.String(),
		fmt.Sprintf("%s lands %d of %d hits", ci.Card, hits, s.MaxHits)))
}

func (s DDoSAttack) resolve(r *Resolver, ci *CardInstance, target *Enemy) {
	if !alive(target) {
		return
	}
	n := r.session.AttacksPlayed
	if n < 1 {
		n = 1
	}
	r.dealDamage(ci, target, s.Damage*n, false)
}

func (s DataSiphon) resolve(r *Resolver, ci *CardInstance, target *Enemy) {
	if !alive(target) {
		return
	}
	res := r.dealDamage(ci, target, s.Damage, false)
	healed := r.player.Heal(res.Dealt)
	r.rec.emit(log.NewHealEvent(r.rec.t(), r.rec.p(), r.player.Name, healed, r.player.Health))
}

func (s Exploit) resolve(r *Resolver, ci *CardInstance, target *Enemy) {
	if !alive(target) {
		return
	}
	dmg := s.Damage
	if target.Status(StatusVulnerable) > 0 {
		dmg *= 2
	}
	r.dealDamage(ci, target, dmg, false)
}

func (s Backdoor) resolve(r *Resolver, ci *CardInstance, target *Enemy) {
	r.session.Defer(ci.Card.String(), Effect{Type: EffectDefense, Value: s.Defense})
	r.rec.emit(log.NewDeferredEvent(r.rec.t(), r.rec.p(), r.player.Name,
		fmt.Sprintf("%s queues %d defense for next turn", ci.Card, s.Defense)))
}

func (s Recursion) resolve(r *Resolver, ci *CardInstance, target *Enemy) {
	tmp := r.zones.AddTemporary(ci.Card)
	r.rec.emit(log.NewTemporaryCardEvent(r.rec.t(), r.rec.p(), r.player.Name, tmp.Card.String()))
}

func alive(e *Enemy) bool {
	return e != nil && !e.IsDefeated()
}
