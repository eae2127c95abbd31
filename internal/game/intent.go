package game

import (
	"fmt"

	"github.com/peterkuimelis/netrun/internal/log"
)

const (
	DefendFactor          = 0.8
	DebuffVulnerableTurns = 2

	defaultMultiHits    = 3
	defaultEncryptCount = 2
	defaultLockTurns    = 1
	defaultPoison       = 3
	defaultBurn         = 2
	defaultFortify      = 2
)

// PlanIntent reads the token at the enemy's pattern cursor, turns it into a
// concrete intent and advances the cursor. The result is also stored on the
// enemy as its displayed intent.
func PlanIntent(e *Enemy, rng RNG) Intent {
	token := IntentAttack
	if n := len(e.AttackPattern); n > 0 {
		idx := e.PatternIndex % n
		if idx < 0 {
			idx += n
		}
		token = e.AttackPattern[idx]
		e.PatternIndex = (idx + 1) % n
	}

	var in Intent
	switch token {
	case IntentDefend:
		in = Intent{Type: IntentDefend, Defense: int(float64(e.Damage) * DefendFactor)}
		in.Description = fmt.Sprintf("Defend for %d", in.Defense)
	case IntentDebuff:
		in = Intent{Type: IntentDebuff, Status: StatusVulnerable, Duration: DebuffVulnerableTurns}
		in.Description = fmt.Sprintf("Apply %d %s", in.Duration, in.Status)
	case IntentSpecial:
		if len(e.Abilities) == 0 {
			in = attackIntent(e)
			break
		}
		a := e.Abilities[rng.Intn(len(e.Abilities))]
		in = abilityIntent(e, a)
	default:
		in = attackIntent(e)
	}

	e.Intent = in
	return in
}

func attackIntent(e *Enemy) Intent {
	return Intent{
		Type:        IntentAttack,
		Damage:      e.Damage,
		Hits:        1,
		Description: fmt.Sprintf("Attack for %d", e.Damage),
	}
}

// abilityIntent resolves an ability's parameters, falling back to defaults
// derived from the enemy's base damage.
func abilityIntent(e *Enemy, a Ability) Intent {
	in := Intent{Type: IntentSpecial, Ability: &a}
	or := func(v, def int) int {
		if v > 0 {
			return v
		}
		return def
	}

	switch a.Type {
	case AbilityMultiAttack:
		half := e.Damage / 2
		if half < 1 {
			half = 1
		}
		in.Damage = or(a.Value, half)
		in.Hits = or(a.Hits, defaultMultiHits)
		in.Description = fmt.Sprintf("%s: attack %dx%d", a, in.Damage, in.Hits)
	case AbilityLifeDrain:
		in.Damage = or(a.Value, e.Damage)
		in.Hits = 1
		in.Description = fmt.Sprintf("%s: drain %d", a, in.Damage)
	case AbilityEncrypt:
		in.Count = or(a.Value, defaultEncryptCount)
		in.Description = fmt.Sprintf("%s: encrypt %d card(s)", a, in.Count)
	case AbilityLock:
		in.Duration = or(a.Turns, defaultLockTurns)
		in.Description = fmt.Sprintf("%s: lock a card for %d turn(s)", a, in.Duration)
	case AbilityPoison:
		in.Status = StatusPoisoned
		in.Duration = or(a.Value, defaultPoison)
		in.Description = fmt.Sprintf("%s: apply %d %s", a, in.Duration, in.Status)
	case AbilityBurn:
		in.Status = StatusBurning
		in.Duration = or(a.Value, defaultBurn)
		in.Description = fmt.Sprintf("%s: apply %d %s", a, in.Duration, in.Status)
	case AbilityFortify:
		in.Status = StatusStrength
		in.Duration = or(a.Value, defaultFortify)
		in.Description = fmt.Sprintf("%s: gain %d strength", a, in.Duration)
	case AbilityRepair:
		in.Heal = or(a.Value, e.Damage)
		in.Description = fmt.Sprintf("%s: repair %d", a, in.Heal)
	default:
		in.Description = fmt.Sprintf("%s: ???", a)
	}
	return in
}

// planIntent computes and announces the enemy's next intent.
func (c *Combat) planIntent(e *Enemy) {
	in := PlanIntent(e, c.rng)
	c.rec.emit(log.NewIntentEvent(c.rec.t(), c.rec.p(), e.Name, in.Description))
}

// executeIntent carries out the enemy's displayed intent.
func (c *Combat) executeIntent(e *Enemy) {
	in := e.Intent
	p := c.Player
	c.rec.emit(log.NewEnemyActionEvent(c.rec.t(), c.rec.p(), e.Name, in.Description))

	switch in.Type {
	case IntentAttack:
		c.enemyHits(e, in.Damage, in.Hits)
	case IntentDefend:
		gained := e.GainDefense(e.DefenseGain(in.Defense))
		c.rec.emit(log.NewDefenseEvent(c.rec.t(), c.rec.p(), e.Name, gained, e.Defense))
	case IntentDebuff:
		total := p.AddStatus(in.Status, in.Duration)
		c.rec.emit(log.NewStatusAppliedEvent(c.rec.t(), c.rec.p(), e.Name, p.Name, string(in.Status), in.Duration, total))
	case IntentSpecial:
		c.executeAbility(e, in)
	}
}

func (c *Combat) executeAbility(e *Enemy, in Intent) {
	p := c.Player
	if in.Ability == nil {
		c.enemyHits(e, in.Damage, in.Hits)
		return
	}

	switch in.Ability.Type {
	case AbilityMultiAttack:
		c.enemyHits(e, in.Damage, in.Hits)
	case AbilityLifeDrain:
		dealt := c.enemyHits(e, in.Damage, 1)
		healed := e.Heal(dealt)
		c.rec.emit(log.NewHealEvent(c.rec.t(), c.rec.p(), e.Name, healed, e.Health))
	case AbilityEncrypt:
		var names []string
		for _, ci := range c.Zones.Encrypt(in.Count) {
			names = append(names, ci.Card.String())
		}
		c.rec.emit(log.NewEncryptEvent(c.rec.t(), c.rec.p(), e.Name, names))
	case AbilityLock:
		if ci := c.lockRandomCard(in.Duration); ci != nil {
			c.rec.emit(log.NewLockEvent(c.rec.t(), c.rec.p(), e.Name, ci.Card.String(), in.Duration))
		}
	case AbilityPoison, AbilityBurn:
		total := p.AddStatus(in.Status, in.Duration)
		c.rec.emit(log.NewStatusAppliedEvent(c.rec.t(), c.rec.p(), e.Name, p.Name, string(in.Status), in.Duration, total))
	case AbilityFortify:
		total := e.AddStatus(StatusStrength, in.Duration)
		c.rec.emit(log.NewStatusAppliedEvent(c.rec.t(), c.rec.p(), e.Name, e.Name, string(StatusStrength), in.Duration, total))
	case AbilityRepair:
		healed := e.Heal(in.Heal)
		c.rec.emit(log.NewHealEvent(c.rec.t(), c.rec.p(), e.Name, healed, e.Health))
	default:
		c.warn(fmt.Sprintf("%s: unknown ability %q", e.Name, in.Ability.Type))
	}
}

// enemyHits attacks the player hits times, stopping once the player is
// defeated. Returns the total health removed.
func (c *Combat) enemyHits(e *Enemy, damage, hits int) int {
	p := c.Player
	if hits < 1 {
		hits = 1
	}
	total := 0
	for i := 0; i < hits; i++ {
		if p.IsDefeated() {
			break
		}
		res := p.TakeDamage(e.OutgoingDamage(damage))
		p.Stats.DamageTaken += res.Dealt
		total += res.Dealt
		c.rec.emit(log.NewDamageEvent(c.rec.t(), c.rec.p(), e.Name, p.Name, res.Incoming, res.Blocked, res.Dealt))
	}
	return total
}

// lockRandomCard locks a random unlocked card from the draw pile, or from
// the discard pile when the draw pile has none.
func (c *Combat) lockRandomCard(turns int) *CardInstance {
	for _, pile := range [][]*CardInstance{c.Zones.DrawPile, c.Zones.DiscardPile} {
		var candidates []*CardInstance
		for _, ci := range pile {
			if ci.LockedTurns == 0 && !ci.Temporary {
				candidates = append(candidates, ci)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		pick := candidates[c.rng.Intn(len(candidates))]
		return c.Zones.Lock(pick.ID, turns)
	}
	return nil
}
