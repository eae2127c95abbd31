package game

import (
	"fmt"

	"github.com/peterkuimelis/netrun/internal/log"
	"go.uber.org/zap"
)

// Resolver interprets card effect lists against the player and a target.
type Resolver struct {
	player  *Player
	zones   *Zones
	session *Session
	bus     *TriggerBus
	rng     RNG
	rec     *recorder
	diag    *zap.Logger
}

// Validate checks that ci can be played against target right now. It never mutates.
func (r *Resolver) Validate(ci *CardInstance, target *Enemy) error {
	if ci == nil || r.zones.HandIndex(ci) < 0 {
		return ErrCardNotInHand
	}
	if !ci.Playable() {
		return ErrCardLocked
	}
	if ci.Card.NeedsTarget() && !alive(target) {
		return ErrInvalidTarget
	}
	if r.player.ActionPoints < ci.Card.Cost {
		return ErrInsufficientAP
	}
	return nil
}

// Play spends the card's cost and applies its effects in order. Invalid
// plays return an error and leave every piece of state untouched.
func (r *Resolver) Play(ci *CardInstance, target *Enemy) error {
	if err := r.Validate(ci, target); err != nil {
		return err
	}
	p := r.player
	card := ci.Card
	if !card.NeedsTarget() {
		target = nil
	}

	p.SpendAP(card.Cost)
	targetName := ""
	if target != nil {
		targetName = target.Name
	}
	r.rec.emit(log.NewPlayCardEvent(r.rec.t(), r.rec.p(), p.Name, card.String(), targetName, card.Cost))

	r.session.CardsPlayed++
	switch card.Type {
	case CardAttack:
		r.session.AttacksPlayed++
	case CardSkill:
		r.session.SkillsPlayed++
	}
	p.Stats.CardsPlayed++

	for _, e := range card.Effects {
		r.applyEffect(ci, e, target)
	}

	// The card stays in hand while it resolves so draw effects see the real hand size.
	idx := r.zones.HandIndex(ci)
	if card.ExhaustsOnPlay() {
		if r.zones.Exhaust(idx) != nil {
			p.Stats.CardsExhausted++
			r.rec.emit(log.NewExhaustEvent(r.rec.t(), r.rec.p(), p.Name, card.String()))
			r.bus.Fire(TriggerExhaust)
		}
	} else if r.zones.Discard(idx) != nil {
		r.rec.emit(log.NewDiscardEvent(r.rec.t(), r.rec.p(), p.Name, card.String()))
	}

	if r.session.CardsPlayed == 1 {
		r.bus.Fire(TriggerFirstCardPlayed)
	}
	r.bus.FireCardCount(r.session.CardsPlayed)
	return nil
}

func (r *Resolver) applyEffect(ci *CardInstance, e Effect, target *Enemy) {
	p := r.player
	switch e.Type {
	case EffectDamage:
		if alive(target) {
			r.dealDamage(ci, target, e.Value, false)
		}
	case EffectDefense:
		r.gainDefense(e.Value + ci.Card.ModifierTotal(AffectsDefense))
	case EffectHeal:
		healed := p.Heal(e.Value)
		r.rec.emit(log.NewHealEvent(r.rec.t(), r.rec.p(), p.Name, healed, p.Health))
	case EffectDraw:
		r.draw(e.Value)
	case EffectEnergy:
		gained := p.GainAP(e.Value)
		r.rec.emit(log.NewEnergyEvent(r.rec.t(), r.rec.p(), p.Name, gained, p.ActionPoints))
	case EffectBuff:
		if e.Status == "" {
			r.warn(ci, "buff without a status key")
			return
		}
		total := p.AddStatus(e.Status, e.stacks())
		r.rec.emit(log.NewStatusAppliedEvent(r.rec.t(), r.rec.p(), p.Name, p.Name, string(e.Status), e.stacks(), total))
	case EffectDebuff:
		if e.Status == "" {
			r.warn(ci, "debuff without a status key")
			return
		}
		if !alive(target) {
			return
		}
		total := target.AddStatus(e.Status, e.stacks())
		r.rec.emit(log.NewStatusAppliedEvent(r.rec.t(), r.rec.p(), p.Name, target.Name, string(e.Status), e.stacks(), total))
	case EffectSpecial:
		sp, ok := decodeSpecial(e)
		if !ok {
			r.warn(ci, fmt.Sprintf("unknown special %q", e.Special))
			return
		}
		sp.resolve(r, ci, target)
	default:
		r.warn(ci, fmt.Sprintf("unknown effect type %q", e.Type))
	}
}

// stacks is the amount a buff or debuff adds. Duration wins over Value.
func (e Effect) stacks() int {
	if e.Duration > 0 {
		return e.Duration
	}
	return e.Value
}

// dealDamage runs one damage instance from the player: card modifiers and
// strength, weak, in-flight artifact bonuses, then the target's pipeline.
func (r *Resolver) dealDamage(ci *CardInstance, target *Enemy, base int, ignoreDefense bool) DamageResult {
	p := r.player
	amount := p.OutgoingDamage(base + ci.Card.ModifierTotal(AffectsDamage))
	amount = r.bus.Modify(TriggerDamageDealt, amount)

	var res DamageResult
	if ignoreDefense {
		res = target.TakeDamageIgnoringDefense(amount)
	} else {
		res = target.TakeDamage(amount)
	}
	r.session.DamageDealt += res.Dealt
	p.Stats.DamageDealt += res.Dealt
	r.rec.emit(log.NewDamageEvent(r.rec.t(), r.rec.p(), p.Name, target.Name, res.Incoming, res.Blocked, res.Dealt))

	if res.Dealt > 0 {
		r.bus.Fire(TriggerDamageDealt)
	}
	if res.HealthBefore > 0 && target.IsDefeated() {
		p.Stats.EnemiesDefeated++
		r.rec.emit(log.NewEnemyDefeatedEvent(r.rec.t(), r.rec.p(), target.Name))
	}
	return res
}

// gainDefense grants the player defense: dexterity first, then in-flight
// artifact bonuses.
func (r *Resolver) gainDefense(base int) int {
	p := r.player
	amount := p.DefenseGain(base)
	amount = r.bus.Modify(TriggerDefenseGain, amount)
	gained := p.GainDefense(amount)
	p.Stats.DefenseGained += gained
	r.rec.emit(log.NewDefenseEvent(r.rec.t(), r.rec.p(), p.Name, gained, p.Defense))
	if gained > 0 {
		r.bus.Fire(TriggerDefenseGain)
	}
	return gained
}

func (r *Resolver) draw(n int) int {
	drawn := 0
	for i := 0; i < n; i++ {
		ci := r.zones.Draw()
		if ci == nil {
			break
		}
		drawn++
		r.rec.emit(log.NewDrawEvent(r.rec.t(), r.rec.p(), r.player.Name, ci.Card.String()))
	}
	return drawn
}

// applyDeferred resolves an effect queued by an earlier turn.
func (r *Resolver) applyDeferred(d Deferred) {
	p := r.player
	r.rec.emit(log.NewDeferredEvent(r.rec.t(), r.rec.p(), p.Name,
		fmt.Sprintf("%s resolves (%s %d)", d.Source, d.Effect.Type, d.Effect.Value)))
	switch d.Effect.Type {
	case EffectDefense:
		r.gainDefense(d.Effect.Value)
	case EffectDraw:
		r.draw(d.Effect.Value)
	case EffectEnergy:
		gained := p.GainAP(d.Effect.Value)
		r.rec.emit(log.NewEnergyEvent(r.rec.t(), r.rec.p(), p.Name, gained, p.ActionPoints))
	case EffectHeal:
		healed := p.Heal(d.Effect.Value)
		r.rec.emit(log.NewHealEvent(r.rec.t(), r.rec.p(), p.Name, healed, p.Health))
	default:
		r.diag.Warn("unsupported deferred effect", zap.String("source", d.Source), zap.String("type", string(d.Effect.Type)))
	}
}

// warn reports a non-fatal resolution problem. The effect is skipped.
func (r *Resolver) warn(ci *CardInstance, msg string) {
	r.diag.Warn(msg, zap.String("card", ci.Card.ID), zap.String("instance", ci.ID))
	r.rec.emit(log.NewWarningEvent(r.rec.t(), r.rec.p(), ci.Card.String(), fmt.Sprintf("%s: %s", ci.Card, msg)))
}
