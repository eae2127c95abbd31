package game

import (
	"fmt"

	"github.com/peterkuimelis/netrun/internal/log"
	"go.uber.org/zap"
)

// TriggerPoint is a pipeline hook an artifact can react to.
type TriggerPoint string

const (
	TriggerCombatStart     TriggerPoint = "combat_start"
	TriggerTurnStart       TriggerPoint = "turn_start"
	TriggerFirstCardPlayed TriggerPoint = "first_card_played"
	TriggerCardCount       TriggerPoint = "card_count"
	TriggerDamageDealt     TriggerPoint = "damage_dealt"
	TriggerDefenseGain     TriggerPoint = "defense_gain"
	TriggerExhaust         TriggerPoint = "exhaust"
	TriggerCombatEnd       TriggerPoint = "combat_end"
)

// ArtifactEffect is what an artifact does when its trigger fires.
type ArtifactEffect string

const (
	ArtifactDefense      ArtifactEffect = "defense"
	ArtifactDamageBonus  ArtifactEffect = "damage_bonus"  // modifies the in-flight damage amount
	ArtifactDefenseBonus ArtifactEffect = "defense_bonus" // modifies the in-flight defense amount
	ArtifactDraw         ArtifactEffect = "draw"
	ArtifactEnergy       ArtifactEffect = "energy"
	ArtifactHeal         ArtifactEffect = "heal"
	ArtifactStrength     ArtifactEffect = "strength"
	ArtifactCredits      ArtifactEffect = "credits"
)

// DefaultCardCountThreshold is used by card_count artifacts without a threshold.
const DefaultCardCountThreshold = 3

// Artifact is a passive item bound to one trigger point.
type Artifact struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Trigger     TriggerPoint   `json:"trigger" yaml:"trigger"`
	Effect      ArtifactEffect `json:"effect" yaml:"effect"`
	Value       int            `json:"value" yaml:"value"`
	Threshold   int            `json:"threshold,omitempty" yaml:"threshold,omitempty"` // card_count
	Once        bool           `json:"once,omitempty" yaml:"once,omitempty"`           // at most once per combat

	fired bool
}

func (a *Artifact) String() string {
	return a.Name
}

// Clone returns a copy with a fresh per-combat flag.
func (a *Artifact) Clone() *Artifact {
	cp := *a
	cp.fired = false
	return &cp
}

func (a *Artifact) modifies() bool {
	return a.Effect == ArtifactDamageBonus || a.Effect == ArtifactDefenseBonus
}

func (a *Artifact) ready(point TriggerPoint) bool {
	return a.Trigger == point && !(a.Once && a.fired)
}

// TriggerBus holds all artifact behavior. Artifacts are evaluated in
// acquisition order and never cancel each other.
type TriggerBus struct {
	player *Player
	zones  *Zones
	rec    *recorder
	diag   *zap.Logger
}

func newTriggerBus(player *Player, zones *Zones, rec *recorder, diag *zap.Logger) *TriggerBus {
	return &TriggerBus{player: player, zones: zones, rec: rec, diag: diag}
}

// BeginCombat resets every per-combat flag.
func (b *TriggerBus) BeginCombat() {
	for _, a := range b.player.Artifacts {
		a.fired = false
	}
}

// Modify runs value-modifying artifacts bound to point over an in-flight
// amount and returns the modified amount.
func (b *TriggerBus) Modify(point TriggerPoint, amount int) int {
	for _, a := range b.player.Artifacts {
		if !a.ready(point) || !a.modifies() {
			continue
		}
		a.fired = true
		amount += a.Value
		b.rec.emit(log.NewArtifactTriggerEvent(b.rec.t(), b.rec.p(), a.Name,
			fmt.Sprintf("%s adds %+d (%s)", a.Name, a.Value, point)))
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// Fire runs the side-effect artifacts bound to point.
func (b *TriggerBus) Fire(point TriggerPoint) {
	for _, a := range b.player.Artifacts {
		if !a.ready(point) || a.modifies() {
			continue
		}
		b.apply(a, point)
	}
}

// FireCardCount runs card_count artifacts whose threshold divides played.
func (b *TriggerBus) FireCardCount(played int) {
	if played <= 0 {
		return
	}
	for _, a := range b.player.Artifacts {
		if !a.ready(TriggerCardCount) || a.modifies() {
			continue
		}
		threshold := a.Threshold
		if threshold <= 0 {
			threshold = DefaultCardCountThreshold
		}
		if played%threshold != 0 {
			continue
		}
		b.apply(a, TriggerCardCount)
	}
}

func (b *TriggerBus) apply(a *Artifact, point TriggerPoint) {
	a.fired = true
	p := b.player
	var details string

	switch a.Effect {
	case ArtifactDefense:
		gained := p.GainDefense(a.Value)
		p.Stats.DefenseGained += gained
		details = fmt.Sprintf("%s grants %d defense", a.Name, gained)
	case ArtifactDraw:
		drawn := 0
		for i := 0; i < a.Value; i++ {
			ci := b.zones.Draw()
			if ci == nil {
				break
			}
			drawn++
			b.rec.emit(log.NewDrawEvent(b.rec.t(), b.rec.p(), p.Name, ci.Card.String()))
		}
		details = fmt.Sprintf("%s draws %d card(s)", a.Name, drawn)
	case ArtifactEnergy:
		gained := p.GainAP(a.Value)
		details = fmt.Sprintf("%s restores %d action point(s)", a.Name, gained)
	case ArtifactHeal:
		healed := p.Heal(a.Value)
		details = fmt.Sprintf("%s repairs %d health", a.Name, healed)
	case ArtifactStrength:
		total := p.AddStatus(StatusStrength, a.Value)
		details = fmt.Sprintf("%s grants %d strength (now %d)", a.Name, a.Value, total)
	case ArtifactCredits:
		p.Credits += a.Value
		details = fmt.Sprintf("%s yields %d credits", a.Name, a.Value)
	default:
		b.diag.Warn("unknown artifact effect",
			zap.String("artifact", a.ID),
			zap.String("effect", string(a.Effect)))
		b.rec.emit(log.NewWarningEvent(b.rec.t(), b.rec.p(), a.Name,
			fmt.Sprintf("%s has unknown effect %q, ignored", a.Name, a.Effect)))
		return
	}

	b.rec.emit(log.NewArtifactTriggerEvent(b.rec.t(), b.rec.p(), a.Name, details+" ("+string(point)+")"))
}
