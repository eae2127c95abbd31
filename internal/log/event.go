package log

// EventType enumerates all observable combat events.
type EventType int

const (
	EventCombatStart EventType = iota
	EventNewTurn
	EventPhaseChange
	EventDraw
	EventShuffle
	EventPlayCard
	EventDiscard
	EventExhaust
	EventTemporaryCard
	EventCleanup
	EventDamage
	EventHPChange
	EventDefense
	EventHeal
	EventEnergy
	EventStatusApplied
	EventStatusTick
	EventStatusExpired
	EventLock
	EventEncrypt
	EventUnlock
	EventUpgrade
	EventIntent
	EventEnemyAction
	EventEnemySkipped
	EventEnemyDefeated
	EventArtifactTrigger
	EventDeferred
	EventSpecial
	EventInvalidAction
	EventWarning
	EventVictory
	EventDefeat
	EventReward
)

func (e EventType) String() string {
	switch e {
	case EventCombatStart:
		return "CombatStart"
	case EventNewTurn:
		return "NewTurn"
	case EventPhaseChange:
		return "PhaseChange"
	case EventDraw:
		return "Draw"
	case EventShuffle:
		return "Shuffle"
	case EventPlayCard:
		return "PlayCard"
	case EventDiscard:
		return "Discard"
	case EventExhaust:
		return "Exhaust"
	case EventTemporaryCard:
		return "TemporaryCard"
	case EventCleanup:
		return "Cleanup"
	case EventDamage:
		return "Damage"
	case EventHPChange:
		return "HPChange"
	case EventDefense:
		return "Defense"
	case EventHeal:
		return "Heal"
	case EventEnergy:
		return "Energy"
	case EventStatusApplied:
		return "StatusApplied"
	case EventStatusTick:
		return "StatusTick"
	case EventStatusExpired:
		return "StatusExpired"
	case EventLock:
		return "Lock"
	case EventEncrypt:
		return "Encrypt"
	case EventUnlock:
		return "Unlock"
	case EventUpgrade:
		return "Upgrade"
	case EventIntent:
		return "Intent"
	case EventEnemyAction:
		return "EnemyAction"
	case EventEnemySkipped:
		return "EnemySkipped"
	case EventEnemyDefeated:
		return "EnemyDefeated"
	case EventArtifactTrigger:
		return "ArtifactTrigger"
	case EventDeferred:
		return "Deferred"
	case EventSpecial:
		return "Special"
	case EventInvalidAction:
		return "InvalidAction"
	case EventWarning:
		return "Warning"
	case EventVictory:
		return "Victory"
	case EventDefeat:
		return "Defeat"
	case EventReward:
		return "Reward"
	default:
		return "Unknown"
	}
}

// GameEvent represents a single observable event in a combat.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Turn    int       // which turn (1-based, 0 before the first turn)
	Phase   string    // state machine phase (e.g. "Player Turn")
	Actor   string    // acting actor name ("" for system events)
	Target  string    // affected actor name, if any
	Type    EventType // event type
	Card    string    // card name (if applicable)
	Amount  int       // primary numeric payload (damage, defense, stacks...)
	Details string    // human-readable detail string
}
