package log

import (
	"fmt"
	"io"
	"strings"
)

// EventLogger is the interface for logging combat events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []GameEvent {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	phase := e.Phase
	if phase == "" {
		phase = "          "
	}
	// Pad phase to 12 chars for alignment
	for len(phase) < 12 {
		phase += " "
	}

	return fmt.Sprintf("T%-2d %s| %s", e.Turn, phase, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewCombatStartEvent(player string, enemies []string) GameEvent {
	return GameEvent{
		Phase:   "Start",
		Actor:   player,
		Type:    EventCombatStart,
		Details: fmt.Sprintf("=== %s engages %s ===", player, strings.Join(enemies, ", ")),
	}
}

func NewTurnEvent(turn int, phase string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Type:    EventNewTurn,
		Details: fmt.Sprintf("=== Turn %d ===", turn),
	}
}

func NewPhaseChangeEvent(turn int, phase string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Type:    EventPhaseChange,
		Details: fmt.Sprintf("Phase → %s", phase),
	}
}

func NewDrawEvent(turn int, phase string, actor, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventDraw,
		Card:    cardName,
		Details: fmt.Sprintf("%s draws %s", actor, cardName),
	}
}

func NewShuffleEvent(turn int, phase string, actor string, count int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventShuffle,
		Amount:  count,
		Details: fmt.Sprintf("%s shuffles %d cards from the discard pile into the draw pile", actor, count),
	}
}

func NewPlayCardEvent(turn int, phase string, actor, cardName, target string, cost int) GameEvent {
	details := fmt.Sprintf("%s plays %s (cost %d)", actor, cardName, cost)
	if target != "" {
		details = fmt.Sprintf("%s plays %s on %s (cost %d)", actor, cardName, target, cost)
	}
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Target:  target,
		Type:    EventPlayCard,
		Card:    cardName,
		Amount:  cost,
		Details: details,
	}
}

func NewDiscardEvent(turn int, phase string, actor, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventDiscard,
		Card:    cardName,
		Details: fmt.Sprintf("%s discards %s", actor, cardName),
	}
}

func NewExhaustEvent(turn int, phase string, actor, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventExhaust,
		Card:    cardName,
		Details: fmt.Sprintf("%s exhausts %s", actor, cardName),
	}
}

func NewTemporaryCardEvent(turn int, phase string, actor, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventTemporaryCard,
		Card:    cardName,
		Details: fmt.Sprintf("%s gains a temporary copy of %s", actor, cardName),
	}
}

func NewCleanupEvent(turn int, phase string, count int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Type:    EventCleanup,
		Amount:  count,
		Details: fmt.Sprintf("%d temporary card(s) purged", count),
	}
}

func NewDamageEvent(turn int, phase string, actor, target string, incoming, blocked, dealt int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Target:  target,
		Type:    EventDamage,
		Amount:  dealt,
		Details: fmt.Sprintf("%s hits %s for %d (%d incoming, %d blocked)", actor, target, dealt, incoming, blocked),
	}
}

func NewHPChangeEvent(turn int, phase string, target string, oldHP, newHP int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Target:  target,
		Type:    EventHPChange,
		Amount:  newHP - oldHP,
		Details: fmt.Sprintf("%s HP: %d → %d (%s)", target, oldHP, newHP, reason),
	}
}

func NewDefenseEvent(turn int, phase string, actor string, gained, total int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventDefense,
		Amount:  gained,
		Details: fmt.Sprintf("%s gains %d defense (now %d)", actor, gained, total),
	}
}

func NewHealEvent(turn int, phase string, actor string, healed, hp int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventHeal,
		Amount:  healed,
		Details: fmt.Sprintf("%s restores %d HP (now %d)", actor, healed, hp),
	}
}

func NewEnergyEvent(turn int, phase string, actor string, gained, ap int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventEnergy,
		Amount:  gained,
		Details: fmt.Sprintf("%s gains %d action point(s) (now %d)", actor, gained, ap),
	}
}

func NewStatusAppliedEvent(turn int, phase string, actor, target, status string, amount, total int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Target:  target,
		Type:    EventStatusApplied,
		Amount:  amount,
		Details: fmt.Sprintf("%s applies %s %d to %s (now %d)", actor, status, amount, target, total),
	}
}

func NewStatusTickEvent(turn int, phase string, target, status string, damage int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Target:  target,
		Type:    EventStatusTick,
		Amount:  damage,
		Details: fmt.Sprintf("%s takes %d %s damage", target, damage, status),
	}
}

func NewStatusExpiredEvent(turn int, phase string, target, status string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Target:  target,
		Type:    EventStatusExpired,
		Details: fmt.Sprintf("%s is no longer %s", target, status),
	}
}

func NewLockEvent(turn int, phase string, actor, cardName string, turns int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventLock,
		Card:    cardName,
		Amount:  turns,
		Details: fmt.Sprintf("%s locks %s for %d turn(s)", actor, cardName, turns),
	}
}

func NewEncryptEvent(turn int, phase string, actor string, cards []string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventEncrypt,
		Amount:  len(cards),
		Details: fmt.Sprintf("%s encrypts %d card(s) in the draw pile: %s", actor, len(cards), strings.Join(cards, ", ")),
	}
}

func NewUnlockEvent(turn int, phase string, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Type:    EventUnlock,
		Card:    cardName,
		Details: fmt.Sprintf("%s is usable again", cardName),
	}
}

func NewUpgradeEvent(turn int, phase string, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Type:    EventUpgrade,
		Card:    cardName,
		Details: fmt.Sprintf("%s is upgraded", cardName),
	}
}

func NewIntentEvent(turn int, phase string, actor, intent string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventIntent,
		Details: fmt.Sprintf("%s intends: %s", actor, intent),
	}
}

func NewEnemyActionEvent(turn int, phase string, actor, action string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventEnemyAction,
		Details: fmt.Sprintf("%s: %s", actor, action),
	}
}

func NewEnemySkippedEvent(turn int, phase string, actor, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventEnemySkipped,
		Details: fmt.Sprintf("%s skips its action (%s)", actor, reason),
	}
}

func NewEnemyDefeatedEvent(turn int, phase string, actor string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventEnemyDefeated,
		Details: fmt.Sprintf("%s is defeated", actor),
	}
}

func NewArtifactTriggerEvent(turn int, phase string, artifact, details string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Type:    EventArtifactTrigger,
		Card:    artifact,
		Details: fmt.Sprintf("[%s] %s", artifact, details),
	}
}

func NewDeferredEvent(turn int, phase string, actor, details string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventDeferred,
		Details: details,
	}
}

func NewSpecialEvent(turn int, phase string, actor, cardName, details string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventSpecial,
		Card:    cardName,
		Details: details,
	}
}

func NewInvalidActionEvent(turn int, phase string, actor, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventInvalidAction,
		Details: fmt.Sprintf("%s: invalid action (%s)", actor, reason),
	}
}

func NewWarningEvent(turn int, phase string, card, details string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Type:    EventWarning,
		Card:    card,
		Details: fmt.Sprintf("warning: %s", details),
	}
}

func NewVictoryEvent(turn int, phase string, actor string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventVictory,
		Details: fmt.Sprintf("%s wins! All enemies defeated", actor),
	}
}

func NewDefeatEvent(turn int, phase string, actor string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventDefeat,
		Details: fmt.Sprintf("%s is defeated, HP reached 0", actor),
	}
}

func NewRewardEvent(turn int, phase string, actor, details string, credits int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Actor:   actor,
		Type:    EventReward,
		Amount:  credits,
		Details: details,
	}
}
