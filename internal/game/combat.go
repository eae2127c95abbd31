package game

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/netrun/internal/log"
	"go.uber.org/zap"
)

// Controller is the presentation side of a combat. It picks actions and the
// reward, and receives every event as it happens.
type Controller interface {
	// ChooseAction presents the legal actions and waits for the player to pick one.
	ChooseAction(ctx context.Context, snap Snapshot, actions []Action) (Action, error)

	// ChooseReward asks for one of the reward cards after a victory. -1 skips.
	ChooseReward(ctx context.Context, snap Snapshot, rewards []*Card) (int, error)

	// Notify sends a combat event (no response needed).
	Notify(ctx context.Context, event log.GameEvent) error
}

// Rewards are handed out on victory.
type Rewards struct {
	Credits int
	Cards   []*Card // pick one
}

// Rules are the table-level numbers of a combat.
type Rules struct {
	HandSize    int // cards drawn each turn
	MaxHandSize int
	MaxTurns    int // Run safety limit
}

func (r Rules) withDefaults() Rules {
	if r.HandSize <= 0 {
		r.HandSize = DefaultHandSize
	}
	if r.MaxHandSize <= 0 {
		r.MaxHandSize = DefaultMaxHandSize
	}
	if r.MaxTurns <= 0 {
		r.MaxTurns = DefaultMaxTurns
	}
	return r
}

// CombatConfig holds everything a combat needs. Nothing is looked up globally.
type CombatConfig struct {
	Player    *Player
	Enemies   []*Enemy
	Rewards   Rewards
	Rules     Rules
	Logger    log.EventLogger
	Seed      int64 // RNG seed (0 for random), ignored when RNG is set
	RNG       RNG
	NoShuffle bool // skip the opening shuffle (deterministic tests)
	Diag      *zap.Logger
}

// Outcome is what a finished combat hands back to the encounter supplier.
type Outcome struct {
	Result  Result
	Turns   int
	Credits int // credits gained, rewards and artifacts included
	Rewards []*Card
	Chosen  *Card // reward card added to the deck, nil if skipped
}

// Combat is the turn state machine for one encounter.
type Combat struct {
	Player  *Player
	Enemies []*Enemy
	Zones   *Zones
	Session *Session // nil before Start and after the combat ends
	Phase   Phase
	Logger  log.EventLogger

	rules     Rules
	rewards   Rewards
	noShuffle bool
	rng       RNG
	rec       *recorder
	resolver  *Resolver
	bus       *TriggerBus
	diag      *zap.Logger

	started     bool
	rewardTaken bool
	outcome     Outcome
}

// NewCombat wires a combat from the config.
func NewCombat(cfg CombatConfig) (*Combat, error) {
	if cfg.Player == nil {
		return nil, fmt.Errorf("combat needs a player")
	}
	if len(cfg.Enemies) == 0 {
		return nil, fmt.Errorf("combat needs at least one enemy")
	}
	rng := cfg.RNG
	if rng == nil {
		rng = NewRNG(cfg.Seed)
	}
	diag := cfg.Diag
	if diag == nil {
		diag = zap.NewNop()
	}
	rules := cfg.Rules.withDefaults()
	rec := newRecorder(cfg.Logger)

	c := &Combat{
		Player:    cfg.Player,
		Enemies:   cfg.Enemies,
		Zones:     NewZones(rng, rules.MaxHandSize),
		Phase:     PhaseStart,
		Logger:    rec.logger,
		rules:     rules,
		rewards:   cfg.Rewards,
		noShuffle: cfg.NoShuffle,
		rng:       rng,
		rec:       rec,
		diag:      diag,
	}
	c.bus = newTriggerBus(c.Player, c.Zones, rec, diag)
	c.resolver = &Resolver{
		player: c.Player,
		zones:  c.Zones,
		bus:    c.bus,
		rng:    rng,
		rec:    rec,
		diag:   diag,
	}
	c.Zones.OnReshuffle = func(n int) {
		c.rec.emit(log.NewShuffleEvent(c.rec.t(), c.rec.p(), c.Player.Name, n))
	}
	return c, nil
}

// Start initializes the session, draws the opening hand, plans every
// enemy's first intent and opens the first player turn.
func (c *Combat) Start() []log.GameEvent {
	if c.started {
		return nil
	}
	c.started = true
	c.rec.begin()

	p := c.Player
	names := make([]string, len(c.Enemies))
	for i, e := range c.Enemies {
		names[i] = e.Name
		if e.Statuses == nil {
			e.Statuses = make(map[StatusKey]int)
		}
	}
	c.rec.emit(log.NewCombatStartEvent(p.Name, names))
	c.diag.Debug("combat start", zap.String("player", p.Name), zap.Strings("enemies", names))

	c.Session = &Session{}
	c.resolver.session = c.Session
	p.ClearStatuses()
	p.Defense = 0
	c.Zones.BeginCombat(p.Deck, c.noShuffle)
	c.bus.BeginCombat()

	for _, e := range c.Enemies {
		c.planIntent(e)
	}
	c.beginPlayerTurn(c.rules.HandSize + p.Build.OpeningHandBonus)
	return c.rec.end()
}

// PlayCard plays the hand card at handIndex against the enemy at
// targetIndex. A card that needs a target may pass -1 when exactly one enemy
// is alive.
func (c *Combat) PlayCard(handIndex, targetIndex int) ([]log.GameEvent, error) {
	c.rec.begin()
	if err := c.playerTurnOnly(); err != nil {
		return c.reject(err)
	}
	if handIndex < 0 || handIndex >= len(c.Zones.Hand) {
		return c.reject(fmt.Errorf("hand index %d: %w", handIndex, ErrCardNotInHand))
	}
	ci := c.Zones.Hand[handIndex]
	target := c.target(ci, targetIndex)

	if err := c.resolver.Play(ci, target); err != nil {
		return c.reject(fmt.Errorf("%s: %w", ci.Card, err))
	}
	c.checkEnd()
	return c.rec.end(), nil
}

// EndTurn discards the hand, ticks card locks, runs the enemy turn and,
// unless the combat ended, opens the next player turn.
func (c *Combat) EndTurn() ([]log.GameEvent, error) {
	c.rec.begin()
	if err := c.playerTurnOnly(); err != nil {
		return c.reject(err)
	}
	p := c.Player

	for _, ci := range c.Zones.DiscardHand() {
		c.rec.emit(log.NewDiscardEvent(c.rec.t(), c.rec.p(), p.Name, ci.Card.String()))
	}
	for _, ci := range c.Zones.TickLocks() {
		c.rec.emit(log.NewUnlockEvent(c.rec.t(), c.rec.p(), ci.Card.String()))
	}

	c.enemyTurn()
	if !c.Phase.Terminal() {
		c.beginPlayerTurn(c.rules.HandSize)
	}
	return c.rec.end(), nil
}

// ChooseReward adds the reward card at index to the master deck. A negative
// index skips the reward. Only valid once, after a victory.
func (c *Combat) ChooseReward(index int) ([]log.GameEvent, error) {
	c.rec.begin()
	if c.Phase != PhaseVictory || c.rewardTaken {
		return c.reject(ErrNoReward)
	}
	if index >= len(c.rewards.Cards) {
		return c.reject(fmt.Errorf("reward %d: %w", index, ErrNoReward))
	}
	c.rewardTaken = true
	if index < 0 {
		c.rec.emit(log.NewRewardEvent(c.rec.t(), c.rec.p(), c.Player.Name, "reward card skipped", 0))
		return c.rec.end(), nil
	}
	card := c.rewards.Cards[index].Clone()
	c.Player.AddCard(card)
	c.outcome.Chosen = card
	c.rec.emit(log.NewRewardEvent(c.rec.t(), c.rec.p(), c.Player.Name,
		fmt.Sprintf("%s adds %s to the deck", c.Player.Name, card), 0))
	return c.rec.end(), nil
}

// Outcome returns the terminal outcome. Result is ResultNone while the
// combat is running.
func (c *Combat) Outcome() Outcome {
	return c.outcome
}

// Run drives the combat with a controller until it ends, then asks for the
// reward. Invalid inputs are reported through Notify and the loop continues.
func (c *Combat) Run(ctx context.Context, ctrl Controller) (Result, error) {
	if err := c.notify(ctx, ctrl, c.Start()); err != nil {
		return ResultNone, err
	}

	for !c.Phase.Terminal() {
		if err := ctx.Err(); err != nil {
			return ResultNone, err
		}
		if c.Session.Turn > c.rules.MaxTurns {
			return ResultNone, fmt.Errorf("%w (%d turns)", ErrTurnLimit, c.rules.MaxTurns)
		}

		action, err := ctrl.ChooseAction(ctx, c.Snapshot(), c.LegalActions())
		if err != nil {
			return ResultNone, fmt.Errorf("choose action: %w", err)
		}

		var events []log.GameEvent
		switch action.Type {
		case ActionEndTurn:
			events, err = c.EndTurn()
		case ActionPlayCard:
			events, err = c.PlayCard(action.HandIndex, action.TargetIndex)
		default:
			err = fmt.Errorf("unknown action %v", action.Type)
		}
		if nerr := c.notify(ctx, ctrl, events); nerr != nil {
			return ResultNone, nerr
		}
		if err != nil && !IsInvalidInput(err) {
			return ResultNone, err
		}
	}

	if c.Phase == PhaseVictory && len(c.rewards.Cards) > 0 {
		idx, err := ctrl.ChooseReward(ctx, c.Snapshot(), c.rewards.Cards)
		if err != nil {
			return c.outcome.Result, fmt.Errorf("choose reward: %w", err)
		}
		events, _ := c.ChooseReward(idx)
		if err := c.notify(ctx, ctrl, events); err != nil {
			return c.outcome.Result, err
		}
	}
	return c.outcome.Result, nil
}

// LegalActions lists every card play the player can afford, one per valid
// target, followed by End Turn. Empty outside the player turn.
func (c *Combat) LegalActions() []Action {
	if c.Phase != PhasePlayerTurn {
		return nil
	}
	p := c.Player
	var actions []Action
	for i, ci := range c.Zones.Hand {
		if !ci.Playable() || ci.Card.Cost > p.ActionPoints {
			continue
		}
		if !ci.Card.NeedsTarget() {
			actions = append(actions, Action{
				Type:        ActionPlayCard,
				HandIndex:   i,
				TargetIndex: -1,
				Card:        ci,
				Desc:        fmt.Sprintf("Play %s [%d]", ci.Card, ci.Card.Cost),
			})
			continue
		}
		for j, e := range c.Enemies {
			if !alive(e) {
				continue
			}
			actions = append(actions, Action{
				Type:        ActionPlayCard,
				HandIndex:   i,
				TargetIndex: j,
				Card:        ci,
				Desc:        fmt.Sprintf("Play %s [%d] at %s", ci.Card, ci.Card.Cost, describeTarget(e.Name, j)),
			})
		}
	}
	actions = append(actions, Action{Type: ActionEndTurn, TargetIndex: -1, Desc: "End turn"})
	return actions
}

// --- Turn flow ---

func (c *Combat) setPhase(ph Phase) {
	c.Phase = ph
	c.rec.phase = ph
	if c.Session != nil {
		c.rec.turn = c.Session.Turn
	}
}

func (c *Combat) beginPlayerTurn(draw int) {
	s := c.Session
	p := c.Player
	s.Turn++
	s.PlayerTurn = true
	s.resetTurn()
	c.setPhase(PhasePlayerTurn)
	c.rec.emit(log.NewTurnEvent(s.Turn, c.rec.p()))
	p.Stats.TurnsTaken++

	if n := c.Zones.CleanupTemporary(); n > 0 {
		c.rec.emit(log.NewCleanupEvent(c.rec.t(), c.rec.p(), n))
	}
	if s.Turn > 1 {
		kept := p.Defense
		if kept > p.Build.RetainDefense {
			kept = p.Build.RetainDefense
		}
		p.Defense = kept
	}

	if c.tickStatuses(&p.Actor) {
		c.finish(ResultDefeat)
		return
	}

	p.ResetAP()
	for _, d := range s.takeDeferred() {
		c.resolver.applyDeferred(d)
	}
	c.resolver.draw(draw)

	if s.Turn == 1 {
		c.bus.Fire(TriggerCombatStart)
	}
	c.bus.Fire(TriggerTurnStart)
}

// enemyTurn runs every living enemy in list order. It stops as soon as the
// combat reaches a terminal state.
func (c *Combat) enemyTurn() {
	c.Session.PlayerTurn = false
	c.setPhase(PhaseEnemyTurn)
	c.rec.emit(log.NewPhaseChangeEvent(c.rec.t(), c.rec.p()))

	for _, e := range c.Enemies {
		if e.IsDefeated() {
			continue
		}
		e.Defense = 0
		stunned := e.Status(StatusStunned) > 0

		if c.tickStatuses(&e.Actor) {
			c.Player.Stats.EnemiesDefeated++
			c.rec.emit(log.NewEnemyDefeatedEvent(c.rec.t(), c.rec.p(), e.Name))
			if c.checkEnd() {
				return
			}
			continue
		}
		if stunned {
			c.rec.emit(log.NewEnemySkippedEvent(c.rec.t(), c.rec.p(), e.Name, "stunned"))
			continue
		}

		c.executeIntent(e)
		if c.checkEnd() {
			return
		}
		c.planIntent(e)
	}
}

// tickStatuses runs the status pass on an actor and reports whether it died.
func (c *Combat) tickStatuses(a *Actor) bool {
	tick := TickStatuses(a)
	if tick.PoisonDamage > 0 {
		c.rec.emit(log.NewStatusTickEvent(c.rec.t(), c.rec.p(), a.Name, string(StatusPoisoned), tick.PoisonDamage))
	}
	if tick.BurnDamage > 0 {
		c.rec.emit(log.NewStatusTickEvent(c.rec.t(), c.rec.p(), a.Name, string(StatusBurning), tick.BurnDamage))
	}
	if tick.HealthAfter != tick.HealthBefore {
		c.rec.emit(log.NewHPChangeEvent(c.rec.t(), c.rec.p(), a.Name, tick.HealthBefore, tick.HealthAfter, "status"))
	}
	for _, k := range tick.Expired {
		c.rec.emit(log.NewStatusExpiredEvent(c.rec.t(), c.rec.p(), a.Name, string(k)))
	}
	return tick.Died
}

// checkEnd moves the combat to a terminal phase when the player or every
// enemy is down. Player defeat is checked first.
func (c *Combat) checkEnd() bool {
	if c.Phase.Terminal() {
		return true
	}
	if c.Player.IsDefeated() {
		c.finish(ResultDefeat)
		return true
	}
	for _, e := range c.Enemies {
		if !e.IsDefeated() {
			return false
		}
	}
	c.finish(ResultVictory)
	return true
}

func (c *Combat) finish(result Result) {
	p := c.Player
	c.outcome.Result = result
	c.outcome.Turns = c.Session.Turn

	switch result {
	case ResultVictory:
		c.setPhase(PhaseVictory)
		c.rec.emit(log.NewVictoryEvent(c.rec.t(), c.rec.p(), p.Name))
		before := p.Credits
		p.Credits += c.rewards.Credits
		p.Stats.CombatsWon++
		c.rec.emit(log.NewRewardEvent(c.rec.t(), c.rec.p(), p.Name,
			fmt.Sprintf("%s receives %d credits", p.Name, c.rewards.Credits), c.rewards.Credits))
		c.bus.Fire(TriggerCombatEnd)
		c.outcome.Credits = p.Credits - before
		c.outcome.Rewards = c.rewards.Cards
	case ResultDefeat:
		c.setPhase(PhaseDefeat)
		c.rec.emit(log.NewDefeatEvent(c.rec.t(), c.rec.p(), p.Name))
		p.Stats.CombatsLost++
	}
	c.diag.Debug("combat over", zap.Stringer("result", result), zap.Int("turns", c.outcome.Turns))

	// Tear down everything scoped to this combat.
	if n := c.Zones.EndCombat(); n > 0 {
		c.rec.emit(log.NewCleanupEvent(c.rec.t(), c.rec.p(), n))
	}
	p.ClearStatuses()
	p.Defense = 0
	c.Session = nil
	c.resolver.session = nil
}

// --- Helpers ---

func (c *Combat) playerTurnOnly() error {
	if c.Phase.Terminal() {
		return ErrCombatOver
	}
	if c.Phase != PhasePlayerTurn {
		return ErrNotPlayerTurn
	}
	return nil
}

// target resolves a target index for the card. Returns nil for an invalid
// index so validation reports ErrInvalidTarget.
func (c *Combat) target(ci *CardInstance, idx int) *Enemy {
	if idx >= 0 && idx < len(c.Enemies) {
		return c.Enemies[idx]
	}
	if idx < 0 && ci.Card.NeedsTarget() {
		var only *Enemy
		for _, e := range c.Enemies {
			if alive(e) {
				if only != nil {
					return nil
				}
				only = e
			}
		}
		return only
	}
	return nil
}

func (c *Combat) reject(err error) ([]log.GameEvent, error) {
	c.rec.emit(log.NewInvalidActionEvent(c.rec.t(), c.rec.p(), c.Player.Name, err.Error()))
	return c.rec.end(), err
}

func (c *Combat) warn(msg string) {
	c.diag.Warn(msg)
	c.rec.emit(log.NewWarningEvent(c.rec.t(), c.rec.p(), "", msg))
}

func (c *Combat) notify(ctx context.Context, ctrl Controller, events []log.GameEvent) error {
	for _, e := range events {
		if err := ctrl.Notify(ctx, e); err != nil {
			return fmt.Errorf("notify: %w", err)
		}
	}
	return nil
}
