package game

import (
	"context"
	"testing"

	"github.com/peterkuimelis/netrun/internal/log"
)

// ScriptedController is a Controller that follows a predefined script of actions.
// Used in tests to deterministically drive a combat.
type ScriptedController struct {
	t       *testing.T
	actions []ScriptedAction
	pos     int

	reward   int
	events   []log.GameEvent
	snapshot Snapshot
}

type ScriptedAction struct {
	Type ActionType
	// Optional: match by card name
	CardName string
	// Target enemy index, -1 for any
	Target int
}

func NewScriptedController(t *testing.T) *ScriptedController {
	return &ScriptedController{t: t, reward: -1}
}

func (sc *ScriptedController) AddPlay(cardName string, target int) *ScriptedController {
	sc.actions = append(sc.actions, ScriptedAction{Type: ActionPlayCard, CardName: cardName, Target: target})
	return sc
}

func (sc *ScriptedController) AddEndTurn() *ScriptedController {
	sc.actions = append(sc.actions, ScriptedAction{Type: ActionEndTurn, Target: -1})
	return sc
}

func (sc *ScriptedController) PickReward(i int) *ScriptedController {
	sc.reward = i
	return sc
}

func (sc *ScriptedController) ChooseAction(ctx context.Context, snap Snapshot, actions []Action) (Action, error) {
	sc.snapshot = snap
	if sc.pos >= len(sc.actions) {
		// Default: the first affordable play, so unscripted turns still make progress.
		return actions[0], nil
	}

	scripted := sc.actions[sc.pos]
	for _, a := range actions {
		if a.Type != scripted.Type {
			continue
		}
		if scripted.CardName != "" && (a.Card == nil || a.Card.Card.Name != scripted.CardName) {
			continue
		}
		if scripted.Target >= 0 && a.TargetIndex != scripted.Target {
			continue
		}
		sc.pos++
		return a, nil
	}

	// Scripted action not available: end the turn and try again next turn.
	sc.t.Logf("scripted action %+v not available, ending turn", scripted)
	return actions[len(actions)-1], nil
}

func (sc *ScriptedController) ChooseReward(ctx context.Context, snap Snapshot, rewards []*Card) (int, error) {
	sc.snapshot = snap
	return sc.reward, nil
}

func (sc *ScriptedController) Notify(ctx context.Context, event log.GameEvent) error {
	sc.events = append(sc.events, event)
	return nil
}

// --- Deterministic RNG ---

// seqRNG replays fixed values. Shuffle is a no-op so pile order is exact.
type seqRNG struct {
	floats []float64
	ints   []int
}

func (r *seqRNG) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *seqRNG) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	return i % n
}

func (r *seqRNG) Shuffle(n int, swap func(i, j int)) {}

// --- Test card helpers ---

func attackCard(id string, cost, damage int) *Card {
	return &Card{
		ID:      id,
		Name:    id,
		Cost:    cost,
		Type:    CardAttack,
		Effects: []Effect{{Type: EffectDamage, Value: damage}},
	}
}

func defenseCard(id string, cost, defense int) *Card {
	return &Card{
		ID:      id,
		Name:    id,
		Cost:    cost,
		Type:    CardDefense,
		Effects: []Effect{{Type: EffectDefense, Value: defense}},
	}
}

func skillCard(id string, cost int, effects ...Effect) *Card {
	return &Card{
		ID:      id,
		Name:    id,
		Cost:    cost,
		Type:    CardSkill,
		Effects: effects,
	}
}

func specialCard(id string, cost int, e Effect) *Card {
	e.Type = EffectSpecial
	return &Card{
		ID:      id,
		Name:    id,
		Cost:    cost,
		Type:    CardAttack,
		Effects: []Effect{e},
	}
}

func basicAttack() *Card {
	return attackCard("basic_attack", 1, 6)
}

// makeDeck orders cards so index 0 is drawn first and pads with filler to minSize.
func makeDeck(minSize int, top ...*Card) []*Card {
	filler := skillCard("filler", 0)
	deck := make([]*Card, 0, minSize)
	for i := 0; i < minSize-len(top); i++ {
		deck = append(deck, filler)
	}
	for i := len(top) - 1; i >= 0; i-- {
		deck = append(deck, top[i])
	}
	return deck
}

func testPlayer(deck []*Card) *Player {
	return NewPlayer("Runner", Build{ID: "test", Name: "Test"}, deck)
}

func testEnemy(name string, health, damage int, pattern ...IntentType) *Enemy {
	if len(pattern) == 0 {
		pattern = []IntentType{IntentAttack}
	}
	return NewEnemy(name, name, health, damage, pattern, nil)
}

// newTestCombat builds an unshuffled combat on a scripted RNG and starts it.
func newTestCombat(t *testing.T, p *Player, enemies ...*Enemy) (*Combat, *log.MemoryLogger) {
	t.Helper()
	return startCombat(t, CombatConfig{Player: p, Enemies: enemies})
}

// startCombat fills in test defaults (memory logger, scripted RNG, no
// shuffle) and starts the combat.
func startCombat(t *testing.T, cfg CombatConfig) (*Combat, *log.MemoryLogger) {
	t.Helper()
	logger := log.NewMemoryLogger()
	cfg.Logger = logger
	if cfg.RNG == nil {
		cfg.RNG = &seqRNG{}
	}
	cfg.NoShuffle = true
	c, err := NewCombat(cfg)
	if err != nil {
		t.Fatalf("NewCombat: %v", err)
	}
	c.Start()
	return c, logger
}

// handIndex finds a card in hand by name.
func handIndex(t *testing.T, c *Combat, name string) int {
	t.Helper()
	for i, ci := range c.Zones.Hand {
		if ci.Card.Name == name {
			return i
		}
	}
	t.Fatalf("%s not in hand: %v", name, c.Zones.Hand)
	return -1
}

// checkInvariants asserts the actor bounds for everyone in the combat.
func checkInvariants(t *testing.T, c *Combat) {
	t.Helper()
	actors := []*Actor{&c.Player.Actor}
	for _, e := range c.Enemies {
		actors = append(actors, &e.Actor)
	}
	for _, a := range actors {
		if a.Health < 0 || a.Health > a.MaxHealth {
			t.Errorf("%s health %d outside [0, %d]", a.Name, a.Health, a.MaxHealth)
		}
		if a.Defense < 0 {
			t.Errorf("%s defense %d < 0", a.Name, a.Defense)
		}
		if a.ActionPoints < 0 || a.ActionPoints > a.MaxActionPoints {
			t.Errorf("%s action points %d outside [0, %d]", a.Name, a.ActionPoints, a.MaxActionPoints)
		}
	}
}

func dumpLog(t *testing.T, logger *log.MemoryLogger) {
	t.Helper()
	t.Logf("Event log:\n%s", log.FormatAll(logger.Events()))
}
