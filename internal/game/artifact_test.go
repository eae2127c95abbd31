package game

import (
	"testing"

	"github.com/peterkuimelis/netrun/internal/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func artifact(name string, trigger TriggerPoint, effect ArtifactEffect, value int) *Artifact {
	return &Artifact{ID: name, Name: name, Trigger: trigger, Effect: effect, Value: value}
}

func artifactFirings(logger *log.MemoryLogger) []string {
	var names []string
	for _, e := range logger.EventsOfType(log.EventArtifactTrigger) {
		names = append(names, e.Card)
	}
	return names
}

func TestOnceDamageBonus(t *testing.T) {
	p := testPlayer(makeDeck(10, basicAttack(), basicAttack()))
	amp := artifact("Amplifier", TriggerDamageDealt, ArtifactDamageBonus, 5)
	amp.Once = true
	p.AddArtifact(amp)
	enemy := testEnemy("ICE", 50, 5)
	c, logger := newTestCombat(t, p, enemy)

	c.PlayCard(0, 0)
	if enemy.Health != 39 {
		t.Fatalf("first hit: health = %d, want 39", enemy.Health)
	}
	c.PlayCard(0, 0)
	if enemy.Health != 33 {
		t.Errorf("second hit: health = %d, want 33", enemy.Health)
	}
	if n := len(artifactFirings(logger)); n != 1 {
		t.Errorf("artifact fired %d times, want 1", n)
	}
}

func TestDamageBonusesStack(t *testing.T) {
	p := testPlayer(makeDeck(10, basicAttack()))
	p.AddArtifact(artifact("Booster", TriggerDamageDealt, ArtifactDamageBonus, 2))
	p.AddArtifact(artifact("Overdrive", TriggerDamageDealt, ArtifactDamageBonus, 3))
	enemy := testEnemy("ICE", 50, 5)
	c, logger := newTestCombat(t, p, enemy)

	c.PlayCard(0, 0)
	if enemy.Health != 39 {
		t.Errorf("health = %d, want 39", enemy.Health)
	}
	got := artifactFirings(logger)
	if len(got) != 2 || got[0] != "Booster" || got[1] != "Overdrive" {
		t.Errorf("firing order = %v", got)
	}
}

func TestDefenseBonus(t *testing.T) {
	p := testPlayer(makeDeck(10, defenseCard("wall", 1, 5)))
	p.AddArtifact(artifact("Plating", TriggerDefenseGain, ArtifactDefenseBonus, 2))
	c, _ := newTestCombat(t, p, testEnemy("ICE", 50, 5))

	c.PlayCard(0, -1)
	if p.Defense != 7 {
		t.Errorf("defense = %d, want 7", p.Defense)
	}
}

func TestSideEffectOnDamageDealt(t *testing.T) {
	p := testPlayer(makeDeck(10, basicAttack(), basicAttack()))
	p.AddArtifact(artifact("Leech", TriggerDamageDealt, ArtifactHeal, 2))
	enemy := testEnemy("ICE", 50, 5)
	c, _ := newTestCombat(t, p, enemy)
	p.Health = 60
	enemy.Defense = 10

	c.PlayCard(0, 0)
	if p.Health != 60 {
		t.Errorf("fully blocked hit triggered heal: health = %d", p.Health)
	}
	enemy.Defense = 0
	c.PlayCard(0, 0)
	if p.Health != 62 {
		t.Errorf("health = %d, want 62", p.Health)
	}
}

func TestTurnStartDefense(t *testing.T) {
	p := testPlayer(makeDeck(12))
	p.AddArtifact(artifact("Firewall", TriggerTurnStart, ArtifactDefense, 4))
	c, _ := newTestCombat(t, p, testEnemy("ICE", 50, 3))

	if p.Defense != 4 {
		t.Fatalf("turn 1 defense = %d, want 4", p.Defense)
	}
	c.EndTurn()
	if p.Health != p.MaxHealth {
		t.Errorf("artifact defense did not absorb: health = %d", p.Health)
	}
	if p.Defense != 4 {
		t.Errorf("turn 2 defense = %d, want 4", p.Defense)
	}
}

func TestCombatStartFiresOnce(t *testing.T) {
	p := testPlayer(makeDeck(12))
	p.AddArtifact(artifact("Cache", TriggerCombatStart, ArtifactStrength, 2))
	c, logger := newTestCombat(t, p, testEnemy("ICE", 50, 1, IntentDefend))

	c.EndTurn()
	c.EndTurn()
	if got := p.Status(StatusStrength); got != 2 {
		t.Errorf("strength = %d, want 2", got)
	}
	if n := len(artifactFirings(logger)); n != 1 {
		t.Errorf("fired %d times", n)
	}
}

func TestArtifactsFireInAcquisitionOrder(t *testing.T) {
	p := testPlayer(makeDeck(12))
	for _, name := range []string{"Gamma", "Alpha", "Beta"} {
		p.AddArtifact(artifact(name, TriggerTurnStart, ArtifactHeal, 1))
	}
	_, logger := newTestCombat(t, p, testEnemy("ICE", 50, 1))

	got := artifactFirings(logger)
	want := []string{"Gamma", "Alpha", "Beta"}
	if len(got) != len(want) {
		t.Fatalf("firings = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("firing %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCardCountThreshold(t *testing.T) {
	p := testPlayer(makeDeck(15))
	relay := artifact("Relay", TriggerCardCount, ArtifactDraw, 1)
	relay.Threshold = 2
	p.AddArtifact(relay)
	c, _ := newTestCombat(t, p, testEnemy("ICE", 50, 1))

	c.PlayCard(0, -1)
	if len(c.Zones.Hand) != 4 {
		t.Fatalf("hand after 1 play = %d, want 4", len(c.Zones.Hand))
	}
	c.PlayCard(0, -1)
	if len(c.Zones.Hand) != 4 { // 3 left + 1 drawn
		t.Errorf("hand after 2 plays = %d, want 4", len(c.Zones.Hand))
	}
	c.PlayCard(0, -1)
	c.PlayCard(0, -1)
	if len(c.Zones.Hand) != 3 {
		t.Errorf("hand after 4 plays = %d, want 3", len(c.Zones.Hand))
	}
}

func TestCardCountDefaultThreshold(t *testing.T) {
	p := testPlayer(makeDeck(15))
	p.AddArtifact(artifact("Capacitor", TriggerCardCount, ArtifactEnergy, 1))
	c, _ := newTestCombat(t, p, testEnemy("ICE", 50, 1))
	p.ActionPoints = 0

	c.PlayCard(0, -1)
	c.PlayCard(0, -1)
	if p.ActionPoints != 0 {
		t.Fatalf("fired early: ap = %d", p.ActionPoints)
	}
	c.PlayCard(0, -1)
	if p.ActionPoints != 1 {
		t.Errorf("ap = %d, want 1 after %d plays", p.ActionPoints, DefaultCardCountThreshold)
	}
}

func TestExhaustTrigger(t *testing.T) {
	burn := skillCard("burnout", 0)
	burn.Exhaust = true
	p := testPlayer(makeDeck(10, burn, skillCard("ping", 0)))
	p.AddArtifact(artifact("Heatsink", TriggerExhaust, ArtifactDefense, 3))
	c, _ := newTestCombat(t, p, testEnemy("ICE", 50, 1))

	c.PlayCard(handIndex(t, c, "ping"), -1)
	if p.Defense != 0 {
		t.Fatalf("discarded card fired exhaust artifact")
	}
	c.PlayCard(handIndex(t, c, "burnout"), -1)
	if p.Defense != 3 {
		t.Errorf("defense = %d, want 3", p.Defense)
	}
}

func TestFirstCardPlayed(t *testing.T) {
	for _, once := range []bool{false, true} {
		p := testPlayer(makeDeck(20))
		spark := artifact("Spark", TriggerFirstCardPlayed, ArtifactStrength, 1)
		spark.Once = once
		p.AddArtifact(spark)
		c, _ := newTestCombat(t, p, testEnemy("ICE", 50, 1, IntentDefend))

		c.PlayCard(0, -1)
		c.PlayCard(0, -1)
		c.EndTurn()
		c.PlayCard(0, -1)

		want := 2
		if once {
			want = 1
		}
		if got := p.Status(StatusStrength); got != want {
			t.Errorf("once=%v: strength = %d, want %d", once, got, want)
		}
	}
}

func TestCombatEndCredits(t *testing.T) {
	p := testPlayer(makeDeck(10, basicAttack()))
	p.AddArtifact(artifact("Miner", TriggerCombatEnd, ArtifactCredits, 10))
	c, _ := startCombat(t, CombatConfig{
		Player:  p,
		Enemies: []*Enemy{testEnemy("ICE", 6, 1)},
		Rewards: Rewards{Credits: 25},
	})

	c.PlayCard(0, 0)
	if got := c.Outcome().Credits; got != 35 {
		t.Errorf("outcome credits = %d, want 35", got)
	}
	if p.Credits != 35 {
		t.Errorf("player credits = %d", p.Credits)
	}
}

func TestOnceResetsBetweenCombats(t *testing.T) {
	p := testPlayer(makeDeck(10, basicAttack(), basicAttack()))
	amp := artifact("Amplifier", TriggerDamageDealt, ArtifactDamageBonus, 5)
	amp.Once = true
	p.AddArtifact(amp)

	for i := 0; i < 2; i++ {
		enemy := testEnemy("ICE", 50, 1)
		c, _ := newTestCombat(t, p, enemy)
		c.PlayCard(handIndex(t, c, "basic_attack"), 0)
		if enemy.Health != 39 {
			t.Errorf("combat %d: health = %d, want 39", i+1, enemy.Health)
		}
	}
}

func TestUnknownArtifactEffectWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := testPlayer(makeDeck(10))
	p.AddArtifact(artifact("Prototype", TriggerTurnStart, "teleport", 1))
	_, logger := startCombat(t, CombatConfig{Player: p, Enemies: []*Enemy{testEnemy("ICE", 50, 1)}, Diag: zap.New(core)})

	if logs.FilterMessage("unknown artifact effect").Len() != 1 {
		t.Errorf("warnings = %v", logs.All())
	}
	if len(logger.EventsOfType(log.EventWarning)) != 1 {
		t.Error("expected a warning event")
	}
	if len(artifactFirings(logger)) != 0 {
		t.Error("unknown effect reported as a trigger")
	}
}
