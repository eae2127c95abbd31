package game

import (
	"math/rand"
	"sort"
	"testing"
)

func zonesWith(rng RNG, maxHand int, cards ...*Card) (*Zones, *Player) {
	p := testPlayer(cards)
	z := NewZones(rng, maxHand)
	z.BeginCombat(p.Deck, true)
	return z, p
}

func instanceIDs(cards []*CardInstance) []string {
	ids := make([]string, 0, len(cards))
	for _, ci := range cards {
		ids = append(ids, ci.ID)
	}
	sort.Strings(ids)
	return ids
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDrawEmptyPiles(t *testing.T) {
	z := NewZones(&seqRNG{}, 10)
	if ci := z.Draw(); ci != nil {
		t.Fatalf("draw from empty piles returned %v", ci)
	}
	if c := z.Counts(); c != (ZoneCounts{}) {
		t.Errorf("counts changed: %+v", c)
	}
}

func TestDrawTakesTop(t *testing.T) {
	z, _ := zonesWith(&seqRNG{}, 10, makeDeck(3, basicAttack())...)
	ci := z.Draw()
	if ci == nil || ci.Card.ID != "basic_attack" {
		t.Fatalf("drew %v, want basic_attack", ci)
	}
	if z.Counts() != (ZoneCounts{Draw: 2, Hand: 1}) {
		t.Errorf("counts = %+v", z.Counts())
	}
}

func TestDrawRecyclesDiscard(t *testing.T) {
	z, _ := zonesWith(&seqRNG{}, 10, makeDeck(2)...)
	reshuffled := 0
	z.OnReshuffle = func(n int) { reshuffled = n }

	z.Draw()
	z.Draw()
	z.Discard(0)
	z.Discard(0)
	if len(z.DrawPile) != 0 || len(z.DiscardPile) != 2 {
		t.Fatalf("setup counts = %+v", z.Counts())
	}

	if ci := z.Draw(); ci == nil {
		t.Fatal("draw after recycle returned nil")
	}
	if reshuffled != 2 {
		t.Errorf("reshuffle callback got %d, want 2", reshuffled)
	}
	if z.Counts() != (ZoneCounts{Draw: 1, Hand: 1}) {
		t.Errorf("counts = %+v", z.Counts())
	}
}

func TestDrawFullHand(t *testing.T) {
	z, _ := zonesWith(&seqRNG{}, 2, makeDeck(5)...)
	z.Draw()
	z.Draw()
	if ci := z.Draw(); ci != nil {
		t.Errorf("draw into a full hand returned %v", ci)
	}
	if len(z.Hand) != 2 || len(z.DrawPile) != 3 {
		t.Errorf("counts = %+v", z.Counts())
	}
}

func TestOutOfRangeOperations(t *testing.T) {
	z, _ := zonesWith(&seqRNG{}, 10, makeDeck(2)...)
	z.Draw()
	if z.Discard(5) != nil || z.Discard(-1) != nil || z.Exhaust(1) != nil {
		t.Error("out-of-range hand operation returned a card")
	}
	if z.Lock("nope#1", 2) != nil {
		t.Error("locking an absent card succeeded")
	}
	if z.Upgrade(nil) {
		t.Error("upgrading nil succeeded")
	}
}

func TestExhaustLeavesCirculation(t *testing.T) {
	z, _ := zonesWith(&seqRNG{}, 10, makeDeck(2)...)
	z.Draw()
	ex := z.Exhaust(0)
	if ex == nil {
		t.Fatal("exhaust returned nil")
	}
	z.Draw()
	z.Discard(0)
	for i := 0; i < 5; i++ {
		if ci := z.Draw(); ci == ex {
			t.Fatal("exhausted card was drawn again")
		}
		z.DiscardHand()
	}
	if _, zone := z.Find(ex.ID); zone != ZoneExhaust {
		t.Errorf("exhausted card is in %q", zone)
	}
}

func TestTemporaryCards(t *testing.T) {
	z, _ := zonesWith(&seqRNG{}, 2, makeDeck(3)...)
	tmp := z.AddTemporary(basicAttack())
	if !tmp.Temporary || tmp.ID != "basic_attack#tmp1" {
		t.Fatalf("temporary = %+v", tmp)
	}
	z.Draw()
	overflow := z.AddTemporary(basicAttack())
	if _, zone := z.Find(overflow.ID); zone != ZoneDiscard {
		t.Errorf("temporary added to full hand went to %q, want discard", zone)
	}

	if n := z.CleanupTemporary(); n != 2 {
		t.Errorf("cleanup removed %d, want 2", n)
	}
	for _, ci := range z.All() {
		if ci.Temporary {
			t.Errorf("temporary %s survived cleanup", ci.ID)
		}
	}
}

func TestLockAndTick(t *testing.T) {
	z, p := zonesWith(&seqRNG{}, 10, makeDeck(3)...)
	target := p.Deck[0]
	if z.Lock(target.ID, 2) == nil {
		t.Fatal("lock failed")
	}
	if target.Playable() {
		t.Fatal("locked card is playable")
	}
	if c := z.Counts(); c.Draw != 3 {
		t.Errorf("locked card not counted: %+v", c)
	}
	if freed := z.TickLocks(); len(freed) != 0 {
		t.Errorf("freed after one tick: %v", freed)
	}
	if freed := z.TickLocks(); len(freed) != 1 || freed[0] != target {
		t.Errorf("freed after two ticks: %v", freed)
	}
}

func TestEncryptDrawPileOnly(t *testing.T) {
	z, _ := zonesWith(&seqRNG{ints: []int{1, 0, 0}}, 10, makeDeck(4)...)
	inHand := z.Draw()
	z.Discard(0)
	z.Draw()

	picked := z.Encrypt(5)
	if len(picked) != 2 {
		t.Fatalf("encrypted %d, want the 2 left in the draw pile", len(picked))
	}
	for _, ci := range picked {
		if _, zone := z.Find(ci.ID); zone != ZoneDraw {
			t.Errorf("encrypted card in %q", zone)
		}
		if ci.EncryptedTurns != EncryptTurns {
			t.Errorf("encrypted turns = %d", ci.EncryptedTurns)
		}
	}
	if inHand.EncryptedTurns != 0 || z.Hand[0].EncryptedTurns != 0 {
		t.Error("encryption touched a card outside the draw pile")
	}

	z.TickLocks()
	if picked[0].Playable() {
		t.Error("encryption cleared after one cycle")
	}
	z.TickLocks()
	if !picked[0].Playable() || !picked[1].Playable() {
		t.Error("encryption not cleared after two cycles")
	}
}

func TestUpgrade(t *testing.T) {
	card := &Card{
		ID:   "combo",
		Name: "Combo",
		Cost: 2,
		Type: CardSkill,
		Effects: []Effect{
			{Type: EffectDamage, Value: 7},
			{Type: EffectDefense, Value: 5},
			{Type: EffectHeal, Value: 10},
			{Type: EffectDraw, Value: 1},
			{Type: EffectDebuff, Status: StatusWeak, Duration: 1},
		},
	}
	z, p := zonesWith(&seqRNG{floats: []float64{0.1}}, 10, card, card)
	ci := p.Deck[0]

	if !z.Upgrade(ci) {
		t.Fatal("first upgrade failed")
	}
	got := ci.Card
	want := []int{10, 7, 13, 2}
	for i, w := range want {
		if got.Effects[i].Value != w {
			t.Errorf("effect %d value = %d, want %d", i, got.Effects[i].Value, w)
		}
	}
	if got.Effects[4].Duration != 2 {
		t.Errorf("debuff duration = %d, want 2", got.Effects[4].Duration)
	}
	if got.Cost != 1 {
		t.Errorf("cost = %d, want 1 (discount rolled)", got.Cost)
	}
	if got.String() != "Combo+" {
		t.Errorf("name = %q", got.String())
	}

	// Idempotent.
	before := *ci.Card
	if z.Upgrade(ci) {
		t.Error("second upgrade succeeded")
	}
	if ci.Card.Cost != before.Cost || ci.Card.Effects[0].Value != before.Effects[0].Value {
		t.Error("second upgrade changed the card")
	}

	// Sibling copies keep the original definition.
	if p.Deck[1].Card.Upgraded || p.Deck[1].Card.Effects[0].Value != 7 {
		t.Error("upgrade leaked to a sibling instance")
	}
}

func TestUpgradeScalesSpecialValues(t *testing.T) {
	cases := []struct {
		special SpecialID
		value   int
		want    int
	}{
		{SpecialIgnoreDefense, 7, 10},
		{SpecialBruteForce, 4, 6},
		{SpecialDDoSAttack, 3, 4},
		{SpecialDataSiphon, 7, 10},
		{SpecialExploit, 6, 9},
		{SpecialBackdoor, 8, 12},
		{SpecialRecursion, 0, 0},
	}
	for _, tc := range cases {
		ci := &CardInstance{ID: "x#1", Card: specialCard(string(tc.special), 1, Effect{
			Type: EffectSpecial, Special: tc.special, Value: tc.value, Hits: 3, Chance: 0.5,
		})}
		if !UpgradeInstance(ci, &seqRNG{}) {
			t.Fatalf("%s: upgrade failed", tc.special)
		}
		e := ci.Card.Effects[0]
		if e.Value != tc.want {
			t.Errorf("%s: value = %d, want %d", tc.special, e.Value, tc.want)
		}
		if e.Hits != 3 || e.Chance != 0.5 {
			t.Errorf("%s: hit parameters changed to %d/%v", tc.special, e.Hits, e.Chance)
		}
	}
}

func TestRepeatUpgradeLeavesRNGUntouched(t *testing.T) {
	twice := rand.New(rand.NewSource(7))
	once := rand.New(rand.NewSource(7))

	a := &CardInstance{ID: "a#1", Card: attackCard("jab", 2, 4)}
	b := &CardInstance{ID: "b#1", Card: attackCard("jab", 2, 4)}
	UpgradeInstance(a, twice)
	if UpgradeInstance(a, twice) {
		t.Fatal("second upgrade succeeded")
	}
	UpgradeInstance(b, once)

	if x, y := twice.Float64(), once.Float64(); x != y {
		t.Errorf("next roll after two upgrades = %v, after one = %v", x, y)
	}
	if a.Card.Cost != b.Card.Cost || a.Card.Effects[0].Value != b.Card.Effects[0].Value {
		t.Errorf("upgrading twice differs from once: %+v vs %+v", a.Card, b.Card)
	}
}

func TestUpgradeCostNeverBelowOne(t *testing.T) {
	z, p := zonesWith(&seqRNG{floats: []float64{0.0}}, 10, attackCard("jab", 1, 4))
	z.Upgrade(p.Deck[0])
	if p.Deck[0].Card.Cost != 1 {
		t.Errorf("cost = %d, want 1", p.Deck[0].Card.Cost)
	}
}

func TestZoneMultisetConstant(t *testing.T) {
	z, p := zonesWith(NewRNG(7), 4, makeDeck(12, basicAttack())...)
	all := instanceIDs(p.Deck)

	for turn := 0; turn < 6; turn++ {
		for i := 0; i < 5; i++ {
			z.Draw()
		}
		if len(z.Hand) > 0 {
			z.Exhaust(0)
		}
		z.AddTemporary(basicAttack())
		z.Encrypt(1)
		z.DiscardHand()
		z.TickLocks()
		z.CleanupTemporary()

		if got := instanceIDs(z.All()); !sameIDs(got, all) {
			t.Fatalf("turn %d: instances changed\n got %v\nwant %v", turn, got, all)
		}
	}
}
