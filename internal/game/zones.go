package game

import "fmt"

// EncryptTurns is how many decrement cycles an encrypted card stays unplayable.
const EncryptTurns = 2

// Zone names one of the four card piles.
type Zone string

const (
	ZoneNone    Zone = ""
	ZoneDraw    Zone = "draw"
	ZoneHand    Zone = "hand"
	ZoneDiscard Zone = "discard"
	ZoneExhaust Zone = "exhaust"
)

// ZoneCounts are the pile sizes. Locked and encrypted cards are counted.
type ZoneCounts struct {
	Draw    int `json:"draw"`
	Hand    int `json:"hand"`
	Discard int `json:"discard"`
	Exhaust int `json:"exhaust"`
}

// Zones owns the four-pile card lifecycle of one combat. Top of the draw
// pile is the last element.
type Zones struct {
	DrawPile    []*CardInstance
	Hand        []*CardInstance
	DiscardPile []*CardInstance
	ExhaustPile []*CardInstance
	MaxHandSize int

	// OnReshuffle is called after the discard pile is recycled into the draw pile.
	OnReshuffle func(count int)

	rng      RNG
	nextTemp int
}

// NewZones creates empty piles. A non-positive maxHand uses DefaultMaxHandSize.
func NewZones(rng RNG, maxHand int) *Zones {
	if maxHand <= 0 {
		maxHand = DefaultMaxHandSize
	}
	return &Zones{MaxHandSize: maxHand, rng: rng}
}

// BeginCombat fills the draw pile from the master deck, clears stale
// lock/encryption counters and shuffles unless noShuffle is set.
func (z *Zones) BeginCombat(deck []*CardInstance, noShuffle bool) {
	z.DrawPile = make([]*CardInstance, 0, len(deck))
	z.Hand = nil
	z.DiscardPile = nil
	z.ExhaustPile = nil
	for _, ci := range deck {
		ci.LockedTurns = 0
		ci.EncryptedTurns = 0
		z.DrawPile = append(z.DrawPile, ci)
	}
	if !noShuffle {
		z.Shuffle()
	}
}

// EndCombat purges temporaries, clears every pile and returns the number of
// temporary cards removed.
func (z *Zones) EndCombat() int {
	removed := z.CleanupTemporary()
	for _, pile := range z.piles() {
		for _, ci := range *pile {
			ci.LockedTurns = 0
			ci.EncryptedTurns = 0
		}
		*pile = nil
	}
	return removed
}

// Shuffle permutes the draw pile in place.
func (z *Zones) Shuffle() {
	z.rng.Shuffle(len(z.DrawPile), func(i, j int) {
		z.DrawPile[i], z.DrawPile[j] = z.DrawPile[j], z.DrawPile[i]
	})
}

// Draw moves the top card of the draw pile into the hand. An empty draw
// pile is refilled from the discard pile first. Returns nil when both piles
// are empty or the hand is full.
func (z *Zones) Draw() *CardInstance {
	if len(z.DrawPile) == 0 {
		if len(z.DiscardPile) == 0 {
			return nil
		}
		z.recycle()
	}
	if len(z.Hand) >= z.MaxHandSize {
		return nil
	}
	ci := z.DrawPile[len(z.DrawPile)-1]
	z.DrawPile = z.DrawPile[:len(z.DrawPile)-1]
	z.Hand = append(z.Hand, ci)
	return ci
}

func (z *Zones) recycle() {
	n := len(z.DiscardPile)
	z.DrawPile = append(z.DrawPile, z.DiscardPile...)
	z.DiscardPile = nil
	z.Shuffle()
	if z.OnReshuffle != nil {
		z.OnReshuffle(n)
	}
}

// Discard moves a hand card to the discard pile.
func (z *Zones) Discard(handIndex int) *CardInstance {
	ci := z.takeFromHand(handIndex)
	if ci == nil {
		return nil
	}
	z.DiscardPile = append(z.DiscardPile, ci)
	return ci
}

// Exhaust moves a hand card to the exhaust pile for the rest of the combat.
func (z *Zones) Exhaust(handIndex int) *CardInstance {
	ci := z.takeFromHand(handIndex)
	if ci == nil {
		return nil
	}
	z.ExhaustPile = append(z.ExhaustPile, ci)
	return ci
}

// DiscardHand discards the whole hand in order and returns the discarded cards.
func (z *Zones) DiscardHand() []*CardInstance {
	hand := z.Hand
	z.Hand = nil
	z.DiscardPile = append(z.DiscardPile, hand...)
	return hand
}

func (z *Zones) takeFromHand(i int) *CardInstance {
	if i < 0 || i >= len(z.Hand) {
		return nil
	}
	ci := z.Hand[i]
	z.Hand = append(z.Hand[:i], z.Hand[i+1:]...)
	return ci
}

// HandIndex returns the hand position of an instance, or -1.
func (z *Zones) HandIndex(ci *CardInstance) int {
	for i, c := range z.Hand {
		if c == ci {
			return i
		}
	}
	return -1
}

// AddTemporary puts a tagged copy of the card into the hand, or into the
// discard pile when the hand is full.
func (z *Zones) AddTemporary(c *Card) *CardInstance {
	if c == nil {
		return nil
	}
	z.nextTemp++
	ci := &CardInstance{
		Card:      c.Clone(),
		ID:        fmt.Sprintf("%s#tmp%d", c.ID, z.nextTemp),
		Temporary: true,
	}
	if len(z.Hand) >= z.MaxHandSize {
		z.DiscardPile = append(z.DiscardPile, ci)
	} else {
		z.Hand = append(z.Hand, ci)
	}
	return ci
}

// CleanupTemporary strips temporary cards from every pile and returns how many were removed.
func (z *Zones) CleanupTemporary() int {
	removed := 0
	for _, pile := range z.piles() {
		kept := (*pile)[:0]
		for _, ci := range *pile {
			if ci.Temporary {
				removed++
				continue
			}
			kept = append(kept, ci)
		}
		*pile = kept
	}
	return removed
}

// Lock makes the instance with the given ID unplayable for turns cycles.
// A longer existing lock is kept. Exhausted cards cannot be locked.
func (z *Zones) Lock(id string, turns int) *CardInstance {
	if turns <= 0 {
		return nil
	}
	ci, zone := z.Find(id)
	if ci == nil || zone == ZoneExhaust {
		return nil
	}
	if turns > ci.LockedTurns {
		ci.LockedTurns = turns
	}
	return ci
}

// Encrypt marks up to count random not-yet-encrypted cards of the draw pile
// unplayable for EncryptTurns cycles and returns them.
func (z *Zones) Encrypt(count int) []*CardInstance {
	var candidates []*CardInstance
	for _, ci := range z.DrawPile {
		if ci.EncryptedTurns == 0 {
			candidates = append(candidates, ci)
		}
	}
	if count > len(candidates) {
		count = len(candidates)
	}
	var picked []*CardInstance
	for i := 0; i < count; i++ {
		j := i + z.rng.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
		candidates[i].EncryptedTurns = EncryptTurns
		picked = append(picked, candidates[i])
	}
	return picked
}

// TickLocks runs one decrement cycle on lock and encryption counters and
// returns the cards that became playable.
func (z *Zones) TickLocks() []*CardInstance {
	var freed []*CardInstance
	for _, pile := range []*[]*CardInstance{&z.DrawPile, &z.Hand, &z.DiscardPile} {
		for _, ci := range *pile {
			if ci.Playable() {
				continue
			}
			if ci.LockedTurns > 0 {
				ci.LockedTurns--
			}
			if ci.EncryptedTurns > 0 {
				ci.EncryptedTurns--
			}
			if ci.Playable() {
				freed = append(freed, ci)
			}
		}
	}
	return freed
}

// Upgrade upgrades a card instance in any pile. See UpgradeInstance.
func (z *Zones) Upgrade(ci *CardInstance) bool {
	return UpgradeInstance(ci, z.rng)
}

// UpgradeInstance upgrades the instance's definition, rolling the cost
// discount on rng. Returns false if it is already upgraded, without touching
// rng. The instance gets its own copy of the definition so sibling copies
// are unaffected.
func UpgradeInstance(ci *CardInstance, rng RNG) bool {
	if ci == nil || ci.Card == nil || ci.Card.Upgraded {
		return false
	}
	up := ci.Card.upgradedCopy(rng.Float64() < UpgradeDiscountChance)
	if up == nil {
		return false
	}
	ci.Card = up
	return true
}

// Find locates an instance by ID across all piles.
func (z *Zones) Find(id string) (*CardInstance, Zone) {
	for zone, pile := range z.named() {
		for _, ci := range *pile {
			if ci.ID == id {
				return ci, zone
			}
		}
	}
	return nil, ZoneNone
}

// Counts returns the pile sizes.
func (z *Zones) Counts() ZoneCounts {
	return ZoneCounts{
		Draw:    len(z.DrawPile),
		Hand:    len(z.Hand),
		Discard: len(z.DiscardPile),
		Exhaust: len(z.ExhaustPile),
	}
}

// All returns every instance in draw, hand, discard, exhaust order.
func (z *Zones) All() []*CardInstance {
	var all []*CardInstance
	for _, pile := range z.piles() {
		all = append(all, *pile...)
	}
	return all
}

func (z *Zones) piles() []*[]*CardInstance {
	return []*[]*CardInstance{&z.DrawPile, &z.Hand, &z.DiscardPile, &z.ExhaustPile}
}

func (z *Zones) named() map[Zone]*[]*CardInstance {
	return map[Zone]*[]*CardInstance{
		ZoneDraw:    &z.DrawPile,
		ZoneHand:    &z.Hand,
		ZoneDiscard: &z.DiscardPile,
		ZoneExhaust: &z.ExhaustPile,
	}
}
