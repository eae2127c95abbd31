package catalog

import (
	"fmt"

	"github.com/peterkuimelis/netrun/internal/game"
)

// DefaultRewardChoices is how many cards a victory offers when the encounter
// does not say otherwise.
const DefaultRewardChoices = 3

// Drop weights per rarity for random rewards. Basic cards never drop.
var rarityWeights = map[game.Rarity]int{
	game.RarityCommon:   60,
	game.RarityUncommon: 30,
	game.RarityRare:     10,
}

// Encounter is one fight of a run: who appears and what winning pays.
type Encounter struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Enemies []string `yaml:"enemies" json:"enemies"`
	Credits int      `yaml:"credits" json:"credits"`
	// Rewards lists the offered cards. Empty draws RewardCount random cards.
	Rewards     []string `yaml:"rewards,omitempty" json:"rewards,omitempty"`
	RewardCount int      `yaml:"reward_count,omitempty" json:"reward_count,omitempty"`
	// Artifact is granted on victory.
	Artifact string `yaml:"artifact,omitempty" json:"artifact,omitempty"`
	// Upgrades is how many random master-deck cards a victory upgrades.
	Upgrades int `yaml:"upgrades,omitempty" json:"upgrades,omitempty"`
	Boss     bool   `yaml:"boss,omitempty" json:"boss,omitempty"`
}

// Encounter returns the encounter at index (0-based position in the run).
func (c *Catalog) Encounter(index int) (Encounter, error) {
	if index < 0 || index >= len(c.Encounters) {
		return Encounter{}, fmt.Errorf("%w %d (have %d)", ErrUnknownEncounter, index+1, len(c.Encounters))
	}
	return c.Encounters[index], nil
}

// CombatConfig supplies the next combat of a run: fresh enemies for the
// encounter and its rewards. Logger, Diag and Rules are left to the caller.
func (c *Catalog) CombatConfig(p *game.Player, index int, rng game.RNG) (game.CombatConfig, error) {
	enc, err := c.Encounter(index)
	if err != nil {
		return game.CombatConfig{}, err
	}
	var enemies []*game.Enemy
	for _, id := range enc.Enemies {
		e, err := c.Enemy(id)
		if err != nil {
			return game.CombatConfig{}, err
		}
		enemies = append(enemies, e)
	}

	var rewards []*game.Card
	if len(enc.Rewards) > 0 {
		for _, id := range enc.Rewards {
			card, err := c.Card(id)
			if err != nil {
				return game.CombatConfig{}, err
			}
			rewards = append(rewards, card)
		}
	} else {
		n := enc.RewardCount
		if n <= 0 {
			n = DefaultRewardChoices
		}
		rewards = c.RewardChoices(rng, n)
	}

	return game.CombatConfig{
		Player:  p,
		Enemies: enemies,
		Rewards: game.Rewards{Credits: enc.Credits, Cards: rewards},
		RNG:     rng,
	}, nil
}

// RewardChoices draws up to n distinct non-basic cards, weighted by rarity.
func (c *Catalog) RewardChoices(rng game.RNG, n int) []*game.Card {
	var pool []*game.Card
	for _, id := range c.cardOrder {
		if rarityWeights[c.cards[id].Rarity] > 0 {
			pool = append(pool, c.cards[id])
		}
	}

	var picked []*game.Card
	for len(picked) < n && len(pool) > 0 {
		totalWeight := 0
		for _, card := range pool {
			totalWeight += rarityWeights[card.Rarity]
		}
		roll := rng.Intn(totalWeight)
		for i, card := range pool {
			roll -= rarityWeights[card.Rarity]
			if roll < 0 {
				picked = append(picked, card.Clone())
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}
	return picked
}

// GrantArtifact gives the encounter's artifact to the player, if any and
// not already owned. Returns the granted artifact or nil.
func (c *Catalog) GrantArtifact(p *game.Player, enc Encounter) *game.Artifact {
	if enc.Artifact == "" || p.HasArtifact(enc.Artifact) {
		return nil
	}
	a, err := c.Artifact(enc.Artifact)
	if err != nil {
		return nil
	}
	p.AddArtifact(a)
	return a
}

// GrantUpgrades upgrades up to enc.Upgrades random not-yet-upgraded cards of
// the player's master deck and returns them in upgrade order.
func (c *Catalog) GrantUpgrades(p *game.Player, enc Encounter, rng game.RNG) []*game.CardInstance {
	var upgraded []*game.CardInstance
	for n := 0; n < enc.Upgrades; n++ {
		var candidates []*game.CardInstance
		for _, ci := range p.Deck {
			if !ci.Card.Upgraded {
				candidates = append(candidates, ci)
			}
		}
		if len(candidates) == 0 {
			break
		}
		pick := candidates[rng.Intn(len(candidates))]
		if p.Upgrade(pick.ID, rng) {
			upgraded = append(upgraded, pick)
		}
	}
	return upgraded
}
