// Package catalog loads card, enemy, artifact, build and encounter data from
// YAML and turns it into ready-to-fight game objects.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/peterkuimelis/netrun/internal/game"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var defaultData embed.FS

var (
	ErrUnknownCard      = errors.New("unknown card")
	ErrUnknownEnemy     = errors.New("unknown enemy")
	ErrUnknownArtifact  = errors.New("unknown artifact")
	ErrUnknownBuild     = errors.New("unknown build")
	ErrUnknownEncounter = errors.New("unknown encounter")
)

// File names inside a catalog directory.
const (
	CardsFile      = "cards.yaml"
	EnemiesFile    = "enemies.yaml"
	ArtifactsFile  = "artifacts.yaml"
	BuildsFile     = "builds.yaml"
	EncountersFile = "encounters.yaml"
)

// --- YAML file structures ---

type cardsFile struct {
	Cards []*game.Card `yaml:"cards"`
}

type enemiesFile struct {
	Enemies []EnemyDef `yaml:"enemies"`
}

type artifactsFile struct {
	Artifacts []*game.Artifact `yaml:"artifacts"`
}

type buildsFile struct {
	Builds []BuildDef `yaml:"builds"`
}

type encountersFile struct {
	Encounters []Encounter `yaml:"encounters"`
}

// EnemyDef is the static definition of an enemy.
type EnemyDef struct {
	ID        string            `yaml:"id" json:"id"`
	Name      string            `yaml:"name" json:"name"`
	Health    int               `yaml:"health" json:"health"`
	Damage    int               `yaml:"damage" json:"damage"`
	Pattern   []game.IntentType `yaml:"pattern" json:"pattern"`
	Abilities []game.Ability    `yaml:"abilities,omitempty" json:"abilities,omitempty"`
}

// DeckEntry is a card and its count in a starting deck.
type DeckEntry struct {
	Card  string `yaml:"card" json:"card"`
	Count int    `yaml:"count" json:"count"`
}

// BuildDef is a selectable player build: parameters, starting deck and
// starting artifacts.
type BuildDef struct {
	game.Build `yaml:",inline"`
	Deck       []DeckEntry `yaml:"deck" json:"deck"`
	Artifacts  []string    `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
}

// DeckSize returns the number of cards in the starting deck.
func (b BuildDef) DeckSize() int {
	n := 0
	for _, e := range b.Deck {
		n += e.Count
	}
	return n
}

// Catalog is an immutable set of definitions. Every accessor hands out
// copies, so callers may mutate what they get.
type Catalog struct {
	cards     map[string]*game.Card
	cardOrder []string
	enemies   map[string]EnemyDef
	artifacts map[string]*game.Artifact
	builds    map[string]BuildDef
	buildIDs  []string

	Encounters []Encounter
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads a catalog from a directory on disk.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// Load reads the five catalog files from fsys and cross-checks every reference.
func Load(fsys fs.FS) (*Catalog, error) {
	var (
		cf  cardsFile
		ef  enemiesFile
		af  artifactsFile
		bf  buildsFile
		enf encountersFile
	)
	for _, f := range []struct {
		name string
		into any
	}{
		{CardsFile, &cf},
		{EnemiesFile, &ef},
		{ArtifactsFile, &af},
		{BuildsFile, &bf},
		{EncountersFile, &enf},
	} {
		data, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, f.into); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
	}

	c := &Catalog{
		cards:      make(map[string]*game.Card),
		enemies:    make(map[string]EnemyDef),
		artifacts:  make(map[string]*game.Artifact),
		builds:     make(map[string]BuildDef),
		Encounters: enf.Encounters,
	}

	for _, card := range cf.Cards {
		if card.ID == "" {
			return nil, fmt.Errorf("%s: card without id", CardsFile)
		}
		if _, dup := c.cards[card.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate card %q", CardsFile, card.ID)
		}
		if card.Cost < 0 {
			return nil, fmt.Errorf("%s: card %q has negative cost", CardsFile, card.ID)
		}
		if card.Name == "" {
			card.Name = card.ID
		}
		c.cards[card.ID] = card
		c.cardOrder = append(c.cardOrder, card.ID)
	}

	for _, e := range ef.Enemies {
		if e.ID == "" {
			return nil, fmt.Errorf("%s: enemy without id", EnemiesFile)
		}
		if _, dup := c.enemies[e.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate enemy %q", EnemiesFile, e.ID)
		}
		if e.Health <= 0 {
			return nil, fmt.Errorf("%s: enemy %q needs positive health", EnemiesFile, e.ID)
		}
		c.enemies[e.ID] = e
	}

	for _, a := range af.Artifacts {
		if a.ID == "" {
			return nil, fmt.Errorf("%s: artifact without id", ArtifactsFile)
		}
		if _, dup := c.artifacts[a.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate artifact %q", ArtifactsFile, a.ID)
		}
		c.artifacts[a.ID] = a
	}

	for _, b := range bf.Builds {
		if b.ID == "" {
			return nil, fmt.Errorf("%s: build without id", BuildsFile)
		}
		if _, dup := c.builds[b.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate build %q", BuildsFile, b.ID)
		}
		for _, entry := range b.Deck {
			if _, ok := c.cards[entry.Card]; !ok {
				return nil, fmt.Errorf("%s: build %q: %w %q", BuildsFile, b.ID, ErrUnknownCard, entry.Card)
			}
		}
		for _, id := range b.Artifacts {
			if _, ok := c.artifacts[id]; !ok {
				return nil, fmt.Errorf("%s: build %q: %w %q", BuildsFile, b.ID, ErrUnknownArtifact, id)
			}
		}
		c.builds[b.ID] = b
		c.buildIDs = append(c.buildIDs, b.ID)
	}

	for i, enc := range c.Encounters {
		if len(enc.Enemies) == 0 {
			return nil, fmt.Errorf("%s: encounter %d has no enemies", EncountersFile, i+1)
		}
		for _, id := range enc.Enemies {
			if _, ok := c.enemies[id]; !ok {
				return nil, fmt.Errorf("%s: encounter %q: %w %q", EncountersFile, enc.ID, ErrUnknownEnemy, id)
			}
		}
		for _, id := range enc.Rewards {
			if _, ok := c.cards[id]; !ok {
				return nil, fmt.Errorf("%s: encounter %q: %w %q", EncountersFile, enc.ID, ErrUnknownCard, id)
			}
		}
		if enc.Artifact != "" {
			if _, ok := c.artifacts[enc.Artifact]; !ok {
				return nil, fmt.Errorf("%s: encounter %q: %w %q", EncountersFile, enc.ID, ErrUnknownArtifact, enc.Artifact)
			}
		}
		if enc.Upgrades < 0 {
			return nil, fmt.Errorf("%s: encounter %q has negative upgrades", EncountersFile, enc.ID)
		}
	}

	return c, nil
}

// Card returns a copy of the card definition.
func (c *Catalog) Card(id string) (*game.Card, error) {
	card, ok := c.cards[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCard, id)
	}
	return card.Clone(), nil
}

// Cards returns copies of every card in file order.
func (c *Catalog) Cards() []*game.Card {
	out := make([]*game.Card, 0, len(c.cardOrder))
	for _, id := range c.cardOrder {
		out = append(out, c.cards[id].Clone())
	}
	return out
}

// Enemy returns a fresh enemy at full health.
func (c *Catalog) Enemy(id string) (*game.Enemy, error) {
	def, ok := c.enemies[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownEnemy, id)
	}
	name := def.Name
	if name == "" {
		name = def.ID
	}
	return game.NewEnemy(def.ID, name, def.Health, def.Damage, def.Pattern, def.Abilities), nil
}

// Artifact returns a copy of the artifact definition.
func (c *Catalog) Artifact(id string) (*game.Artifact, error) {
	a, ok := c.artifacts[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownArtifact, id)
	}
	return a.Clone(), nil
}

func (c *Catalog) Build(id string) (BuildDef, error) {
	b, ok := c.builds[id]
	if !ok {
		return BuildDef{}, fmt.Errorf("%w %q", ErrUnknownBuild, id)
	}
	return b, nil
}

// Builds returns every build in file order.
func (c *Catalog) Builds() []BuildDef {
	out := make([]BuildDef, 0, len(c.buildIDs))
	for _, id := range c.buildIDs {
		out = append(out, c.builds[id])
	}
	return out
}

// NewPlayer creates a player with the build's starting deck and artifacts.
func (c *Catalog) NewPlayer(name, buildID string) (*game.Player, error) {
	b, err := c.Build(buildID)
	if err != nil {
		return nil, err
	}
	var deck []*game.Card
	for _, entry := range b.Deck {
		card := c.cards[entry.Card]
		for i := 0; i < entry.Count; i++ {
			deck = append(deck, card.Clone())
		}
	}
	p := game.NewPlayer(name, b.Build, deck)
	for _, id := range b.Artifacts {
		a, err := c.Artifact(id)
		if err != nil {
			return nil, err
		}
		p.AddArtifact(a)
	}
	return p, nil
}
