package game

// Snapshot is a read-only copy of everything the presentation layer renders.
// It shares no memory with the combat.
type Snapshot struct {
	Turn        int         `json:"turn"`
	Phase       string      `json:"phase"`
	Result      string      `json:"result,omitempty"`
	Player      PlayerView  `json:"player"`
	Hand        []CardView  `json:"hand"`
	Piles       ZoneCounts  `json:"piles"`
	Enemies     []EnemyView `json:"enemies"`
	CardsPlayed int         `json:"cards_played"`
	Deferred    int         `json:"deferred,omitempty"`
}

type ActorView struct {
	Name      string         `json:"name"`
	Health    int            `json:"health"`
	MaxHealth int            `json:"max_health"`
	Defense   int            `json:"defense"`
	Statuses  map[string]int `json:"statuses,omitempty"`
}

type PlayerView struct {
	ActorView
	ActionPoints    int      `json:"action_points"`
	MaxActionPoints int      `json:"max_action_points"`
	Credits         int      `json:"credits"`
	Build           string   `json:"build,omitempty"`
	Artifacts       []string `json:"artifacts,omitempty"`
}

type EnemyView struct {
	ActorView
	Index      int    `json:"index"`
	ID         string `json:"id"`
	Intent     string `json:"intent"`
	IntentType string `json:"intent_type"`
	Defeated   bool   `json:"defeated"`
}

type CardView struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cost        int    `json:"cost"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Playable    bool   `json:"playable"`
	NeedsTarget bool   `json:"needs_target"`
	Locked      int    `json:"locked,omitempty"`
	Encrypted   int    `json:"encrypted,omitempty"`
	Temporary   bool   `json:"temporary,omitempty"`
	Upgraded    bool   `json:"upgraded,omitempty"`
}

// Snapshot captures the current combat state.
func (c *Combat) Snapshot() Snapshot {
	p := c.Player
	snap := Snapshot{
		Turn:  c.rec.turn,
		Phase: c.Phase.String(),
		Player: PlayerView{
			ActorView:       actorView(&p.Actor),
			ActionPoints:    p.ActionPoints,
			MaxActionPoints: p.MaxActionPoints,
			Credits:         p.Credits,
			Build:           p.Build.Name,
		},
		Piles: c.Zones.Counts(),
	}
	if c.outcome.Result != ResultNone {
		snap.Result = c.outcome.Result.String()
	}
	if c.Session != nil {
		snap.CardsPlayed = c.Session.CardsPlayed
		snap.Deferred = len(c.Session.Deferred)
	}
	for _, a := range p.Artifacts {
		snap.Player.Artifacts = append(snap.Player.Artifacts, a.Name)
	}
	for i, ci := range c.Zones.Hand {
		snap.Hand = append(snap.Hand, cardView(i, ci))
	}
	for i, e := range c.Enemies {
		snap.Enemies = append(snap.Enemies, EnemyView{
			ActorView:  actorView(&e.Actor),
			Index:      i,
			ID:         e.ID,
			Intent:     e.Intent.Description,
			IntentType: string(e.Intent.Type),
			Defeated:   e.IsDefeated(),
		})
	}
	return snap
}

func actorView(a *Actor) ActorView {
	v := ActorView{
		Name:      a.Name,
		Health:    a.Health,
		MaxHealth: a.MaxHealth,
		Defense:   a.Defense,
	}
	if len(a.Statuses) > 0 {
		v.Statuses = make(map[string]int, len(a.Statuses))
		for k, n := range a.Statuses {
			v.Statuses[string(k)] = n
		}
	}
	return v
}

func cardView(i int, ci *CardInstance) CardView {
	return CardView{
		Index:       i,
		ID:          ci.ID,
		Name:        ci.Card.String(),
		Cost:        ci.Card.Cost,
		Type:        string(ci.Card.Type),
		Description: ci.Card.Description,
		Playable:    ci.Playable(),
		NeedsTarget: ci.Card.NeedsTarget(),
		Locked:      ci.LockedTurns,
		Encrypted:   ci.EncryptedTurns,
		Temporary:   ci.Temporary,
		Upgraded:    ci.Card.Upgraded,
	}
}
