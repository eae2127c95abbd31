package net

import "github.com/peterkuimelis/netrun/internal/game"

// Message types for the JSON protocol over TCP.

// Server message types.
const (
	MsgNotify       = "notify"
	MsgChooseAction = "choose_action"
	MsgChooseReward = "choose_reward"
	MsgEncounter    = "encounter"
	MsgCombatOver   = "combat_over"
	MsgRunOver      = "run_over"
	MsgError        = "error"
)

// Client message types.
const (
	MsgJoin   = "join"
	MsgAction = "action"
	MsgReward = "reward"
)

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// For "notify"
	Event *EventView `json:"event,omitempty"`

	// For "choose_action" and "choose_reward"
	Actions []ActionView `json:"actions,omitempty"`
	Rewards []CardView   `json:"rewards,omitempty"`
	State   *StateView   `json:"state,omitempty"`

	// For "encounter"
	Encounter *EncounterView `json:"encounter,omitempty"`

	// For "combat_over" and "run_over"
	Outcome *OutcomeView `json:"outcome,omitempty"`
	RunID   string       `json:"run_id,omitempty"`
	Result  string       `json:"result,omitempty"`

	// For "error"
	Message string `json:"message,omitempty"`
}

// EventView is a combat event for the client.
type EventView struct {
	Seq     int    `json:"seq"`
	Turn    int    `json:"turn"`
	Phase   string `json:"phase"`
	Type    string `json:"type"`
	Actor   string `json:"actor,omitempty"`
	Target  string `json:"target,omitempty"`
	Card    string `json:"card,omitempty"`
	Amount  int    `json:"amount,omitempty"`
	Details string `json:"details"`
}

// ActionView is a numbered action choice.
type ActionView struct {
	Index int    `json:"index"`
	Desc  string `json:"desc"`
}

// CardView describes a reward card.
type CardView struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cost        int    `json:"cost"`
	Type        string `json:"type"`
	Rarity      string `json:"rarity,omitempty"`
	Description string `json:"description,omitempty"`
}

// StateView is the combat as the player sees it, tagged with the run position.
type StateView struct {
	game.Snapshot
	RunID     string `json:"run_id,omitempty"`
	Encounter string `json:"encounter,omitempty"`
	Stage     int    `json:"stage"` // 1-based position in the run
	Stages    int    `json:"stages"`
}

// EncounterView announces the next fight of a run.
type EncounterView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Stage   int      `json:"stage"`
	Stages  int      `json:"stages"`
	Enemies []string `json:"enemies"`
	Boss    bool     `json:"boss,omitempty"`
}

// OutcomeView summarizes a finished combat.
type OutcomeView struct {
	Result   string   `json:"result"`
	Turns    int      `json:"turns"`
	Credits  int      `json:"credits"`
	Reward   string   `json:"reward,omitempty"`
	Artifact string   `json:"artifact,omitempty"`
	Upgraded []string `json:"upgraded,omitempty"`
	Health   int      `json:"health"`
	Max      int      `json:"max_health"`
}

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// For "action" and "reward" (-1 skips the reward)
	Index int `json:"index"`

	// For "join" (initial handshake). RunID resumes a stored run.
	Name  string `json:"name,omitempty"`
	Build string `json:"build,omitempty"`
	RunID string `json:"run_id,omitempty"`
}
