package net

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/peterkuimelis/netrun/internal/game"
	"github.com/peterkuimelis/netrun/internal/log"
)

// NetworkController implements game.Controller over a TCP connection.
type NetworkController struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
	mu   sync.Mutex

	runID     string
	encounter string
	stage     int
	stages    int
}

// NewNetworkController creates a new controller for the given connection.
func NewNetworkController(conn net.Conn) *NetworkController {
	return &NetworkController{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}
}

// SetStage tags every following state view with the run position.
func (nc *NetworkController) SetStage(runID, encounter string, stage, stages int) {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	nc.runID = runID
	nc.encounter = encounter
	nc.stage = stage
	nc.stages = stages
}

// BuildStateView wraps a combat snapshot with the run position.
func BuildStateView(snap game.Snapshot, runID, encounter string, stage, stages int) *StateView {
	return &StateView{
		Snapshot:  snap,
		RunID:     runID,
		Encounter: encounter,
		Stage:     stage,
		Stages:    stages,
	}
}

// NewEventView converts a combat event for the wire.
func NewEventView(e log.GameEvent) *EventView {
	return &EventView{
		Seq:     e.Seq,
		Turn:    e.Turn,
		Phase:   e.Phase,
		Type:    e.Type.String(),
		Actor:   e.Actor,
		Target:  e.Target,
		Card:    e.Card,
		Amount:  e.Amount,
		Details: e.Details,
	}
}

// NewCardViews lists reward cards for the wire.
func NewCardViews(cards []*game.Card) []CardView {
	views := make([]CardView, 0, len(cards))
	for i, c := range cards {
		views = append(views, CardView{
			Index:       i,
			ID:          c.ID,
			Name:        c.String(),
			Cost:        c.Cost,
			Type:        string(c.Type),
			Rarity:      string(c.Rarity),
			Description: c.Description,
		})
	}
	return views
}

// buildStateView must be called with mu held.
func (nc *NetworkController) buildStateView(snap game.Snapshot) *StateView {
	return BuildStateView(snap, nc.runID, nc.encounter, nc.stage, nc.stages)
}

// send sends a server message to the client. Must be called with mu held.
func (nc *NetworkController) send(msg ServerMessage) error {
	return nc.enc.Encode(msg)
}

// recv reads a client message, giving up when ctx is done. Must be called
// with mu held.
func (nc *NetworkController) recv(ctx context.Context) (ClientMessage, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = nc.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	var msg ClientMessage
	if err := nc.dec.Decode(&msg); err != nil {
		if ctx.Err() != nil {
			return msg, ctx.Err()
		}
		return msg, err
	}
	return msg, nil
}

// Receive reads the next client message.
func (nc *NetworkController) Receive(ctx context.Context) (ClientMessage, error) {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.recv(ctx)
}

// recvIndex reads a message of type want with an index in [min, max),
// re-prompting on anything else.
func (nc *NetworkController) recvIndex(ctx context.Context, want string, min, max int) (int, error) {
	for {
		resp, err := nc.recv(ctx)
		if err != nil {
			return 0, err
		}
		if resp.Type == want && resp.Index >= min && resp.Index < max {
			return resp.Index, nil
		}
		msg := ServerMessage{
			Type:    MsgError,
			Message: fmt.Sprintf("expected %s with index in [%d, %d)", want, min, max),
		}
		if err := nc.send(msg); err != nil {
			return 0, err
		}
	}
}

// ChooseAction implements game.Controller.
func (nc *NetworkController) ChooseAction(ctx context.Context, snap game.Snapshot, actions []game.Action) (game.Action, error) {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	views := make([]ActionView, 0, len(actions))
	for i, a := range actions {
		views = append(views, ActionView{Index: i, Desc: a.String()})
	}

	msg := ServerMessage{
		Type:    MsgChooseAction,
		Actions: views,
		State:   nc.buildStateView(snap),
	}
	if err := nc.send(msg); err != nil {
		return game.Action{}, fmt.Errorf("send choose_action: %w", err)
	}

	idx, err := nc.recvIndex(ctx, MsgAction, 0, len(actions))
	if err != nil {
		return game.Action{}, fmt.Errorf("recv action: %w", err)
	}
	return actions[idx], nil
}

// ChooseReward implements game.Controller.
func (nc *NetworkController) ChooseReward(ctx context.Context, snap game.Snapshot, rewards []*game.Card) (int, error) {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	msg := ServerMessage{
		Type:    MsgChooseReward,
		Rewards: NewCardViews(rewards),
		State:   nc.buildStateView(snap),
	}
	if err := nc.send(msg); err != nil {
		return 0, fmt.Errorf("send choose_reward: %w", err)
	}

	idx, err := nc.recvIndex(ctx, MsgReward, -1, len(rewards))
	if err != nil {
		return 0, fmt.Errorf("recv reward: %w", err)
	}
	return idx, nil
}

// Notify implements game.Controller.
func (nc *NetworkController) Notify(ctx context.Context, event log.GameEvent) error {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.send(ServerMessage{Type: MsgNotify, Event: NewEventView(event)})
}

// SendEncounter announces the next fight.
func (nc *NetworkController) SendEncounter(ev EncounterView) error {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.send(ServerMessage{Type: MsgEncounter, Encounter: &ev, RunID: nc.runID})
}

// SendCombatOver reports a finished combat.
func (nc *NetworkController) SendCombatOver(out OutcomeView) error {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.send(ServerMessage{Type: MsgCombatOver, Outcome: &out, Result: out.Result, RunID: nc.runID})
}

// SendRunOver reports the end of the run.
func (nc *NetworkController) SendRunOver(runID, result string) error {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.send(ServerMessage{Type: MsgRunOver, RunID: runID, Result: result})
}

// SendError reports a failure that ends the session.
func (nc *NetworkController) SendError(err error) error {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.send(ServerMessage{Type: MsgError, Message: err.Error()})
}
