package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/peterkuimelis/netrun/internal/game"
	"github.com/peterkuimelis/netrun/internal/log"
	netrunnet "github.com/peterkuimelis/netrun/internal/net"
	"github.com/peterkuimelis/netrun/internal/store"
)

// Decision identifies what the session is waiting for.
type Decision string

const (
	DecisionPlayerTurn   Decision = "player_turn"
	DecisionChooseReward Decision = "choose_reward"
	DecisionSettleRun    Decision = "settle_run" // combat settled, saving the run failed
	DecisionRunOver      Decision = "run_over"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrWrongDecision  = errors.New("wrong decision")
)

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	SessionID string                   `json:"session_id"`
	RunID     string                   `json:"run_id"`
	Events    []netrunnet.EventView    `json:"events"`
	State     *netrunnet.StateView     `json:"state,omitempty"`
	Pending   Decision                 `json:"pending"`
	Actions   []netrunnet.ActionView   `json:"actions,omitempty"`
	Rewards   []netrunnet.CardView     `json:"rewards,omitempty"`
	Encounter *netrunnet.EncounterView `json:"encounter,omitempty"`
	Outcome   *netrunnet.OutcomeView   `json:"outcome,omitempty"` // most recent finished combat
	RunOver   bool                     `json:"run_over"`
	Result    string                   `json:"result,omitempty"`
}

// Session is one run driven step by step through tool calls. Calls are
// serialized by mu; the combat itself is never touched concurrently.
type Session struct {
	ID string

	mu       sync.Mutex
	runner   *netrunnet.Runner
	run      *store.Run
	stage    *netrunnet.Stage
	outcome  *netrunnet.OutcomeView
	pending  Decision
	rewarded bool

	// settled holds the applied result of the finished combat until it is
	// recorded; recorded is set once the store has it.
	settled  *settlement
	recorded bool
}

type settlement struct {
	view netrunnet.OutcomeView
	rec  store.CombatRecord
}

// startSession opens the run's current encounter.
func startSession(runner *netrunnet.Runner, run *store.Run) (*Session, *ToolResponse, error) {
	s := &Session{ID: uuid.NewString(), runner: runner, run: run}
	events, err := s.begin()
	if err != nil {
		return nil, nil, err
	}
	return s, s.respond(events), nil
}

// begin starts the combat for the current encounter, or marks the run over.
func (s *Session) begin() ([]log.GameEvent, error) {
	if s.run.Status != store.StatusActive {
		s.pending = DecisionRunOver
		return nil, nil
	}
	st, err := s.runner.Begin(s.run)
	if err != nil {
		return nil, err
	}
	s.stage = st
	s.rewarded = false
	s.settled = nil
	s.recorded = false
	s.pending = DecisionPlayerTurn
	return st.Combat.Start(), nil
}

// settle moves past a finished combat: the reward decision first, then the
// run bookkeeping and the next encounter. Each step happens once, so a call
// after a failed save picks up where the last one stopped.
func (s *Session) settle(ctx context.Context, events []log.GameEvent) ([]log.GameEvent, error) {
	c := s.stage.Combat
	if !c.Phase.Terminal() {
		return events, nil
	}
	if !s.recorded {
		out := c.Outcome()
		if out.Result == game.ResultVictory && len(out.Rewards) > 0 && !s.rewarded {
			s.pending = DecisionChooseReward
			return events, nil
		}

		s.pending = DecisionSettleRun
		if s.settled == nil {
			view, rec, err := s.runner.Settle(s.run, s.stage)
			if err != nil {
				return events, err
			}
			s.settled = &settlement{view: view, rec: rec}
		}
		if err := s.runner.Record(ctx, s.run, s.settled.rec); err != nil {
			return events, fmt.Errorf("save run: %w", err)
		}
		s.outcome = &s.settled.view
		s.recorded = true
	}
	next, err := s.begin()
	return append(events, next...), err
}

func (s *Session) expect(d Decision) error {
	if s.pending != d {
		return fmt.Errorf("%w: pending decision is %s, not %s", ErrWrongDecision, s.pending, d)
	}
	return nil
}

// PlayCard plays a hand card. Invalid plays leave the combat untouched.
func (s *Session) PlayCard(ctx context.Context, handIndex, targetIndex int) (*ToolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(DecisionPlayerTurn); err != nil {
		return nil, err
	}
	events, err := s.stage.Combat.PlayCard(handIndex, targetIndex)
	if err != nil {
		return nil, err
	}
	return s.step(ctx, events)
}

// EndTurn ends the player turn and runs the enemy turn.
func (s *Session) EndTurn(ctx context.Context) (*ToolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(DecisionPlayerTurn); err != nil {
		return nil, err
	}
	events, err := s.stage.Combat.EndTurn()
	if err != nil {
		return nil, err
	}
	return s.step(ctx, events)
}

// TakeAction performs the legal action at index.
func (s *Session) TakeAction(ctx context.Context, index int) (*ToolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(DecisionPlayerTurn); err != nil {
		return nil, err
	}
	actions := s.stage.Combat.LegalActions()
	if index < 0 || index >= len(actions) {
		return nil, fmt.Errorf("action %d out of range 0-%d", index, len(actions)-1)
	}

	var (
		events []log.GameEvent
		err    error
	)
	switch a := actions[index]; a.Type {
	case game.ActionEndTurn:
		events, err = s.stage.Combat.EndTurn()
	default:
		events, err = s.stage.Combat.PlayCard(a.HandIndex, a.TargetIndex)
	}
	if err != nil {
		return nil, err
	}
	return s.step(ctx, events)
}

// ChooseReward picks a reward card after a victory; -1 skips.
func (s *Session) ChooseReward(ctx context.Context, index int) (*ToolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(DecisionChooseReward); err != nil {
		return nil, err
	}
	events, err := s.stage.Combat.ChooseReward(index)
	if err != nil {
		return nil, err
	}
	s.rewarded = true
	return s.step(ctx, events)
}

// SettleRun retries saving a settled combat and opens the next encounter.
func (s *Session) SettleRun(ctx context.Context) (*ToolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(DecisionSettleRun); err != nil {
		return nil, err
	}
	return s.step(ctx, nil)
}

// State reports the session without changing it.
func (s *Session) State() *ToolResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.respond(nil)
}

func (s *Session) step(ctx context.Context, events []log.GameEvent) (*ToolResponse, error) {
	events, err := s.settle(ctx, events)
	if err != nil {
		return nil, err
	}
	return s.respond(events), nil
}

// respond must be called with mu held.
func (s *Session) respond(events []log.GameEvent) *ToolResponse {
	resp := &ToolResponse{
		SessionID: s.ID,
		RunID:     s.run.ID,
		Events:    make([]netrunnet.EventView, 0, len(events)),
		Pending:   s.pending,
		Outcome:   s.outcome,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, *netrunnet.NewEventView(e))
	}

	if s.stage != nil {
		c := s.stage.Combat
		view := s.stage.View
		resp.Encounter = &view
		resp.State = netrunnet.BuildStateView(c.Snapshot(), s.run.ID, view.Name, view.Stage, view.Stages)

		switch s.pending {
		case DecisionPlayerTurn:
			for i, a := range c.LegalActions() {
				resp.Actions = append(resp.Actions, netrunnet.ActionView{Index: i, Desc: a.String()})
			}
		case DecisionChooseReward:
			resp.Rewards = netrunnet.NewCardViews(c.Outcome().Rewards)
		}
	}
	if s.pending == DecisionRunOver {
		resp.RunOver = true
		resp.Result = string(s.run.Status)
	}
	return resp
}

func respondJSON(resp any) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
