package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/peterkuimelis/netrun/internal/catalog"
	netrunnet "github.com/peterkuimelis/netrun/internal/net"
	"github.com/peterkuimelis/netrun/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	st, err := store.Open(filepath.Join(t.TempDir(), "netrun.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewServer(&netrunnet.Runner{Catalog: cat, Store: st, Seed: 3})
}

func call(t *testing.T, h handler, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return res, text.Text
}

func callOK(t *testing.T, h handler, args map[string]any) ToolResponse {
	t.Helper()
	res, text := call(t, h, args)
	require.False(t, res.IsError, text)
	var resp ToolResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	return resp
}

func startRun(t *testing.T, s *Server, build string) ToolResponse {
	t.Helper()
	return callOK(t, s.handleStartRun, map[string]any{"build": build, "name": "Case"})
}

// winFirstCombat takes the first legal action until the first combat ends.
func winFirstCombat(t *testing.T, s *Server, id string) ToolResponse {
	t.Helper()
	resp := callOK(t, s.handleGetState, map[string]any{"session_id": id})
	for i := 0; i < 500 && resp.Pending == DecisionPlayerTurn && resp.Outcome == nil; i++ {
		resp = callOK(t, s.handleTakeAction, map[string]any{"session_id": id, "index": 0})
	}
	return resp
}

func TestRegisterTools(t *testing.T) {
	s := newTestServer(t)
	ms := server.NewMCPServer("netrun", "test")
	s.RegisterTools(ms)

	reply := ms.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(reply)
	require.NoError(t, err)
	for _, name := range []string{"start_run", "play_card", "end_turn", "choose_reward", "get_state", "settle_run"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}

func TestListBuilds(t *testing.T) {
	s := newTestServer(t)
	_, text := call(t, s.handleListBuilds, nil)

	var builds []buildView
	require.NoError(t, json.Unmarshal([]byte(text), &builds))
	require.Len(t, builds, 3)
	assert.Equal(t, "netrunner", builds[0].ID)
	assert.Equal(t, 10, builds[1].DeckSize)
	assert.Len(t, builds[1].Deck, 10)
	assert.Equal(t, []string{"firewall_chip"}, builds[1].Artifacts)
}

func TestStartRun(t *testing.T) {
	s := newTestServer(t)

	res, _ := call(t, s.handleStartRun, map[string]any{})
	assert.True(t, res.IsError)
	res, _ = call(t, s.handleStartRun, map[string]any{"build": "nope"})
	assert.True(t, res.IsError)

	resp := startRun(t, s, "sentinel")
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, DecisionPlayerTurn, resp.Pending)
	assert.NotEmpty(t, resp.Events)
	assert.NotEmpty(t, resp.Actions)
	assert.Equal(t, "End turn", resp.Actions[len(resp.Actions)-1].Desc)
	require.NotNil(t, resp.Encounter)
	assert.Equal(t, "perimeter", resp.Encounter.ID)
	require.NotNil(t, resp.State)
	assert.Equal(t, 80, resp.State.Player.Health)
	assert.Len(t, resp.State.Hand, 5)
	assert.Equal(t, 1, resp.State.Stage)
}

func TestInvalidPlayChangesNothing(t *testing.T) {
	s := newTestServer(t)
	start := startRun(t, s, "netrunner")

	res, text := call(t, s.handlePlayCard, map[string]any{"session_id": start.SessionID, "hand_index": 42})
	assert.True(t, res.IsError)
	assert.Contains(t, text, "card not in hand")

	after := callOK(t, s.handleGetState, map[string]any{"session_id": start.SessionID})
	assert.Empty(t, after.Events)
	assert.Equal(t, start.State.Hand, after.State.Hand)
	assert.Equal(t, start.State.Player.ActionPoints, after.State.Player.ActionPoints)
}

func TestWrongDecision(t *testing.T) {
	s := newTestServer(t)
	start := startRun(t, s, "netrunner")

	res, text := call(t, s.handleChooseReward, map[string]any{"session_id": start.SessionID, "index": 0})
	assert.True(t, res.IsError)
	assert.Contains(t, text, "wrong decision")
}

func TestPlayCardAndEndTurn(t *testing.T) {
	s := newTestServer(t)
	start := startRun(t, s, "netrunner")

	// The perimeter has a single enemy, so -1 targets it.
	played := -1
	for i, card := range start.State.Hand {
		if card.Playable && card.Cost <= start.State.Player.ActionPoints {
			played = i
			break
		}
	}
	require.NotEqual(t, -1, played)
	resp := callOK(t, s.handlePlayCard, map[string]any{"hand_index": played})
	assert.NotEmpty(t, resp.Events)
	assert.Equal(t, start.State.Player.ActionPoints-start.State.Hand[played].Cost, resp.State.Player.ActionPoints)

	resp = callOK(t, s.handleEndTurn, map[string]any{"session_id": start.SessionID})
	if resp.Pending == DecisionPlayerTurn && resp.Outcome == nil {
		assert.Equal(t, 2, resp.State.Turn)
	}
}

func TestRewardAdvancesToNextEncounter(t *testing.T) {
	s := newTestServer(t)
	start := startRun(t, s, "sentinel")

	resp := winFirstCombat(t, s, start.SessionID)
	if resp.Pending != DecisionChooseReward {
		t.Skipf("first combat ended with %s", resp.Pending)
	}
	require.Len(t, resp.Rewards, 3)
	assert.Equal(t, "ice_pick", resp.Rewards[0].ID)
	assert.Equal(t, "victory", resp.State.Result)

	resp = callOK(t, s.handleChooseReward, map[string]any{"session_id": start.SessionID, "index": 0})
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, "victory", resp.Outcome.Result)
	assert.Equal(t, "ICE Pick", resp.Outcome.Reward)
	assert.Equal(t, DecisionPlayerTurn, resp.Pending)
	assert.Equal(t, "checkpoint", resp.Encounter.ID)
	assert.Len(t, resp.State.Enemies, 2)

	run, err := s.Runner.Store.GetRun(context.Background(), start.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Encounter)
	assert.Len(t, run.Player.Deck, 11)

	history, err := s.Runner.Store.ListCombats(context.Background(), start.RunID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ice_pick", history[0].Reward)

	resumed := callOK(t, s.handleResumeRun, map[string]any{"run_id": start.RunID})
	assert.NotEqual(t, start.SessionID, resumed.SessionID)
	assert.Equal(t, "checkpoint", resumed.Encounter.ID)
	assert.Equal(t, 2, resumed.State.Stage)
}

func TestFailedSaveCanBeRetried(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "netrun.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	s := NewServer(&netrunnet.Runner{Catalog: cat, Store: st, Seed: 3})
	start := startRun(t, s, "sentinel")

	resp := winFirstCombat(t, s, start.SessionID)
	if resp.Pending != DecisionChooseReward {
		t.Skipf("first combat ended with %s", resp.Pending)
	}

	require.NoError(t, st.Close())
	res, text := call(t, s.handleChooseReward, map[string]any{"session_id": start.SessionID, "index": 0})
	require.True(t, res.IsError, text)
	assert.Contains(t, text, "save run")

	resp = callOK(t, s.handleGetState, map[string]any{"session_id": start.SessionID})
	assert.Equal(t, DecisionSettleRun, resp.Pending)
	res, _ = call(t, s.handleChooseReward, map[string]any{"session_id": start.SessionID, "index": 0})
	assert.True(t, res.IsError, "the reward is already taken")

	reopened, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	s.Runner.Store = reopened

	resp = callOK(t, s.handleSettleRun, map[string]any{"session_id": start.SessionID})
	assert.Equal(t, DecisionPlayerTurn, resp.Pending)
	assert.Equal(t, "checkpoint", resp.Encounter.ID)
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, "ICE Pick", resp.Outcome.Reward)

	run, err := reopened.GetRun(context.Background(), start.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Encounter, "progress applied once")
	assert.Len(t, run.Player.Deck, 11, "reward added once")
	history, err := reopened.ListCombats(context.Background(), start.RunID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	res, _ = call(t, s.handleSettleRun, map[string]any{"session_id": start.SessionID})
	assert.True(t, res.IsError, "nothing left to settle")
}

func TestListRuns(t *testing.T) {
	s := newTestServer(t)
	startRun(t, s, "netrunner")
	startRun(t, s, "sentinel")

	_, text := call(t, s.handleListRuns, map[string]any{"limit": 5})
	var runs []runView
	require.NoError(t, json.Unmarshal([]byte(text), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "active", runs[0].Status)
	assert.Equal(t, 1, runs[0].Stage)
}

func TestSessionLookup(t *testing.T) {
	s := newTestServer(t)

	res, _ := call(t, s.handleGetState, nil)
	assert.True(t, res.IsError, "no session yet")

	first := startRun(t, s, "netrunner")
	resp := callOK(t, s.handleGetState, nil)
	assert.Equal(t, first.SessionID, resp.SessionID, "the only session is the default")

	startRun(t, s, "sentinel")
	res, _ = call(t, s.handleGetState, nil)
	assert.True(t, res.IsError, "ambiguous without an id")

	res, _ = call(t, s.handleEndTurn, map[string]any{"session_id": "nope"})
	assert.True(t, res.IsError)
}

func TestRunPlaysToTheEnd(t *testing.T) {
	s := newTestServer(t)
	start := startRun(t, s, "street_samurai")

	resp := start
	for i := 0; i < 5000 && !resp.RunOver; i++ {
		switch resp.Pending {
		case DecisionPlayerTurn:
			resp = callOK(t, s.handleTakeAction, map[string]any{"session_id": start.SessionID, "index": 0})
		case DecisionChooseReward:
			resp = callOK(t, s.handleChooseReward, map[string]any{"session_id": start.SessionID, "index": -1})
		}
	}
	require.True(t, resp.RunOver)
	assert.Contains(t, []string{"won", "lost"}, resp.Result)
	require.NotNil(t, resp.Outcome)

	res, _ := call(t, s.handleTakeAction, map[string]any{"session_id": start.SessionID, "index": 0})
	assert.True(t, res.IsError, "nothing to do once the run is over")

	res, _ = call(t, s.handleResumeRun, map[string]any{"run_id": start.RunID})
	assert.True(t, res.IsError, "finished runs cannot be resumed")
}
