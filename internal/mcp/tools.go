package mcp

import (
	"context"
	"errors"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/peterkuimelis/netrun/internal/game"
	netrunnet "github.com/peterkuimelis/netrun/internal/net"
)

// Server exposes runs as MCP tools. Each start_run or resume_run opens a
// session addressed by its id.
type Server struct {
	Runner *netrunnet.Runner

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewServer creates a tool server playing runs with runner.
func NewServer(runner *netrunnet.Runner) *Server {
	return &Server{Runner: runner, sessions: make(map[string]*Session)}
}

// RegisterTools adds all game tools to the MCP server.
func (s *Server) RegisterTools(ms *server.MCPServer) {
	ms.AddTool(listBuildsTool(), s.handleListBuilds)
	ms.AddTool(startRunTool(), s.handleStartRun)
	ms.AddTool(resumeRunTool(), s.handleResumeRun)
	ms.AddTool(listRunsTool(), s.handleListRuns)
	ms.AddTool(getStateTool(), s.handleGetState)
	ms.AddTool(playCardTool(), s.handlePlayCard)
	ms.AddTool(endTurnTool(), s.handleEndTurn)
	ms.AddTool(takeActionTool(), s.handleTakeAction)
	ms.AddTool(chooseRewardTool(), s.handleChooseReward)
	ms.AddTool(settleRunTool(), s.handleSettleRun)
}

// --- Tool definitions ---

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Description("Session id from start_run or resume_run. May be omitted while only one session is open."))
}

func listBuildsTool() mcp.Tool {
	return mcp.NewTool("list_builds",
		mcp.WithDescription("List the player builds a run can start with, with their starting decks and artifacts. Read-only."),
	)
}

func startRunTool() mcp.Tool {
	return mcp.NewTool("start_run",
		mcp.WithDescription("Start a new run and open its first combat. Returns the session id, the combat state and the legal actions."),
		mcp.WithString("build", mcp.Required(), mcp.Description("Build id from list_builds (e.g. 'netrunner')")),
		mcp.WithString("name", mcp.Description("Player name")),
	)
}

func resumeRunTool() mcp.Tool {
	return mcp.NewTool("resume_run",
		mcp.WithDescription("Resume a stored active run at its next encounter."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id from list_runs")),
	)
}

func listRunsTool() mcp.Tool {
	return mcp.NewTool("list_runs",
		mcp.WithDescription("List stored runs, most recently played first. Read-only."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 10)")),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the current combat state, legal actions and pending decision without changing anything. Read-only."),
		sessionParam(),
	)
}

func playCardTool() mcp.Tool {
	return mcp.NewTool("play_card",
		mcp.WithDescription("Play a card from the hand. Use when the pending decision is 'player_turn'. Invalid plays change nothing and return an error."),
		sessionParam(),
		mcp.WithNumber("hand_index", mcp.Required(), mcp.Description("0-based index of the card in the hand")),
		mcp.WithNumber("target_index", mcp.Description("0-based index of the target enemy; -1 (default) picks the only living enemy")),
	)
}

func endTurnTool() mcp.Tool {
	return mcp.NewTool("end_turn",
		mcp.WithDescription("End the player turn. The enemies act, then the next player turn starts unless the combat ended."),
		sessionParam(),
	)
}

func takeActionTool() mcp.Tool {
	return mcp.NewTool("take_action",
		mcp.WithDescription("Take an action from the legal actions list. Use when the pending decision is 'player_turn'."),
		sessionParam(),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into the actions list")),
	)
}

func chooseRewardTool() mcp.Tool {
	return mcp.NewTool("choose_reward",
		mcp.WithDescription("Add a reward card to the deck after a victory. Use when the pending decision is 'choose_reward'. The next encounter starts right after."),
		sessionParam(),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into the rewards list, or -1 to skip")),
	)
}

func settleRunTool() mcp.Tool {
	return mcp.NewTool("settle_run",
		mcp.WithDescription("Retry saving the finished combat and open the next encounter. Use when the pending decision is 'settle_run', after a save error."),
		sessionParam(),
	)
}

// --- Sessions ---

func (s *Server) add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// lookup finds the session named by id. An empty id resolves to the only
// open session.
func (s *Server) lookup(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" && len(s.sessions) == 1 {
		for _, sess := range s.sessions {
			return sess, nil
		}
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

func toolResult(resp *ToolResponse, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

// withSession resolves the request's session before calling fn.
func (s *Server) withSession(request mcp.CallToolRequest, fn func(*Session) (*ToolResponse, error)) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request.GetString("session_id", ""))
	if err != nil {
		if errors.Is(err, ErrUnknownSession) {
			return mcp.NewToolResultError("No such session. Use start_run or resume_run first."), nil
		}
		return toolResult(nil, err)
	}
	return toolResult(fn(sess))
}

// --- Tool handlers ---

type buildView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MaxHealth   int      `json:"max_health"`
	DeckSize    int      `json:"deck_size"`
	Deck        []string `json:"deck"`
	Artifacts   []string `json:"artifacts,omitempty"`
}

func (s *Server) handleListBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var views []buildView
	for _, b := range s.Runner.Catalog.Builds() {
		v := buildView{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			MaxHealth:   b.MaxHealth,
			DeckSize:    b.DeckSize(),
			Artifacts:   b.Artifacts,
		}
		if v.MaxHealth == 0 {
			v.MaxHealth = game.DefaultMaxHealth
		}
		for _, entry := range b.Deck {
			card, err := s.Runner.Catalog.Card(entry.Card)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			for i := 0; i < entry.Count; i++ {
				v.Deck = append(v.Deck, card.Name)
			}
		}
		views = append(views, v)
	}
	return mcp.NewToolResultText(respondJSON(views)), nil
}

func (s *Server) handleStartRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	build := request.GetString("build", "")
	if build == "" {
		return mcp.NewToolResultError("build is required"), nil
	}
	name := request.GetString("name", "Runner")

	run, err := s.Runner.NewRun(ctx, name, build)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start run: %v", err), nil
	}
	sess, resp, err := startSession(s.Runner, run)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start run: %v", err), nil
	}
	s.add(sess)
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Server) handleResumeRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	run, err := s.Runner.LoadRun(ctx, request.GetString("run_id", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to resume run: %v", err), nil
	}
	sess, resp, err := startSession(s.Runner, run)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to resume run: %v", err), nil
	}
	s.add(sess)
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

type runView struct {
	ID        string `json:"id"`
	Player    string `json:"player"`
	Build     string `json:"build"`
	Stage     int    `json:"stage"`
	Status    string `json:"status"`
	Health    int    `json:"health"`
	Credits   int    `json:"credits"`
	UpdatedAt string `json:"updated_at"`
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.Runner.Store == nil {
		return mcp.NewToolResultError("No run store configured."), nil
	}
	runs, err := s.Runner.Store.ListRuns(ctx, request.GetInt("limit", 10))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to list runs: %v", err), nil
	}
	views := make([]runView, 0, len(runs))
	for _, r := range runs {
		views = append(views, runView{
			ID:        r.ID,
			Player:    r.PlayerName,
			Build:     r.Build,
			Stage:     r.Encounter + 1,
			Status:    string(r.Status),
			Health:    r.Player.Health,
			Credits:   r.Player.Credits,
			UpdatedAt: r.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return mcp.NewToolResultText(respondJSON(views)), nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(request, func(sess *Session) (*ToolResponse, error) {
		return sess.State(), nil
	})
}

func (s *Server) handlePlayCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hand := request.GetInt("hand_index", -1)
	target := request.GetInt("target_index", -1)
	return s.withSession(request, func(sess *Session) (*ToolResponse, error) {
		return sess.PlayCard(ctx, hand, target)
	})
}

func (s *Server) handleEndTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(request, func(sess *Session) (*ToolResponse, error) {
		return sess.EndTurn(ctx)
	})
}

func (s *Server) handleTakeAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index := request.GetInt("index", -1)
	return s.withSession(request, func(sess *Session) (*ToolResponse, error) {
		return sess.TakeAction(ctx, index)
	})
}

func (s *Server) handleChooseReward(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index := request.GetInt("index", -1)
	return s.withSession(request, func(sess *Session) (*ToolResponse, error) {
		return sess.ChooseReward(ctx, index)
	})
}

func (s *Server) handleSettleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(request, func(sess *Session) (*ToolResponse, error) {
		return sess.SettleRun(ctx)
	})
}
