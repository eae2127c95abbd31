package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/peterkuimelis/netrun/internal/catalog"
	netrunnet "github.com/peterkuimelis/netrun/internal/net"
	"github.com/peterkuimelis/netrun/internal/store"
	"go.uber.org/zap"
)

//go:embed static
var staticFiles embed.FS

// CardInfo is the JSON representation of a card for the /api/cards endpoint.
type CardInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Type        string `json:"type"`
	Rarity      string `json:"rarity,omitempty"`
	Exhaust     bool   `json:"exhaust,omitempty"`
}

// BuildInfo is the JSON representation of a build for the /api/builds endpoint.
type BuildInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	DeckSize    int      `json:"deckSize"`
	Cards       []string `json:"cards"`
	Artifacts   []string `json:"artifacts,omitempty"`
}

// RunInfo is the JSON representation of a stored run for the /api/runs endpoints.
type RunInfo struct {
	ID        string               `json:"id"`
	Player    string               `json:"player"`
	Build     string               `json:"build"`
	Stage     int                  `json:"stage"`
	Status    string               `json:"status"`
	Health    int                  `json:"health"`
	MaxHealth int                  `json:"maxHealth"`
	Credits   int                  `json:"credits"`
	UpdatedAt time.Time            `json:"updatedAt"`
	Combats   []store.CombatRecord `json:"combats,omitempty"`
}

// Options configures the web server.
type Options struct {
	Catalog  *catalog.Catalog
	Store    *store.Store // nil disables /api/runs
	GameAddr string       // default game server for websocket sessions
	Diag     *zap.Logger
}

// Server is the netrun web UI server.
type Server struct {
	catalog  *catalog.Catalog
	store    *store.Store
	gameAddr string
	diag     *zap.Logger
	mux      *http.ServeMux
}

// NewServer creates a new web server.
func NewServer(opts Options) (*Server, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	diag := opts.Diag
	if diag == nil {
		diag = zap.NewNop()
	}
	s := &Server{
		catalog:  opts.Catalog,
		store:    opts.Store,
		gameAddr: opts.GameAddr,
		diag:     diag,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	// Embedded static files
	staticFS, _ := fs.Sub(staticFiles, "static")

	// Serve index.html at root
	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data, err := fs.ReadFile(staticFS, "index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	})

	// Static CSS/JS
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// API endpoints
	s.mux.HandleFunc("GET /api/cards", s.handleCards)
	s.mux.HandleFunc("GET /api/builds", s.handleBuilds)
	s.mux.HandleFunc("GET /api/encounters", s.handleEncounters)
	s.mux.HandleFunc("GET /api/runs", s.handleRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleRun)

	// WebSocket proxy
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	cards := []CardInfo{}
	for _, c := range s.catalog.Cards() {
		cards = append(cards, CardInfo{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Cost:        c.Cost,
			Type:        string(c.Type),
			Rarity:      string(c.Rarity),
			Exhaust:     c.ExhaustsOnPlay(),
		})
	}
	writeJSON(w, cards)
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	builds := []BuildInfo{}
	for _, b := range s.catalog.Builds() {
		bi := BuildInfo{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			DeckSize:    b.DeckSize(),
			Artifacts:   b.Artifacts,
		}
		for _, entry := range b.Deck {
			card, err := s.catalog.Card(entry.Card)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			bi.Cards = append(bi.Cards, fmt.Sprintf("%dx %s", entry.Count, card.Name))
		}
		builds = append(builds, bi)
	}
	writeJSON(w, builds)
}

func (s *Server) handleEncounters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.catalog.Encounters)
}

func runInfo(run store.Run) RunInfo {
	return RunInfo{
		ID:        run.ID,
		Player:    run.PlayerName,
		Build:     run.Build,
		Stage:     run.Encounter + 1,
		Status:    string(run.Status),
		Health:    run.Player.Health,
		MaxHealth: run.Player.MaxHealth,
		Credits:   run.Player.Credits,
		UpdatedAt: run.UpdatedAt,
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run storage is not configured", http.StatusNotFound)
		return
	}
	runs, err := s.store.ListRuns(r.Context(), 50)
	if err != nil {
		s.diag.Error("list runs", zap.Error(err))
		http.Error(w, "could not list runs", http.StatusInternalServerError)
		return
	}
	out := []RunInfo{}
	for _, run := range runs {
		out = append(out, runInfo(run))
	}
	writeJSON(w, out)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run storage is not configured", http.StatusNotFound)
		return
	}
	id := r.PathValue("id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.diag.Error("get run", zap.String("run", id), zap.Error(err))
		http.Error(w, "could not load run", http.StatusInternalServerError)
		return
	}
	info := runInfo(run)
	info.Combats, err = s.store.ListCombats(r.Context(), id)
	if err != nil {
		s.diag.Error("list combats", zap.String("run", id), zap.Error(err))
		http.Error(w, "could not load run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, info)
}

// connectMessage is the first message a browser sends on /ws.
type connectMessage struct {
	Type  string `json:"type"`
	Addr  string `json:"addr,omitempty"`
	Name  string `json:"name,omitempty"`
	Build string `json:"build,omitempty"`
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		s.diag.Warn("websocket accept", zap.Error(err))
		return
	}
	defer wsConn.CloseNow()

	ctx := r.Context()

	// Read initial connect message from browser
	_, connectData, err := wsConn.Read(ctx)
	if err != nil {
		s.diag.Warn("websocket read connect", zap.Error(err))
		return
	}

	var connect connectMessage
	if err := json.Unmarshal(connectData, &connect); err != nil || connect.Type != "connect" {
		wsConn.Close(websocket.StatusPolicyViolation, "expected connect message")
		return
	}
	addr := connect.Addr
	if addr == "" {
		addr = s.gameAddr
	}

	// Open TCP connection to game server
	var d net.Dialer
	tcpConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		errMsg, _ := json.Marshal(netrunnet.ServerMessage{
			Type:    netrunnet.MsgError,
			Message: fmt.Sprintf("Could not connect to game server at %s: %v", addr, err),
		})
		wsConn.Write(ctx, websocket.MessageText, errMsg)
		wsConn.Close(websocket.StatusNormalClosure, "connection failed")
		return
	}
	defer tcpConn.Close()

	// Send join message over TCP
	join := netrunnet.ClientMessage{
		Type:  netrunnet.MsgJoin,
		Name:  connect.Name,
		Build: connect.Build,
		RunID: connect.RunID,
	}
	if err := json.NewEncoder(tcpConn).Encode(join); err != nil {
		s.diag.Warn("tcp write join", zap.Error(err))
		return
	}
	s.diag.Info("websocket session", zap.String("addr", addr), zap.String("build", join.Build), zap.String("run", join.RunID))

	proxy(ctx, wsConn, tcpConn, s.diag)
}

// proxy shuttles messages between the browser and the game server until the
// server closes the connection.
func proxy(ctx context.Context, wsConn *websocket.Conn, tcpConn net.Conn, diag *zap.Logger) {
	done := make(chan struct{})

	// TCP → WebSocket (server messages to browser)
	go func() {
		defer close(done)
		dec := json.NewDecoder(tcpConn)
		for {
			var msg json.RawMessage
			if err := dec.Decode(&msg); err != nil {
				if !errors.Is(err, io.EOF) {
					diag.Debug("tcp read", zap.Error(err))
				}
				return
			}
			if err := wsConn.Write(ctx, websocket.MessageText, msg); err != nil {
				diag.Debug("websocket write", zap.Error(err))
				return
			}
		}
	}()

	// WebSocket → TCP (browser responses to server)
	go func() {
		for {
			_, data, err := wsConn.Read(ctx)
			if err != nil {
				tcpConn.Close()
				return
			}
			data = append(data, '\n')
			if _, err := tcpConn.Write(data); err != nil {
				diag.Debug("tcp write", zap.Error(err))
				return
			}
		}
	}()

	<-done
	wsConn.Close(websocket.StatusNormalClosure, "run ended")
}

// ListenAndServe serves HTTP on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
