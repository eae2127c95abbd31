package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/peterkuimelis/netrun/internal/catalog"
	netrunnet "github.com/peterkuimelis/netrun/internal/net"
	"github.com/peterkuimelis/netrun/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cat   *catalog.Catalog
	store *store.Store
	web   *httptest.Server
}

func newFixture(t *testing.T, gameAddr string) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	st, err := store.Open(filepath.Join(t.TempDir(), "netrun.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv, err := NewServer(Options{Catalog: cat, Store: st, GameAddr: gameAddr})
	require.NoError(t, err)
	web := httptest.NewServer(srv.Handler())
	t.Cleanup(web.Close)
	return &fixture{cat: cat, store: st, web: web}
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestNewServerRequiresCatalog(t *testing.T) {
	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	f := newFixture(t, "")

	resp, err := http.Get(f.web.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, err = http.Get(f.web.URL + "/static/app.js")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(f.web.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogAPI(t *testing.T) {
	f := newFixture(t, "")

	var cards []CardInfo
	getJSON(t, f.web.URL+"/api/cards", &cards)
	assert.Len(t, cards, len(f.cat.Cards()))
	assert.Equal(t, "basic_attack", cards[0].ID)

	var builds []BuildInfo
	getJSON(t, f.web.URL+"/api/builds", &builds)
	require.Len(t, builds, 3)
	assert.Equal(t, 10, builds[1].DeckSize)
	assert.Contains(t, builds[1].Cards, "5x Firewall")

	var encounters []catalog.Encounter
	getJSON(t, f.web.URL+"/api/encounters", &encounters)
	require.Len(t, encounters, 4)
	assert.True(t, encounters[3].Boss)
}

func TestRunsAPI(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	p, err := f.cat.NewPlayer("Case", "sentinel")
	require.NoError(t, err)
	run, err := f.store.CreateRun(ctx, p)
	require.NoError(t, err)
	require.NoError(t, f.store.RecordCombat(ctx, store.CombatRecord{
		RunID: run.ID, EncounterID: "perimeter", Result: "victory", Turns: 5, Credits: 15,
	}))

	var runs []RunInfo
	getJSON(t, f.web.URL+"/api/runs", &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 80, runs[0].MaxHealth)

	var info RunInfo
	getJSON(t, f.web.URL+"/api/runs/"+run.ID, &info)
	require.Len(t, info.Combats, 1)
	assert.Equal(t, "perimeter", info.Combats[0].EncounterID)

	resp := getJSON(t, f.web.URL+"/api/runs/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunsAPIWithoutStore(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	srv, err := NewServer(Options{Catalog: cat})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func startGameServer(t *testing.T, st *store.Store, cat *catalog.Catalog) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	srv := &netrunnet.Server{Runner: &netrunnet.Runner{Catalog: cat, Store: st, Seed: 9}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func dialWS(t *testing.T, f *fixture) (*websocket.Conn, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(f.web.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	conn.SetReadLimit(1 << 20)
	t.Cleanup(func() { conn.CloseNow() })
	return conn, ctx
}

func TestWebSocketProxyPlaysRun(t *testing.T) {
	f := newFixture(t, "")
	addr := startGameServer(t, f.store, f.cat)
	conn, ctx := dialWS(t, f)

	connect, _ := json.Marshal(connectMessage{Type: "connect", Addr: addr, Name: "Case", Build: "sentinel"})
	require.NoError(t, conn.Write(ctx, websocket.MessageText, connect))

	var (
		over       netrunnet.ServerMessage
		encounters int
	)
	for over.Type == "" {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg netrunnet.ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))

		var reply *netrunnet.ClientMessage
		switch msg.Type {
		case netrunnet.MsgEncounter:
			encounters++
		case netrunnet.MsgChooseAction:
			reply = &netrunnet.ClientMessage{Type: netrunnet.MsgAction, Index: 0}
		case netrunnet.MsgChooseReward:
			reply = &netrunnet.ClientMessage{Type: netrunnet.MsgReward, Index: 0}
		case netrunnet.MsgRunOver, netrunnet.MsgError:
			over = msg
		}
		if reply != nil {
			data, _ := json.Marshal(reply)
			require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
		}
	}

	require.Equal(t, netrunnet.MsgRunOver, over.Type, over.Message)
	assert.Positive(t, encounters)

	run, err := f.store.GetRun(context.Background(), over.RunID)
	require.NoError(t, err)
	assert.Equal(t, over.Result, string(run.Status))
}

func TestWebSocketUsesDefaultGameAddr(t *testing.T) {
	f := newFixture(t, "")
	addr := startGameServer(t, f.store, f.cat)

	srv, err := NewServer(Options{Catalog: f.cat, Store: f.store, GameAddr: addr})
	require.NoError(t, err)
	web := httptest.NewServer(srv.Handler())
	defer web.Close()
	conn, ctx := dialWS(t, &fixture{web: web})

	connect, _ := json.Marshal(connectMessage{Type: "connect", Build: "netrunner"})
	require.NoError(t, conn.Write(ctx, websocket.MessageText, connect))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg netrunnet.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, netrunnet.MsgEncounter, msg.Type)
	assert.Equal(t, "perimeter", msg.Encounter.ID)
}

func TestWebSocketUnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	f := newFixture(t, addr)
	conn, ctx := dialWS(t, f)
	connect, _ := json.Marshal(connectMessage{Type: "connect", Build: "netrunner"})
	require.NoError(t, conn.Write(ctx, websocket.MessageText, connect))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg netrunnet.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, netrunnet.MsgError, msg.Type)
	assert.Contains(t, msg.Message, addr)
}

func TestWebSocketRejectsBadHandshake(t *testing.T) {
	f := newFixture(t, "")
	conn, ctx := dialWS(t, f)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"hello"}`)))

	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}
