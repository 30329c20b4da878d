package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/openpair/chesspair/game/orchestrator"
	"github.com/openpair/chesspair/game/rules"
	"github.com/openpair/chesspair/game/session"
	"github.com/openpair/chesspair/protocol"
	"github.com/openpair/chesspair/transport/websocket"
)

// hubRelay lets the orchestrator send through a hub created after it.
type hubRelay struct {
	hub *websocket.Hub
}

func (r *hubRelay) Send(to session.HandleID, msg protocol.ServerMessage) {
	r.hub.Send(to, msg)
}

func newTestStack(t *testing.T) *httptest.Server {
	t.Helper()

	relay := &hubRelay{}
	orch := orchestrator.New(relay, func() session.Board { return rules.NewBoard() })
	hub := websocket.NewHub(orch)
	relay.hub = hub

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go orch.Run(ctx)

	srv := httptest.NewServer(NewServer(orch, hub))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestServer_Health(t *testing.T) {
	srv := newTestStack(t)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestServer_StatsEmpty(t *testing.T) {
	srv := newTestStack(t)

	var stats orchestrator.Stats
	resp := getJSON(t, srv.URL+"/api/stats", &stats)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if stats.Connections != 0 || stats.ActiveSessions != 0 {
		t.Errorf("fresh server should have zero counters: %+v", stats)
	}
}

func TestServer_UnknownSession(t *testing.T) {
	srv := newTestStack(t)

	resp := getJSON(t, srv.URL+"/api/sessions/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

// TestServer_EndToEnd drives two WebSocket clients through matchmaking and
// one move, then checks the observation endpoints.
func TestServer_EndToEnd(t *testing.T) {
	srv := newTestStack(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	c1 := dialWS(t, wsURL)
	c2 := dialWS(t, wsURL)

	if err := c1.WriteJSON(protocol.ClientMessage{Type: protocol.TypeJoin}); err != nil {
		t.Fatal(err)
	}
	// Wait until the first join is queued so pairing order is deterministic.
	waitForCondition(t, func() bool {
		var stats orchestrator.Stats
		getJSON(t, srv.URL+"/api/stats", &stats)
		return stats.Waiting == 1
	})
	if err := c2.WriteJSON(protocol.ClientMessage{Type: protocol.TypeJoin}); err != nil {
		t.Fatal(err)
	}

	start1 := readMessage(t, c1)
	start2 := readMessage(t, c2)
	if start1.Type != protocol.TypeStart || start1.Color != "white" {
		t.Fatalf("first joiner start = %+v", start1)
	}
	if start2.Type != protocol.TypeStart || start2.Color != "black" {
		t.Fatalf("second joiner start = %+v", start2)
	}
	if start1.State != start2.State {
		t.Error("both participants must see the same initial state")
	}

	// White opens.
	if err := c1.WriteJSON(protocol.ClientMessage{Type: protocol.TypeMove, From: "e2", To: "e4"}); err != nil {
		t.Fatal(err)
	}
	move1 := readMessage(t, c1)
	move2 := readMessage(t, c2)
	if move1.Type != protocol.TypeMove || move1.UCI != "e2e4" {
		t.Fatalf("white move echo = %+v", move1)
	}
	if move2.State != move1.State {
		t.Error("broadcasted state must be identical for both participants")
	}

	// Observation endpoints see the session.
	var list struct {
		Count    int                            `json:"count"`
		Sessions []orchestrator.SessionSnapshot `json:"sessions"`
	}
	getJSON(t, srv.URL+"/api/sessions", &list)
	if list.Count != 1 {
		t.Fatalf("session count = %d, want 1", list.Count)
	}
	if list.Sessions[0].State != move1.State {
		t.Error("snapshot state should match the broadcast state")
	}

	var snap orchestrator.SessionSnapshot
	resp := getJSON(t, srv.URL+"/api/sessions/"+list.Sessions[0].ID, &snap)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get session status = %d", resp.StatusCode)
	}

	var stats orchestrator.Stats
	getJSON(t, srv.URL+"/api/stats", &stats)
	if stats.Connections != 2 || stats.ActiveSessions != 1 || stats.MovesApplied != 1 {
		t.Errorf("stats = %+v", stats)
	}

	// Disconnecting one side notifies the other and tears the session down.
	c2.Close()
	left := readMessage(t, c1)
	if left.Type != protocol.TypeOpponentLeft {
		t.Fatalf("survivor got %+v, want opponent_left", left)
	}

	waitForCondition(t, func() bool {
		var stats orchestrator.Stats
		getJSON(t, srv.URL+"/api/stats", &stats)
		return stats.ActiveSessions == 0
	})

	c1.Close()
}

func dialWS(t *testing.T, url string) *gws.Conn {
	t.Helper()
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gws.Conn) protocol.ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg protocol.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
