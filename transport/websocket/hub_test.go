package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openpair/chesspair/game/session"
	"github.com/openpair/chesspair/protocol"
)

// recordingSink captures sink callbacks for assertions.
type recordingSink struct {
	mu           sync.Mutex
	connected    []session.HandleID
	disconnected []session.HandleID
	received     []protocol.ClientMessage

	gotMessage chan struct{}
	gotConnect chan struct{}
	gotClose   chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		gotMessage: make(chan struct{}, 16),
		gotConnect: make(chan struct{}, 16),
		gotClose:   make(chan struct{}, 16),
	}
}

func (r *recordingSink) Connected(h session.HandleID) {
	r.mu.Lock()
	r.connected = append(r.connected, h)
	r.mu.Unlock()
	r.gotConnect <- struct{}{}
}

func (r *recordingSink) Disconnected(h session.HandleID) {
	r.mu.Lock()
	r.disconnected = append(r.disconnected, h)
	r.mu.Unlock()
	r.gotClose <- struct{}{}
}

func (r *recordingSink) Receive(h session.HandleID, msg protocol.ClientMessage) {
	r.mu.Lock()
	r.received = append(r.received, msg)
	r.mu.Unlock()
	r.gotMessage <- struct{}{}
}

func newTestServer(t *testing.T) (*Hub, *recordingSink, *httptest.Server) {
	t.Helper()
	sink := newRecordingSink()
	hub := NewHub(sink)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	return hub, sink, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func waitSignal(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestHub_ConnectAssignsHandle(t *testing.T) {
	hub, sink, srv := newTestServer(t)

	conn := dial(t, srv)
	defer conn.Close()
	waitSignal(t, sink.gotConnect, "connect")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.connected) != 1 {
		t.Fatalf("expected one connect, got %d", len(sink.connected))
	}
	if sink.connected[0] == "" {
		t.Error("handle must not be empty")
	}
	if hub.Count() != 1 {
		t.Errorf("hub should track one client, got %d", hub.Count())
	}
}

func TestHub_ReceiveParsesClientMessages(t *testing.T) {
	_, sink, srv := newTestServer(t)

	conn := dial(t, srv)
	defer conn.Close()
	waitSignal(t, sink.gotConnect, "connect")

	if err := conn.WriteJSON(protocol.ClientMessage{Type: "move", From: "e2", To: "e4"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitSignal(t, sink.gotMessage, "message")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	got := sink.received[0]
	if got.Type != "move" || got.UCI() != "e2e4" {
		t.Errorf("received = %+v", got)
	}
}

func TestHub_MalformedFrameKeepsConnection(t *testing.T) {
	_, sink, srv := newTestServer(t)

	conn := dial(t, srv)
	defer conn.Close()
	waitSignal(t, sink.gotConnect, "connect")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := conn.WriteJSON(protocol.ClientMessage{Type: "join"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitSignal(t, sink.gotMessage, "message after malformed frame")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.received) != 1 || sink.received[0].Type != "join" {
		t.Errorf("received = %+v", sink.received)
	}
}

func TestHub_SendDeliversToHandle(t *testing.T) {
	hub, sink, srv := newTestServer(t)

	conn := dial(t, srv)
	defer conn.Close()
	waitSignal(t, sink.gotConnect, "connect")

	sink.mu.Lock()
	handle := sink.connected[0]
	sink.mu.Unlock()

	hub.Send(handle, protocol.Start("somefen", "white"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg protocol.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.Type != "start" || msg.State != "somefen" || msg.Color != "white" {
		t.Errorf("delivered = %+v", msg)
	}
}

func TestHub_SendToUnknownHandleIsDropped(t *testing.T) {
	hub, _, _ := newTestServer(t)

	// Must not panic or block.
	hub.Send("nobody", protocol.OpponentLeft())
}

func TestHub_DisconnectReportedOnce(t *testing.T) {
	hub, sink, srv := newTestServer(t)

	conn := dial(t, srv)
	waitSignal(t, sink.gotConnect, "connect")
	conn.Close()
	waitSignal(t, sink.gotClose, "disconnect")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.disconnected) != 1 {
		t.Fatalf("expected one disconnect, got %d", len(sink.disconnected))
	}
	if sink.disconnected[0] != sink.connected[0] {
		t.Error("disconnect should carry the same handle as connect")
	}
	if hub.Count() != 0 {
		t.Errorf("hub should be empty, got %d", hub.Count())
	}
}
