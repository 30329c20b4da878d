package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/openpair/chesspair/game/session"
	"github.com/openpair/chesspair/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// EventSink receives connection lifecycle and parsed client messages. The
// orchestrator implements it; hub goroutines call it and must never be
// blocked for long.
type EventSink interface {
	Connected(h session.HandleID)
	Disconnected(h session.HandleID)
	Receive(h session.HandleID, msg protocol.ClientMessage)
}

// Client represents one WebSocket connection and its assigned handle.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	handle session.HandleID
}

// Hub is the channel registry: it tracks live connections by handle,
// delivers addressed sends, and reports connect/disconnect to the sink.
type Hub struct {
	sink EventSink

	mu      sync.RWMutex
	clients map[session.HandleID]*Client
}

// NewHub creates a hub reporting into sink.
func NewHub(sink EventSink) *Hub {
	return &Hub{
		sink:    sink,
		clients: make(map[session.HandleID]*Client),
	}
}

// ServeWS upgrades an HTTP request, assigns a fresh handle, and starts the
// read/write pumps. The handle is valid until the connection drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		handle: session.HandleID(uuid.NewString()),
	}

	h.mu.Lock()
	h.clients[client.handle] = client
	h.mu.Unlock()

	log.Printf("websocket: client %s connected (total: %d)", client.handle, h.Count())
	h.sink.Connected(client.handle)

	go client.writePump()
	go client.readPump()
}

// Send delivers a message to one handle. Sends are fire-and-forget: unknown
// handles are ignored and a full client buffer drops the message rather
// than blocking the caller.
func (h *Hub) Send(to session.HandleID, msg protocol.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("websocket: marshal failed: %v", err)
		return
	}

	// The non-blocking send stays under the read lock: remove closes the
	// channel only under the write lock, after taking the client out of
	// the map, so a client found here cannot be closed underneath us.
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[to]
	if !ok {
		return
	}

	select {
	case client.send <- data:
	default:
		log.Printf("websocket: client %s send buffer full, dropping %s", to, msg.Type)
	}
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// remove forgets the client and tells the sink exactly once.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client.handle]
	if known {
		delete(h.clients, client.handle)
		close(client.send)
	}
	h.mu.Unlock()

	if known {
		log.Printf("websocket: client %s disconnected (remaining: %d)", client.handle, h.Count())
		h.sink.Disconnected(client.handle)
	}
}

// readPump pumps messages from the WebSocket connection into the sink.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket: read error from %s: %v", c.handle, err)
			}
			break
		}

		var msg protocol.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("websocket: bad message from %s: %v", c.handle, err)
			continue
		}
		c.hub.sink.Receive(c.handle, msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
