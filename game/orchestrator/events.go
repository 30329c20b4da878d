package orchestrator

import (
	"github.com/openpair/chesspair/game/session"
	"github.com/openpair/chesspair/protocol"
)

// EventType tags the variants of an orchestrator event.
type EventType int

const (
	EventConnect EventType = iota
	EventDisconnect
	EventJoin
	EventMove
	EventReplay
	EventQuit
)

func (t EventType) String() string {
	switch t {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventJoin:
		return "join"
	case EventMove:
		return "move"
	case EventReplay:
		return "replay"
	case EventQuit:
		return "quit"
	}
	return "unknown"
}

// Event is one unit of work for the dispatch loop. Msg carries the move
// payload for EventMove and is zero otherwise.
type Event struct {
	Type   EventType
	Handle session.HandleID
	Msg    protocol.ClientMessage
}

// Connected implements the transport sink: a new handle is live.
func (o *Orchestrator) Connected(h session.HandleID) {
	o.events <- Event{Type: EventConnect, Handle: h}
}

// Disconnected implements the transport sink: the handle is gone. This is
// the only cancellation signal in the protocol.
func (o *Orchestrator) Disconnected(h session.HandleID) {
	o.events <- Event{Type: EventDisconnect, Handle: h}
}

// Receive implements the transport sink: a parsed client message arrived.
// Messages with unknown types are dropped here so the loop only ever sees
// well-formed events.
func (o *Orchestrator) Receive(h session.HandleID, msg protocol.ClientMessage) {
	switch msg.Type {
	case protocol.TypeJoin:
		o.events <- Event{Type: EventJoin, Handle: h}
	case protocol.TypeMove:
		o.events <- Event{Type: EventMove, Handle: h, Msg: msg}
	case protocol.TypeReplay:
		o.events <- Event{Type: EventReplay, Handle: h}
	case protocol.TypeQuit:
		o.events <- Event{Type: EventQuit, Handle: h}
	}
}
