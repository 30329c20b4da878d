// Package protocol defines the JSON wire messages exchanged between the
// ChessPair server and its clients.
//
// Client to server:
//   - {"type": "join"}                                  request a game
//   - {"type": "move", "from": "e2", "to": "e4"}        attempt a move
//   - {"type": "replay"}                                request a rematch
//   - {"type": "quit"}                                  leave the current game
//
// Server to client:
//   - {"type": "start", "state": <fen>, "color": ...}   pairing completed
//   - {"type": "move", "uci": ..., "state": <fen>}      move accepted
//   - {"type": "invalid", "uci": ...}                   move rejected (requester only)
//   - {"type": "game_over", "result": "1-0"}            terminal position
//   - {"type": "replay_start", "state": <fen>}          both sides agreed
//   - {"type": "opponent_left"}                         peer quit or disconnected
//
// Board state is carried as a FEN string so clients never need to track
// moves themselves.
package protocol

// Client message types.
const (
	TypeJoin   = "join"
	TypeMove   = "move"
	TypeReplay = "replay"
	TypeQuit   = "quit"
)

// Server message types. TypeMove is shared: the server echoes accepted
// moves under the same type name.
const (
	TypeStart        = "start"
	TypeInvalid      = "invalid"
	TypeGameOver     = "game_over"
	TypeReplayStart  = "replay_start"
	TypeOpponentLeft = "opponent_left"
)

// ClientMessage is a message received from a client. From/To/Promotion are
// only meaningful for move messages.
type ClientMessage struct {
	Type      string `json:"type"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI builds the UCI move string for a move message, e.g. "e2e4" or "e7e8q"
// when a promotion piece is present.
func (m ClientMessage) UCI() string {
	return m.From + m.To + m.Promotion
}

// ServerMessage is a message sent to a client. Fields are populated per
// message type; empty fields are omitted on the wire.
type ServerMessage struct {
	Type   string `json:"type"`
	State  string `json:"state,omitempty"`
	Color  string `json:"color,omitempty"`
	UCI    string `json:"uci,omitempty"`
	Result string `json:"result,omitempty"`
}

// Start announces a completed pairing, carrying the initial board state and
// the recipient's assigned color.
func Start(state, color string) ServerMessage {
	return ServerMessage{Type: TypeStart, State: state, Color: color}
}

// Move broadcasts an accepted move and the resulting board state.
func Move(uci, state string) ServerMessage {
	return ServerMessage{Type: TypeMove, UCI: uci, State: state}
}

// Invalid reports a rejected move to the requester.
func Invalid(uci string) ServerMessage {
	return ServerMessage{Type: TypeInvalid, UCI: uci}
}

// GameOver announces a terminal position with its result string.
func GameOver(result string) ServerMessage {
	return ServerMessage{Type: TypeGameOver, Result: result}
}

// ReplayStart announces an agreed rematch with a fresh board state.
func ReplayStart(state string) ServerMessage {
	return ServerMessage{Type: TypeReplayStart, State: state}
}

// OpponentLeft notifies a participant that its peer quit or disconnected.
func OpponentLeft() ServerMessage {
	return ServerMessage{Type: TypeOpponentLeft}
}
