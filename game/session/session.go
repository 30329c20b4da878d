// Package session holds the state of active two-party games: the sessions
// themselves, the per-connection attachments that tie a connection handle to
// its session and color, and the pending replay requests.
//
// The Store exclusively owns every Session and replay request set. Nothing
// in this package locks: all access is serialized by the orchestrator's
// dispatch loop.
package session

import "time"

// HandleID is an opaque identifier for one live connection, assigned by the
// transport at connect time and invalid after disconnect.
type HandleID string

// Color is a participant's side in a session.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Phase describes whether a session still accepts moves.
type Phase string

const (
	PhaseActive Phase = "active"
	PhaseOver   Phase = "over"
)

// Board is the rules-engine view of a single game. Implementations validate
// and apply moves, report the current position, and report terminal status.
// Legality, including turn order, is entirely the board's concern.
type Board interface {
	// Apply validates the UCI move against the current position and plays
	// it, or returns an error leaving the position unchanged.
	Apply(uci string) error
	// FEN returns the current position.
	FEN() string
	// Outcome returns the result string ("1-0", "0-1", "1/2-1/2") and true
	// once the position is terminal.
	Outcome() (string, bool)
}

// Session is one active game between two fixed participants. The first
// participant always plays white. A session is destroyed, never left with a
// single participant.
type Session struct {
	ID        string
	White     HandleID
	Black     HandleID
	Board     Board
	Phase     Phase
	CreatedAt time.Time
}

// Participants returns both handles, white first.
func (s *Session) Participants() [2]HandleID {
	return [2]HandleID{s.White, s.Black}
}

// Opponent returns the other participant's handle. ok is false when h is
// not a participant of this session.
func (s *Session) Opponent(h HandleID) (HandleID, bool) {
	switch h {
	case s.White:
		return s.Black, true
	case s.Black:
		return s.White, true
	}
	return "", false
}

// ColorOf returns the color assigned to h.
func (s *Session) ColorOf(h HandleID) (Color, bool) {
	switch h {
	case s.White:
		return White, true
	case s.Black:
		return Black, true
	}
	return "", false
}

// Restart resets the session in place for an agreed rematch: same identity,
// same participants, fresh board.
func (s *Session) Restart(board Board) {
	s.Board = board
	s.Phase = PhaseActive
}
