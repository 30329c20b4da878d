// Package rules adapts the corentings/chess library to the Board interface
// the session store expects. It is the only package that knows chess rules;
// the orchestrator trusts its verdicts, including turn order.
package rules

import (
	"errors"

	nchess "github.com/corentings/chess/v2"
)

// ErrIllegalMove is returned for any move that does not parse as UCI or is
// not legal in the current position.
var ErrIllegalMove = errors.New("illegal move")

// Board wraps a chess game at some position, starting from the canonical
// initial one.
type Board struct {
	game *nchess.Game
}

// NewBoard returns a board at the initial position.
func NewBoard() *Board {
	return &Board{game: nchess.NewGame()}
}

// Apply validates uci against the current position and plays it. The move
// is decoded from UCI, re-encoded as SAN, and pushed, since the game type
// only accepts algebraic notation.
func (b *Board) Apply(uci string) error {
	pos := b.game.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return ErrIllegalMove
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	if err := b.game.PushMove(san, nil); err != nil {
		return ErrIllegalMove
	}
	return nil
}

// FEN returns the current position.
func (b *Board) FEN() string {
	return b.game.FEN()
}

// Outcome reports the result string and whether the game has ended by
// checkmate, stalemate, or any of the automatic draw rules.
func (b *Board) Outcome() (string, bool) {
	out := b.game.Outcome()
	if out == nchess.NoOutcome {
		return "", false
	}
	return string(out), true
}

// Turn returns the color to move, "white" or "black".
func (b *Board) Turn() string {
	if b.game.Position().Turn() == nchess.White {
		return "white"
	}
	return "black"
}

// LegalMoves returns the legal moves from the current position in UCI form.
// The server never calls this; it exists for headless clients that need to
// pick a move.
func (b *Board) LegalMoves() []string {
	valid := b.game.ValidMoves()
	out := make([]string, 0, len(valid))
	for _, mv := range valid {
		out = append(out, mv.String())
	}
	return out
}
