// Command sparbot is a headless sparring client for the ChessPair server.
// It joins the matchmaking queue, plays uniformly random legal moves, and
// optionally requests rematches. Run two of them against an empty queue to
// soak-test the full pairing/move/replay/teardown cycle without a browser.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"

	"github.com/openpair/chesspair/game/rules"
	"github.com/openpair/chesspair/protocol"
)

func main() {
	cmd := &cli.Command{
		Name:  "sparbot",
		Usage: "play random legal chess moves against a ChessPair server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Value: "ws://localhost:8080/ws",
				Usage: "WebSocket endpoint of the ChessPair server",
			},
			&cli.IntFlag{
				Name:  "games",
				Value: 1,
				Usage: "number of games to play before exiting (rematches via replay)",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Value: 200 * time.Millisecond,
				Usage: "pause before each move",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			bot := &bot{
				server: cmd.String("server"),
				games:  int(cmd.Int("games")),
				delay:  cmd.Duration("delay"),
			}
			return bot.run(ctx)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type bot struct {
	server string
	games  int
	delay  time.Duration

	conn   *websocket.Conn
	board  *rules.Board
	color  string
	played int
}

func (b *bot) run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.server, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", b.server, err)
	}
	defer conn.Close()
	b.conn = conn

	log.Printf("sparbot: connected to %s, joining queue", b.server)
	if err := b.send(protocol.ClientMessage{Type: protocol.TypeJoin}); err != nil {
		return err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var msg protocol.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("sparbot: unparseable message: %v", err)
			continue
		}

		done, err := b.handle(msg)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// handle reacts to one server message. It returns done=true once the
// requested number of games has finished.
func (b *bot) handle(msg protocol.ServerMessage) (bool, error) {
	switch msg.Type {
	case protocol.TypeStart:
		b.board = rules.NewBoard()
		b.color = msg.Color
		log.Printf("sparbot: game started, playing %s", b.color)
		if b.color == "white" {
			return false, b.move()
		}

	case protocol.TypeMove:
		if b.board == nil {
			return false, nil
		}
		if err := b.board.Apply(msg.UCI); err != nil {
			return false, fmt.Errorf("server sent move %s we cannot apply: %w", msg.UCI, err)
		}
		if _, over := b.board.Outcome(); over {
			return false, nil // wait for game_over
		}
		if b.board.Turn() == b.color {
			return false, b.move()
		}

	case protocol.TypeInvalid:
		// Should not happen: moves are picked from the legal move list.
		return false, fmt.Errorf("server rejected %s", msg.UCI)

	case protocol.TypeGameOver:
		b.played++
		log.Printf("sparbot: game %d over (%s)", b.played, msg.Result)
		if b.played >= b.games {
			_ = b.send(protocol.ClientMessage{Type: protocol.TypeQuit})
			return true, nil
		}
		return false, b.send(protocol.ClientMessage{Type: protocol.TypeReplay})

	case protocol.TypeReplayStart:
		b.board = rules.NewBoard()
		log.Printf("sparbot: rematch started, still %s", b.color)
		if b.color == "white" {
			return false, b.move()
		}

	case protocol.TypeOpponentLeft:
		log.Printf("sparbot: opponent left, rejoining queue")
		b.board = nil
		return false, b.send(protocol.ClientMessage{Type: protocol.TypeJoin})
	}

	return false, nil
}

// move picks a random legal move and submits it.
func (b *bot) move() error {
	time.Sleep(b.delay)

	uci := pickMove(b.board)
	if uci == "" {
		return fmt.Errorf("no legal moves but no game_over received")
	}
	return b.send(moveMessage(uci))
}

func (b *bot) send(msg protocol.ClientMessage) error {
	return b.conn.WriteJSON(msg)
}

// pickMove returns a uniformly random legal move in UCI form, or "" when
// the position is terminal.
func pickMove(board *rules.Board) string {
	legal := board.LegalMoves()
	if len(legal) == 0 {
		return ""
	}
	return legal[rand.Intn(len(legal))]
}

// moveMessage splits a UCI string back into the wire fields.
func moveMessage(uci string) protocol.ClientMessage {
	msg := protocol.ClientMessage{
		Type: protocol.TypeMove,
		From: uci[:2],
		To:   uci[2:4],
	}
	if len(uci) > 4 {
		msg.Promotion = uci[4:]
	}
	return msg
}
