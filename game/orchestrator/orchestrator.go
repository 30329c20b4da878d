// Package orchestrator wires the matchmaking queue, the session store, the
// replay tracker, and the rules engine behind a single serialized dispatch
// loop.
//
// Every connect, disconnect, join, move, replay, and quit becomes an Event
// consumed by one goroutine, so pairing, move application, and teardown are
// atomic with respect to each other: no two events ever touch the queue or
// the session map concurrently. Read-side inspection (REST, MCP) goes
// through the same loop via an inspection channel.
//
// Sends to clients are fire-and-forget through the Sender interface and are
// attempted per participant, so a failed delivery to one side never blocks
// the other.
package orchestrator

import (
	"context"
	"log"
	"time"

	"github.com/openpair/chesspair/game/matchmaking"
	"github.com/openpair/chesspair/game/session"
	"github.com/openpair/chesspair/protocol"
)

// Sender delivers a message to a single connection handle. Delivery is best
// effort; sends to dead or slow handles are dropped by the transport.
type Sender interface {
	Send(to session.HandleID, msg protocol.ServerMessage)
}

// Stats is a point-in-time view of orchestrator counters.
type Stats struct {
	Connections     int    `json:"connections"`
	Waiting         int    `json:"waiting"`
	ActiveSessions  int    `json:"active_sessions"`
	SessionsCreated uint64 `json:"sessions_created"`
	MovesApplied    uint64 `json:"moves_applied"`
	InvalidMoves    uint64 `json:"invalid_moves"`
	GamesFinished   uint64 `json:"games_finished"`
	Replays         uint64 `json:"replays"`
	Teardowns       uint64 `json:"teardowns"`
}

// SessionSnapshot is a read-only view of one session for the API surfaces.
type SessionSnapshot struct {
	ID             string    `json:"id"`
	White          string    `json:"white"`
	Black          string    `json:"black"`
	State          string    `json:"state"`
	Phase          string    `json:"phase"`
	CreatedAt      time.Time `json:"created_at"`
	ReplayRequests int       `json:"replay_requests"`
}

// Orchestrator owns all matchmaking and session state. All fields below the
// channels are touched only from the Run goroutine.
type Orchestrator struct {
	events  chan Event
	inspect chan func()

	sender   Sender
	newBoard func() session.Board

	queue   *matchmaking.Queue
	store   *session.Store
	replays *session.ReplayTracker
	stats   Stats
}

// New creates an orchestrator emitting through sender and creating boards
// with newBoard. Run must be started before any events are delivered.
func New(sender Sender, newBoard func() session.Board) *Orchestrator {
	return &Orchestrator{
		events:   make(chan Event, 64),
		inspect:  make(chan func()),
		sender:   sender,
		newBoard: newBoard,
		queue:    matchmaking.NewQueue(),
		store:    session.NewStore(),
		replays:  session.NewReplayTracker(),
	}
}

// Run consumes events until ctx is cancelled. It is the only goroutine that
// mutates orchestrator state.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-o.events:
			o.handleEvent(ev)
		case fn := <-o.inspect:
			fn()
		}
	}
}

// Dispatch queues an event for the loop. Exposed for transports that build
// events themselves; most callers use the sink methods in events.go.
func (o *Orchestrator) Dispatch(ev Event) {
	o.events <- ev
}

func (o *Orchestrator) handleEvent(ev Event) {
	switch ev.Type {
	case EventConnect:
		o.handleConnect(ev.Handle)
	case EventDisconnect:
		o.handleDisconnect(ev.Handle)
	case EventJoin:
		o.handleJoin(ev.Handle)
	case EventMove:
		o.handleMove(ev.Handle, ev.Msg)
	case EventReplay:
		o.handleReplay(ev.Handle)
	case EventQuit:
		o.handleQuit(ev.Handle)
	}
}

func (o *Orchestrator) handleConnect(h session.HandleID) {
	o.stats.Connections++
	log.Printf("orchestrator: connect %s", h)
}

// handleDisconnect invalidates the handle everywhere: the queue if it was
// still waiting, its session if it was paired. The opponent is notified and
// detached but not re-queued; it must issue a fresh join.
func (o *Orchestrator) handleDisconnect(h session.HandleID) {
	if o.stats.Connections > 0 {
		o.stats.Connections--
	}
	if o.queue.Remove(h) {
		log.Printf("orchestrator: disconnect %s (was queued)", h)
		return
	}

	s, _, ok := o.store.ByHandle(h)
	if !ok {
		return
	}
	opp, _ := s.Opponent(h)
	o.sender.Send(opp, protocol.OpponentLeft())
	o.teardown(s)
	log.Printf("orchestrator: disconnect %s tore down session %s", h, s.ID)
}

// handleJoin enqueues the handle and pairs the two oldest waiters whenever
// the queue holds at least two.
func (o *Orchestrator) handleJoin(h session.HandleID) {
	if o.store.Attached(h) {
		return
	}
	if !o.queue.Enqueue(h) {
		return
	}
	o.tryPair()
}

// tryPair drains the queue two handles at a time, first-in first-out. It
// runs after every enqueue, including the re-enqueue of a quit survivor.
func (o *Orchestrator) tryPair() {
	for {
		first, second, ok := o.queue.DequeuePair()
		if !ok {
			return
		}

		s, err := o.store.Create(first, second, o.newBoard())
		if err != nil {
			// Invariant violation; abandon this pairing but keep serving.
			log.Printf("orchestrator: pairing %s/%s failed: %v", first, second, err)
			continue
		}
		o.stats.SessionsCreated++
		log.Printf("orchestrator: session %s started (%s=white, %s=black)", s.ID, first, second)

		state := s.Board.FEN()
		o.sender.Send(s.White, protocol.Start(state, string(session.White)))
		o.sender.Send(s.Black, protocol.Start(state, string(session.Black)))
	}
}

// handleMove validates the move with the rules engine and either broadcasts
// the accepted move (and a game_over when the position is terminal) or
// reports invalid to the requester alone. Messages from unpaired handles or
// finished sessions are dropped.
func (o *Orchestrator) handleMove(h session.HandleID, msg protocol.ClientMessage) {
	s, _, ok := o.store.ByHandle(h)
	if !ok || s.Phase != session.PhaseActive {
		return
	}

	uci := msg.UCI()
	if err := s.Board.Apply(uci); err != nil {
		o.stats.InvalidMoves++
		o.sender.Send(h, protocol.Invalid(uci))
		return
	}
	o.stats.MovesApplied++

	state := s.Board.FEN()
	o.broadcast(s, protocol.Move(uci, state))

	if result, over := s.Board.Outcome(); over {
		s.Phase = session.PhaseOver
		o.stats.GamesFinished++
		o.broadcast(s, protocol.GameOver(result))
		log.Printf("orchestrator: session %s over (%s)", s.ID, result)
	}
}

// handleReplay records the rematch request and restarts the session once
// both participants have asked since the last start.
func (o *Orchestrator) handleReplay(h session.HandleID) {
	s, _, ok := o.store.ByHandle(h)
	if !ok {
		return
	}
	if o.replays.Request(s.ID, h) < 2 {
		return
	}

	s.Restart(o.newBoard())
	o.replays.Discard(s.ID)
	o.stats.Replays++
	o.broadcast(s, protocol.ReplayStart(s.Board.FEN()))
	log.Printf("orchestrator: session %s restarted", s.ID)
}

// handleQuit tears the session down and gives the surviving opponent a
// fresh place at the tail of the queue. The quitter is not re-queued. A
// second quit for the same handle finds no attachment and is a no-op.
func (o *Orchestrator) handleQuit(h session.HandleID) {
	s, _, ok := o.store.ByHandle(h)
	if !ok {
		return
	}
	opp, _ := s.Opponent(h)
	o.broadcast(s, protocol.OpponentLeft())
	o.teardown(s)
	log.Printf("orchestrator: %s quit session %s, re-queueing %s", h, s.ID, opp)

	if o.queue.Enqueue(opp) {
		o.tryPair()
	}
}

// teardown destroys the session, its replay requests, and both attachments.
func (o *Orchestrator) teardown(s *session.Session) {
	o.replays.Discard(s.ID)
	o.store.Destroy(s.ID)
	o.stats.Teardowns++
}

// broadcast sends msg to both participants. The two sends are independent:
// a drop on one side never suppresses the other.
func (o *Orchestrator) broadcast(s *session.Session, msg protocol.ServerMessage) {
	for _, h := range s.Participants() {
		o.sender.Send(h, msg)
	}
}

// Sessions returns snapshots of every live session. It synchronizes with
// the dispatch loop, so Run must be active.
func (o *Orchestrator) Sessions() []SessionSnapshot {
	reply := make(chan []SessionSnapshot, 1)
	o.inspect <- func() {
		all := o.store.All()
		out := make([]SessionSnapshot, 0, len(all))
		for _, s := range all {
			out = append(out, o.snapshot(s))
		}
		reply <- out
	}
	return <-reply
}

// Session returns a snapshot of one session by ID.
func (o *Orchestrator) Session(id string) (SessionSnapshot, bool) {
	type result struct {
		snap SessionSnapshot
		ok   bool
	}
	reply := make(chan result, 1)
	o.inspect <- func() {
		s, ok := o.store.Get(id)
		if !ok {
			reply <- result{}
			return
		}
		reply <- result{snap: o.snapshot(s), ok: true}
	}
	res := <-reply
	return res.snap, res.ok
}

// Stats returns current counters.
func (o *Orchestrator) Stats() Stats {
	reply := make(chan Stats, 1)
	o.inspect <- func() {
		st := o.stats
		st.Waiting = o.queue.Len()
		st.ActiveSessions = o.store.Len()
		reply <- st
	}
	return <-reply
}

func (o *Orchestrator) snapshot(s *session.Session) SessionSnapshot {
	return SessionSnapshot{
		ID:             s.ID,
		White:          string(s.White),
		Black:          string(s.Black),
		State:          s.Board.FEN(),
		Phase:          string(s.Phase),
		CreatedAt:      s.CreatedAt,
		ReplayRequests: o.replays.Pending(s.ID),
	}
}
