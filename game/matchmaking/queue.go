// Package matchmaking implements the FIFO queue of connections waiting to
// be paired into a game. Pairing is strictly by arrival order; there is no
// skill or preference matching.
package matchmaking

import "github.com/openpair/chesspair/game/session"

// Queue is an ordered queue of waiting handles. A handle never appears
// twice. The queue is not safe for concurrent use; the orchestrator
// serializes access.
type Queue struct {
	order   []session.HandleID
	waiting map[session.HandleID]struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{waiting: make(map[session.HandleID]struct{})}
}

// Enqueue appends the handle to the tail. It is an idempotent no-op when
// the handle is already queued, reported by the return value.
func (q *Queue) Enqueue(h session.HandleID) bool {
	if _, ok := q.waiting[h]; ok {
		return false
	}
	q.order = append(q.order, h)
	q.waiting[h] = struct{}{}
	return true
}

// DequeuePair removes and returns the two oldest handles, in arrival order.
// ok is false when fewer than two handles are waiting.
func (q *Queue) DequeuePair() (first, second session.HandleID, ok bool) {
	if len(q.order) < 2 {
		return "", "", false
	}
	first, second = q.order[0], q.order[1]
	q.order = q.order[2:]
	delete(q.waiting, first)
	delete(q.waiting, second)
	return first, second, true
}

// Remove deletes the handle wherever it sits in the queue, so a dequeue
// never yields a dead handle. Reports whether the handle was queued.
func (q *Queue) Remove(h session.HandleID) bool {
	if _, ok := q.waiting[h]; !ok {
		return false
	}
	delete(q.waiting, h)
	for i, queued := range q.order {
		if queued == h {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether the handle is waiting.
func (q *Queue) Contains(h session.HandleID) bool {
	_, ok := q.waiting[h]
	return ok
}

// Len returns the number of waiting handles.
func (q *Queue) Len() int {
	return len(q.order)
}
