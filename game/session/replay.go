package session

// ReplayTracker records which participants of a session have asked for a
// rematch since its creation or last restart. Request sets are created
// lazily and discarded on agreement or session teardown, so a torn-down
// session never leaks a partial handshake.
type ReplayTracker struct {
	requests map[string]map[HandleID]struct{}
}

// NewReplayTracker creates an empty tracker.
func NewReplayTracker() *ReplayTracker {
	return &ReplayTracker{requests: make(map[string]map[HandleID]struct{})}
}

// Request records that h asked to replay the given session and returns the
// number of distinct requesters so far. Repeated requests from the same
// handle are absorbed (set semantics, not a counter).
func (t *ReplayTracker) Request(sessionID string, h HandleID) int {
	set, ok := t.requests[sessionID]
	if !ok {
		set = make(map[HandleID]struct{})
		t.requests[sessionID] = set
	}
	set[h] = struct{}{}
	return len(set)
}

// Pending returns the number of distinct handles waiting on a replay for
// the session.
func (t *ReplayTracker) Pending(sessionID string) int {
	return len(t.requests[sessionID])
}

// Discard drops the session's request set, if any.
func (t *ReplayTracker) Discard(sessionID string) {
	delete(t.requests, sessionID)
}
