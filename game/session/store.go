package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAlreadyAttached = errors.New("handle already attached to a session")
)

// Attachment is the per-handle back-reference to a session. It never owns
// the session; the Store does.
type Attachment struct {
	SessionID string
	Color     Color
}

// Store owns all sessions and the handle attachments pointing at them.
// It is not safe for concurrent use; the orchestrator serializes access.
type Store struct {
	sessions    map[string]*Session
	attachments map[HandleID]Attachment
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		attachments: make(map[HandleID]Attachment),
	}
}

// Create builds a session for the pair (white, black), derives its ID from
// the two handles, and records both attachments. The ID is an opaque label;
// participant identity is always read from the session record itself.
func (st *Store) Create(white, black HandleID, board Board) (*Session, error) {
	if _, taken := st.attachments[white]; taken {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAttached, white)
	}
	if _, taken := st.attachments[black]; taken {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAttached, black)
	}

	s := &Session{
		ID:        deriveID(white, black),
		White:     white,
		Black:     black,
		Board:     board,
		Phase:     PhaseActive,
		CreatedAt: time.Now(),
	}
	st.sessions[s.ID] = s
	st.attachments[white] = Attachment{SessionID: s.ID, Color: White}
	st.attachments[black] = Attachment{SessionID: s.ID, Color: Black}
	return s, nil
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*Session, bool) {
	s, ok := st.sessions[id]
	return s, ok
}

// ByHandle resolves a handle to its session via its attachment. It misses
// for handles that are unpaired or whose session was already torn down.
func (st *Store) ByHandle(h HandleID) (*Session, Attachment, bool) {
	att, ok := st.attachments[h]
	if !ok {
		return nil, Attachment{}, false
	}
	s, ok := st.sessions[att.SessionID]
	if !ok {
		return nil, Attachment{}, false
	}
	return s, att, true
}

// Attached reports whether the handle currently belongs to a session.
func (st *Store) Attached(h HandleID) bool {
	_, ok := st.attachments[h]
	return ok
}

// Destroy removes the session and clears both participants' attachments.
// Destroying an unknown ID is a no-op, which keeps teardown idempotent.
func (st *Store) Destroy(id string) {
	s, ok := st.sessions[id]
	if !ok {
		return
	}
	delete(st.attachments, s.White)
	delete(st.attachments, s.Black)
	delete(st.sessions, id)
}

// All returns every live session, in no particular order.
func (st *Store) All() []*Session {
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return len(st.sessions)
}

// deriveID builds a deterministic session ID from the participant handles.
// The ID is never parsed back. The full handles are used so two live
// sessions can never collide in the session map.
func deriveID(white, black HandleID) string {
	return fmt.Sprintf("g-%s-%s", white, black)
}
