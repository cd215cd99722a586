package domain

import (
	"time"

	"chat-relay/errors"
)

type SessionID string

type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateClosed
)

// Session is one live client connection and its authentication state.
//
// Allowed transitions: Unauthenticated -> Authenticated -> Closed and
// Unauthenticated -> Closed. Closed is terminal. The identity is bound
// exactly once and never changes afterwards.
//
// Session is not safe for concurrent use on its own; the registry owning
// the live set serializes all mutations.
type Session struct {
	ID       SessionID
	JoinedAt time.Time

	state    SessionState
	identity *Identity
}

func NewSession(id SessionID, joinedAt time.Time) *Session {
	return &Session{ID: id, JoinedAt: joinedAt, state: StateUnauthenticated}
}

func (s *Session) State() SessionState { return s.state }

// Identity returns the bound identity and whether one has been bound.
func (s *Session) Identity() (Identity, bool) {
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Authenticate binds the identity to the session exactly once.
func (s *Session) Authenticate(identity Identity) error {
	switch s.state {
	case StateClosed:
		return errors.ErrSessionClosed
	case StateAuthenticated:
		return errors.ErrAlreadyAuthenticated
	}
	s.identity = &identity
	s.state = StateAuthenticated
	return nil
}

// Close marks the session terminal. Closing twice is a no-op.
func (s *Session) Close() {
	s.state = StateClosed
}
