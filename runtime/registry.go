// Package runtime hosts the live-session registry and the broadcast router.
// It coordinates delivery without containing domain rules.
package runtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
)

type liveSession struct {
	session *domain.Session
	sink    contract.EventSink
}

// Registry owns the set of live sessions and is its only mutator.
// All operations are safe under concurrent access from connection workers.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*liveSession
}

var _ contract.ISessionRegistry = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]*liveSession)}
}

// Register adds an unauthenticated session to the live set. The session can
// receive presence events immediately but cannot send until authenticated.
func (r *Registry) Register(sink contract.EventSink) domain.SessionID {
	id := domain.SessionID(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &liveSession{
		session: domain.NewSession(id, time.Now().UTC()),
		sink:    sink,
	}
	return id
}

// Authenticate binds an identity to a session exactly once.
// A second call fails with ErrAlreadyAuthenticated and leaves the session usable.
func (r *Registry) Authenticate(id domain.SessionID, identity domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.sessions[id]
	if !ok {
		return errors.ErrSessionNotFound
	}
	return live.session.Authenticate(identity)
}

// Identity reports the identity bound to a live session.
func (r *Registry) Identity(id domain.SessionID) (domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	live, ok := r.sessions[id]
	if !ok {
		return domain.Identity{}, errors.ErrSessionNotFound
	}
	identity, bound := live.session.Identity()
	if !bound {
		return domain.Identity{}, errors.ErrNotAuthenticated
	}
	return identity, nil
}

// Unregister removes a session from the live set. It is idempotent:
// disconnect races are expected, so removing an absent session is a no-op.
// It reports the identity that was bound, if any, exactly once, so the
// caller can emit a single leave notification.
func (r *Registry) Unregister(id domain.SessionID) (domain.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.sessions[id]
	if !ok {
		return domain.Identity{}, false
	}
	delete(r.sessions, id)
	live.session.Close()

	identity, bound := live.session.Identity()
	return identity, bound
}

// LiveSessions returns a consistent point-in-time snapshot for fan-out.
// Register/unregister calls racing with the snapshot either fully appear
// or fully don't; a fan-out pass never observes a torn view.
func (r *Registry) LiveSessions() []contract.Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recipients := make([]contract.Recipient, 0, len(r.sessions))
	for id, live := range r.sessions {
		identity, bound := live.session.Identity()
		recipients = append(recipients, contract.Recipient{
			SessionID:     id,
			Username:      identity.Username,
			Authenticated: bound,
			Sink:          live.sink,
		})
	}
	return recipients
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
