package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/sink"
)

func TestRegistry_Lifecycle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	id := registry.Register(sink.NewBuffered(1))
	req.Equal(1, registry.Len())

	// Unauthenticated sessions are live but have no identity
	_, err := registry.Identity(id)
	req.ErrorIs(err, errors.ErrNotAuthenticated)

	req.NoError(registry.Authenticate(id, domain.Identity{Username: "Ana"}))
	identity, err := registry.Identity(id)
	req.NoError(err)
	req.Equal("Ana", identity.Username)

	// Exactly-once binding
	err = registry.Authenticate(id, domain.Identity{Username: "Juan"})
	req.ErrorIs(err, errors.ErrAlreadyAuthenticated)

	left, bound := registry.Unregister(id)
	req.True(bound)
	req.Equal("Ana", left.Username)
	req.Equal(0, registry.Len())
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	id := registry.Register(sink.NewBuffered(1))
	req.NoError(registry.Authenticate(id, domain.Identity{Username: "Juan"}))

	_, bound := registry.Unregister(id)
	req.True(bound)

	// The second call reports no identity, so no duplicate leave event
	_, bound = registry.Unregister(id)
	req.False(bound)

	// Operations on a gone session fail cleanly
	err := registry.Authenticate(id, domain.Identity{Username: "Juan"})
	req.ErrorIs(err, errors.ErrSessionNotFound)
}

func TestRegistry_SnapshotReflectsLiveSet(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	ana := registry.Register(sink.NewBuffered(1))
	juan := registry.Register(sink.NewBuffered(1))
	req.NoError(registry.Authenticate(ana, domain.Identity{Username: "Ana"}))

	snapshot := registry.LiveSessions()
	req.Len(snapshot, 2)

	byID := map[domain.SessionID]bool{}
	for _, r := range snapshot {
		byID[r.SessionID] = r.Authenticated
	}
	req.True(byID[ana])
	req.False(byID[juan])

	registry.Unregister(juan)
	req.Len(registry.LiveSessions(), 1)
}

func TestRegistry_ConcurrentRegisterUnregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := registry.Register(sink.NewBuffered(1))
				_ = registry.Authenticate(id, domain.Identity{Username: "u"})
				// Snapshots taken mid-churn must never tear
				for _, r := range registry.LiveSessions() {
					_ = r.SessionID
				}
				registry.Unregister(id)
			}
		}()
	}
	wg.Wait()

	req.Equal(0, registry.Len())
}
