package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain/event"
	"chat-relay/errors"
)

func TestBuffered_NeverBlocks(t *testing.T) {
	req := require.New(t)
	s := NewBuffered(2)

	req.NoError(s.Consume(context.Background(), event.UserJoined{Username: "Ana"}))
	req.NoError(s.Consume(context.Background(), event.UserJoined{Username: "Juan"}))

	// A full buffer reports a delivery failure instead of blocking the fan-out
	err := s.Consume(context.Background(), event.UserJoined{Username: "Charly"})
	req.ErrorIs(err, errors.ErrSlowConsumer)

	// Draining makes room again
	e := <-s.Events
	req.Equal("Ana", e.(event.UserJoined).Username)
	req.NoError(s.Consume(context.Background(), event.UserJoined{Username: "Charly"}))
}
