// Package sink provides EventSink implementations bridging the router's
// fan-out to individual consumers.
package sink

import (
	"context"

	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
)

// Buffered decouples fan-out from slow transports: the router dispatches
// into the channel and the connection's write pump drains it.
//
// Consume never blocks. A full buffer means the consumer has fallen too far
// behind to ever catch up, so the error feeds the router's removal path
// instead of stalling delivery to everyone else.
type Buffered struct {
	Events chan event.DomainEvent
}

var _ contract.EventSink = (*Buffered)(nil)

func NewBuffered(size int) *Buffered {
	return &Buffered{Events: make(chan event.DomainEvent, size)}
}

func (s *Buffered) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrSlowConsumer
	}
}
