//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker lifecycle
// events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives events fanned out by the router. A sink must never
// block longer than the context allows; a returned error marks the owning
// session as undeliverable.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Recipient is one entry of the live-set snapshot used for a fan-out pass.
type Recipient struct {
	SessionID     domain.SessionID
	Username      string
	Authenticated bool
	Sink          EventSink
}

// ISessionRegistry owns the live session set. No component outside the
// registry mutates it.
type ISessionRegistry interface {
	Register(sink EventSink) domain.SessionID
	Authenticate(id domain.SessionID, identity domain.Identity) error
	Identity(id domain.SessionID) (domain.Identity, error)
	Unregister(id domain.SessionID) (domain.Identity, bool)
	LiveSessions() []Recipient
	Len() int
}

// IRouter persists submitted messages and fans them out, and emits
// join/leave notifications.
type IRouter interface {
	Submit(id domain.SessionID, text string) (domain.Message, error)
	NotifyJoined(id domain.SessionID)
	NotifyLeft(identity domain.Identity)
}
