package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/repositories"
)

// Router persists submitted messages and fans them out to live sessions.
//
// The gate serializes the persist step: concurrent submits are admitted one
// at a time, timestamps are assigned under the gate, and dispatch into the
// per-session sink buffers also happens under the gate. Broadcast order
// therefore always matches append order. Sinks never block, so holding the
// gate across dispatch costs one channel send per recipient, not a network
// write.
type Router struct {
	gate       sync.Mutex
	lastSentAt time.Time // guarded by gate, clamps SentAt to non-decreasing

	log      *slog.Logger
	registry contract.ISessionRegistry
	messages repositories.IMessageRepository
	masker   *moderation.Masker
}

var _ contract.IRouter = (*Router)(nil)

func NewRouter(log *slog.Logger, registry contract.ISessionRegistry,
	messages repositories.IMessageRepository, masker *moderation.Masker) *Router {
	return &Router{
		log:      log,
		registry: registry,
		messages: messages,
		masker:   masker,
	}
}

// Submit validates, persists, and broadcasts one message.
//
// Append happens strictly before fan-out: a record that failed persistence
// is never delivered to anyone, and a persistence failure is surfaced to
// the submitter as a retryable error. On success the author receives its
// own message through the same fan-out as every other recipient; no
// client-side echo is assumed.
func (r *Router) Submit(id domain.SessionID, text string) (domain.Message, error) {
	identity, err := r.registry.Identity(id)
	if err != nil {
		return domain.Message{}, err
	}

	content := strings.TrimSpace(text)
	if content == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}

	// No size limit is enforced on message content.
	if masked, found := r.masker.Mask(content); found {
		r.log.Debug("Censored words masked", "username", identity.Username)
		content = masked
	}
	lang := whatlanggo.Detect(content).Lang.Iso6391()

	r.gate.Lock()
	record := domain.Message{
		ID:       uuid.New(),
		Username: identity.Username,
		Content:  content,
		Lang:     lang,
		SentAt:   r.nextSentAt(),
	}
	if err := r.messages.StoreMessage(toDiskMessage(record)); err != nil {
		r.gate.Unlock()
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	// Dispatch to everyone, author included, while still holding the gate.
	failed := r.dispatch(event.MessageBroadcast{Message: record}, "")
	r.gate.Unlock()

	r.dropAll(failed)
	return record, nil
}

// NotifyJoined broadcasts a presence event to every live session except the
// one that just joined. Best effort: failures only affect the failing recipient.
func (r *Router) NotifyJoined(id domain.SessionID) {
	identity, err := r.registry.Identity(id)
	if err != nil {
		return
	}
	r.dropAll(r.dispatch(event.UserJoined{Username: identity.Username}, id))
}

// NotifyLeft broadcasts a presence event to all remaining live sessions.
// The leaver has already been unregistered at this point.
func (r *Router) NotifyLeft(identity domain.Identity) {
	r.dropAll(r.dispatch(event.UserLeft{Username: identity.Username}, ""))
}

// dispatch fans one event out to a consistent snapshot of the live set,
// skipping the excluded session, and returns the recipients whose sinks
// rejected the event. A failure delivering to one recipient never aborts
// delivery to the others.
func (r *Router) dispatch(e event.DomainEvent, exclude domain.SessionID) []contract.Recipient {
	var failed []contract.Recipient
	for _, recipient := range r.registry.LiveSessions() {
		if recipient.SessionID == exclude {
			continue
		}
		if err := recipient.Sink.Consume(context.Background(), e); err != nil {
			r.log.Warn("Delivery failed, scheduling session removal",
				"session_id", recipient.SessionID,
				"username", recipient.Username,
				"error", err)
			failed = append(failed, recipient)
		}
	}
	return failed
}

// dropAll removes undeliverable sessions. The submitter never sees these
// failures; the only consequence is the failing session's lifecycle.
func (r *Router) dropAll(failed []contract.Recipient) {
	for _, recipient := range failed {
		identity, bound := r.registry.Unregister(recipient.SessionID)
		if bound {
			r.NotifyLeft(identity)
		}
	}
}

// nextSentAt assigns the record timestamp under the gate. Timestamps are
// strictly increasing in append order, even when the wall clock stalls or
// steps backwards, so the store's time-ordered keys always agree with the
// order records were admitted through the gate.
func (r *Router) nextSentAt() time.Time {
	now := time.Now().UTC()
	if !now.After(r.lastSentAt) {
		now = r.lastSentAt.Add(time.Nanosecond)
	}
	r.lastSentAt = now
	return now
}

func toDiskMessage(message domain.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:       message.ID,
		Username: message.Username,
		Content:  message.Content,
		Lang:     message.Lang,
		At:       message.SentAt,
	}
}
