package event

import "chat-relay/domain"

// DomainEvent is anything the router fans out to connected sessions.
// Kind matches the frame type pushed to transports.
type DomainEvent interface {
	Kind() string
}

// MessageBroadcast carries a message that has already been durably appended.
// The router never fans out a record that failed persistence.
type MessageBroadcast struct {
	Message domain.Message
}

func (MessageBroadcast) Kind() string { return "message" }

// UserJoined is a best-effort presence notification.
type UserJoined struct {
	Username string
}

func (UserJoined) Kind() string { return "userJoined" }

// UserLeft is a best-effort presence notification.
type UserLeft struct {
	Username string
}

func (UserLeft) Kind() string { return "userLeft" }
