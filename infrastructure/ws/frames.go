package ws

import (
	"time"

	"chat-relay/domain/event"
)

// inboundFrame is what clients send: a join carrying the login token, or a
// chat message.
type inboundFrame struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// outboundFrame covers every frame the server pushes: delivered messages,
// presence notifications, join acks, and per-request errors.
type outboundFrame struct {
	Type      string     `json:"type"`
	Username  string     `json:"username,omitempty"`
	Message   string     `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func toFrame(e event.DomainEvent) outboundFrame {
	switch evt := e.(type) {
	case event.MessageBroadcast:
		sentAt := evt.Message.SentAt
		return outboundFrame{
			Type:      evt.Kind(),
			Username:  evt.Message.Username,
			Message:   evt.Message.Content,
			Timestamp: &sentAt,
		}
	case event.UserJoined:
		return outboundFrame{Type: evt.Kind(), Username: evt.Username}
	case event.UserLeft:
		return outboundFrame{Type: evt.Kind(), Username: evt.Username}
	default:
		return outboundFrame{Type: e.Kind()}
	}
}

func errorFrame(err error) outboundFrame {
	return outboundFrame{Type: "error", Error: err.Error()}
}
