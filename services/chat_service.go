package services

import (
	"github.com/samber/lo"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/repositories"
)

// IChatService is the surface exposed to connection transports:
// connect/join/say/disconnect map one-to-one onto the socket events an
// adapter handles, History and Clear back the REST endpoints.
type IChatService interface {
	Connect(sink contract.EventSink) domain.SessionID
	Join(id domain.SessionID, token string) (string, error)
	Say(id domain.SessionID, text string) (domain.Message, error)
	Disconnect(id domain.SessionID)
	History(cursor *string) ([]domain.Message, *string, error)
	Clear() error
}

type ChatService struct {
	registry contract.ISessionRegistry
	router   contract.IRouter
	messages repositories.IMessageRepository
	tokens   auth.Tokens
}

func NewChatService(registry contract.ISessionRegistry, router contract.IRouter,
	messages repositories.IMessageRepository, tokens auth.Tokens) *ChatService {
	return &ChatService{
		registry: registry,
		router:   router,
		messages: messages,
		tokens:   tokens,
	}
}

// Connect registers a new unauthenticated session owning the given sink.
func (s *ChatService) Connect(sink contract.EventSink) domain.SessionID {
	return s.registry.Register(sink)
}

// Join authenticates a session with a login token and notifies the others.
// The token is the credential here: the identity inside it was verified at
// login time by the auth service.
func (s *ChatService) Join(id domain.SessionID, token string) (string, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return "", err
	}

	identity := domain.Identity{Username: claims.Username}
	if err := s.registry.Authenticate(id, identity); err != nil {
		return "", err
	}

	s.router.NotifyJoined(id)
	return identity.Username, nil
}

func (s *ChatService) Say(id domain.SessionID, text string) (domain.Message, error) {
	return s.router.Submit(id, text)
}

// Disconnect removes the session and, if it was authenticated, notifies the
// remaining sessions. Idempotent: a second call finds nothing to remove.
func (s *ChatService) Disconnect(id domain.SessionID) {
	identity, bound := s.registry.Unregister(id)
	if bound {
		s.router.NotifyLeft(identity)
	}
}

func (s *ChatService) History(cursor *string) ([]domain.Message, *string, error) {
	records, next, err := s.messages.ListSince(cursor)
	if err != nil {
		return nil, nil, err
	}
	return fromDiskMessages(records), next, nil
}

func (s *ChatService) Clear() error {
	return s.messages.Clear()
}

func fromDiskMessages(records []repositories.DiskMessage) []domain.Message {
	return lo.Map(records, func(item repositories.DiskMessage, _ int) domain.Message {
		return domain.Message{
			ID:       item.ID,
			Username: item.Username,
			Content:  item.Content,
			Lang:     item.Lang,
			SentAt:   item.At,
		}
	})
}
