package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/sink"
)

func TestChatService_JoinValidatesToken(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockISessionRegistry(ctrl)
	router := mocks.NewMockIRouter(ctrl)
	tokens := auth.NewTokens("test-secret", time.Hour)
	service := NewChatService(registry, router, nil, tokens)

	id := domain.SessionID("s1")
	raw, err := tokens.Generate("Ana")
	req.NoError(err)

	// Given a valid token, the session is authenticated and others notified
	registry.EXPECT().Authenticate(id, domain.Identity{Username: "Ana"}).Return(nil).Times(1)
	router.EXPECT().NotifyJoined(id).Times(1)

	username, err := service.Join(id, raw)
	req.NoError(err)
	req.Equal("Ana", username)

	// A bad token never reaches the registry
	_, err = service.Join(id, "not-a-token")
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestChatService_JoinTwiceIsRejected(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockISessionRegistry(ctrl)
	router := mocks.NewMockIRouter(ctrl)
	tokens := auth.NewTokens("test-secret", time.Hour)
	service := NewChatService(registry, router, nil, tokens)

	id := domain.SessionID("s1")
	raw, err := tokens.Generate("Ana")
	req.NoError(err)

	// The registry refuses the second bind; no join notification goes out
	registry.EXPECT().Authenticate(id, gomock.Any()).
		Return(errors.ErrAlreadyAuthenticated).Times(1)

	_, err = service.Join(id, raw)
	req.ErrorIs(err, errors.ErrAlreadyAuthenticated)
}

func TestChatService_DisconnectNotifiesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockISessionRegistry(ctrl)
	router := mocks.NewMockIRouter(ctrl)
	service := NewChatService(registry, router, nil, auth.Tokens{})

	id := domain.SessionID("s1")
	identity := domain.Identity{Username: "Juan"}

	gomock.InOrder(
		registry.EXPECT().Unregister(id).Return(identity, true),
		registry.EXPECT().Unregister(id).Return(domain.Identity{}, false),
	)
	// Exactly one leave notification despite two disconnects
	router.EXPECT().NotifyLeft(identity).Times(1)

	service.Disconnect(id)
	service.Disconnect(id)
}

func TestChatService_HistoryMapsRecords(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIMessageRepository(ctrl)
	service := NewChatService(nil, nil, store, auth.Tokens{})

	id := uuid.New()
	at := time.Now().UTC()
	next := "cursor-1"
	store.EXPECT().ListSince(nil).Return([]repositories.DiskMessage{
		{ID: id, Username: "Ana", Content: "hello", Lang: "en", At: at},
	}, &next, nil)

	messages, cursor, err := service.History(nil)
	req.NoError(err)
	req.Equal(&next, cursor)
	req.Len(messages, 1)
	req.Equal(domain.Message{ID: id, Username: "Ana", Content: "hello", Lang: "en", SentAt: at}, messages[0])
}

// End-to-end over real components: the login/join/say/receive scenario the
// whole relay exists for.
func TestChatService_Scenario(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	users := repositories.NewUserRepository(db)
	messages := repositories.NewMessageRepository(db, slog.Default(), nil)
	hash, err := auth.HashPassword("password123")
	req.NoError(err)
	_, err = users.CreateUser("Ana", hash)
	req.NoError(err)

	tokens := auth.NewTokens("test-secret", time.Hour)
	registry := runtime.NewRegistry()
	router := runtime.NewRouter(slog.Default(), registry, messages, nil)
	authService := NewAuthService(auth.NewVerifier(users), users, tokens)
	chatService := NewChatService(registry, router, messages, tokens)

	// Juan is already connected and joined
	juanSink := sink.NewBuffered(8)
	juan := chatService.Connect(juanSink)
	juanToken, err := tokens.Generate("Juan")
	req.NoError(err)
	_, err = chatService.Join(juan, juanToken)
	req.NoError(err)

	// Ana logs in and joins: Juan sees her arrive
	anaToken, err := authService.Login("Ana", "password123")
	req.NoError(err)
	anaSink := sink.NewBuffered(8)
	ana := chatService.Connect(anaSink)
	username, err := chatService.Join(ana, string(anaToken))
	req.NoError(err)
	req.Equal("Ana", username)
	req.Equal("Ana", (<-juanSink.Events).(event.UserJoined).Username)

	// Charly connects but never authenticates
	charlySink := sink.NewBuffered(8)
	charly := chatService.Connect(charlySink)
	_, err = chatService.Say(charly, "hi")
	req.ErrorIs(err, errors.ErrNotAuthenticated)

	// Ana says hello: Juan receives the persisted record
	record, err := chatService.Say(ana, "hello")
	req.NoError(err)

	delivered := (<-juanSink.Events).(event.MessageBroadcast).Message
	req.Equal("Ana", delivered.Username)
	req.Equal("hello", delivered.Content)
	req.True(record.SentAt.Equal(delivered.SentAt))

	// The store contains exactly the one record Charly failed to add to
	history, _, err := chatService.History(nil)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("Ana", history[0].Username)
	req.Equal("hello", history[0].Content)

	// Juan leaves: Ana is told, and the relay keeps working
	chatService.Disconnect(juan)
	drainUntilLeft := func() event.UserLeft {
		for {
			e := <-anaSink.Events
			if left, ok := e.(event.UserLeft); ok {
				return left
			}
		}
	}
	req.Equal("Juan", drainUntilLeft().Username)

	_, err = chatService.Say(ana, "anyone there?")
	req.NoError(err)
}
