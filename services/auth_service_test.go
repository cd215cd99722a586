package services

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/repositories"
)

func newAuthFixture(t *testing.T) (IAuthService, auth.Tokens) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := repositories.NewUserRepository(db)
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	_, err = users.CreateUser("Ana", hash)
	require.NoError(t, err)

	tokens := auth.NewTokens("test-secret", time.Hour)
	return NewAuthService(auth.NewVerifier(users), users, tokens), tokens
}

func TestAuthService_Login(t *testing.T) {
	req := require.New(t)
	service, tokens := newAuthFixture(t)

	token, err := service.Login("Ana", "password123")
	req.NoError(err)

	claims, err := tokens.Validate(string(token))
	req.NoError(err)
	req.Equal("Ana", claims.Username)

	_, err = service.Login("Ana", "nope-nope-nope")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
	_, err = service.Login("ana", "password123")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestAuthService_Register(t *testing.T) {
	req := require.New(t)
	service, tokens := newAuthFixture(t)

	token, err := service.Register("Nora", "ComplexPass123!")
	req.NoError(err)

	claims, err := tokens.Validate(string(token))
	req.NoError(err)
	req.Equal("Nora", claims.Username)

	// The new account can log in with the registered password
	_, err = service.Login("Nora", "ComplexPass123!")
	req.NoError(err)

	// Weak passwords are rejected before anything is stored
	_, err = service.Register("Weak", "alllowercase")
	req.ErrorIs(err, errors.ErrInvalidPassword)
	_, err = service.Login("Weak", "alllowercase")
	req.ErrorIs(err, errors.ErrInvalidCredentials)

	// Duplicate usernames are rejected
	_, err = service.Register("Nora", "ComplexPass123!")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}
