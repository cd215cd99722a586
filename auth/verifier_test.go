package auth

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
)

func TestVerifier_ValidCredentials(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	users := repositories.NewUserRepository(db)
	hash, err := HashPassword("password123")
	req.NoError(err)
	_, err = users.CreateUser("Ana", hash)
	req.NoError(err)

	verifier := NewVerifier(users)

	identity, err := verifier.Verify("Ana", "password123")
	req.NoError(err)
	req.Equal("Ana", identity.Username)

	// Wrong password and unknown user collapse into the same error
	_, err = verifier.Verify("Ana", "password456")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
	_, err = verifier.Verify("Nadie", "password123")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestVerifier_LookupIsCaseSensitive(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	users := repositories.NewUserRepository(db)
	hash, err := HashPassword("password123")
	req.NoError(err)
	_, err = users.CreateUser("Ana", hash)
	req.NoError(err)

	verifier := NewVerifier(users)

	_, err = verifier.Verify("ana", "password123")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
	_, err = verifier.Verify("ANA", "password123")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestVerifier_NoSideEffects(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	users := mocks.NewMockIUserRepository(ctrl)

	// One pure lookup per Verify call, nothing else touches the store
	users.EXPECT().GetUserByUsername("Ana").
		Return(repositories.User{}, badger.ErrKeyNotFound).
		Times(3)

	verifier := NewVerifier(users)
	for i := 0; i < 3; i++ {
		_, err := verifier.Verify("Ana", "password123")
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	}
}
