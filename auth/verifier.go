package auth

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
)

// Verifier validates presented credentials against the user store.
//
// The lookup is case-sensitive and exact. There is deliberately no lockout
// and no rate limiting here; throttling belongs to an edge layer if ever
// needed.
type Verifier struct {
	users repositories.IUserRepository
}

func NewVerifier(users repositories.IUserRepository) Verifier {
	return Verifier{users: users}
}

// Verify is a pure lookup: no side effects on success or failure.
// Both unknown-user and bad-password collapse into ErrInvalidCredentials
// to prevent user enumeration.
func (v Verifier) Verify(username, password string) (domain.Identity, error) {
	user, err := v.users.GetUserByUsername(username)
	if err != nil {
		return domain.Identity{}, errors.ErrInvalidCredentials
	}

	match, err := ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.Identity{}, errors.ErrInvalidCredentials
	}

	return domain.Identity{Username: user.Username}, nil
}
