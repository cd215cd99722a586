package services

import (
	"fmt"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Login(username, password string) (Token, error)
	Register(username, password string) (Token, error)
}

type Token string

type AuthService struct {
	verifier auth.Verifier
	users    repositories.IUserRepository
	tokens   auth.Tokens
}

func NewAuthService(verifier auth.Verifier, users repositories.IUserRepository,
	tokens auth.Tokens) IAuthService {
	return &AuthService{verifier: verifier, users: users, tokens: tokens}
}

// Login verifies the presented credentials and issues a session token.
// Failures are reported only to the requesting caller, never broadcast.
func (s *AuthService) Login(username, password string) (Token, error) {
	identity, err := s.verifier.Verify(username, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(identity.Username)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}

// Register creates a new account and returns its initial session token.
func (s *AuthService) Register(username, password string) (Token, error) {
	req := auth.RegisterRequest{Username: username, Password: password}

	// Business rules first: cheaper than the hash below.
	if err := auth.ValidateRegister(req); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hash in the service layer so the repository never sees a plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	if _, err := s.users.CreateUser(username, hashedPassword); err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(username)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}
