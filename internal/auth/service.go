package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login validates email/password credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, Token, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, Token{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, Token{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, Token{}, shared.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(ctx, shared.Principal{ID: user.ID, Role: user.Role})
	if err != nil {
		return nil, Token{}, err
	}
	return user, token, nil
}

// Logout revokes the bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Resolve maps a bearer token to its principal.
func (s *Service) Resolve(ctx context.Context, token string) (shared.Principal, error) {
	return s.tokens.Resolve(ctx, token)
}
