package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

type fakeRepo struct {
	users map[string]*User
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *TokenStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	tokens := NewTokenStore(client, time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeRepo{users: map[string]*User{
		"jane@example.com": {
			ID:           7,
			Email:        "jane@example.com",
			Name:         "Jane",
			Role:         shared.RoleEmployee,
			PasswordHash: string(hash),
			IsActive:     true,
		},
	}}
	return NewService(repo, tokens), repo, tokens
}

func TestLoginIssuesResolvableToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	user, token, err := svc.Login(context.Background(), "jane@example.com", "correct-horse")
	require.NoError(t, err)
	require.EqualValues(t, 7, user.ID)
	require.NotEmpty(t, token.Value)

	principal, err := svc.Resolve(context.Background(), token.Value)
	require.NoError(t, err)
	require.EqualValues(t, 7, principal.ID)
	require.Equal(t, shared.RoleEmployee, principal.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "jane@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.users["jane@example.com"].IsActive = false

	_, _, err := svc.Login(context.Background(), "jane@example.com", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, token, err := svc.Login(context.Background(), "jane@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token.Value))

	_, err = svc.Resolve(context.Background(), token.Value)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestResolveUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), "not-a-token")
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = svc.Resolve(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	tokens := NewTokenStore(client, time.Minute)

	token, err := tokens.Issue(context.Background(), shared.Principal{ID: 1, Role: shared.RoleAdmin})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = tokens.Resolve(context.Background(), token.Value)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
