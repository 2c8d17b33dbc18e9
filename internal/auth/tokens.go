package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// TokenStore keeps bearer tokens in Redis with a bounded lifetime.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

type tokenPayload struct {
	UserID int64       `json:"user_id"`
	Role   shared.Role `json:"role"`
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue mints a token resolving to the given principal.
func (s *TokenStore) Issue(ctx context.Context, p shared.Principal) (Token, error) {
	value := uuid.NewString()
	data, err := json.Marshal(tokenPayload{UserID: p.ID, Role: p.Role})
	if err != nil {
		return Token{}, err
	}
	expiresAt := time.Now().Add(s.ttl)
	if err := s.client.Set(ctx, s.redisKey(value), data, s.ttl).Err(); err != nil {
		return Token{}, err
	}
	return Token{Value: value, UserID: p.ID, Role: p.Role, ExpiresAt: expiresAt}, nil
}

// Resolve maps a bearer token back to its principal.
func (s *TokenStore) Resolve(ctx context.Context, value string) (shared.Principal, error) {
	if value == "" {
		return shared.Principal{}, shared.ErrUnauthorized
	}
	data, err := s.client.Get(ctx, s.redisKey(value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shared.Principal{}, shared.ErrUnauthorized
		}
		return shared.Principal{}, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return shared.Principal{}, shared.ErrUnauthorized
	}
	if !payload.Role.Valid() {
		return shared.Principal{}, shared.ErrUnauthorized
	}
	return shared.Principal{ID: payload.UserID, Role: payload.Role}, nil
}

// Revoke deletes the token.
func (s *TokenStore) Revoke(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.redisKey(value)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *TokenStore) redisKey(value string) string {
	return "token:" + value
}
