package auth

import (
	"time"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// User is the credential view of an account used by the access gate.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         shared.Role
	PasswordHash string
	IsActive     bool
}

// Token pairs an opaque bearer credential with the principal it resolves to.
type Token struct {
	Value     string
	UserID    int64
	Role      shared.Role
	ExpiresAt time.Time
}
