package users

import (
	"time"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// User is an account in the system. Employees and customers are users with
// those roles.
type User struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      shared.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	PasswordHash string `json:"-"`
}

// CreateUserRequest is the admin create payload.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin employee customer"`
}

// UpdateUserRequest carries partial updates; nil fields are left untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin employee customer"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// ListFilter narrows the user list.
type ListFilter struct {
	Role    shared.Role
	Search  string
	Page    int
	PerPage int
}
