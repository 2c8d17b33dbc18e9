package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier enqueues the welcome email for new accounts. Fire-and-forget;
// failures never roll back the create.
type Notifier interface {
	UserCreated(ctx context.Context, user User) error
}

// Service manages user accounts.
type Service struct {
	repo   Repository
	audit  AuditPort
	notify Notifier
	title  cases.Caser
}

// NewService builds a Service. audit and notify may be nil.
func NewService(repo Repository, audit AuditPort, notify Notifier) *Service {
	return &Service{repo: repo, audit: audit, notify: notify, title: cases.Title(language.English)}
}

// Create hashes the password and stores a new active account. Duplicate
// email surfaces as Conflict.
func (s *Service) Create(ctx context.Context, actor shared.Principal, req CreateUserRequest) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         s.normalizeName(req.Name),
		Role:         shared.Role(req.Role),
		IsActive:     true,
		PasswordHash: string(hash),
	}
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "user:create",
			Entity:   "user",
			EntityID: strconv.FormatInt(created.ID, 10),
			Meta:     map[string]any{"email": created.Email, "role": created.Role},
		})
	}
	if s.notify != nil {
		_ = s.notify.UserCreated(ctx, created)
	}
	return &created, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, shared.Pagination, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, shared.Pagination{}, shared.Validationf("unknown role %q", filter.Role)
	}
	return s.repo.List(ctx, filter)
}

// Update applies partial changes. Admins cannot demote themselves.
func (s *Service) Update(ctx context.Context, actor shared.Principal, id int64, req UpdateUserRequest) (*User, error) {
	if req.Role != nil && id == actor.ID && shared.Role(*req.Role) != shared.RoleAdmin {
		return nil, shared.Validationf("cannot change your own role")
	}
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = s.normalizeName(*req.Name)
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "user:update",
			Entity:   "user",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete soft-deletes an account. Self-deletion is rejected.
func (s *Service) Delete(ctx context.Context, actor shared.Principal, id int64) error {
	if id == actor.ID {
		return shared.Validationf("cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "user:delete",
			Entity:   "user",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return nil
}

func (s *Service) normalizeName(name string) string {
	return s.title.String(strings.ToLower(strings.TrimSpace(name)))
}
