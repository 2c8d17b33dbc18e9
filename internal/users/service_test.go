package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

type fakeRepo struct {
	rows   map[int64]User
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[int64]User{}}
}

func (f *fakeRepo) Get(_ context.Context, id int64) (User, error) {
	u, ok := f.rows[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return u, nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]User, shared.Pagination, error) {
	var out []User
	for _, u := range f.rows {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, shared.NewPagination(1, 20, len(out)), nil
}

func (f *fakeRepo) Create(_ context.Context, u User) (User, error) {
	for _, existing := range f.rows {
		if existing.Email == u.Email {
			return User{}, fmt.Errorf("%w: email already in use", shared.ErrConflict)
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.rows[u.ID] = u
	return u, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	u, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	if v, ok := updates["name"]; ok {
		u.Name = v.(string)
	}
	if v, ok := updates["role"]; ok {
		u.Role = shared.Role(v.(string))
	}
	if v, ok := updates["is_active"]; ok {
		u.IsActive = v.(bool)
	}
	if v, ok := updates["password_hash"]; ok {
		u.PasswordHash = v.(string)
	}
	f.rows[id] = u
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	delete(f.rows, id)
	return nil
}

type fakeNotifier struct{ created []User }

func (n *fakeNotifier) UserCreated(_ context.Context, u User) error {
	n.created = append(n.created, u)
	return nil
}

var admin = shared.Principal{ID: 99, Role: shared.RoleAdmin}

func TestCreateHashesPasswordAndNormalizes(t *testing.T) {
	repo := newFakeRepo()
	notify := &fakeNotifier{}
	svc := NewService(repo, nil, notify)

	u, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Email:    "  Jane.Doe@Example.COM ",
		Name:     "jane doe",
		Password: "s3cret-pass",
		Role:     "employee",
	})
	require.NoError(t, err)
	require.Equal(t, "jane.doe@example.com", u.Email)
	require.Equal(t, "Jane Doe", u.Name)
	require.Equal(t, shared.RoleEmployee, u.Role)
	require.True(t, u.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")))
	require.Len(t, notify.created, 1, "welcome notification enqueued")
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	_, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Email: "a@b.com", Name: "a", Password: "password1", Role: "customer",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin, CreateUserRequest{
		Email: "a@b.com", Name: "b", Password: "password2", Role: "customer",
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateOwnRoleRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	self := shared.Principal{ID: 1, Role: shared.RoleAdmin}
	repo.rows[1] = User{ID: 1, Email: "admin@x.com", Role: shared.RoleAdmin}

	demote := "customer"
	_, err := svc.Update(context.Background(), self, 1, UpdateUserRequest{Role: &demote})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteSelfRejected(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	err := svc.Delete(context.Background(), admin, admin.ID)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListRejectsUnknownRole(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	_, _, err := svc.List(context.Background(), ListFilter{Role: "superuser"})
	require.ErrorIs(t, err, shared.ErrValidation)
}
