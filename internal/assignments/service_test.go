package assignments

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

type fakeRepo struct {
	roles  map[int64]shared.Role
	rows   map[int64]Assignment
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		roles: map[int64]shared.Role{
			1: shared.RoleAdmin,
			2: shared.RoleCustomer,
			3: shared.RoleEmployee,
		},
		rows: map[int64]Assignment{},
	}
}

func (f *fakeRepo) Create(_ context.Context, a Assignment) (Assignment, error) {
	for _, existing := range f.rows {
		if existing.CustomerID == a.CustomerID && existing.EmployeeID == a.EmployeeID {
			return Assignment{}, fmt.Errorf("%w: assignment already exists", shared.ErrConflict)
		}
	}
	f.nextID++
	a.ID = f.nextID
	f.rows[a.ID] = a
	return a, nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return fmt.Errorf("%w: assignment %d", shared.ErrNotFound, id)
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Assignment, error) {
	var out []Assignment
	for _, a := range f.rows {
		if filter.CustomerID != 0 && a.CustomerID != filter.CustomerID {
			continue
		}
		if filter.EmployeeID != 0 && a.EmployeeID != filter.EmployeeID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepo) UserRole(_ context.Context, userID int64) (shared.Role, error) {
	role, ok := f.roles[userID]
	if !ok {
		return "", fmt.Errorf("%w: user %d", shared.ErrNotFound, userID)
	}
	return role, nil
}

var actor = shared.Principal{ID: 1, Role: shared.RoleAdmin}

func TestCreateAssignment(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	a, err := svc.Create(context.Background(), actor, CreateAssignmentRequest{CustomerID: 2, EmployeeID: 3})
	require.NoError(t, err)
	require.EqualValues(t, 2, a.CustomerID)
	require.EqualValues(t, 3, a.EmployeeID)
}

func TestCreateDuplicatePairConflicts(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), actor, CreateAssignmentRequest{CustomerID: 2, EmployeeID: 3})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), actor, CreateAssignmentRequest{CustomerID: 2, EmployeeID: 3})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateValidatesRoles(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), actor, CreateAssignmentRequest{CustomerID: 3, EmployeeID: 3})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), actor, CreateAssignmentRequest{CustomerID: 2, EmployeeID: 2})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), actor, CreateAssignmentRequest{CustomerID: 99, EmployeeID: 3})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteUnknownAssignment(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	require.ErrorIs(t, svc.Delete(context.Background(), actor, 42), shared.ErrNotFound)
}
