package orders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

func TestValidateTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusDraft, StatusPending},
		{StatusDraft, StatusCancelled},
		{StatusPending, StatusInProgress},
		{StatusPending, StatusCancelled},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusCancelled},
	}
	for _, pair := range allowed {
		require.NoError(t, validateTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	rejected := [][2]Status{
		{StatusDraft, StatusInProgress},
		{StatusDraft, StatusCompleted},
		{StatusPending, StatusDraft},
		{StatusPending, StatusCompleted},
		{StatusInProgress, StatusPending},
		{StatusInProgress, StatusDraft},
		{StatusCompleted, StatusCancelled},
		{StatusCompleted, StatusPending},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusCancelled},
	}
	for _, pair := range rejected {
		require.ErrorIs(t, validateTransition(pair[0], pair[1]), shared.ErrInvalidTransition, "%s -> %s", pair[0], pair[1])
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	require.ErrorIs(t, validateTransition(StatusDraft, Status("shipped")), shared.ErrValidation)
}

func TestAllowTransitionRoleGate(t *testing.T) {
	employeeID := int64(3)
	order := Order{ID: 1, CustomerID: 2, CreatedByID: 2, AssignedToID: &employeeID, Status: StatusPending}

	admin := shared.Principal{ID: 1, Role: shared.RoleAdmin}
	owner := shared.Principal{ID: 2, Role: shared.RoleCustomer}
	assignee := shared.Principal{ID: 3, Role: shared.RoleEmployee}
	otherEmployee := shared.Principal{ID: 4, Role: shared.RoleEmployee}

	require.NoError(t, allowTransition(admin, order, StatusInProgress))
	require.NoError(t, allowTransition(assignee, order, StatusInProgress))
	require.ErrorIs(t, allowTransition(otherEmployee, order, StatusInProgress), shared.ErrForbidden)
	require.ErrorIs(t, allowTransition(owner, order, StatusInProgress), shared.ErrForbidden)

	draft := Order{ID: 2, CustomerID: 2, CreatedByID: 2, Status: StatusDraft}
	require.NoError(t, allowTransition(owner, draft, StatusPending))
	require.ErrorIs(t, allowTransition(otherEmployee, draft, StatusPending), shared.ErrForbidden)

	require.NoError(t, allowTransition(owner, order, StatusCancelled))
	require.NoError(t, allowTransition(admin, order, StatusCancelled))
	require.ErrorIs(t, allowTransition(otherEmployee, order, StatusCancelled), shared.ErrForbidden)
}
