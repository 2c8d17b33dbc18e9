package orders

import (
	"fmt"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// transitions encodes the reachable next states of the lifecycle. Cancelled
// is reachable from every non-terminal state; the forward path is strictly
// draft → pending → in_progress → completed.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusPending, StatusCancelled},
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// validateTransition checks structural reachability. Role and precondition
// gating happens in the service on top of this.
func validateTransition(from, to Status) error {
	if !to.Valid() {
		return shared.Validationf("unknown status %q", to)
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, from, to)
}

// allowTransition applies the role gate for a structurally valid transition.
func allowTransition(p shared.Principal, order Order, to Status) error {
	if p.IsAdmin() {
		return nil
	}
	switch to {
	case StatusPending:
		// Publishing a draft is an owner action.
		if p.Role == shared.RoleCustomer && order.CustomerID == p.ID {
			return nil
		}
	case StatusInProgress, StatusCompleted:
		// Forward progress belongs to the assignee.
		if p.Role == shared.RoleEmployee && order.AssignedToID != nil && *order.AssignedToID == p.ID {
			return nil
		}
	case StatusCancelled:
		if p.ID == order.CustomerID || p.ID == order.CreatedByID {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s may not move order %d to %s", shared.ErrForbidden, p.Role, order.ID, to)
}
