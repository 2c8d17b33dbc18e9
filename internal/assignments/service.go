package assignments

import (
	"context"
	"strconv"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages customer/employee assignments, the precondition store for
// attaching employees to customer orders.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds a Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create validates both sides of the pair and stores it. A duplicate pair
// surfaces as Conflict.
func (s *Service) Create(ctx context.Context, actor shared.Principal, req CreateAssignmentRequest) (*Assignment, error) {
	customerRole, err := s.repo.UserRole(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if customerRole != shared.RoleCustomer {
		return nil, shared.Validationf("user %d is not a customer", req.CustomerID)
	}
	employeeRole, err := s.repo.UserRole(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employeeRole != shared.RoleEmployee {
		return nil, shared.Validationf("user %d is not an employee", req.EmployeeID)
	}

	created, err := s.repo.Create(ctx, Assignment{CustomerID: req.CustomerID, EmployeeID: req.EmployeeID})
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "assignment:create",
			Entity:   "assignment",
			EntityID: strconv.FormatInt(created.ID, 10),
			Meta:     map[string]any{"customer_id": created.CustomerID, "employee_id": created.EmployeeID},
		})
	}
	return &created, nil
}

// Delete removes an assignment.
func (s *Service) Delete(ctx context.Context, actor shared.Principal, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "assignment:delete",
			Entity:   "assignment",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return nil
}

// List returns assignments, optionally filtered by either side.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Assignment, error) {
	return s.repo.List(ctx, filter)
}
