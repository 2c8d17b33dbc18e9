package orders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/meridian-bm/meridian-bm/internal/inventory"
	"github.com/meridian-bm/meridian-bm/internal/products"
	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier dispatches order lifecycle notifications. Implementations are
// fire-and-forget; the service never fails an operation on a notify error.
type Notifier interface {
	OrderCreated(ctx context.Context, order Order) error
	OrderStatusChanged(ctx context.Context, order Order, from Status) error
}

// Service owns the order lifecycle: creation, the status state machine,
// assignment, and deletion, with their inventory side effects.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	notify Notifier
}

// NewService builds a Service. audit and notify may be nil.
func NewService(repo RepositoryPort, audit AuditPort, notify Notifier) *Service {
	return &Service{repo: repo, audit: audit, notify: notify}
}

// Create validates and persists a new order. Non-draft orders reserve stock
// per item inside the same transaction as the order insert, so either the
// whole order and all its reservations commit or nothing does.
func (s *Service) Create(ctx context.Context, p shared.Principal, req CreateOrderRequest) (*Order, error) {
	if p.Role == shared.RoleEmployee {
		return nil, fmt.Errorf("%w: employees cannot create orders", shared.ErrForbidden)
	}

	customerID := p.ID
	if req.CustomerID != nil {
		if !p.IsAdmin() && *req.CustomerID != p.ID {
			return nil, fmt.Errorf("%w: customer_id override requires admin", shared.ErrForbidden)
		}
		customerID = *req.CustomerID
	} else if p.IsAdmin() {
		return nil, shared.Validationf("customer_id is required")
	}
	if p.IsAdmin() && customerID != p.ID {
		role, err := s.repo.UserRole(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if role != shared.RoleCustomer {
			return nil, shared.Validationf("user %d is not a customer", customerID)
		}
	}

	if req.AssignedToID != nil && !p.IsAdmin() {
		return nil, fmt.Errorf("%w: assigning an order requires admin", shared.ErrForbidden)
	}
	if req.AssignedToID != nil {
		if err := s.checkAssignee(ctx, customerID, *req.AssignedToID); err != nil {
			return nil, err
		}
	}

	draft := req.Status == string(StatusDraft)
	status := StatusPending
	if draft {
		status = StatusDraft
	} else if req.AssignedToID != nil {
		status = StatusInProgress
	}

	if err := s.precheck(ctx, req.Items, !draft); err != nil {
		return nil, err
	}

	order := &Order{
		CustomerID:   customerID,
		CreatedByID:  p.ID,
		AssignedToID: req.AssignedToID,
		Status:       status,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxOps) error {
		items, total, err := snapshotItems(ctx, tx, req.Items)
		if err != nil {
			return err
		}
		order.Total = total
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.ReplaceItems(ctx, order.ID, items); err != nil {
			return err
		}
		order.Items = items
		if !draft {
			return reserveItems(ctx, tx, order.ID, items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, p.ID, "order:create", order.ID, map[string]any{"status": order.Status, "total": order.Total})
	if s.notify != nil {
		_ = s.notify.OrderCreated(ctx, *order)
	}
	return order, nil
}

// Get returns one order, scoped to what the principal may see.
func (s *Service) Get(ctx context.Context, p shared.Principal, id int64) (*Order, error) {
	order, err := s.repo.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.canView(p, order); err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns a page of orders. Customers see their own, employees their
// assigned; trash listing is admin-only.
func (s *Service) List(ctx context.Context, p shared.Principal, filter ListFilter) ([]Order, shared.Pagination, error) {
	if filter.Trashed && !p.IsAdmin() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: trash listing requires admin", shared.ErrForbidden)
	}
	switch p.Role {
	case shared.RoleCustomer:
		filter.CustomerID = p.ID
	case shared.RoleEmployee:
		filter.AssignedTo = p.ID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Pagination{}, shared.Validationf("unknown status %q", filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// Update replaces a draft's items and recomputes its total with fresh price
// snapshots. Only drafts are editable.
func (s *Service) Update(ctx context.Context, p shared.Principal, id int64, req UpdateOrderRequest) (*Order, error) {
	order, err := s.repo.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !(p.Role == shared.RoleCustomer && order.CustomerID == p.ID) {
		return nil, fmt.Errorf("%w: not your order", shared.ErrForbidden)
	}
	if order.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only draft orders may be edited", shared.ErrInvalidTransition)
	}
	if err := s.precheck(ctx, req.Items, false); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxOps) error {
		items, total, err := snapshotItems(ctx, tx, req.Items)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.ReplaceItems(ctx, order.ID, items); err != nil {
			return err
		}
		order.Total = total
		order.Items = items
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, p.ID, "order:update", order.ID, map[string]any{"total": order.Total})
	return &order, nil
}

// UpdateStatus moves the order along the state machine. Publishing a draft
// reserves stock; cancelling a reserved order releases it. Either side
// effect is atomic with the status flip.
func (s *Service) UpdateStatus(ctx context.Context, p shared.Principal, id int64, to Status) (*Order, error) {
	order, err := s.repo.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := validateTransition(from, to); err != nil {
		return nil, err
	}
	if err := allowTransition(p, order, to); err != nil {
		return nil, err
	}

	publishing := from == StatusDraft && to == StatusPending
	if publishing {
		if err := s.precheckStock(ctx, order.Items); err != nil {
			return nil, err
		}
	}
	releasing := to == StatusCancelled && order.Reserved()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxOps) error {
		if publishing {
			if err := reserveItems(ctx, tx, order.ID, order.Items); err != nil {
				return err
			}
		}
		if releasing {
			if err := releaseItems(ctx, tx, order.ID, order.Items); err != nil {
				return err
			}
		}
		order.Status = to
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, p.ID, "order:status", order.ID, map[string]any{"from": from, "to": to})
	if s.notify != nil {
		_ = s.notify.OrderStatusChanged(ctx, order, from)
	}
	return &order, nil
}

// Cancel is the dedicated cancellation path; same semantics as a status
// change to cancelled.
func (s *Service) Cancel(ctx context.Context, p shared.Principal, id int64) (*Order, error) {
	return s.UpdateStatus(ctx, p, id, StatusCancelled)
}

// Assign sets or clears the order's assignee. Clearing resets a live order
// to pending; assigning moves it to in_progress. Drafts keep their status.
// Stock commitment is untouched either way.
func (s *Service) Assign(ctx context.Context, p shared.Principal, id int64, assignedTo *int64) (*Order, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: assigning orders requires admin", shared.ErrForbidden)
	}
	order, err := s.repo.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %d is %s", shared.ErrInvalidTransition, order.ID, order.Status)
	}
	if assignedTo != nil {
		if err := s.checkAssignee(ctx, order.CustomerID, *assignedTo); err != nil {
			return nil, err
		}
	}

	from := order.Status
	order.AssignedToID = assignedTo
	if order.Status != StatusDraft {
		if assignedTo == nil {
			order.Status = StatusPending
		} else {
			order.Status = StatusInProgress
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxOps) error {
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, p.ID, "order:assign", order.ID, map[string]any{"assigned_to": assignedTo, "status": order.Status})
	if s.notify != nil && order.Status != from {
		_ = s.notify.OrderStatusChanged(ctx, order, from)
	}
	return &order, nil
}

// Delete trashes an order, or with permanent set removes it for good. A
// permanent delete of an order still holding reservations releases them in
// the same transaction as the row removal. Customers may delete only their
// own drafts.
func (s *Service) Delete(ctx context.Context, p shared.Principal, id int64, permanent bool) error {
	order, err := s.repo.Get(ctx, id, permanent)
	if err != nil {
		return err
	}
	switch p.Role {
	case shared.RoleAdmin:
	case shared.RoleCustomer:
		if order.CustomerID != p.ID || order.Status != StatusDraft {
			return fmt.Errorf("%w: customers may delete only their own drafts", shared.ErrForbidden)
		}
	default:
		return fmt.Errorf("%w: deleting orders requires admin", shared.ErrForbidden)
	}

	if !permanent {
		now := time.Now()
		order.DeletedAt = &now
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxOps) error {
			return tx.UpdateOrder(ctx, order)
		})
		if err != nil {
			return err
		}
		s.recordAudit(ctx, p.ID, "order:trash", order.ID, nil)
		return nil
	}

	if err := s.purge(ctx, order); err != nil {
		return err
	}
	s.recordAudit(ctx, p.ID, "order:delete", order.ID, map[string]any{"status": order.Status})
	return nil
}

// PurgeTrash permanently removes orders trashed before the cutoff, releasing
// any reservations they still hold. Returns the number of orders purged.
func (s *Service) PurgeTrash(ctx context.Context, cutoff time.Time) (int, error) {
	trashed, err := s.repo.ListTrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, order := range trashed {
		if err := s.purge(ctx, order); err != nil {
			return purged, fmt.Errorf("purge order %d: %w", order.ID, err)
		}
		purged++
	}
	return purged, nil
}

func (s *Service) purge(ctx context.Context, order Order) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxOps) error {
		if order.Reserved() {
			if err := releaseItems(ctx, tx, order.ID, order.Items); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, order.ID)
	})
}

func (s *Service) canView(p shared.Principal, order Order) error {
	switch p.Role {
	case shared.RoleAdmin:
		return nil
	case shared.RoleCustomer:
		if order.CustomerID == p.ID {
			return nil
		}
	case shared.RoleEmployee:
		if order.AssignedToID != nil && *order.AssignedToID == p.ID {
			return nil
		}
	}
	return fmt.Errorf("%w: not your order", shared.ErrForbidden)
}

// checkAssignee validates the target's role and the customer mapping gate.
func (s *Service) checkAssignee(ctx context.Context, customerID, employeeID int64) error {
	role, err := s.repo.UserRole(ctx, employeeID)
	if err != nil {
		return err
	}
	if role != shared.RoleEmployee {
		return shared.Validationf("assignee %d must have the employee role", employeeID)
	}
	ok, err := s.repo.MappingExists(ctx, customerID, employeeID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: customer %d has no assignment for employee %d", shared.ErrMappingRequired, customerID, employeeID)
	}
	return nil
}

// precheck validates product existence for every line and, when checkStock
// is set, runs the fail-fast availability check before any transaction
// opens. The conditional reserve inside the transaction remains the
// authoritative guard.
func (s *Service) precheck(ctx context.Context, items []ItemInput, checkStock bool) error {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return shared.Validationf("quantity for product %d must be a positive integer", it.ProductID)
		}
		ids = append(ids, it.ProductID)
	}
	refs, err := s.repo.ProductRefs(ctx, ids)
	if err != nil {
		return err
	}
	for _, it := range items {
		ref, ok := refs[it.ProductID]
		if !ok {
			return fmt.Errorf("%w: product %d", shared.ErrNotFound, it.ProductID)
		}
		if checkStock && ref.Stock < it.Quantity {
			return fmt.Errorf("%w: product %d", shared.ErrInsufficientStock, it.ProductID)
		}
	}
	return nil
}

func (s *Service) precheckStock(ctx context.Context, items []OrderItem) error {
	inputs := make([]ItemInput, len(items))
	for i, it := range items {
		inputs[i] = ItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return s.precheck(ctx, inputs, true)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "order",
		EntityID: strconv.FormatInt(orderID, 10),
		Meta:     meta,
	})
}

// snapshotItems re-reads authoritative prices inside the transaction and
// builds the item rows plus the order total.
func snapshotItems(ctx context.Context, tx TxOps, inputs []ItemInput) ([]OrderItem, float64, error) {
	ids := make([]int64, len(inputs))
	for i, it := range inputs {
		ids[i] = it.ProductID
	}
	refs, err := tx.ProductRefs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	items := make([]OrderItem, 0, len(inputs))
	var total float64
	for _, in := range inputs {
		ref, ok := refs[in.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: product %d", shared.ErrNotFound, in.ProductID)
		}
		items = append(items, OrderItem{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: ref.Price,
		})
		total += products.Round2(float64(in.Quantity) * ref.Price)
	}
	return items, products.Round2(total), nil
}

func reserveItems(ctx context.Context, tx TxOps, orderID int64, items []OrderItem) error {
	for _, it := range items {
		if err := tx.ReserveStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
		m := inventory.Movement{
			ProductID: it.ProductID,
			Type:      inventory.MovementReserve,
			Quantity:  it.Quantity,
			OrderID:   &orderID,
		}
		if err := tx.InsertMovement(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func releaseItems(ctx context.Context, tx TxOps, orderID int64, items []OrderItem) error {
	for _, it := range items {
		if err := tx.ReleaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
		m := inventory.Movement{
			ProductID: it.ProductID,
			Type:      inventory.MovementRelease,
			Quantity:  it.Quantity,
			OrderID:   &orderID,
		}
		if err := tx.InsertMovement(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
