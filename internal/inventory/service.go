package inventory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the stock primitives for direct invocation. Each
// operation pairs the stock change with its movement record inside one
// transaction.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Adjust unconditionally applies a signed delta to a product's stock. This is
// the admin override path: the caller is responsible for sane deltas.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (int64, error) {
	if input.ProductID <= 0 {
		return 0, shared.Validationf("product_id is required")
	}
	if input.Delta == 0 {
		return 0, shared.Validationf("delta must be non-zero")
	}
	var newStock int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxOps) error {
		stock, err := tx.AdjustStock(ctx, input.ProductID, input.Delta)
		if err != nil {
			return err
		}
		newStock = stock
		return tx.InsertMovement(ctx, Movement{
			ProductID: input.ProductID,
			Type:      MovementAdjust,
			Quantity:  input.Delta,
			Reason:    input.Reason,
		})
	})
	if err != nil {
		return 0, err
	}
	s.recordAudit(ctx, input.ActorID, MovementAdjust, input.ProductID, input.Delta, input.Reason)
	return newStock, nil
}

// Reserve conditionally commits stock to an order. It fails with
// ErrInsufficientStock when the remaining stock is short; concurrent callers
// cannot both win the last unit.
func (s *Service) Reserve(ctx context.Context, input ReserveInput) error {
	if input.ProductID <= 0 {
		return shared.Validationf("product_id is required")
	}
	if input.Quantity <= 0 {
		return shared.Validationf("quantity must be a positive integer")
	}
	if exists, err := s.repo.ProductExists(ctx, input.ProductID); err != nil {
		return err
	} else if !exists {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, input.ProductID)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxOps) error {
		if err := tx.ReserveStock(ctx, input.ProductID, input.Quantity); err != nil {
			return err
		}
		orderID := input.OrderID
		return tx.InsertMovement(ctx, Movement{
			ProductID: input.ProductID,
			Type:      MovementReserve,
			Quantity:  input.Quantity,
			OrderID:   optionalID(orderID),
		})
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, input.ActorID, MovementReserve, input.ProductID, input.Quantity, "")
	return nil
}

// Release returns previously reserved stock.
func (s *Service) Release(ctx context.Context, input ReleaseInput) error {
	if input.ProductID <= 0 {
		return shared.Validationf("product_id is required")
	}
	if input.Quantity <= 0 {
		return shared.Validationf("quantity must be a positive integer")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxOps) error {
		if err := tx.ReleaseStock(ctx, input.ProductID, input.Quantity); err != nil {
			return err
		}
		return tx.InsertMovement(ctx, Movement{
			ProductID: input.ProductID,
			Type:      MovementRelease,
			Quantity:  input.Quantity,
			OrderID:   optionalID(input.OrderID),
		})
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, input.ActorID, MovementRelease, input.ProductID, input.Quantity, "")
	return nil
}

// Logs returns movement records, newest first.
func (s *Service) Logs(ctx context.Context, filter LogFilter) ([]Movement, error) {
	return s.repo.ListMovements(ctx, filter)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, movement MovementType, productID, qty int64, reason string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   fmt.Sprintf("inventory:%s", movement),
		Entity:   "product",
		EntityID: strconv.FormatInt(productID, 10),
		Meta: map[string]any{
			"quantity": qty,
			"reason":   reason,
		},
	})
}

func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
