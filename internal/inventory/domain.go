package inventory

import "time"

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementAdjust is an unconditional manual stock correction.
	MovementAdjust MovementType = "adjust"
	// MovementReserve is a conditional decrement committing stock to an order.
	MovementReserve MovementType = "reserve"
	// MovementRelease is an unconditional increment compensating a reserve.
	MovementRelease MovementType = "release"
)

// Movement is an append-only audit record of a stock-affecting event.
// Quantity is the signed delta for adjust and the positive reserved/released
// amount otherwise.
type Movement struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"product_id"`
	Type      MovementType `json:"type"`
	Quantity  int64        `json:"quantity"`
	Reason    string       `json:"reason,omitempty"`
	OrderID   *int64       `json:"order_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// AdjustInput describes a manual stock correction.
type AdjustInput struct {
	ProductID int64
	Delta     int64
	Reason    string
	ActorID   int64
}

// ReserveInput describes a stock reservation for an order.
type ReserveInput struct {
	ProductID int64
	Quantity  int64
	OrderID   int64
	ActorID   int64
}

// ReleaseInput describes returning reserved stock.
type ReleaseInput struct {
	ProductID int64
	Quantity  int64
	OrderID   int64
	ActorID   int64
}

// LogFilter narrows the movement log read path.
type LogFilter struct {
	ProductID int64
	Limit     int
}
