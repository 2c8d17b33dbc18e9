package orders

import "time"

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status or assignment mutation is
// permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is an order header with its item lines.
type Order struct {
	ID           int64       `json:"id"`
	CustomerID   int64       `json:"customer_id"`
	CreatedByID  int64       `json:"created_by_id"`
	AssignedToID *int64      `json:"assigned_to_id,omitempty"`
	Total        float64     `json:"total"`
	Status       Status      `json:"status"`
	Items        []OrderItem `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty"`
}

// Reserved reports whether the order currently holds stock reservations.
// Drafts never reserved; cancelled orders already released; completed orders
// consumed their stock.
func (o Order) Reserved() bool {
	return o.Status == StatusPending || o.Status == StatusInProgress
}

// OrderItem is a single line of an order. UnitPrice is the product price
// snapshot captured when the line was written, not the live price.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest is the create payload. CustomerID and AssignedToID are
// admin-only overrides; Status accepts only "draft".
type CreateOrderRequest struct {
	Items        []ItemInput `json:"items" validate:"required,min=1,dive"`
	CustomerID   *int64      `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	AssignedToID *int64      `json:"assigned_to_id,omitempty" validate:"omitempty,gt=0"`
	Status       string      `json:"status,omitempty" validate:"omitempty,oneof=draft"`
}

// UpdateOrderRequest replaces a draft's item lines.
type UpdateOrderRequest struct {
	Items []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// AssignRequest sets or clears the assignee.
type AssignRequest struct {
	AssignedToID *int64 `json:"assigned_to_id" validate:"omitempty,gt=0"`
}

// StatusRequest moves the order along the state machine.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListFilter narrows the order list.
type ListFilter struct {
	Status     Status
	CustomerID int64
	AssignedTo int64
	Trashed    bool
	Page       int
	PerPage    int
}

// ProductRef is the slice of a product row the order flow needs.
type ProductRef struct {
	ID    int64
	Price float64
	Stock int64
}
