package products

import "time"

// Product is a catalog entry. Stock is owned by the inventory operations and
// is read-only through this module.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SKU       *string   `json:"sku,omitempty"`
	Price     float64   `json:"price"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateProductRequest is the payload for product creation.
type CreateProductRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=200"`
	SKU   *string `json:"sku,omitempty" validate:"omitempty,min=1,max=64"`
	Price float64 `json:"price" validate:"gte=0"`
	Stock int64   `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest is the payload for product updates. Stock is absent on
// purpose: stock moves only through inventory operations.
type UpdateProductRequest struct {
	Name  *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	SKU   *string  `json:"sku,omitempty" validate:"omitempty,min=1,max=64"`
	Price *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search  string
	Page    int
	PerPage int
}
