package products

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// AuditPort abstracts the best-effort audit trail.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles product catalog business logic.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds a Service instance.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Create inserts a new product. Price is rounded to two decimals on write.
func (s *Service) Create(ctx context.Context, actor shared.Principal, req CreateProductRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.Validationf("name is required")
	}
	if req.Price < 0 {
		return nil, shared.Validationf("price must not be negative")
	}
	if req.Stock < 0 {
		return nil, shared.Validationf("stock must not be negative")
	}
	p := Product{
		Name:  name,
		SKU:   normalizeSKU(req.SKU),
		Price: Round2(req.Price),
		Stock: req.Stock,
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "product:create",
			Entity:   "product",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"name": p.Name, "price": p.Price, "stock": p.Stock},
		})
	}
	return s.repo.Get(ctx, id)
}

// Update applies a partial update to a product.
func (s *Service) Update(ctx context.Context, actor shared.Principal, id int64, req UpdateProductRequest) (*Product, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, shared.Validationf("name must not be empty")
		}
		updates["name"] = name
	}
	if req.SKU != nil {
		updates["sku"] = normalizeSKU(req.SKU)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, shared.Validationf("price must not be negative")
		}
		updates["price"] = Round2(*req.Price)
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "product:update",
			Entity:   "product",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, actor shared.Principal, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "product:delete",
			Entity:   "product",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return nil
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
