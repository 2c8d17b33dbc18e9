package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

type fakeRepo struct {
	rows   map[int64]Product
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[int64]Product{}}
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Product, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return &p, nil
}

func (f *fakeRepo) GetMany(_ context.Context, ids []int64) (map[int64]Product, error) {
	out := map[int64]Product{}
	for _, id := range ids {
		if p, ok := f.rows[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, _ ListFilter) ([]Product, int, error) {
	var out []Product
	for _, p := range f.rows {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(_ context.Context, p Product) (int64, error) {
	if p.SKU != nil {
		for _, existing := range f.rows {
			if existing.SKU != nil && *existing.SKU == *p.SKU {
				return 0, fmt.Errorf("%w: sku already in use", shared.ErrConflict)
			}
		}
	}
	f.nextID++
	p.ID = f.nextID
	f.rows[p.ID] = p
	return p.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	p, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	if v, ok := updates["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := updates["price"]; ok {
		p.Price = v.(float64)
	}
	if v, ok := updates["sku"]; ok {
		p.SKU = v.(*string)
	}
	f.rows[id] = p
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	delete(f.rows, id)
	return nil
}

var actor = shared.Principal{ID: 1, Role: shared.RoleAdmin}

func TestCreateRoundsPrice(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	p, err := svc.Create(context.Background(), actor, CreateProductRequest{
		Name:  " Widget ",
		Price: 19.999,
		Stock: 4,
	})
	require.NoError(t, err)
	require.Equal(t, "Widget", p.Name)
	require.InDelta(t, 20.00, p.Price, 0.0001)
	require.EqualValues(t, 4, p.Stock)
}

func TestCreateBlankSKUStoredAsNull(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	blank := "   "
	p, err := svc.Create(context.Background(), actor, CreateProductRequest{Name: "A", SKU: &blank})
	require.NoError(t, err)
	require.Nil(t, p.SKU)
}

func TestCreateDuplicateSKUConflicts(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	sku := "SKU-1"
	_, err := svc.Create(context.Background(), actor, CreateProductRequest{Name: "A", SKU: &sku})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), actor, CreateProductRequest{Name: "B", SKU: &sku})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateNeverTouchesStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	p, err := svc.Create(context.Background(), actor, CreateProductRequest{Name: "A", Price: 5, Stock: 9})
	require.NoError(t, err)

	price := 7.125
	updated, err := svc.Update(context.Background(), actor, p.ID, UpdateProductRequest{Price: &price})
	require.NoError(t, err)
	require.InDelta(t, 7.13, updated.Price, 0.0001)
	require.EqualValues(t, 9, updated.Stock, "stock only moves through inventory operations")
}

func TestUpdateRejectsNegativePrice(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	p, err := svc.Create(context.Background(), actor, CreateProductRequest{Name: "A", Price: 5})
	require.NoError(t, err)

	bad := -1.0
	_, err = svc.Update(context.Background(), actor, p.ID, UpdateProductRequest{Price: &bad})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRound2(t *testing.T) {
	require.InDelta(t, 15.00, Round2(15.004), 0.0001)
	require.InDelta(t, 15.01, Round2(15.005), 0.0001)
	require.InDelta(t, 0, Round2(0), 0.0001)
}
