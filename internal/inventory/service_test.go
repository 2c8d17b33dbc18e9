package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

type fakeRepo struct {
	stock     map[int64]int64
	movements []Movement
	failTx    bool
}

func newFakeRepo(stock map[int64]int64) *fakeRepo {
	return &fakeRepo{stock: stock}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error {
	snapshot := make(map[int64]int64, len(f.stock))
	for k, v := range f.stock {
		snapshot[k] = v
	}
	moves := len(f.movements)
	if err := fn(ctx, (*fakeTxOps)(f)); err != nil {
		f.stock = snapshot
		f.movements = f.movements[:moves]
		return err
	}
	return nil
}

func (f *fakeRepo) ListMovements(_ context.Context, filter LogFilter) ([]Movement, error) {
	var out []Movement
	for i := len(f.movements) - 1; i >= 0; i-- {
		m := f.movements[i]
		if filter.ProductID != 0 && m.ProductID != filter.ProductID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepo) ProductExists(_ context.Context, productID int64) (bool, error) {
	_, ok := f.stock[productID]
	return ok, nil
}

type fakeTxOps fakeRepo

func (f *fakeTxOps) AdjustStock(_ context.Context, productID, delta int64) (int64, error) {
	cur, ok := f.stock[productID]
	if !ok {
		return 0, fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	f.stock[productID] = cur + delta
	return cur + delta, nil
}

func (f *fakeTxOps) ReserveStock(_ context.Context, productID, qty int64) error {
	cur, ok := f.stock[productID]
	if !ok || cur < qty {
		return fmt.Errorf("%w: product %d", shared.ErrInsufficientStock, productID)
	}
	f.stock[productID] = cur - qty
	return nil
}

func (f *fakeTxOps) ReleaseStock(_ context.Context, productID, qty int64) error {
	cur, ok := f.stock[productID]
	if !ok {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	f.stock[productID] = cur + qty
	return nil
}

func (f *fakeTxOps) InsertMovement(_ context.Context, m Movement) error {
	if f.failTx {
		return fmt.Errorf("insert movement: boom")
	}
	m.ID = int64(len(f.movements) + 1)
	f.movements = append(f.movements, m)
	return nil
}

type noopAudit struct{ logs []shared.AuditLog }

func (a *noopAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestAdjustAppliesDeltaAndRecordsMovement(t *testing.T) {
	repo := newFakeRepo(map[int64]int64{1: 10})
	audit := &noopAudit{}
	svc := NewService(repo, audit)

	stock, err := svc.Adjust(context.Background(), AdjustInput{ProductID: 1, Delta: -4, Reason: "damaged", ActorID: 7})
	require.NoError(t, err)
	require.EqualValues(t, 6, stock)
	require.Len(t, repo.movements, 1)
	require.Equal(t, MovementAdjust, repo.movements[0].Type)
	require.EqualValues(t, -4, repo.movements[0].Quantity)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "inventory:adjust", audit.logs[0].Action)
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	svc := NewService(newFakeRepo(map[int64]int64{1: 10}), &noopAudit{})

	_, err := svc.Adjust(context.Background(), AdjustInput{ProductID: 1, Delta: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAdjustUnknownProduct(t *testing.T) {
	svc := NewService(newFakeRepo(map[int64]int64{}), &noopAudit{})

	_, err := svc.Adjust(context.Background(), AdjustInput{ProductID: 99, Delta: 5})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReserveDecrementsStock(t *testing.T) {
	repo := newFakeRepo(map[int64]int64{1: 3})
	svc := NewService(repo, &noopAudit{})

	err := svc.Reserve(context.Background(), ReserveInput{ProductID: 1, Quantity: 3, OrderID: 42})
	require.NoError(t, err)
	require.EqualValues(t, 0, repo.stock[1])
	require.Len(t, repo.movements, 1)
	require.Equal(t, MovementReserve, repo.movements[0].Type)
	require.NotNil(t, repo.movements[0].OrderID)
	require.EqualValues(t, 42, *repo.movements[0].OrderID)
}

func TestReserveInsufficientStock(t *testing.T) {
	repo := newFakeRepo(map[int64]int64{1: 2})
	svc := NewService(repo, &noopAudit{})

	err := svc.Reserve(context.Background(), ReserveInput{ProductID: 1, Quantity: 3})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.EqualValues(t, 2, repo.stock[1], "stock untouched on failed reserve")
	require.Empty(t, repo.movements)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewService(newFakeRepo(map[int64]int64{1: 5}), &noopAudit{})

	err := svc.Reserve(context.Background(), ReserveInput{ProductID: 1, Quantity: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.Reserve(context.Background(), ReserveInput{ProductID: 1, Quantity: -2})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestReserveUnknownProduct(t *testing.T) {
	svc := NewService(newFakeRepo(map[int64]int64{}), &noopAudit{})

	err := svc.Reserve(context.Background(), ReserveInput{ProductID: 5, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReserveRollsBackStockWhenMovementFails(t *testing.T) {
	repo := newFakeRepo(map[int64]int64{1: 5})
	repo.failTx = true
	svc := NewService(repo, &noopAudit{})

	err := svc.Reserve(context.Background(), ReserveInput{ProductID: 1, Quantity: 2})
	require.Error(t, err)
	require.EqualValues(t, 5, repo.stock[1], "decrement rolled back with failed movement insert")
}

func TestReleaseIncrementsStock(t *testing.T) {
	repo := newFakeRepo(map[int64]int64{1: 1})
	svc := NewService(repo, &noopAudit{})

	err := svc.Release(context.Background(), ReleaseInput{ProductID: 1, Quantity: 4, OrderID: 9})
	require.NoError(t, err)
	require.EqualValues(t, 5, repo.stock[1])
	require.Len(t, repo.movements, 1)
	require.Equal(t, MovementRelease, repo.movements[0].Type)
}

func TestLogsNewestFirstWithProductFilter(t *testing.T) {
	repo := newFakeRepo(map[int64]int64{1: 10, 2: 10})
	svc := NewService(repo, &noopAudit{})

	require.NoError(t, svc.Reserve(context.Background(), ReserveInput{ProductID: 1, Quantity: 1}))
	require.NoError(t, svc.Reserve(context.Background(), ReserveInput{ProductID: 2, Quantity: 2}))
	require.NoError(t, svc.Release(context.Background(), ReleaseInput{ProductID: 1, Quantity: 1}))

	logs, err := svc.Logs(context.Background(), LogFilter{ProductID: 1})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, MovementRelease, logs[0].Type)
	require.Equal(t, MovementReserve, logs[1].Type)
}
