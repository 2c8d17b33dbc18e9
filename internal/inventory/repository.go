package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-bm/meridian-bm/internal/platform/db"
	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, letting the stock
// primitives run standalone or inside a caller-owned transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store holds the SQL for the three stock primitives and the movement log.
// Every mutation of products.stock in the codebase goes through these
// methods so a movement record always accompanies the change.
type Store struct{}

// AdjustStock applies a signed delta unconditionally and returns the new
// stock level.
func (Store) AdjustStock(ctx context.Context, dbtx DBTX, productID, delta int64) (int64, error) {
	const query = `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1 RETURNING stock`
	var stock int64
	if err := dbtx.QueryRow(ctx, query, productID, delta).Scan(&stock); err != nil {
		if err == pgx.ErrNoRows {
			return 0, fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
		}
		return 0, err
	}
	return stock, nil
}

// ReserveStock decrements stock only when enough remains. The conditional
// update is evaluated atomically by the storage engine, so two concurrent
// reserves for the last unit cannot both succeed.
func (Store) ReserveStock(ctx context.Context, dbtx DBTX, productID, qty int64) error {
	const query = `UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`
	tag, err := dbtx.Exec(ctx, query, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: product %d", shared.ErrInsufficientStock, productID)
	}
	return nil
}

// ReleaseStock increments stock back, compensating a prior reserve.
func (Store) ReleaseStock(ctx context.Context, dbtx DBTX, productID, qty int64) error {
	const query = `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`
	tag, err := dbtx.Exec(ctx, query, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	return nil
}

// InsertMovement appends a movement record.
func (Store) InsertMovement(ctx context.Context, dbtx DBTX, m Movement) error {
	const query = `
		INSERT INTO inventory_movements (product_id, type, quantity, reason, order_id)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := dbtx.Exec(ctx, query, m.ProductID, string(m.Type), m.Quantity, m.Reason, m.OrderID)
	return err
}

// ListMovements returns movements newest-first.
func (Store) ListMovements(ctx context.Context, dbtx DBTX, filter LogFilter) ([]Movement, error) {
	query := `
		SELECT id, product_id, type, quantity, reason, order_id, created_at
		FROM inventory_movements
	`
	var args []any
	if filter.ProductID != 0 {
		query += ` WHERE product_id = $1`
		args = append(args, filter.ProductID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, limit)

	rows, err := dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		var reason *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &reason, &m.OrderID, &m.CreatedAt); err != nil {
			return nil, err
		}
		if reason != nil {
			m.Reason = *reason
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// TxOps exposes the transactional stock primitives used by the service.
type TxOps interface {
	AdjustStock(ctx context.Context, productID, delta int64) (int64, error)
	ReserveStock(ctx context.Context, productID, qty int64) error
	ReleaseStock(ctx context.Context, productID, qty int64) error
	InsertMovement(ctx context.Context, m Movement) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error
	ListMovements(ctx context.Context, filter LogFilter) ([]Movement, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
}

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool  *pgxpool.Pool
	store Store
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txOps struct {
	tx    pgx.Tx
	store Store
}

func (t *txOps) AdjustStock(ctx context.Context, productID, delta int64) (int64, error) {
	return t.store.AdjustStock(ctx, t.tx, productID, delta)
}

func (t *txOps) ReserveStock(ctx context.Context, productID, qty int64) error {
	return t.store.ReserveStock(ctx, t.tx, productID, qty)
}

func (t *txOps) ReleaseStock(ctx context.Context, productID, qty int64) error {
	return t.store.ReleaseStock(ctx, t.tx, productID, qty)
}

func (t *txOps) InsertMovement(ctx context.Context, m Movement) error {
	return t.store.InsertMovement(ctx, t.tx, m)
}

// WithTx executes the callback inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txOps{tx: tx, store: r.store})
	})
}

// ListMovements reads the movement log outside any transaction.
func (r *Repository) ListMovements(ctx context.Context, filter LogFilter) ([]Movement, error) {
	return r.store.ListMovements(ctx, r.pool, filter)
}

// ProductExists reports whether the product row is present.
func (r *Repository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	return exists, err
}
