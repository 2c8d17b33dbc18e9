package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-bm/meridian-bm/internal/inventory"
	"github.com/meridian-bm/meridian-bm/internal/platform/db"
	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// TxOps is the transactional surface of the order flow. Stock methods reuse
// the inventory primitives against the same transaction, so a reserve and
// the order insert commit or roll back together.
type TxOps interface {
	ProductRefs(ctx context.Context, ids []int64) (map[int64]ProductRef, error)
	InsertOrder(ctx context.Context, order *Order) error
	UpdateOrder(ctx context.Context, order Order) error
	ReplaceItems(ctx context.Context, orderID int64, items []OrderItem) error
	DeleteOrder(ctx context.Context, orderID int64) error
	ReserveStock(ctx context.Context, productID, qty int64) error
	ReleaseStock(ctx context.Context, productID, qty int64) error
	InsertMovement(ctx context.Context, m inventory.Movement) error
}

// RepositoryPort abstracts persistence for the order service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error
	Get(ctx context.Context, id int64, includeDeleted bool) (Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, shared.Pagination, error)
	ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]Order, error)
	ProductRefs(ctx context.Context, ids []int64) (map[int64]ProductRef, error)
	UserRole(ctx context.Context, userID int64) (shared.Role, error)
	MappingExists(ctx context.Context, customerID, employeeID int64) (bool, error)
}

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool  *pgxpool.Pool
	store inventory.Store
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, customer_id, created_by_id, assigned_to_id, total, status, created_at, updated_at, deleted_at`

// WithTx executes fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txOps{tx: tx, store: r.store})
	})
}

// Get loads one order with its items. Soft-deleted orders are invisible
// unless includeDeleted is set.
func (r *Repository) Get(ctx context.Context, id int64, includeDeleted bool) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Order{}, fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
		}
		return Order{}, err
	}
	items, err := r.itemsFor(ctx, []int64{order.ID})
	if err != nil {
		return Order{}, err
	}
	order.Items = items[order.ID]
	if order.Items == nil {
		order.Items = []OrderItem{}
	}
	return order, nil
}

// List returns a page of orders with items, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Order, shared.Pagination, error) {
	where := []string{}
	args := []any{}
	if filter.Trashed {
		where = append(where, "deleted_at IS NOT NULL")
	} else {
		where = append(where, "deleted_at IS NULL")
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.AssignedTo != 0 {
		args = append(args, filter.AssignedTo)
		where = append(where, fmt.Sprintf("assigned_to_id = $%d", len(args)))
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+clause, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)
	query := "SELECT " + orderColumns + " FROM orders" + clause +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	defer rows.Close()

	var list []Order
	var ids []int64
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		list = append(list, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Pagination{}, err
	}

	if len(ids) > 0 {
		items, err := r.itemsFor(ctx, ids)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		for i := range list {
			list[i].Items = items[list[i].ID]
			if list[i].Items == nil {
				list[i].Items = []OrderItem{}
			}
		}
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

// ListTrashedBefore returns soft-deleted orders older than the cutoff, with
// items, for the trash purge job.
func (r *Repository) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE deleted_at IS NOT NULL AND deleted_at < $1`
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Order
	var ids []int64
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		items, err := r.itemsFor(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range list {
			list[i].Items = items[list[i].ID]
		}
	}
	return list, nil
}

// ProductRefs reads products outside any transaction, for the fail-fast
// pre-check.
func (r *Repository) ProductRefs(ctx context.Context, ids []int64) (map[int64]ProductRef, error) {
	return productRefs(ctx, r.pool, ids)
}

// UserRole resolves a live user's role.
func (r *Repository) UserRole(ctx context.Context, userID int64) (shared.Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 AND deleted_at IS NULL`, userID).Scan(&role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("%w: user %d", shared.ErrNotFound, userID)
		}
		return "", err
	}
	return shared.Role(role), nil
}

// MappingExists reports whether the customer/employee assignment row is
// present.
func (r *Repository) MappingExists(ctx context.Context, customerID, employeeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM customer_assignments WHERE customer_id = $1 AND employee_id = $2)`,
		customerID, employeeID,
	).Scan(&exists)
	return exists, err
}

func (r *Repository) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = ANY($1) ORDER BY id`,
		orderIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64][]OrderItem)
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		items[it.OrderID] = append(items[it.OrderID], it)
	}
	return items, rows.Err()
}

type txOps struct {
	tx    pgx.Tx
	store inventory.Store
}

func (t *txOps) ProductRefs(ctx context.Context, ids []int64) (map[int64]ProductRef, error) {
	return productRefs(ctx, t.tx, ids)
}

func (t *txOps) InsertOrder(ctx context.Context, order *Order) error {
	const query = `
		INSERT INTO orders (customer_id, created_by_id, assigned_to_id, total, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return t.tx.QueryRow(ctx, query,
		order.CustomerID, order.CreatedByID, order.AssignedToID, order.Total, string(order.Status),
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (t *txOps) UpdateOrder(ctx context.Context, order Order) error {
	const query = `
		UPDATE orders
		SET assigned_to_id = $2, total = $3, status = $4, deleted_at = $5, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := t.tx.Exec(ctx, query,
		order.ID, order.AssignedToID, order.Total, string(order.Status), order.DeletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: order %d", shared.ErrNotFound, order.ID)
	}
	return nil
}

func (t *txOps) ReplaceItems(ctx context.Context, orderID int64, items []OrderItem) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	for _, it := range items {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			orderID, it.ProductID, it.Quantity, it.UnitPrice,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txOps) DeleteOrder(ctx context.Context, orderID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: order %d", shared.ErrNotFound, orderID)
	}
	return nil
}

func (t *txOps) ReserveStock(ctx context.Context, productID, qty int64) error {
	return t.store.ReserveStock(ctx, t.tx, productID, qty)
}

func (t *txOps) ReleaseStock(ctx context.Context, productID, qty int64) error {
	return t.store.ReleaseStock(ctx, t.tx, productID, qty)
}

func (t *txOps) InsertMovement(ctx context.Context, m inventory.Movement) error {
	return t.store.InsertMovement(ctx, t.tx, m)
}

func productRefs(ctx context.Context, dbtx inventory.DBTX, ids []int64) (map[int64]ProductRef, error) {
	rows, err := dbtx.Query(ctx, `SELECT id, price, stock FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make(map[int64]ProductRef, len(ids))
	for rows.Next() {
		var ref ProductRef
		if err := rows.Scan(&ref.ID, &ref.Price, &ref.Stock); err != nil {
			return nil, err
		}
		refs[ref.ID] = ref
	}
	return refs, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.CustomerID, &o.CreatedByID, &o.AssignedToID, &o.Total, &status,
		&o.CreatedAt, &o.UpdatedAt, &o.DeletedAt)
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	return o, nil
}
