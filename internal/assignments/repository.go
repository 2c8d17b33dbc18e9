package assignments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// Repository abstracts assignment persistence.
type Repository interface {
	Create(ctx context.Context, a Assignment) (Assignment, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]Assignment, error)
	UserRole(ctx context.Context, userID int64) (shared.Role, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Create(ctx context.Context, a Assignment) (Assignment, error) {
	const query = `
		INSERT INTO customer_assignments (customer_id, employee_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, a.CustomerID, a.EmployeeID).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Assignment{}, fmt.Errorf("%w: assignment already exists", shared.ErrConflict)
		}
		return Assignment{}, err
	}
	return a, nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customer_assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: assignment %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Assignment, error) {
	query := `SELECT id, customer_id, employee_id, created_at FROM customer_assignments`
	var args []any
	switch {
	case filter.CustomerID != 0 && filter.EmployeeID != 0:
		query += ` WHERE customer_id = $1 AND employee_id = $2`
		args = append(args, filter.CustomerID, filter.EmployeeID)
	case filter.CustomerID != 0:
		query += ` WHERE customer_id = $1`
		args = append(args, filter.CustomerID)
	case filter.EmployeeID != 0:
		query += ` WHERE employee_id = $1`
		args = append(args, filter.EmployeeID)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.EmployeeID, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *pgRepository) UserRole(ctx context.Context, userID int64) (shared.Role, error) {
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
