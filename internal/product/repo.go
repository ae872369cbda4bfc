// Package product provides the repository interface and PostgreSQL
// implementation for the catalog, including the inventory ledger operation.
package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a negative stock adjustment would
	// drive count_in_stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Query struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	Update(ctx context.Context, p *Product, updatePrice bool) error
	Delete(ctx context.Context, id string) (bool, error)
	AdjustStock(ctx context.Context, id string, delta int) (*Product, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, description, image, brand, category, price, count_in_stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
	`, p.ID, p.Name, p.Description, p.Image, p.Brand, p.Category, p.Price, p.CountInStock)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, image, brand, category, price::text, count_in_stock, created_at, updated_at
		FROM products WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.Brand, &p.Category, &p.Price, &p.CountInStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	search := strings.TrimSpace(q.Q)

	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, image, brand, category, price::text, count_in_stock, created_at, updated_at
		FROM products
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.Brand, &p.Category, &p.Price, &p.CountInStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, p *Product, updatePrice bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if updatePrice {
		_, err := r.db.Exec(ctx, `
			UPDATE products
			SET name = COALESCE(NULLIF($2,''), name),
			    description = COALESCE(NULLIF($3,''), description),
			    image = COALESCE(NULLIF($4,''), image),
			    brand = COALESCE(NULLIF($5,''), brand),
			    category = COALESCE(NULLIF($6,''), category),
			    price = $7,
			    count_in_stock = $8,
			    updated_at = NOW()
			WHERE id = $1
		`, p.ID, p.Name, p.Description, p.Image, p.Brand, p.Category, p.Price, p.CountInStock)
		return err
	}

	_, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = COALESCE(NULLIF($2,''), name),
		    description = COALESCE(NULLIF($3,''), description),
		    image = COALESCE(NULLIF($4,''), image),
		    brand = COALESCE(NULLIF($5,''), brand),
		    category = COALESCE(NULLIF($6,''), category),
		    count_in_stock = $7,
		    updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Image, p.Brand, p.Category, p.CountInStock)
	return err
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// AdjustStock applies delta to count_in_stock as a single conditional update.
// The guard lives in the WHERE clause, so two concurrent decrements of the
// last unit cannot both succeed; the loser sees ErrInsufficientStock.
func (r *PGRepo) AdjustStock(ctx context.Context, id string, delta int) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Product
	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET count_in_stock = count_in_stock + $2, updated_at = NOW()
		WHERE id = $1 AND count_in_stock + $2 >= 0
		RETURNING id, name, description, image, brand, category, price::text, count_in_stock, created_at, updated_at
	`, id, delta).Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.Brand, &p.Category, &p.Price, &p.CountInStock, &p.CreatedAt, &p.UpdatedAt)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No row matched: guard failed or row missing; tell the caller which.
	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return nil, ErrNotFound
	}
	return nil, ErrInsufficientStock
}
