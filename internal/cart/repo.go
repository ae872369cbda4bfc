package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("cart not found")

type Repository interface {
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	UpsertItem(ctx context.Context, cartID string, it Item) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	Clear(ctx context.Context, cartID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts WHERE user_id=$1
	`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT product_id, name, image, price::text, qty, count_in_stock
		FROM cart_items WHERE cart_id=$1
	`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	c.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Image, &it.Price, &it.Qty, &it.CountInStock); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return &c, rows.Err()
}

func (r *PGRepo) Create(ctx context.Context, c *Cart) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1,$2,NOW(),NOW())
	`, c.ID, c.UserID)
	return err
}

// UpsertItem replaces the quantity for an existing product line instead of
// appending a duplicate; one row per (cart, product).
func (r *PGRepo) UpsertItem(ctx context.Context, cartID string, it Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, name, image, price, qty, count_in_stock)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET name = EXCLUDED.name,
		    image = EXCLUDED.image,
		    price = EXCLUDED.price,
		    qty = EXCLUDED.qty,
		    count_in_stock = EXCLUDED.count_in_stock
	`, cartID, it.ProductID, it.Name, it.Image, it.Price, it.Qty, it.CountInStock)
	return err
}

func (r *PGRepo) RemoveItem(ctx context.Context, cartID, productID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		DELETE FROM cart_items WHERE cart_id=$1 AND product_id=$2
	`, cartID, productID)
	return err
}

func (r *PGRepo) Clear(ctx context.Context, cartID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID)
	return err
}
