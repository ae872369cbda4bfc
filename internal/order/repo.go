package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id string) (*Order, []Item, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]Order, error)
	MarkPaid(ctx context.Context, id string, res PaymentResult, paidAt time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, id, paymentID string) (bool, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	TransitionToCancelled(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderColumns = `
	id, user_id, address, city, postal_code, country, payment_method,
	items_price::text, tax_price::text, shipping_price::text, total_price::text,
	is_paid, paid_at, payment_id, payment_status, payment_update_time, payer_email,
	is_delivered, delivered_at, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.UserID,
		&o.ShippingAddress.Address, &o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.PaymentMethod,
		&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.IsPaid, &o.PaidAt,
		&o.PaymentResult.ID, &o.PaymentResult.Status, &o.PaymentResult.UpdateTime, &o.PaymentResult.Email,
		&o.IsDelivered, &o.DeliveredAt,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) Create(ctx context.Context, o *Order, items []Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (
			id, user_id, address, city, postal_code, country, payment_method,
			items_price, tax_price, shipping_price, total_price,
			is_paid, is_delivered, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,false,false,$12,NOW(),NOW())
	`, o.ID, o.UserID,
		o.ShippingAddress.Address, o.ShippingAddress.City,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country,
		o.PaymentMethod,
		o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		o.Status,
	); err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, image, price, qty)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, it.ID, o.ID, it.ProductID, it.Name, it.Image, it.Price, it.Qty); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, []Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, nil, ErrNotFound
	}
	items, err := r.GetItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, name, image, price::text, qty
		FROM order_items WHERE order_id=$1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Image, &it.Price, &it.Qty); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	return r.list(ctx, `WHERE user_id=$3`, limit, offset, userID)
}

func (r *PGRepo) ListAll(ctx context.Context, limit, offset int) ([]Order, error) {
	return r.list(ctx, ``, limit, offset)
}

func (r *PGRepo) list(ctx context.Context, where string, limit, offset int, args ...any) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	qargs := append([]any{limit, offset}, args...)
	rows, err := r.db.Query(ctx, `
		SELECT`+orderColumns+`
		FROM orders `+where+`
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, qargs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// MarkPaid flips the order to paid exactly once. The is_paid guard in the
// WHERE clause is what makes payment confirmation idempotent under webhook
// redelivery; a second call affects zero rows.
func (r *PGRepo) MarkPaid(ctx context.Context, id string, res PaymentResult, paidAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET is_paid = true,
		    paid_at = $2,
		    payment_id = $3,
		    payment_status = $4,
		    payment_update_time = $5,
		    payer_email = $6,
		    status = $7,
		    updated_at = NOW()
		WHERE id = $1 AND is_paid = false
	`, id, paidAt, res.ID, res.Status, res.UpdateTime, res.Email, StatusProcessing)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkPaymentFailed records a failed attempt on a still-unpaid order without
// changing its lifecycle status.
func (r *PGRepo) MarkPaymentFailed(ctx context.Context, id, paymentID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET payment_id = $2, payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND is_paid = false
	`, id, paymentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkDelivered refuses cancelled orders at the database level.
func (r *PGRepo) MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET is_delivered = true, delivered_at = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND status <> $4
	`, id, at, StatusDelivered, StatusCancelled)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionToCancelled flips status to Cancelled only when it is not
// already Cancelled. The caller restores inventory only when this reports
// that the transition actually happened, so a repeated cancellation cannot
// restore stock twice.
func (r *PGRepo) TransitionToCancelled(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> $2
	`, id, StatusCancelled)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
