package order

import "time"

// Status follows the fixed progression Pending -> Processing -> Shipped ->
// Delivered, with Cancelled reachable from any non-cancelled state.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentResult struct {
	ID         string     `json:"id,omitempty"`
	Status     string     `json:"status,omitempty"`
	UpdateTime *time.Time `json:"update_time,omitempty"`
	Email      string     `json:"email,omitempty"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	// NUMERIC -> string; math goes through shopspring/decimal
	ItemsPrice    string        `json:"items_price"`
	TaxPrice      string        `json:"tax_price"`
	ShippingPrice string        `json:"shipping_price"`
	TotalPrice    string        `json:"total_price"`
	IsPaid        bool          `json:"is_paid"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	PaymentResult PaymentResult `json:"payment_result"`
	IsDelivered   bool          `json:"is_delivered"`
	DeliveredAt   *time.Time    `json:"delivered_at,omitempty"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Item is a snapshot of a line at creation time. It is never refreshed from
// the live catalog after the order exists.
type Item struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     string `json:"price"`
	Qty       int    `json:"qty"`
}
