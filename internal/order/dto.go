package order

// CreateOrderItem is one checkout line taken from the cart snapshot.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ProductID string `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Name      string `json:"name"       example:"Mechanical Keyboard"`
	Image     string `json:"image"      example:"/images/keyboard.jpg"`
	Price     string `json:"price"      example:"199.90"`
	Qty       int    `json:"qty"        example:"2"`
}

// CreateOrderRequest is the checkout payload. Totals come from the client
// and are persisted as supplied; the service recomputes them only to log
// discrepancies.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress ShippingAddress   `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method" example:"card"`
	ItemsPrice      string            `json:"items_price"    example:"90.00"`
	TaxPrice        string            `json:"tax_price"      example:"13.50"`
	ShippingPrice   string            `json:"shipping_price" example:"10.00"`
	TotalPrice      string            `json:"total_price"    example:"113.50"`
}

// UpdateStatusRequest payload for the admin status transition endpoint.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"Shipped"`
}
