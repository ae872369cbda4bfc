package product

import "time"

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Category    string `json:"category,omitempty"`
	// We store price as a string to avoid rounding errors (NUMERIC in Postgres)
	Price        string    `json:"price"`
	CountInStock int       `json:"count_in_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	// search query applied
	Q string `json:"q,omitempty"`
	// limit applied
	Limit int `json:"limit"`
	// offset applied
	Offset int `json:"offset"`
	// items found
	Items []Product `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name         string `json:"name"        example:"Mechanical Keyboard"`
	Description  string `json:"description" example:"RGB 60%"`
	Image        string `json:"image"       example:"/images/keyboard.jpg"`
	Brand        string `json:"brand"       example:"Keychron"`
	Category     string `json:"category"    example:"Electronics"`
	Price        string `json:"price"       example:"199.90"`
	CountInStock int    `json:"count_in_stock" example:"10"`
}

// UpdateProductRequest payload of partial update.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	Brand        string `json:"brand"`
	Category     string `json:"category"`
	Price        string `json:"price"`
	CountInStock int    `json:"count_in_stock"`
}

// AdjustStockRequest is the inventory ledger operation payload. Delta may be
// negative (checkout decrement) or positive (cancellation restock).
// swagger:model AdjustStockRequest
type AdjustStockRequest struct {
	Delta int `json:"delta" example:"-2"`
}
