package cart

import "time"

// Item is a candidate line item. Price and CountInStock are snapshots taken
// at write time; they are allowed to go stale until checkout re-validates
// against the live catalog.
type Item struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	Price        string `json:"price"`
	Qty          int    `json:"qty"`
	CountInStock int    `json:"count_in_stock"`
}

type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertItemRequest payload for adding/replacing a cart line.
// swagger:model UpsertItemRequest
type UpsertItemRequest struct {
	ProductID string `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Qty       int    `json:"qty" example:"2"`
}

// SyncRequest payload for merging a client-side cart.
// swagger:model SyncRequest
type SyncRequest struct {
	Items []UpsertItemRequest `json:"items"`
}
