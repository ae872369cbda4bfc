// Package catalog is the storefront-service view of the catalog-service.
// Products are read and stock is adjusted only through this client; the
// conditional-adjust endpoint is what keeps checkout decrements atomic.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	Brand        string `json:"brand"`
	Category     string `json:"category"`
	Price        string `json:"price"`
	CountInStock int    `json:"count_in_stock"`
}

type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
	}
}

func (c *Client) FetchProduct(ctx context.Context, id string) (*Product, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/products/%s", c.BaseURL, id), nil)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch product: %s", res.Status)
	}
	var p Product
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AdjustStock applies delta to the product's stock. The catalog enforces the
// non-negative guard server side in a single document update, so this call
// either fully applies or fails; there is no read-then-write window here.
func (c *Client) AdjustStock(ctx context.Context, productID string, delta int) error {
	body, _ := json.Marshal(map[string]int{"delta": delta})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/products/%s/stock", c.BaseURL, productID),
		bytes.NewReader(body),
	)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrInsufficientStock
	default:
		return fmt.Errorf("adjust stock: %s", res.Status)
	}
}
