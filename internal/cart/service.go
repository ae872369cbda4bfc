package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/northwind/storefront/internal/catalog"
)

// ProductReader is the slice of the catalog client the cart needs.
type ProductReader interface {
	FetchProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// Service owns per-user carts. It validates writes against live stock but is
// never authoritative for it: checkout re-validates everything, and no cart
// operation touches the inventory ledger.
type Service struct {
	repo    Repository
	catalog ProductReader
	log     *zap.Logger
}

func NewService(repo Repository, cat ProductReader, log *zap.Logger) *Service {
	return &Service{repo: repo, catalog: cat, log: log}
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		c = &Cart{ID: uuid.NewString(), UserID: userID, Items: []Item{}}
		if cerr := s.repo.Create(ctx, c); cerr != nil {
			return nil, fmt.Errorf("create cart: %w", cerr)
		}
		return c, nil
	}
	return c, err
}

// UpsertItem sets the quantity for a product line, replacing any existing
// line for the same product rather than appending.
func (s *Service) UpsertItem(ctx context.Context, userID, productID string, qty int) (*Cart, error) {
	if qty < 1 {
		return nil, errors.New("qty must be at least 1")
	}
	p, err := s.catalog.FetchProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.CountInStock < qty {
		return nil, catalog.ErrInsufficientStock
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	it := Item{
		ProductID:    p.ID,
		Name:         p.Name,
		Image:        p.Image,
		Price:        p.Price,
		Qty:          qty,
		CountInStock: p.CountInStock,
	}
	if err := s.repo.UpsertItem(ctx, c.ID, it); err != nil {
		return nil, err
	}
	return s.repo.GetByUser(ctx, userID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveItem(ctx, c.ID, productID); err != nil {
		return nil, err
	}
	return s.repo.GetByUser(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.Clear(ctx, c.ID)
}

// Sync merges a client-supplied item list against live stock. Quantities are
// clamped to what is actually available; items whose product no longer
// exists are dropped without error.
func (s *Service) Sync(ctx context.Context, userID string, items []UpsertItemRequest) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, in := range items {
		if in.Qty < 1 {
			continue
		}
		p, err := s.catalog.FetchProduct(ctx, in.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			s.log.Info("cart_sync_drop_missing_product",
				zap.String("user_id", userID), zap.String("product_id", in.ProductID))
			continue
		}
		if err != nil {
			return nil, err
		}
		qty := in.Qty
		if p.CountInStock < qty {
			qty = p.CountInStock
		}
		if qty < 1 {
			continue
		}
		it := Item{
			ProductID:    p.ID,
			Name:         p.Name,
			Image:        p.Image,
			Price:        p.Price,
			Qty:          qty,
			CountInStock: p.CountInStock,
		}
		if err := s.repo.UpsertItem(ctx, c.ID, it); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByUser(ctx, userID)
}
