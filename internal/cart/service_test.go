package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northwind/storefront/internal/catalog"
)

type memCartRepo struct {
	mu    sync.Mutex
	carts map[string]*Cart // keyed by user id
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: map[string]*Cart{}}
}

func (r *memCartRepo) GetByUser(_ context.Context, userID string) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	return &cp, nil
}

func (r *memCartRepo) Create(_ context.Context, c *Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.carts[c.UserID] = &cp
	return nil
}

func (r *memCartRepo) byID(cartID string) *Cart {
	for _, c := range r.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (r *memCartRepo) UpsertItem(_ context.Context, cartID string, it Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byID(cartID)
	if c == nil {
		return ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == it.ProductID {
			c.Items[i] = it
			return nil
		}
	}
	c.Items = append(c.Items, it)
	return nil
}

func (r *memCartRepo) RemoveItem(_ context.Context, cartID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byID(cartID)
	if c == nil {
		return ErrNotFound
	}
	out := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	c.Items = out
	return nil
}

func (r *memCartRepo) Clear(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byID(cartID)
	if c == nil {
		return ErrNotFound
	}
	c.Items = nil
	return nil
}

type stubReader struct {
	products map[string]*catalog.Product
}

func (s *stubReader) FetchProduct(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func newCartService(products ...*catalog.Product) (*Service, *memCartRepo) {
	reader := &stubReader{products: map[string]*catalog.Product{}}
	for _, p := range products {
		reader.products[p.ID] = p
	}
	repo := newMemCartRepo()
	return NewService(repo, reader, zap.NewNop()), repo
}

func TestGet_CreatesEmptyCartOnFirstAccess(t *testing.T) {
	svc, _ := newCartService()

	c, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "u1", c.UserID)
	require.Empty(t, c.Items)

	again, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, c.ID, again.ID)
}

func TestUpsertItem_ReplacesExistingLine(t *testing.T) {
	svc, _ := newCartService(&catalog.Product{ID: "p1", Name: "Mug", Price: "9.50", CountInStock: 10})

	_, err := svc.UpsertItem(context.Background(), "u1", "p1", 2)
	require.NoError(t, err)

	c, err := svc.UpsertItem(context.Background(), "u1", "p1", 5)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, 5, c.Items[0].Qty)
	require.Equal(t, "Mug", c.Items[0].Name)
	require.Equal(t, "9.50", c.Items[0].Price)
}

func TestUpsertItem_InsufficientStock(t *testing.T) {
	svc, _ := newCartService(&catalog.Product{ID: "p1", Name: "Mug", Price: "9.50", CountInStock: 3})

	_, err := svc.UpsertItem(context.Background(), "u1", "p1", 4)
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
}

func TestUpsertItem_UnknownProduct(t *testing.T) {
	svc, _ := newCartService()
	_, err := svc.UpsertItem(context.Background(), "u1", "ghost", 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, _ := newCartService(
		&catalog.Product{ID: "p1", Name: "Mug", Price: "9.50", CountInStock: 10},
		&catalog.Product{ID: "p2", Name: "Pen", Price: "1.20", CountInStock: 10},
	)
	_, err := svc.UpsertItem(context.Background(), "u1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.UpsertItem(context.Background(), "u1", "p2", 1)
	require.NoError(t, err)

	c, err := svc.RemoveItem(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, "p2", c.Items[0].ProductID)
}

func TestClear(t *testing.T) {
	svc, _ := newCartService(&catalog.Product{ID: "p1", Name: "Mug", Price: "9.50", CountInStock: 10})
	_, err := svc.UpsertItem(context.Background(), "u1", "p1", 2)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), "u1"))
	c, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Empty(t, c.Items)
}

func TestSync_ClampsQtyToAvailableStock(t *testing.T) {
	svc, _ := newCartService(&catalog.Product{ID: "p1", Name: "Mug", Price: "9.50", CountInStock: 2})

	c, err := svc.Sync(context.Background(), "u1", []UpsertItemRequest{
		{ProductID: "p1", Qty: 7},
	})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, 2, c.Items[0].Qty)
}

func TestSync_DropsMissingAndOutOfStockProducts(t *testing.T) {
	svc, _ := newCartService(
		&catalog.Product{ID: "p1", Name: "Mug", Price: "9.50", CountInStock: 5},
		&catalog.Product{ID: "p2", Name: "Gone", Price: "3.00", CountInStock: 0},
	)

	c, err := svc.Sync(context.Background(), "u1", []UpsertItemRequest{
		{ProductID: "p1", Qty: 2},
		{ProductID: "deleted", Qty: 1},
		{ProductID: "p2", Qty: 4},
		{ProductID: "p1", Qty: 0},
	})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, "p1", c.Items[0].ProductID)
	require.Equal(t, 2, c.Items[0].Qty)
}
