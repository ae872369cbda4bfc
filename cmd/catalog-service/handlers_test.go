package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/northwind/storefront/internal/product"
)

//
// ===== in-memory stub implementing product.Repository =====
//

type stubRepo struct {
	mu        sync.Mutex
	items     map[string]*product.Product
	lastQuery product.Query
	adjustErr error // forced AdjustStock failure
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: make(map[string]*product.Product)}
}

func (s *stubRepo) Create(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.items[p.ID] = &cp
	return nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubRepo) List(_ context.Context, q product.Query) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = q
	out := make([]product.Product, 0, len(s.items))
	for _, v := range s.items {
		if q.Q != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, *v)
	}
	start := q.Offset
	if start > len(out) {
		return []product.Product{}, nil
	}
	end := start + q.Limit
	if end > len(out) || q.Limit <= 0 {
		end = len(out)
	}
	return out[start:end], nil
}

func (s *stubRepo) Update(_ context.Context, p *product.Product, updatePrice bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[p.ID]
	if !ok {
		return product.ErrNotFound
	}
	if p.Name != "" {
		cur.Name = p.Name
	}
	if p.Description != "" {
		cur.Description = p.Description
	}
	if updatePrice && p.Price != "" {
		cur.Price = p.Price
	}
	cur.CountInStock = p.CountInStock
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *stubRepo) AdjustStock(_ context.Context, id string, delta int) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adjustErr != nil {
		return nil, s.adjustErr
	}
	p, ok := s.items[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	if p.CountInStock+delta < 0 {
		return nil, product.ErrInsufficientStock
	}
	p.CountInStock += delta
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

//
// ===== test router mirroring main =====
//

func newRouter(repo product.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/products", listProductsHandler(repo))
	r.GET("/products/:id", getProductHandler(repo))
	r.POST("/products", createProductHandler(repo))
	r.PUT("/products/:id", updateProductHandler(repo))
	r.DELETE("/products/:id", deleteProductHandler(repo))
	r.POST("/products/:id/stock", adjustStockHandler(repo))
	return r
}

//
// ===== TESTS =====
//

func TestListProducts_Pagination(t *testing.T) {
	repo := newStubRepo()
	for i := 1; i <= 3; i++ {
		_ = repo.Create(context.Background(), &product.Product{
			ID:    fmt.Sprintf("%d", i),
			Name:  fmt.Sprintf("Prod %d", i),
			Price: "10.00", CountInStock: 5,
		})
	}
	r := newRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?limit=2&offset=1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got product.ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("len=%d, want 2", len(got.Items))
	}
}

func TestGetProduct_OK_And_NotFound(t *testing.T) {
	repo := newStubRepo()
	_ = repo.Create(context.Background(), &product.Product{ID: "x", Name: "Headset", Price: "149.90", CountInStock: 7})
	r := newRouter(repo)

	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/products/x", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/products/missing", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("want 404, got %d", w.Code)
		}
	}
}

func TestCreateProduct_ValidatesInput(t *testing.T) {
	repo := newStubRepo()
	r := newRouter(repo)

	// valid → 201
	{
		w := httptest.NewRecorder()
		body := `{"name":"Mouse","price":"49.90","count_in_stock":10}`
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var p product.Product
		if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil || p.ID == "" {
			t.Fatalf("bad body: %s", w.Body.String())
		}
	}
	// missing price → 400
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"Mouse"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", w.Code)
		}
	}
	// non-decimal price → 400
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"Mouse","price":"cheap"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", w.Code)
		}
	}
	// negative stock → 400
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"Mouse","price":"49.90","count_in_stock":-1}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", w.Code)
		}
	}
}

func TestDeleteProduct(t *testing.T) {
	repo := newStubRepo()
	_ = repo.Create(context.Background(), &product.Product{ID: "x", Name: "Headset", Price: "149.90", CountInStock: 7})
	r := newRouter(repo)

	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/products/x", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("want 204, got %d", w.Code)
		}
	}
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/products/x", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("want 404 on second delete, got %d", w.Code)
		}
	}
}

func TestAdjustStock_DecrementIncrementAndGuards(t *testing.T) {
	repo := newStubRepo()
	_ = repo.Create(context.Background(), &product.Product{ID: "x", Name: "Headset", Price: "149.90", CountInStock: 5})
	r := newRouter(repo)

	post := func(id, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products/"+id+"/stock", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	// decrement within stock → 200 and new count
	{
		w := post("x", `{"delta":-3}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var p product.Product
		_ = json.Unmarshal(w.Body.Bytes(), &p)
		if p.CountInStock != 2 {
			t.Fatalf("count_in_stock=%d, want 2", p.CountInStock)
		}
	}
	// decrement past zero → 409, stock untouched
	{
		w := post("x", `{"delta":-3}`)
		if w.Code != http.StatusConflict {
			t.Fatalf("want 409, got %d body=%s", w.Code, w.Body.String())
		}
		p, _ := repo.GetByID(context.Background(), "x")
		if p.CountInStock != 2 {
			t.Fatalf("stock changed on rejected adjust: %d", p.CountInStock)
		}
	}
	// increment (restock) → 200
	{
		w := post("x", `{"delta":2}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var p product.Product
		_ = json.Unmarshal(w.Body.Bytes(), &p)
		if p.CountInStock != 4 {
			t.Fatalf("count_in_stock=%d, want 4", p.CountInStock)
		}
	}
	// unknown product → 404
	{
		w := post("nope", `{"delta":-1}`)
		if w.Code != http.StatusNotFound {
			t.Fatalf("want 404, got %d", w.Code)
		}
	}
	// zero delta → 400
	{
		w := post("x", `{"delta":0}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", w.Code)
		}
	}
	// database failure → 500, not misreported as a stock conflict
	{
		repo.adjustErr = fmt.Errorf("connection refused")
		defer func() { repo.adjustErr = nil }()
		w := post("x", `{"delta":-1}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("want 500, got %d body=%s", w.Code, w.Body.String())
		}
	}
}
