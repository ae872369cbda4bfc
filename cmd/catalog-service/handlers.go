package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northwind/storefront/internal/product"
)

// @Summary List products
// @Produce json
// @Param q query string false "search term"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} product.ListResponse
// @Router /products [get]
func listProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		q := product.Query{Q: c.Query("q"), Limit: limit, Offset: offset}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if items == nil {
			items = []product.Product{}
		}
		c.JSON(http.StatusOK, product.ListResponse{Q: q.Q, Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

// @Summary Get product by id
// @Produce json
// @Param id path string true "product id"
// @Success 200 {object} product.Product
// @Failure 404 {object} product.HTTPError
// @Router /products/{id} [get]
func getProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary Create product
// @Accept json
// @Produce json
// @Param body body product.CreateProductRequest true "product"
// @Success 201 {object} product.Product
// @Failure 400 {object} product.HTTPError
// @Router /products [post]
func createProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Name == "" || req.Price == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and price are required"})
			return
		}
		if _, err := decimal.NewFromString(req.Price); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
			return
		}
		if req.CountInStock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count_in_stock must be non-negative"})
			return
		}
		p := &product.Product{
			ID:           uuid.NewString(),
			Name:         req.Name,
			Description:  req.Description,
			Image:        req.Image,
			Brand:        req.Brand,
			Category:     req.Category,
			Price:        req.Price,
			CountInStock: req.CountInStock,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary Update product
// @Accept json
// @Produce json
// @Param id path string true "product id"
// @Param body body product.UpdateProductRequest true "fields"
// @Success 200 {object} product.Product
// @Router /products/{id} [put]
func updateProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := repo.GetByID(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		var req product.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		updatePrice := req.Price != ""
		if updatePrice {
			if _, err := decimal.NewFromString(req.Price); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
				return
			}
		}
		if req.CountInStock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count_in_stock must be non-negative"})
			return
		}
		p := &product.Product{
			ID:           id,
			Name:         req.Name,
			Description:  req.Description,
			Image:        req.Image,
			Brand:        req.Brand,
			Category:     req.Category,
			Price:        req.Price,
			CountInStock: req.CountInStock,
		}
		if err := repo.Update(c.Request.Context(), p, updatePrice); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Delete product
// @Param id path string true "product id"
// @Success 204
// @Router /products/{id} [delete]
func deleteProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary Adjust stock
// @Description Applies a signed delta to count_in_stock as one conditional update. Responds 409 when the adjustment would drive stock negative.
// @Accept json
// @Produce json
// @Param id path string true "product id"
// @Param body body product.AdjustStockRequest true "delta"
// @Success 200 {object} product.Product
// @Failure 404 {object} product.HTTPError
// @Failure 409 {object} product.HTTPError
// @Router /products/{id}/stock [post]
func adjustStockHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.AdjustStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Delta == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delta must be non-zero"})
			return
		}
		p, err := repo.AdjustStock(c.Request.Context(), c.Param("id"), req.Delta)
		switch {
		case errors.Is(err, product.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case errors.Is(err, product.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, p)
		}
	}
}
