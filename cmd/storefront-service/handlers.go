package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/northwind/storefront/internal/cart"
	"github.com/northwind/storefront/internal/catalog"
	"github.com/northwind/storefront/internal/httpx"
	"github.com/northwind/storefront/internal/order"
	"github.com/northwind/storefront/internal/payment"
	"github.com/northwind/storefront/internal/user"
)

// checkoutStatus maps order lifecycle errors onto HTTP codes.
func checkoutStatus(err error) int {
	switch {
	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrPriceMismatch),
		errors.Is(err, order.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInsufficientStock), errors.Is(err, order.ErrOrderCancelled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

//
// ---------- users ----------
//

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// @Summary Register a new user
// @Accept json
// @Produce json
// @Success 201 {object} authResponse
// @Router /users [post]
func registerHandler(users *user.Service, sessions user.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		u, err := users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, user.ErrAlreadyExist) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		token, err := sessions.Issue(c.Request.Context(), u.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, authResponse{Token: token, User: u})
	}
}

// @Summary Log in
// @Accept json
// @Produce json
// @Success 200 {object} authResponse
// @Router /users/login [post]
func loginHandler(users *user.Service, sessions user.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		u, err := users.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		token, err := sessions.Issue(c.Request.Context(), u.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, authResponse{Token: token, User: u})
	}
}

// @Summary Current user profile
// @Produce json
// @Success 200 {object} user.User
// @Router /users/profile [get]
func profileHandler(users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.Get(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Update current user profile
// @Accept json
// @Produce json
// @Success 200 {object} user.User
// @Router /users/profile [put]
func updateProfileHandler(users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		u, err := users.UpdateProfile(c.Request.Context(), httpx.UserID(c), req.Name, req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary Delete a user
// @Param id path string true "user id"
// @Success 204
// @Router /users/{id} [delete]
func deleteUserHandler(users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := users.Delete(c.Request.Context(), c.Param("id"))
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

//
// ---------- cart ----------
//

// @Summary Get the current user's cart
// @Produce json
// @Success 200 {object} cart.Cart
// @Router /cart [get]
func getCartHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := carts.Get(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Add or replace a cart line
// @Accept json
// @Produce json
// @Param body body cart.UpsertItemRequest true "line"
// @Success 200 {object} cart.Cart
// @Router /cart [post]
func upsertCartItemHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.UpsertItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		out, err := carts.UpsertItem(c.Request.Context(), httpx.UserID(c), req.ProductID, req.Qty)
		if err != nil {
			c.JSON(checkoutStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Remove a cart line
// @Produce json
// @Param productId path string true "product id"
// @Success 200 {object} cart.Cart
// @Router /cart/{productId} [delete]
func removeCartItemHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := carts.RemoveItem(c.Request.Context(), httpx.UserID(c), c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Clear the cart
// @Produce json
// @Success 200 {object} map[string]string
// @Router /cart [delete]
func clearCartHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.Clear(c.Request.Context(), httpx.UserID(c)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}

// @Summary Merge a client-side cart
// @Accept json
// @Produce json
// @Param body body cart.SyncRequest true "items"
// @Success 200 {object} cart.Cart
// @Router /cart/sync [put]
func syncCartHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.SyncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		out, err := carts.Sync(c.Request.Context(), httpx.UserID(c), req.Items)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

//
// ---------- orders ----------
//

type orderResponse struct {
	Order *order.Order `json:"order"`
	Items []order.Item `json:"items"`
}

// @Summary Checkout: create an order from a cart snapshot
// @Accept json
// @Produce json
// @Param body body order.CreateOrderRequest true "checkout payload"
// @Success 201 {object} orderResponse
// @Failure 400 {object} product.HTTPError
// @Failure 409 {object} product.HTTPError
// @Router /orders [post]
func createOrderHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		for _, it := range req.Items {
			if it.Qty < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "qty must be at least 1"})
				return
			}
		}
		o, items, err := orders.CreateOrder(c.Request.Context(), httpx.UserID(c), req)
		if err != nil {
			c.JSON(checkoutStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, orderResponse{Order: o, Items: items})
	}
}

// @Summary Get order by id
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} orderResponse
// @Router /orders/{id} [get]
func getOrderHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, items, err := orders.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, orderResponse{Order: o, Items: items})
	}
}

// @Summary List the current user's orders
// @Produce json
// @Success 200 {array} order.Order
// @Router /orders/mine [get]
func myOrdersHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		out, err := orders.ListByUser(c.Request.Context(), httpx.UserID(c), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if out == nil {
			out = []order.Order{}
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary List all orders
// @Produce json
// @Success 200 {array} order.Order
// @Router /orders [get]
func listOrdersHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		out, err := orders.ListAll(c.Request.Context(), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if out == nil {
			out = []order.Order{}
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Transition order status
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param body body order.UpdateStatusRequest true "target status"
// @Success 200 {object} order.Order
// @Router /orders/{id}/status [put]
func updateOrderStatusHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := orders.UpdateStatus(c.Request.Context(), c.Param("id"), order.Status(req.Status))
		if err != nil {
			c.JSON(checkoutStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary Mark order delivered
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} order.Order
// @Router /orders/{id}/deliver [put]
func deliverOrderHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := orders.UpdateDeliveryStatus(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(checkoutStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

//
// ---------- payments ----------
//

const signatureHeader = "Payment-Signature"

// @Summary Payment processor webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} product.HTTPError
// @Router /payments/webhook [post]
func webhookHandler(bridge *payment.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		err = bridge.HandleEvent(c.Request.Context(), payload, c.GetHeader(signatureHeader))
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		case errors.Is(err, order.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"received": true})
		}
	}
}

// @Summary Payment processor public configuration
// @Produce json
// @Success 200 {object} map[string]string
// @Router /payments/config [get]
func paymentConfigHandler(publishableKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"publishable_key": publishableKey})
	}
}
