// @title Storefront API
// @version 1.0
// @description Carts, orders, users and payment confirmation.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggofiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/northwind/storefront/docs"
	"github.com/northwind/storefront/internal/cart"
	"github.com/northwind/storefront/internal/catalog"
	"github.com/northwind/storefront/internal/config"
	"github.com/northwind/storefront/internal/httpx"
	"github.com/northwind/storefront/internal/logging"
	"github.com/northwind/storefront/internal/order"
	"github.com/northwind/storefront/internal/payment"
	"github.com/northwind/storefront/internal/user"
)

func main() {
	cfg := config.Load()
	log := logging.MustNew("storefront-service", cfg.Env)
	defer func() { _ = log.Sync() }()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL)

	users := user.NewService(user.NewPGRepo(pool))
	sessions := user.NewRedisSessionStore(rdb, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	carts := cart.NewService(cart.NewPGRepo(pool), catalogClient, log)
	orders := order.NewService(order.NewPGRepo(pool), catalogClient, log)
	bridge := payment.NewBridge(
		payment.NewVerifier(cfg.PaymentWebhookKey),
		orders,
		payment.NewRedisDedupe(rdb, 24*time.Hour),
		log,
	)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log), httpx.Metrics())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginswagger.WrapHandler(swaggofiles.Handler))

	r.POST("/users", registerHandler(users, sessions))
	r.POST("/users/login", loginHandler(users, sessions))

	r.POST("/payments/webhook", webhookHandler(bridge))
	r.GET("/payments/config", paymentConfigHandler(cfg.PaymentPublicKey))

	auth := r.Group("/", httpx.RequireAuth(sessions))
	{
		auth.GET("/users/profile", profileHandler(users))
		auth.PUT("/users/profile", updateProfileHandler(users))

		auth.GET("/cart", getCartHandler(carts))
		auth.POST("/cart", upsertCartItemHandler(carts))
		auth.DELETE("/cart", clearCartHandler(carts))
		auth.DELETE("/cart/:productId", removeCartItemHandler(carts))
		auth.PUT("/cart/sync", syncCartHandler(carts))

		auth.POST("/orders", createOrderHandler(orders))
		auth.GET("/orders/mine", myOrdersHandler(orders))
		auth.GET("/orders/:id", getOrderHandler(orders))

		admin := auth.Group("/", httpx.RequireAdmin(users))
		admin.DELETE("/users/:id", deleteUserHandler(users))
		admin.GET("/orders", listOrdersHandler(orders))
		admin.PUT("/orders/:id/status", updateOrderStatusHandler(orders))
		admin.PUT("/orders/:id/deliver", deliverOrderHandler(orders))
	}

	log.Info("storefront-service listening", zap.String("addr", cfg.StorefrontAddr))
	if err := r.Run(cfg.StorefrontAddr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
