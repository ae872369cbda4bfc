// @title Storefront Catalog API
// @version 1.0
// @description Product catalog and inventory ledger.
package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggofiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/northwind/storefront/docs"
	"github.com/northwind/storefront/internal/config"
	"github.com/northwind/storefront/internal/httpx"
	"github.com/northwind/storefront/internal/logging"
	"github.com/northwind/storefront/internal/product"
)

func main() {
	cfg := config.Load()
	log := logging.MustNew("catalog-service", cfg.Env)
	defer func() { _ = log.Sync() }()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pool.Close()

	repo := product.NewPGRepo(pool)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log), httpx.Metrics())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginswagger.WrapHandler(swaggofiles.Handler))

	r.GET("/products", listProductsHandler(repo))
	r.POST("/products", createProductHandler(repo))
	r.GET("/products/:id", getProductHandler(repo))
	r.PUT("/products/:id", updateProductHandler(repo))
	r.DELETE("/products/:id", deleteProductHandler(repo))
	r.POST("/products/:id/stock", adjustStockHandler(repo))

	log.Info("catalog-service listening", zap.String("addr", cfg.CatalogAddr))
	if err := r.Run(cfg.CatalogAddr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
