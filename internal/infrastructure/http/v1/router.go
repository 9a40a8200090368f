// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"partstock/internal/domain/catalogs/product"
	"partstock/internal/domain/check"
	"partstock/internal/domain/transaction"
	"partstock/internal/infrastructure/http/v1/handlers"
	"partstock/internal/infrastructure/http/v1/middleware"
	"partstock/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *pgxpool.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Services
	ProductService     *product.Service
	TransactionService *transaction.Service
	CheckService       *check.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	baseHandler := handlers.NewBaseHandler()
	productHandler := handlers.NewProductHandler(baseHandler, cfg.ProductService)
	transactionHandler := handlers.NewTransactionHandler(baseHandler, cfg.TransactionService)
	checkHandler := handlers.NewCheckHandler(baseHandler, cfg.CheckService)

	// API v1 (JWT required)
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.Auth(cfg.JWTValidator))
	{
		products := apiV1.Group("/products")
		{
			products.POST("", productHandler.Create)
			products.GET("", productHandler.List)
			products.GET("/low-stock", productHandler.ListLowStock)
			products.GET("/:id", productHandler.Get)
			products.PUT("/:id", productHandler.Update)
		}

		transactions := apiV1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("", transactionHandler.List)
			transactions.GET("/:id", transactionHandler.Get)
			transactions.PUT("/:id/status", middleware.RequireRole("manager"), transactionHandler.UpdateStatus)
		}

		checks := apiV1.Group("/checks")
		{
			checks.POST("", checkHandler.Create)
			checks.GET("", checkHandler.List)
			checks.GET("/:id", checkHandler.Get)
			checks.PUT("/:id/status", checkHandler.UpdateStatus)
			checks.PUT("/:id/items/:itemId", checkHandler.RecordCount)
			checks.POST("/:id/apply", middleware.RequireRole("manager"), checkHandler.Apply)
		}
	}

	return router
}
