// Package gateway assembles the HTTP API served by cmd/gateway.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"servora-system/internal/auth"
	"servora-system/internal/dashboard"
	"servora-system/internal/gateway/clients"
	"servora-system/internal/gateway/handlers"
	"servora-system/internal/gateway/middleware"
	"servora-system/internal/inventory"
	"servora-system/internal/menu"
	"servora-system/internal/orders"
	"servora-system/internal/reservations"
	"servora-system/internal/utils"
)

// Deps is everything the router needs. Redis and Clients may be nil: the
// API then runs without cache and records ledger transactions in-process.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Clients   *clients.GRPCClients
	Tokens    *utils.TokenIssuer
	Logger    log.FieldLogger
	RateLimit string

	Auth         *auth.Service
	Menu         *menu.Service
	Orders       *orders.Service
	Reservations *reservations.Service
	Ledger       *inventory.Ledger
	Dashboard    *dashboard.Service
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(gin.Recovery())
	if d.RateLimit != "" {
		r.Use(middleware.RateLimit(d.RateLimit))
	}
	r.Use(serviceHealthMiddleware(d.Clients))

	var recorder handlers.LedgerRecorder
	if d.Clients != nil && d.Clients.Ledger != nil {
		recorder = d.Clients.Ledger
	}

	userHandler := handlers.NewUserHTTPHandler(d.Auth, d.Logger)
	menuHandler := handlers.NewMenuHTTPHandler(d.Menu, d.Logger)
	posHandler := handlers.NewPOSHTTPHandler(d.Orders, d.Menu, d.Dashboard, d.Logger)
	reservationHandler := handlers.NewReservationHTTPHandler(d.Reservations, d.Logger)
	inventoryHandler := handlers.NewInventoryHTTPHandler(d.Ledger, recorder, d.Dashboard, d.Logger)
	dashboardHandler := handlers.NewDashboardHTTPHandler(d.Dashboard, d.Orders, d.Logger)

	managers := middleware.RequireRole("ADMIN", "MANAGER")

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		authGroup := public.Group("/auth")
		{
			authGroup.POST("/register", userHandler.Register)
			authGroup.POST("/login", userHandler.Login)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(d.Tokens))
	{
		protected.GET("/auth/me", userHandler.Me)

		menuGroup := protected.Group("/menu")
		{
			menuGroup.GET("/categories", menuHandler.ListCategories)
			menuGroup.POST("/categories", managers, menuHandler.CreateCategory)

			menuGroup.GET("/items", menuHandler.ListItems)
			menuGroup.POST("/items", managers, menuHandler.CreateItem)
			menuGroup.DELETE("/items", managers, menuHandler.DeleteItems)
			menuGroup.GET("/items/:id", menuHandler.GetItem)
			menuGroup.PATCH("/items/:id", managers, menuHandler.UpdateItem)
			menuGroup.GET("/items/:id/discounts", menuHandler.ListDiscounts)

			menuGroup.POST("/discounts", managers, menuHandler.CreateDiscount)
			menuGroup.PATCH("/discounts/:id", managers, menuHandler.SetDiscountActive)
		}

		ordersGroup := protected.Group("/orders")
		{
			ordersGroup.GET("", posHandler.ListOrders)
			ordersGroup.POST("", posHandler.CreateOrder)
			ordersGroup.GET("/:id", posHandler.GetOrder)
			ordersGroup.PATCH("/:id/status", posHandler.UpdateOrderStatus)
		}

		posGroup := protected.Group("/pos")
		{
			posGroup.GET("/menu", posHandler.Menu)
			posGroup.POST("/orders", posHandler.CreateOrder)
			posGroup.POST("/orders/:id/complete", posHandler.CompleteOrder)
		}

		reservationsGroup := protected.Group("/reservations")
		{
			reservationsGroup.GET("", reservationHandler.List)
			reservationsGroup.POST("", reservationHandler.Create)
			reservationsGroup.GET("/:id", reservationHandler.Get)
			reservationsGroup.PATCH("/:id", reservationHandler.Update)
			reservationsGroup.PATCH("/:id/status", reservationHandler.UpdateStatus)
			reservationsGroup.DELETE("/:id", reservationHandler.Delete)
		}

		inventoryGroup := protected.Group("/inventory")
		{
			inventoryGroup.GET("", inventoryHandler.ListItems)
			inventoryGroup.POST("", managers, inventoryHandler.CreateItem)
			inventoryGroup.GET("/low-stock", inventoryHandler.ListLowStock)
			inventoryGroup.GET("/export", managers, inventoryHandler.Export)
			inventoryGroup.POST("/transactions", inventoryHandler.RecordTransaction)
			inventoryGroup.GET("/:id", inventoryHandler.GetItem)
			inventoryGroup.PATCH("/:id", managers, inventoryHandler.UpdateItem)
			inventoryGroup.DELETE("/:id", managers, inventoryHandler.DeleteItem)
			inventoryGroup.GET("/:id/transactions", inventoryHandler.ListTransactions)
			inventoryGroup.GET("/:id/reconcile", inventoryHandler.Reconcile)
		}

		dashboardGroup := protected.Group("/dashboard")
		{
			dashboardGroup.GET("/stats", dashboardHandler.Stats)
			dashboardGroup.GET("/sales/export", managers, dashboardHandler.ExportSales)
		}
	}

	r.GET("/health", healthCheckHandler(d))

	return r
}

func serviceHealthMiddleware(c *clients.GRPCClients) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		switch {
		case c == nil:
			ctx.Header("X-Inventory-Service", "in-process")
		case c.IsLedgerServiceHealthy():
			ctx.Header("X-Inventory-Service", "available")
		default:
			ctx.Header("X-Inventory-Service", "unavailable")
		}
		ctx.Next()
	}
}

func healthCheckHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{
			"database": checkDatabase(ctx, d.DB),
			"redis":    checkRedis(ctx, d.Redis),
			"ledger":   checkLedger(d.Clients),
		}

		status := "healthy"
		httpStatus := http.StatusOK
		switch {
		case checks["database"] != "healthy":
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		case checks["redis"] == "unavailable" || checks["ledger"] == "unavailable":
			status = "degraded"
			httpStatus = http.StatusPartialContent
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"services":  checks,
			"timestamp": time.Now().UTC(),
		})
	}
}

func checkDatabase(ctx context.Context, db *gorm.DB) string {
	if db == nil {
		return "unavailable"
	}
	sqlDB, err := db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return "unavailable"
	}
	return "healthy"
}

func checkRedis(ctx context.Context, rdb *redis.Client) string {
	if rdb == nil {
		return "disabled"
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return "unavailable"
	}
	return "healthy"
}

func checkLedger(c *clients.GRPCClients) string {
	if c == nil {
		return "in-process"
	}
	if !c.IsLedgerServiceHealthy() {
		return "unavailable"
	}
	return "healthy"
}
