package handler

import (
	"log/slog"
	"time"

	"go-vetpos/internal/middleware"
	"go-vetpos/internal/model"
	"go-vetpos/internal/service"
	"go-vetpos/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Services is everything the HTTP layer needs.
type Services struct {
	Auth      service.AuthService
	Catalog   service.CatalogService
	Sales     service.SalesService
	Purchases service.PurchaseService
	Replenish service.ReplenishService
	Dashboard service.DashboardService
	Hub       *ws.Hub
	Location  *time.Location
	Log       *slog.Logger
}

// Register mounts every route on app.
func Register(app *fiber.App, s Services) {
	authHandler := NewAuthHandler(s.Auth, s.Log)
	catalogHandler := NewCatalogHandler(s.Catalog, s.Log)
	salesHandler := NewSalesHandler(s.Sales, s.Location, s.Log)
	purchaseHandler := NewPurchaseHandler(s.Purchases, s.Replenish, s.Log)
	dashHandler := NewDashboardHandler(s.Dashboard, s.Log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(s.Auth))
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/change-password", authHandler.ChangePassword)

	// Dashboard Routes (authenticated users can view)
	protected.Get("/dashboard/summary", dashHandler.GetSummary)
	protected.Get("/dashboard/movement", dashHandler.GetMovement)
	protected.Get("/dashboard/top-products", dashHandler.GetTopProducts)
	protected.Get("/dashboard/expiring", dashHandler.GetExpiring)

	// Catalog
	protected.Get("/categories", catalogHandler.GetCategories)
	protected.Post("/categories", adminOnly, catalogHandler.CreateCategory)
	protected.Delete("/categories/:id", adminOnly, catalogHandler.DeleteCategory)

	protected.Get("/suppliers", adminOnly, catalogHandler.GetSuppliers)
	protected.Get("/suppliers/:id", adminOnly, catalogHandler.GetSupplier)
	protected.Post("/suppliers", adminOnly, catalogHandler.CreateSupplier)
	protected.Put("/suppliers/:id", adminOnly, catalogHandler.UpdateSupplier)
	protected.Delete("/suppliers/:id", adminOnly, catalogHandler.DeleteSupplier)

	protected.Get("/products", catalogHandler.GetProducts)
	protected.Get("/products/:id", catalogHandler.GetProduct)
	protected.Post("/products", adminOnly, catalogHandler.CreateProduct)
	protected.Put("/products/:id", adminOnly, catalogHandler.UpdateProduct)
	protected.Delete("/products/:id", adminOnly, catalogHandler.DeleteProduct)

	// Sales (cashiers and admins)
	protected.Post("/sales", salesHandler.RecordSale)
	protected.Get("/sales", salesHandler.GetSales)
	protected.Get("/sales/:id", salesHandler.GetSale)

	// Purchases and replenishment
	protected.Post("/purchases", adminOnly, purchaseHandler.RecordPurchase)
	protected.Get("/purchases", adminOnly, purchaseHandler.GetPurchases)
	protected.Get("/purchases/:id", adminOnly, purchaseHandler.GetPurchase)
	protected.Post("/purchases/:id/receive", adminOnly, purchaseHandler.ReceivePurchase)
	protected.Post("/replenish", adminOnly, purchaseHandler.RunAutoReplenish)

	// WebSocket Route
	if s.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws", websocket.New(func(c *websocket.Conn) {
			s.Hub.Register <- c
			defer func() { s.Hub.Unregister <- c }()

			for {
				// Keep alive loop
				if _, _, err := c.ReadMessage(); err != nil {
					break
				}
			}
		}))
	}
}
