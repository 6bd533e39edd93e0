package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/kardex-api/internal/application/checkout"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/pricing"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName          string
	ProductUC        *usecase.ProductUseCase
	OfferUC          *usecase.OfferUseCase
	PricingUC        *pricing.PricingUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	InventoryUC      *inventory.InventoryUseCase
	ReportUC         *inventory.ReportUseCase
	Checkout         *checkout.Orchestrator
	Metrics          *metrics.Metrics
	JWTSecret        string
	JWTIssuer        string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(MetricsMiddleware(deps.Metrics))

	// Públicas
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	adminOnly := RequireRole(RoleAdmin)
	stockKeepers := RequireRole(RoleAdmin, RoleBodeguero)

	// Products + precios
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	pricingHandler := NewPricingHandler(deps.PricingUC)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Post("/:id/prices", adminOnly, productHandler.AddPriceEntry)
	products.Put("/:id/prices/:entryId", adminOnly, productHandler.UpdatePriceEntry)
	products.Get("/:id/price", pricingHandler.GetPrice)

	// Kardex
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.InventoryUC, deps.ReportUC)
	products.Get("/:id/balance", inventoryHandler.GetBalance)
	products.Get("/:id/movements", inventoryHandler.ListMovements)
	products.Post("/:id/movements", stockKeepers, inventoryHandler.RegisterMovement)
	products.Post("/:id/reconcile", adminOnly, inventoryHandler.Reconcile)
	products.Get("/:id/kardex.pdf", stockKeepers, inventoryHandler.KardexPDF)

	// Offers
	offers := api.Group("/offers")
	offerHandler := NewOfferHandler(deps.OfferUC)
	offers.Post("/", adminOnly, offerHandler.Create)
	offers.Get("/", offerHandler.List)
	offers.Get("/:id", offerHandler.GetByID)
	offers.Patch("/:id/status", adminOnly, offerHandler.UpdateStatus)

	// Carrito
	api.Post("/cart/evaluate", pricingHandler.EvaluateCart)

	// Orders
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.Checkout)
	orders.Post("/", orderHandler.PlaceOrder)
	orders.Post("/reservations", orderHandler.Reserve)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Post("/:id/commit", orderHandler.Commit)
	orders.Post("/:id/cancel", orderHandler.Cancel)
}
