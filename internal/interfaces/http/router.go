package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/application/purchasing"
	"github.com/jhoicas/retail-stock/internal/application/usecase"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.StockLedger
	Transfers   *inventory.TransferCoordinator
	Purchases   *purchasing.PurchaseOrderUseCase
	Arrivals    *purchasing.ArrivalReconciler
	StoreUC     *usecase.StoreUseCase
	ProductUC   *usecase.ProductUseCase
	JWTSecret   string
	MetricsPath string
	Metrics     fiber.Handler // opcional
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, deps.Metrics)
	}

	// Todas las rutas de /api requieren Bearer Token
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	staff := RequireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleSeller)
	managers := RequireRole(entity.RoleAdmin, entity.RoleManager)
	admins := RequireRole(entity.RoleAdmin)

	// Stock
	stockHandler := NewStockHandler(deps.Ledger)
	stock := api.Group("/stock", staff)
	stock.Post("/adjustments", stockHandler.Adjust)
	stock.Post("/recounts", managers, stockHandler.Recount)
	stock.Get("/:store_id/:product_id", stockHandler.Get)
	stock.Get("/:store_id/:product_id/availability", stockHandler.Availability)
	stock.Get("/:store_id/:product_id/history", stockHandler.History)
	stock.Get("/:store_id/:product_id/verify", managers, stockHandler.Verify)

	// Traslados
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers := api.Group("/transfers", staff)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/sources", transferHandler.Sources)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Get("/:id/slip", transferHandler.Slip)
	transfers.Post("/:id/receive", transferHandler.Receive)
	transfers.Post("/:id/cancel", managers, transferHandler.Cancel)

	// Compras y llegadas
	purchaseHandler := NewPurchaseHandler(deps.Purchases, deps.Arrivals)
	purchases := api.Group("/purchases", staff)
	purchases.Post("/", managers, purchaseHandler.Create)
	purchases.Get("/", purchaseHandler.List)
	purchases.Get("/:id", purchaseHandler.GetByID)
	purchases.Post("/:id/arrivals", purchaseHandler.SubmitArrival)
	purchases.Get("/:id/arrivals", purchaseHandler.ListArrivals)

	// Tiendas
	storeHandler := NewStoreHandler(deps.StoreUC)
	stores := api.Group("/stores", staff)
	stores.Post("/", admins, storeHandler.Create)
	stores.Get("/", storeHandler.List)
	stores.Get("/:id", storeHandler.GetByID)
	stores.Get("/:id/stock", stockHandler.ListByStore)
	stores.Patch("/:id/active", admins, storeHandler.SetActive)
	stores.Put("/:id/access/:user_id", admins, storeHandler.GrantAccess)

	// Productos
	productHandler := NewProductHandler(deps.ProductUC)
	products := api.Group("/products", staff)
	products.Post("/", admins, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
}
