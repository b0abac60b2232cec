package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
)

// Roles con acceso a la conciliación del kardex.
var auditRoles = []string{"admin", "farmaceutico"}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.Ledger
	Query       *inventory.QueryService
	Fulfillment *inventory.Fulfillment
	ReportPDF   StockReportRenderer
	JWTSecret   string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Query, deps.ReportPDF)
	invGroup.Post("/movements", inventoryHandler.ApplyMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/low-stock", inventoryHandler.ListLowStock)
	invGroup.Get("/out-of-stock", inventoryHandler.ListOutOfStock)
	invGroup.Get("/expiring", inventoryHandler.ListExpiring)
	invGroup.Get("/stats", inventoryHandler.GetStats)
	invGroup.Get("/replenishment-list", inventoryHandler.GetReplenishmentList)
	invGroup.Get("/report", inventoryHandler.GetReport)
	invGroup.Get("/report.pdf", inventoryHandler.GetReportPDF)
	invGroup.Get("/products/:id/reconciliation", RequireRole(auditRoles...), inventoryHandler.Reconcile)

	fulGroup := protected.Group("/fulfillment")
	fulfillmentHandler := NewFulfillmentHandler(deps.Fulfillment)
	fulGroup.Post("/validate", fulfillmentHandler.Validate)
	fulGroup.Post("/transitions", fulfillmentHandler.Transition)
}
