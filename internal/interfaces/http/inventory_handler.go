package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
)

// StockReportRenderer genera el PDF del reporte (lo implementa *pdf.StockReportGenerator).
type StockReportRenderer interface {
	Generate(report *dto.StockReportDTO) ([]byte, error)
}

// InventoryHandler maneja el kardex y las consultas de inventario (protegido).
type InventoryHandler struct {
	ledger *inventory.Ledger
	query  *inventory.QueryService
	pdf    StockReportRenderer
}

// NewInventoryHandler construye el handler. pdf puede ser nil (sin reporte PDF).
func NewInventoryHandler(ledger *inventory.Ledger, query *inventory.QueryService, pdf StockReportRenderer) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, query: query, pdf: pdf}
}

// ApplyMovement godoc
// @Summary      Registrar movimiento de stock
// @Description  Para type=adjustment, quantity es el nuevo stock absoluto. Las salidas que superan
//
//	el stock lo dejan en cero.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyMovementRequest  true  "product_id, type, quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) ApplyMovement(c *fiber.Ctx) error {
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.ledger.ApplyMovement(c.UserContext(), inventory.ApplyMovementInput{
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		Type:       in.Type,
		ReasonCode: in.ReasonCode,
		Reason:     in.Reason,
		Reference:  in.Reference,
		Notes:      in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(mov))
}

// ListMovements godoc
// @Summary      Kardex
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        limit       query  int     false  "Máximo de movimientos (default 50, tope 500)"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "limit debe ser un entero positivo"})
		}
		limit = n
	}
	list, err := h.ledger.GetMovements(c.UserContext(), c.Query("product_id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementListResponse{Items: make([]dto.MovementResponse, 0, len(list))}
	for _, m := range list {
		out.Items = append(out.Items, dto.NewMovementResponse(m))
	}
	out.Total = len(out.Items)
	return c.JSON(out)
}

// ListLowStock godoc
// @Summary      Productos con stock bajo
// @Description  Stock mayor que cero y menor o igual al umbral de reorden.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProductStockResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *fiber.Ctx) error {
	list, err := h.query.ListLowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewProductStockList(list))
}

// ListOutOfStock godoc
// @Summary      Productos agotados
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProductStockResponse
// @Router       /api/inventory/out-of-stock [get]
func (h *InventoryHandler) ListOutOfStock(c *fiber.Ctx) error {
	list, err := h.query.ListOutOfStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewProductStockList(list))
}

// ListExpiring godoc
// @Summary      Productos por vencer
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana en días (default 30)"
// @Success      200  {array}  dto.ProductStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/expiring [get]
func (h *InventoryHandler) ListExpiring(c *fiber.Ctx) error {
	days := 30
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "days debe ser un entero no negativo"})
		}
		days = n
	}
	list, err := h.query.ListExpiringSoon(c.UserContext(), days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewProductStockList(list))
}

// GetStats godoc
// @Summary      Totales del inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.InventoryStatsDTO
// @Router       /api/inventory/stats [get]
func (h *InventoryHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.query.GetStats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Productos en o bajo el umbral con la cantidad sugerida de pedido, el de mayor déficit relativo primero.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "total, replenishments"
// @Router       /api/inventory/replenishment-list [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.query.ListReplenishment(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

// GetReport godoc
// @Summary      Reporte de inventario (JSON)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockReportDTO
// @Router       /api/inventory/report [get]
func (h *InventoryHandler) GetReport(c *fiber.Ctx) error {
	report, err := h.query.StockReport(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// GetReportPDF godoc
// @Summary      Reporte de inventario (PDF)
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Success      200
// @Failure      501  {object}  dto.ErrorResponse
// @Router       /api/inventory/report.pdf [get]
func (h *InventoryHandler) GetReportPDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_AVAILABLE", Message: "reporte PDF no configurado"})
	}
	report, err := h.query.StockReport(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	doc, err := h.pdf.Generate(report)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="inventario-`+report.GeneratedAt.Format("20060102")+`.pdf"`)
	return c.Send(doc)
}

// Reconcile godoc
// @Summary      Conciliación del kardex de un producto
// @Description  Reproduce los movimientos y reporta cada punto donde la cadena de stock no cuadra.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ReconciliationReportDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/reconciliation [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.query.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}
