package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
)

// ApplyMovementRequest body para POST /api/inventory/movements.
// Para type=adjustment, quantity es el nuevo stock absoluto.
type ApplyMovementRequest struct {
	ProductID  string `json:"product_id"`
	Type       string `json:"type"`
	Quantity   int    `json:"quantity"`
	ReasonCode string `json:"reason_code,omitempty"`
	Reason     string `json:"reason"`
	Reference  string `json:"reference,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// MovementResponse salida de un movimiento del kardex.
type MovementResponse struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	ProductName     string    `json:"product_name"`
	Type            string    `json:"type"`
	Quantity        int       `json:"quantity"`
	ReasonCode      string    `json:"reason_code"`
	Reason          string    `json:"reason"`
	Reference       string    `json:"reference,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	PerformedBy     string    `json:"performed_by"`
	PerformedByName string    `json:"performed_by_name"`
	PreviousStock   int       `json:"previous_stock"`
	NewStock        int       `json:"new_stock"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewMovementResponse mapea la entidad a su respuesta.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:              m.ID,
		ProductID:       m.ProductID,
		ProductName:     m.ProductName,
		Type:            m.Type,
		Quantity:        m.Quantity,
		ReasonCode:      m.ReasonCode,
		Reason:          m.Reason,
		Reference:       m.Reference,
		Notes:           m.Notes,
		PerformedBy:     m.PerformedBy,
		PerformedByName: m.PerformedByName,
		PreviousStock:   m.PreviousStock,
		NewStock:        m.NewStock,
		Timestamp:       m.Timestamp,
	}
}

// MovementListResponse listado de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Total int                `json:"total"`
}

// ProductStockResponse vista de inventario de un producto.
type ProductStockResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
	StockStatus   string          `json:"stock_status"`
	Price         decimal.Decimal `json:"price"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	LastRestocked *time.Time      `json:"last_restocked,omitempty"`
}

// NewProductStockList mapea productos a su vista de inventario.
func NewProductStockList(products []*entity.Product) []ProductStockResponse {
	out := make([]ProductStockResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductStockResponse{
			ID:            p.ID,
			Name:          p.Name,
			StockQuantity: p.StockQuantity,
			MinStockLevel: p.MinStockLevel,
			StockStatus:   p.StockStatus,
			Price:         p.Price,
			ExpiryDate:    p.ExpiryDate,
			LastRestocked: p.LastRestocked,
		})
	}
	return out
}

// InventoryStatsDTO respuesta de GET /api/inventory/stats.
type InventoryStatsDTO struct {
	TotalProducts     int             `json:"total_products"`
	TotalItems        int             `json:"total_items"` // suma de stock
	TotalValue        decimal.Decimal `json:"total_value"` // suma de precio * stock
	LowStockCount     int             `json:"low_stock_count"`
	OutOfStockCount   int             `json:"out_of_stock_count"`
	ExpiringSoonCount int             `json:"expiring_soon_count"`
	ExpiryWindowDays  int             `json:"expiry_window_days"`
}

// Tipos de quiebre en la conciliación del kardex.
const (
	BreakPreviousStock = "previous_stock_gap"    // el stock previo no coincide con el movimiento anterior
	BreakNewStock      = "new_stock_mismatch"    // el stock nuevo no es el que resulta del tipo y la cantidad
	BreakCurrentStock  = "current_stock_mismatch" // el último stock del kardex no es el stock actual
)

// ReconciliationBreakDTO un punto donde la cadena del kardex no cuadra.
type ReconciliationBreakDTO struct {
	MovementID string `json:"movement_id,omitempty"`
	Kind       string `json:"kind"`
	Expected   int    `json:"expected"`
	Recorded   int    `json:"recorded"`
}

// ReconciliationReportDTO resultado de reproducir el kardex de un producto.
type ReconciliationReportDTO struct {
	ProductID     string                   `json:"product_id"`
	ProductName   string                   `json:"product_name"`
	CurrentStock  int                      `json:"current_stock"`
	LedgerStock   *int                     `json:"ledger_stock,omitempty"` // nil si no hay movimientos
	MovementCount int                      `json:"movement_count"`
	Consistent    bool                     `json:"consistent"`
	Breaks        []ReconciliationBreakDTO `json:"breaks"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un producto en o bajo su umbral.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	CurrentStock       int             `json:"current_stock"`
	MinStockLevel      int             `json:"min_stock_level"`
	IdealStock         int             `json:"ideal_stock"`          // MinStockLevel * 1.5
	SuggestedOrderQty  int             `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitPrice          decimal.Decimal `json:"unit_price"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitPrice
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// StockReportDTO contenido del reporte de inventario (JSON o PDF).
type StockReportDTO struct {
	GeneratedAt   time.Time                    `json:"generated_at"`
	Stats         InventoryStatsDTO            `json:"stats"`
	LowStock      []ProductStockResponse       `json:"low_stock"`
	OutOfStock    []ProductStockResponse       `json:"out_of_stock"`
	ExpiringSoon  []ProductStockResponse       `json:"expiring_soon"`
	Replenishment []ReplenishmentSuggestionDTO `json:"replenishment"`
}
