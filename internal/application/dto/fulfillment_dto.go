package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
)

// OrderDTO foto del pedido que envía el módulo de pedidos.
type OrderDTO struct {
	ID             string         `json:"id"`
	Products       []OrderItemDTO `json:"products"`
	DeliveryStatus string         `json:"delivery_status"`
	Status         string         `json:"status"`
}

// OrderItemDTO línea del pedido.
type OrderItemDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// ToEntity convierte el DTO en la entidad de dominio.
func (o OrderDTO) ToEntity() entity.Order {
	items := make([]entity.OrderItem, 0, len(o.Products))
	for _, it := range o.Products {
		items = append(items, entity.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return entity.Order{
		ID:             o.ID,
		Products:       items,
		DeliveryStatus: o.DeliveryStatus,
		Status:         o.Status,
	}
}

// OrderTransitionRequest body para POST /api/fulfillment/transitions.
type OrderTransitionRequest struct {
	Transition             string   `json:"transition"` // delivered | cancelled | returned
	PreviousDeliveryStatus string   `json:"previous_delivery_status"`
	Order                  OrderDTO `json:"order"`
}

// StockValidationDTO resultado de la verificación previa a la entrega.
type StockValidationDTO struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ItemFailureDTO línea que no se pudo aplicar.
type ItemFailureDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	Error     string `json:"error"`
}

// PartialFailureResponse cuerpo de respuesta cuando un lote se aplicó parcialmente.
type PartialFailureResponse struct {
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Failures []ItemFailureDTO `json:"failures"`
}
