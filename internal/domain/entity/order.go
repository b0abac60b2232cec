package entity

import "github.com/shopspring/decimal"

// Estados de entrega del pedido. El estado general (Status) evoluciona aparte.
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusPacking   = "packing"
	DeliveryStatusShipped   = "shipped"
	DeliveryStatusDelivered = "delivered"
)

// Estados generales del pedido que interesan al inventario.
const (
	OrderStatusActive    = "active"
	OrderStatusCancelled = "cancelled"
	OrderStatusReturned  = "returned"
)

// Order es la foto del pedido que entrega el módulo de pedidos en cada transición.
// El inventario nunca consulta pedidos por su cuenta.
type Order struct {
	ID             string
	Products       []OrderItem
	DeliveryStatus string
	Status         string
}

// OrderItem línea del pedido.
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}
