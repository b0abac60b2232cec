package inventory

import (
	"context"

	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	"github.com/jhoicas/farmacia-inventario/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del almacén, pasando repositorios
// atados a esa transacción. Garantiza que la actualización del producto y el anexado del
// movimiento se confirmen juntos o no se confirmen.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ctx context.Context,
		products repository.ProductRepository,
		movements repository.StockMovementRepository,
	) error) error
}

// ProductReader lectura de productos fuera de transacción.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// LowStockEvent aviso de que un producto quedó en o por debajo de su umbral de reorden.
type LowStockEvent struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	CurrentStock  int    `json:"current_stock"`
	MinStockLevel int    `json:"min_stock_level"`
}

// Notifier colaborador externo de alertas de stock bajo. Es best-effort: el inventario
// no reintenta ni encola si falla.
type Notifier interface {
	Notify(ctx context.Context, event LowStockEvent) error
}
