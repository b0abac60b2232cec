package repository

import (
	"context"

	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
)

// StockMovementRepository define el puerto del kardex. Es solo de anexado:
// no hay operaciones para editar ni borrar movimientos.
type StockMovementRepository interface {
	Append(ctx context.Context, movement *entity.StockMovement) (string, error)
	// List devuelve movimientos por Timestamp descendente; productID vacío = todos.
	List(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error)
	// ListByProductAsc devuelve todos los movimientos de un producto en orden cronológico.
	ListByProductAsc(ctx context.Context, productID string) ([]*entity.StockMovement, error)
}
