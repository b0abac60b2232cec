package repository

import (
	"context"

	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia de productos que usa el inventario (DIP).
// El alta de productos es del catálogo; Create existe para siembra y pruebas.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve domain.ErrNotFound si el producto no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate lee el producto y lo bloquea hasta el fin de la transacción
	// (SELECT FOR UPDATE o equivalente del driver).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// UpdateStock escribe StockQuantity, StockStatus, LastRestocked y UpdatedAt solo si el stock
	// guardado sigue siendo expectedPrevious; si no, devuelve domain.ErrConflict.
	UpdateStock(ctx context.Context, product *entity.Product, expectedPrevious int) error
	// ListAll recorre el catálogo completo (consultas de inventario por barrido).
	ListAll(ctx context.Context) ([]*entity.Product, error)
}
