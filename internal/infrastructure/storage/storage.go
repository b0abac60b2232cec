// Package storage abre el backend de persistencia elegido en STORE_DRIVER.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain/repository"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/mongodb"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/farmacia-inventario/pkg/config"
)

// Storage puertos de persistencia de un backend abierto.
type Storage struct {
	Tx        inventory.TxRunner
	Products  repository.ProductRepository
	Movements repository.StockMovementRepository
	closeFn   func(context.Context) error
}

// Close libera las conexiones del backend.
func (s *Storage) Close(ctx context.Context) error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn(ctx)
}

// Open conecta el backend, aplica migraciones o índices y devuelve sus repositorios.
func Open(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Storage{
			Tx:        postgres.NewTxRunner(pool),
			Products:  postgres.NewProductRepository(pool),
			Movements: postgres.NewStockMovementRepository(pool),
			closeFn: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil
	case config.StoreDriverMongo:
		s, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return &Storage{Tx: s, Products: s.Products(), Movements: s.Movements(), closeFn: s.Close}, nil
	case config.StoreDriverMemory:
		s := memory.NewStore()
		return &Storage{Tx: s, Products: s.Products(), Movements: s.Movements()}, nil
	}
	return nil, fmt.Errorf("driver de almacenamiento desconocido %q", cfg.Store.Driver)
}
