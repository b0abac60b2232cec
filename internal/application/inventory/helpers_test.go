package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/memory"
)

var testActor = inventory.Actor{ID: "u-1", Name: "Ana"}

func actorCtx() context.Context {
	return inventory.WithActor(context.Background(), testActor)
}

// seed registra un producto con el stock y umbral dados.
func seed(t *testing.T, store *memory.Store, id string, stock, minStock int) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{
		ID:            id,
		Name:          "Producto " + id,
		StockQuantity: stock,
		MinStockLevel: minStock,
		Price:         decimal.NewFromInt(100),
		CreatedAt:     now,
		UpdatedAt:     now,
	}))
}

func newLedger(store *memory.Store) *inventory.Ledger {
	return inventory.NewLedger(store, store.Movements(), inventory.LedgerConfig{}, zerolog.Nop())
}

func stockOf(t *testing.T, store *memory.Store, id string) int {
	t.Helper()
	p, err := store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}
