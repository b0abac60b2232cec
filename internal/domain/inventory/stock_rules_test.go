package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	"github.com/jhoicas/farmacia-inventario/internal/domain/inventory"
)

func TestComputeNewStock_SalidaSeRecortaEnCero(t *testing.T) {
	assert.Equal(t, 0, inventory.ComputeNewStock(5, entity.MovementTypeOut, 100))
	assert.Equal(t, 0, inventory.ComputeNewStock(5, entity.MovementTypeExpired, 5))
	assert.Equal(t, 2, inventory.ComputeNewStock(5, entity.MovementTypeDamaged, 3))
}

func TestComputeNewStock_Entradas(t *testing.T) {
	assert.Equal(t, 25, inventory.ComputeNewStock(5, entity.MovementTypeIn, 20))
	assert.Equal(t, 6, inventory.ComputeNewStock(5, entity.MovementTypeReturned, 1))
}

func TestComputeNewStock_AjusteEsAbsoluto(t *testing.T) {
	for _, previous := range []int{0, 5, 1000} {
		assert.Equal(t, 42, inventory.ComputeNewStock(previous, entity.MovementTypeAdjustment, 42),
			"ajuste desde %d", previous)
	}
}

func TestStockStatusFor_Limites(t *testing.T) {
	assert.Equal(t, entity.StockStatusLowStock, inventory.StockStatusFor(10, 10))
	assert.Equal(t, entity.StockStatusInStock, inventory.StockStatusFor(11, 10))
	assert.Equal(t, entity.StockStatusOutOfStock, inventory.StockStatusFor(0, 10))
	assert.Equal(t, entity.StockStatusLowStock, inventory.StockStatusFor(1, 10))
}

func TestEffectiveMinStock(t *testing.T) {
	assert.Equal(t, 10, inventory.EffectiveMinStock(0, 0))
	assert.Equal(t, 7, inventory.EffectiveMinStock(0, 7))
	assert.Equal(t, 3, inventory.EffectiveMinStock(3, 7))
}

func TestIsReduction(t *testing.T) {
	assert.True(t, inventory.IsReduction(entity.MovementTypeOut))
	assert.False(t, inventory.IsReduction(entity.MovementTypeAdjustment))
	assert.False(t, inventory.IsReduction(entity.MovementTypeIn))
}
