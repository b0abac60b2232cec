package inventory

import "github.com/jhoicas/farmacia-inventario/internal/domain/entity"

// DefaultMinStockLevel umbral de reorden cuando el producto no define uno.
const DefaultMinStockLevel = 10

// ComputeNewStock aplica un movimiento al stock previo (servicio de dominio puro).
//
//	in, returned             -> previo + cantidad
//	out, expired, damaged    -> max(0, previo - cantidad)
//	adjustment               -> cantidad (valor absoluto)
//
// Las salidas se recortan en cero en lugar de fallar. El tipo debe venir validado.
func ComputeNewStock(previous int, movementType string, quantity int) int {
	switch movementType {
	case entity.MovementTypeIn, entity.MovementTypeReturned:
		return previous + quantity
	case entity.MovementTypeOut, entity.MovementTypeExpired, entity.MovementTypeDamaged:
		if quantity >= previous {
			return 0
		}
		return previous - quantity
	case entity.MovementTypeAdjustment:
		return quantity
	}
	return previous
}

// IsReduction indica si el tipo descuenta stock.
func IsReduction(movementType string) bool {
	switch movementType {
	case entity.MovementTypeOut, entity.MovementTypeExpired, entity.MovementTypeDamaged:
		return true
	}
	return false
}

// EffectiveMinStock devuelve el umbral de reorden aplicando el valor por defecto.
func EffectiveMinStock(minStockLevel, fallback int) int {
	if minStockLevel > 0 {
		return minStockLevel
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultMinStockLevel
}

// StockStatusFor deriva el estado: 0 agotado; (0, umbral] bajo; resto disponible.
func StockStatusFor(quantity, minStockLevel int) string {
	switch {
	case quantity <= 0:
		return entity.StockStatusOutOfStock
	case quantity <= minStockLevel:
		return entity.StockStatusLowStock
	default:
		return entity.StockStatusInStock
	}
}
