package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de stock derivados de StockQuantity y MinStockLevel.
const (
	StockStatusInStock    = "in-stock"
	StockStatusLowStock   = "low-stock"
	StockStatusOutOfStock = "out-of-stock"
)

// Product es el subconjunto del catálogo que le importa al kardex.
// StockQuantity, StockStatus y LastRestocked solo se escriben desde el ledger.
type Product struct {
	ID            string
	Name          string
	StockQuantity int
	MinStockLevel int // 0 = usar el umbral por defecto
	Price         decimal.Decimal
	ExpiryDate    *time.Time
	StockStatus   string
	LastRestocked *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
