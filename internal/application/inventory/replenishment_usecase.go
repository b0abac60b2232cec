package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
)

// ListReplenishment devuelve los productos en o por debajo del umbral de reorden con la
// cantidad sugerida de pedido, priorizados por déficit relativo.
func (s *QueryService) ListReplenishment(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	list, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	below := make([]*entity.Product, 0)
	for _, p := range list {
		if p.StockQuantity <= s.minStock(p) {
			below = append(below, p)
		}
	}
	return s.replenishmentFrom(below), nil
}

func (s *QueryService) replenishmentFrom(products []*entity.Product) []dto.ReplenishmentSuggestionDTO {
	oneAndHalf := decimal.NewFromFloat(1.5)

	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(products))
	for _, p := range products {
		minStock := s.minStock(p)
		// Stock ideal = umbral * 1.5, redondeado hacia arriba a unidades enteras
		ideal := int(decimal.NewFromInt(int64(minStock)).Mul(oneAndHalf).Ceil().IntPart())
		suggested := ideal - p.StockQuantity
		if suggested < 0 {
			suggested = 0
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          p.ID,
			ProductName:        p.Name,
			CurrentStock:       p.StockQuantity,
			MinStockLevel:      minStock,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitPrice:          p.Price,
			EstimatedOrderCost: p.Price.Mul(decimal.NewFromInt(int64(suggested))),
		})
	}

	// Primero el mayor déficit relativo (stock / umbral), luego el mayor déficit absoluto.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra := decimal.NewFromInt(int64(a.CurrentStock)).Div(decimal.NewFromInt(int64(a.MinStockLevel)))
		rb := decimal.NewFromInt(int64(b.CurrentStock)).Div(decimal.NewFromInt(int64(b.MinStockLevel)))
		if !ra.Equal(rb) {
			return ra.LessThan(rb)
		}
		return a.MinStockLevel-a.CurrentStock > b.MinStockLevel-b.CurrentStock
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions
}
