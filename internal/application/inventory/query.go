package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	domaininv "github.com/jhoicas/farmacia-inventario/internal/domain/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain/repository"
)

// QueryConfig parámetros de las consultas de inventario.
type QueryConfig struct {
	DefaultMinStock  int
	ExpiryWindowDays int // ventana de "por vencer" usada en GetStats
}

// QueryService agregaciones de solo lectura sobre productos y movimientos.
// Todo se recalcula en cada llamada con un barrido completo del catálogo.
type QueryService struct {
	tx        TxRunner
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	cfg       QueryConfig
	now       func() time.Time
}

// NewQueryService construye el servicio de consultas. tx se usa para leer producto y kardex
// de forma consistente al conciliar.
func NewQueryService(tx TxRunner, products repository.ProductRepository, movements repository.StockMovementRepository, cfg QueryConfig) *QueryService {
	if cfg.DefaultMinStock <= 0 {
		cfg.DefaultMinStock = domaininv.DefaultMinStockLevel
	}
	if cfg.ExpiryWindowDays <= 0 {
		cfg.ExpiryWindowDays = 30
	}
	return &QueryService{tx: tx, products: products, movements: movements, cfg: cfg, now: time.Now}
}

func (s *QueryService) minStock(p *entity.Product) int {
	return domaininv.EffectiveMinStock(p.MinStockLevel, s.cfg.DefaultMinStock)
}

func (s *QueryService) isLowStock(p *entity.Product) bool {
	return p.StockQuantity > 0 && p.StockQuantity <= s.minStock(p)
}

func (s *QueryService) isExpiringWithin(p *entity.Product, now, limit time.Time) bool {
	return p.ExpiryDate != nil && p.ExpiryDate.After(now) && !p.ExpiryDate.After(limit)
}

func (s *QueryService) all(ctx context.Context) ([]*entity.Product, error) {
	list, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("consultar productos: %w", err)
	}
	return list, nil
}

// ListLowStock productos con 0 < stock <= umbral.
func (s *QueryService) ListLowStock(ctx context.Context) ([]*entity.Product, error) {
	list, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Product, 0)
	for _, p := range list {
		if s.isLowStock(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListOutOfStock productos con stock en cero.
func (s *QueryService) ListOutOfStock(ctx context.Context) ([]*entity.Product, error) {
	list, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Product, 0)
	for _, p := range list {
		if p.StockQuantity == 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListExpiringSoon productos con vencimiento en (ahora, ahora+días], del más próximo al más lejano.
func (s *QueryService) ListExpiringSoon(ctx context.Context, days int) ([]*entity.Product, error) {
	list, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	limit := now.AddDate(0, 0, days)
	out := make([]*entity.Product, 0)
	for _, p := range list {
		if s.isExpiringWithin(p, now, limit) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(*out[j].ExpiryDate)
	})
	return out, nil
}

// GetStats totales del inventario valorizados a precio de venta.
func (s *QueryService) GetStats(ctx context.Context) (*dto.InventoryStatsDTO, error) {
	list, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	limit := now.AddDate(0, 0, s.cfg.ExpiryWindowDays)
	stats := &dto.InventoryStatsDTO{TotalValue: decimal.Zero, ExpiryWindowDays: s.cfg.ExpiryWindowDays}
	for _, p := range list {
		stats.TotalProducts++
		stats.TotalItems += p.StockQuantity
		stats.TotalValue = stats.TotalValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity))))
		switch {
		case p.StockQuantity == 0:
			stats.OutOfStockCount++
		case s.isLowStock(p):
			stats.LowStockCount++
		}
		if s.isExpiringWithin(p, now, limit) {
			stats.ExpiringSoonCount++
		}
	}
	return stats, nil
}

// Reconcile reproduce el kardex del producto en orden cronológico desde el stock previo del
// primer movimiento y reporta cada punto donde la cadena no cuadra, incluido el stock actual.
// Producto y kardex se leen en la misma transacción con el producto bloqueado, así una
// escritura concurrente no puede quedar entre ambas lecturas.
func (s *QueryService) Reconcile(ctx context.Context, productID string) (*dto.ReconciliationReportDTO, error) {
	var (
		product *entity.Product
		movs    []*entity.StockMovement
	)
	err := s.tx.Run(ctx, func(ctx context.Context, products repository.ProductRepository, movements repository.StockMovementRepository) error {
		var err error
		if product, err = products.GetForUpdate(ctx, productID); err != nil {
			return err
		}
		if movs, err = movements.ListByProductAsc(ctx, productID); err != nil {
			return fmt.Errorf("consultar kardex: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report := &dto.ReconciliationReportDTO{
		ProductID:     product.ID,
		ProductName:   product.Name,
		CurrentStock:  product.StockQuantity,
		MovementCount: len(movs),
		Breaks:        []dto.ReconciliationBreakDTO{},
	}
	if len(movs) == 0 {
		report.Consistent = true
		return report, nil
	}

	running := movs[0].PreviousStock
	for _, m := range movs {
		if m.PreviousStock != running {
			report.Breaks = append(report.Breaks, dto.ReconciliationBreakDTO{
				MovementID: m.ID, Kind: dto.BreakPreviousStock, Expected: running, Recorded: m.PreviousStock,
			})
			running = m.PreviousStock
		}
		running = domaininv.ComputeNewStock(running, m.Type, m.Quantity)
		if m.NewStock != running {
			report.Breaks = append(report.Breaks, dto.ReconciliationBreakDTO{
				MovementID: m.ID, Kind: dto.BreakNewStock, Expected: running, Recorded: m.NewStock,
			})
			running = m.NewStock
		}
	}
	report.LedgerStock = &running
	if running != product.StockQuantity {
		report.Breaks = append(report.Breaks, dto.ReconciliationBreakDTO{
			Kind: dto.BreakCurrentStock, Expected: running, Recorded: product.StockQuantity,
		})
	}
	report.Consistent = len(report.Breaks) == 0
	return report, nil
}

// StockReport reúne totales y listados para el reporte imprimible.
func (s *QueryService) StockReport(ctx context.Context) (*dto.StockReportDTO, error) {
	stats, err := s.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.ListOutOfStock(ctx)
	if err != nil {
		return nil, err
	}
	expiring, err := s.ListExpiringSoon(ctx, s.cfg.ExpiryWindowDays)
	if err != nil {
		return nil, err
	}
	return &dto.StockReportDTO{
		GeneratedAt:   s.now(),
		Stats:         *stats,
		LowStock:      dto.NewProductStockList(low),
		OutOfStock:    dto.NewProductStockList(out),
		ExpiringSoon:  dto.NewProductStockList(expiring),
		Replenishment: s.replenishmentFrom(append(out, low...)),
	}, nil
}
