package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	"github.com/jhoicas/farmacia-inventario/internal/domain/repository"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/memory"
)

func seedProduct(t *testing.T, store *memory.Store, p entity.Product) {
	t.Helper()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	require.NoError(t, store.Products().Create(context.Background(), &p))
}

func daysFromNow(d int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, d)
	return &t
}

// catálogo: disponible, bajo, agotado, por vencer y vencido.
func catalog(t *testing.T) *memory.Store {
	store := memory.NewStore()
	seedProduct(t, store, entity.Product{ID: "ok", Name: "Acetaminofén", StockQuantity: 40, MinStockLevel: 10, Price: decimal.NewFromInt(200)})
	seedProduct(t, store, entity.Product{ID: "low", Name: "Amoxicilina", StockQuantity: 4, MinStockLevel: 10, Price: decimal.NewFromInt(1000)})
	seedProduct(t, store, entity.Product{ID: "edge", Name: "Buscapina", StockQuantity: 10, MinStockLevel: 10, Price: decimal.NewFromInt(50)})
	seedProduct(t, store, entity.Product{ID: "out", Name: "Loratadina", StockQuantity: 0, MinStockLevel: 5, Price: decimal.NewFromInt(300)})
	seedProduct(t, store, entity.Product{ID: "soon", Name: "Suero oral", StockQuantity: 30, MinStockLevel: 10, Price: decimal.NewFromInt(10), ExpiryDate: daysFromNow(7)})
	seedProduct(t, store, entity.Product{ID: "later", Name: "Vitamina C", StockQuantity: 30, MinStockLevel: 10, Price: decimal.NewFromInt(10), ExpiryDate: daysFromNow(20)})
	seedProduct(t, store, entity.Product{ID: "gone", Name: "Jarabe vencido", StockQuantity: 30, MinStockLevel: 10, Price: decimal.NewFromInt(10), ExpiryDate: daysFromNow(-2)})
	return store
}

func ids(products []*entity.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestQuery_Listados(t *testing.T) {
	store := catalog(t)
	q := inventory.NewQueryService(store, store.Products(), store.Movements(), inventory.QueryConfig{})
	ctx := context.Background()

	low, err := q.ListLowStock(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"low", "edge"}, ids(low), "el umbral es inclusivo y el agotado no cuenta como bajo")

	out, err := q.ListOutOfStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"out"}, ids(out))

	expiring, err := q.ListExpiringSoon(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"soon", "later"}, ids(expiring), "del más próximo al más lejano, sin vencidos")

	week, err := q.ListExpiringSoon(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"soon"}, ids(week))
}

func TestQuery_GetStats(t *testing.T) {
	store := catalog(t)
	q := inventory.NewQueryService(store, store.Products(), store.Movements(), inventory.QueryConfig{ExpiryWindowDays: 10})

	stats, err := q.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalProducts)
	assert.Equal(t, 40+4+10+0+30+30+30, stats.TotalItems)
	// 40*200 + 4*1000 + 10*50 + 0 + 3*(30*10)
	assert.True(t, decimal.NewFromInt(8000+4000+500+900).Equal(stats.TotalValue), stats.TotalValue.String())
	assert.Equal(t, 2, stats.LowStockCount)
	assert.Equal(t, 1, stats.OutOfStockCount)
	assert.Equal(t, 1, stats.ExpiringSoonCount)
	assert.Equal(t, 10, stats.ExpiryWindowDays)
}

func TestQuery_CatalogoVacio(t *testing.T) {
	store := memory.NewStore()
	q := inventory.NewQueryService(store, store.Products(), store.Movements(), inventory.QueryConfig{})

	stats, err := q.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalProducts)
	assert.True(t, stats.TotalValue.IsZero())

	low, err := q.ListLowStock(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, low)
	assert.Empty(t, low)
}

func TestQuery_ListReplenishment(t *testing.T) {
	store := catalog(t)
	q := inventory.NewQueryService(store, store.Products(), store.Movements(), inventory.QueryConfig{})

	list, err := q.ListReplenishment(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "out", list[0].ProductID)
	assert.Equal(t, 1, list[0].Priority)
	assert.Equal(t, 8, list[0].IdealStock, "ceil(5 * 1.5)")
	assert.Equal(t, 8, list[0].SuggestedOrderQty)
	assert.True(t, decimal.NewFromInt(2400).Equal(list[0].EstimatedOrderCost))

	assert.Equal(t, "low", list[1].ProductID)
	assert.Equal(t, 11, list[1].SuggestedOrderQty)
	assert.Equal(t, "edge", list[2].ProductID)
	assert.Equal(t, 5, list[2].SuggestedOrderQty)
	assert.Equal(t, 3, list[2].Priority)
}

func TestQuery_Reconcile(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "p", 10, 5)
	ledger := newLedger(store)
	q := inventory.NewQueryService(store, store.Products(), store.Movements(), inventory.QueryConfig{})
	ctx := context.Background()

	empty, err := q.Reconcile(ctx, "p")
	require.NoError(t, err)
	assert.True(t, empty.Consistent)
	assert.Nil(t, empty.LedgerStock)

	for _, in := range []inventory.ApplyMovementInput{
		{ProductID: "p", Type: entity.MovementTypeOut, Quantity: 3},
		{ProductID: "p", Type: entity.MovementTypeIn, Quantity: 8},
		{ProductID: "p", Type: entity.MovementTypeAdjustment, Quantity: 12},
	} {
		_, err := ledger.ApplyMovement(actorCtx(), in)
		require.NoError(t, err)
	}

	report, err := q.Reconcile(ctx, "p")
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 3, report.MovementCount)
	require.NotNil(t, report.LedgerStock)
	assert.Equal(t, 12, *report.LedgerStock)
	assert.Empty(t, report.Breaks)

	_, err = q.Reconcile(ctx, "nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_ReconcileDetectaQuiebres(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "p", 3, 5)
	ctx := context.Background()
	base := time.Now().UTC()
	movs := store.Movements()

	// cadena rota: 10 -> 7, luego un movimiento que parte de 9 y un nuevo stock mal calculado.
	for i, m := range []entity.StockMovement{
		{ID: "m1", ProductID: "p", Type: entity.MovementTypeOut, Quantity: 3, PreviousStock: 10, NewStock: 7},
		{ID: "m2", ProductID: "p", Type: entity.MovementTypeOut, Quantity: 2, PreviousStock: 9, NewStock: 7},
		{ID: "m3", ProductID: "p", Type: entity.MovementTypeIn, Quantity: 1, PreviousStock: 7, NewStock: 8},
	} {
		m.Timestamp = base.Add(time.Duration(i) * time.Millisecond)
		_, err := movs.Append(ctx, &m)
		require.NoError(t, err)
	}

	q := inventory.NewQueryService(store, store.Products(), movs, inventory.QueryConfig{})
	report, err := q.Reconcile(ctx, "p")
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, []dto.ReconciliationBreakDTO{
		{MovementID: "m2", Kind: dto.BreakPreviousStock, Expected: 7, Recorded: 9},
		{Kind: dto.BreakCurrentStock, Expected: 8, Recorded: 3},
	}, report.Breaks)
	require.NotNil(t, report.LedgerStock)
	assert.Equal(t, 8, *report.LedgerStock)

	// un nuevo stock que no resulta de la cantidad también se reporta
	_, err = movs.Append(ctx, &entity.StockMovement{
		ID: "m4", ProductID: "p", Type: entity.MovementTypeIn, Quantity: 1,
		PreviousStock: 8, NewStock: 20, Timestamp: base.Add(time.Second),
	})
	require.NoError(t, err)
	report, err = q.Reconcile(ctx, "p")
	require.NoError(t, err)
	assert.Contains(t, report.Breaks, dto.ReconciliationBreakDTO{MovementID: "m4", Kind: dto.BreakNewStock, Expected: 9, Recorded: 20})
}

// writeDuringRead lanza una escritura desde otra goroutine justo antes de que la
// conciliación lea el kardex (una sola vez).
type writeDuringRead struct {
	inventory.TxRunner
	write func()
	once  sync.Once
}

func (w *writeDuringRead) Run(ctx context.Context, fn func(
	ctx context.Context,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
) error) error {
	return w.TxRunner.Run(ctx, func(ctx context.Context, products repository.ProductRepository, movements repository.StockMovementRepository) error {
		return fn(ctx, products, &hookedMovements{StockMovementRepository: movements, before: func() {
			w.once.Do(func() {
				started := make(chan struct{})
				go func() {
					close(started)
					w.write()
				}()
				<-started
				time.Sleep(20 * time.Millisecond)
			})
		}})
	})
}

type hookedMovements struct {
	repository.StockMovementRepository
	before func()
}

func (h *hookedMovements) ListByProductAsc(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	h.before()
	return h.StockMovementRepository.ListByProductAsc(ctx, productID)
}

func TestQuery_ReconcileConEscrituraConcurrente(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "p", 10, 5)
	ledger := newLedger(store)
	ctx := context.Background()
	_, err := ledger.ApplyMovement(actorCtx(), inventory.ApplyMovementInput{ProductID: "p", Type: entity.MovementTypeOut, Quantity: 5})
	require.NoError(t, err)

	written := make(chan struct{})
	runner := &writeDuringRead{TxRunner: store, write: func() {
		defer close(written)
		_, err := ledger.ApplyMovement(actorCtx(), inventory.ApplyMovementInput{ProductID: "p", Type: entity.MovementTypeIn, Quantity: 1})
		assert.NoError(t, err)
	}}
	q := inventory.NewQueryService(runner, store.Products(), store.Movements(), inventory.QueryConfig{})

	report, err := q.Reconcile(ctx, "p")
	require.NoError(t, err)
	assert.True(t, report.Consistent, "quiebres: %+v", report.Breaks)
	assert.Equal(t, 5, report.CurrentStock)
	assert.Equal(t, 1, report.MovementCount, "la escritura espera a que termine la conciliación")

	<-written
	assert.Equal(t, 6, stockOf(t, store, "p"))

	report, err = q.Reconcile(ctx, "p")
	require.NoError(t, err)
	assert.True(t, report.Consistent, "quiebres: %+v", report.Breaks)
	assert.Equal(t, 6, report.CurrentStock)
	assert.Equal(t, 2, report.MovementCount)
}

func TestQuery_StockReport(t *testing.T) {
	store := catalog(t)
	q := inventory.NewQueryService(store, store.Products(), store.Movements(), inventory.QueryConfig{ExpiryWindowDays: 30})

	report, err := q.StockReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, report.Stats.TotalProducts)
	assert.Len(t, report.LowStock, 2)
	assert.Len(t, report.OutOfStock, 1)
	assert.Len(t, report.ExpiringSoon, 2)
	require.Len(t, report.Replenishment, 3)
	assert.Equal(t, "out", report.Replenishment[0].ProductID)
	assert.False(t, report.GeneratedAt.IsZero())
}
