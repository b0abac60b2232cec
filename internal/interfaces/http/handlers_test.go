package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/farmacia-inventario/internal/interfaces/http"
)

type fakeRenderer struct{}

func (fakeRenderer) Generate(*dto.StockReportDTO) ([]byte, error) { return []byte("%PDF-1.3 fake"), nil }

type testEnv struct {
	app   *fiber.App
	store *memory.Store
}

// newTestEnv arma el router completo sobre el almacén en memoria con tres productos:
// ibu (stock 12), amox (stock 4) y lora (stock 0, vence en 10 días).
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	now := time.Now().UTC()
	expiry := now.AddDate(0, 0, 10)
	for _, p := range []*entity.Product{
		{ID: "ibu", Name: "Ibuprofeno 400mg", StockQuantity: 12, MinStockLevel: 10, Price: decimal.NewFromInt(500), StockStatus: entity.StockStatusInStock, CreatedAt: now, UpdatedAt: now},
		{ID: "amox", Name: "Amoxicilina 500mg", StockQuantity: 4, MinStockLevel: 10, Price: decimal.NewFromInt(1200), StockStatus: entity.StockStatusLowStock, CreatedAt: now, UpdatedAt: now},
		{ID: "lora", Name: "Loratadina 10mg", StockQuantity: 0, MinStockLevel: 5, Price: decimal.NewFromInt(300), ExpiryDate: &expiry, StockStatus: entity.StockStatusOutOfStock, CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, store.Products().Create(context.Background(), p))
	}

	log := zerolog.Nop()
	ledger := inventory.NewLedger(store, store.Movements(), inventory.LedgerConfig{}, log)
	query := inventory.NewQueryService(store, store.Products(), store.Movements(), inventory.QueryConfig{})
	fulfillment := inventory.NewFulfillment(ledger, store.Products(), nil, inventory.FulfillmentConfig{}, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:      ledger,
		Query:       query,
		Fulfillment: fulfillment,
		ReportPDF:   fakeRenderer{},
		JWTSecret:   testJWTSecret,
	})
	return &testEnv{app: app, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "-" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func TestApplyMovement_SalidaRegistraYAtribuye(t *testing.T) {
	env := newTestEnv(t)
	resp, raw := env.do(t, http.MethodPost, "/api/inventory/movements", "bodeguero", dto.ApplyMovementRequest{
		ProductID: "ibu", Type: "out", Quantity: 3, Reason: "venta mostrador",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var mov dto.MovementResponse
	require.NoError(t, json.Unmarshal(raw, &mov))
	assert.Equal(t, 12, mov.PreviousStock)
	assert.Equal(t, 9, mov.NewStock)
	assert.Equal(t, testUserID, mov.PerformedBy)
	assert.Equal(t, testUserName, mov.PerformedByName)
	assert.Equal(t, entity.ReasonManual, mov.ReasonCode)

	p, err := env.store.Products().GetByID(context.Background(), "ibu")
	require.NoError(t, err)
	assert.Equal(t, 9, p.StockQuantity)
	assert.Equal(t, entity.StockStatusLowStock, p.StockStatus)
}

func TestApplyMovement_Errores(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		role   string
		body   any
		status int
	}{
		{"sin token", "-", dto.ApplyMovementRequest{ProductID: "ibu", Type: "in", Quantity: 1}, http.StatusUnauthorized},
		{"tipo inválido", "bodeguero", dto.ApplyMovementRequest{ProductID: "ibu", Type: "robo", Quantity: 1}, http.StatusBadRequest},
		{"cantidad cero", "bodeguero", dto.ApplyMovementRequest{ProductID: "ibu", Type: "in", Quantity: 0}, http.StatusBadRequest},
		{"producto inexistente", "bodeguero", dto.ApplyMovementRequest{ProductID: "nada", Type: "in", Quantity: 1}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := env.do(t, http.MethodPost, "/api/inventory/movements", tc.role, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(raw))
		})
	}
}

func TestListMovements(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		resp, _ := env.do(t, http.MethodPost, "/api/inventory/movements", "bodeguero", dto.ApplyMovementRequest{ProductID: "amox", Type: "in", Quantity: 1})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, raw := env.do(t, http.MethodGet, "/api/inventory/movements?product_id=amox&limit=2", "bodeguero", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.MovementListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Equal(t, 2, list.Total)
	assert.Equal(t, 7, list.Items[0].NewStock, "el más reciente primero")
	assert.Equal(t, 6, list.Items[1].NewStock)

	resp, _ = env.do(t, http.MethodGet, "/api/inventory/movements?limit=abc", "bodeguero", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConsultas(t *testing.T) {
	env := newTestEnv(t)

	var low []dto.ProductStockResponse
	resp, raw := env.do(t, http.MethodGet, "/api/inventory/low-stock", "bodeguero", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &low))
	require.Len(t, low, 1)
	assert.Equal(t, "amox", low[0].ID)

	var out []dto.ProductStockResponse
	_, raw = env.do(t, http.MethodGet, "/api/inventory/out-of-stock", "bodeguero", nil)
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "lora", out[0].ID)

	var expiring []dto.ProductStockResponse
	_, raw = env.do(t, http.MethodGet, "/api/inventory/expiring?days=15", "bodeguero", nil)
	require.NoError(t, json.Unmarshal(raw, &expiring))
	assert.Len(t, expiring, 1)

	_, raw = env.do(t, http.MethodGet, "/api/inventory/expiring?days=5", "bodeguero", nil)
	require.NoError(t, json.Unmarshal(raw, &expiring))
	assert.Empty(t, expiring)

	resp, _ = env.do(t, http.MethodGet, "/api/inventory/expiring?days=-1", "bodeguero", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var stats dto.InventoryStatsDTO
	_, raw = env.do(t, http.MethodGet, "/api/inventory/stats", "bodeguero", nil)
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 16, stats.TotalItems)
	assert.True(t, decimal.NewFromInt(12*500+4*1200).Equal(stats.TotalValue))
	assert.Equal(t, 1, stats.LowStockCount)
	assert.Equal(t, 1, stats.OutOfStockCount)
	assert.Equal(t, 1, stats.ExpiringSoonCount)
}

func TestReplenishmentYReporte(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := env.do(t, http.MethodGet, "/api/inventory/replenishment-list", "bodeguero", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Total          int                              `json:"total"`
		Replenishments []dto.ReplenishmentSuggestionDTO `json:"replenishments"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, 2, body.Total)
	assert.Equal(t, "lora", body.Replenishments[0].ProductID)

	resp, raw = env.do(t, http.MethodGet, "/api/inventory/report.pdf", "bodeguero", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp, _ = env.do(t, http.MethodGet, "/api/inventory/report", "bodeguero", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReconcile_PorRol(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodPost, "/api/inventory/movements", "bodeguero", dto.ApplyMovementRequest{ProductID: "ibu", Type: "out", Quantity: 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/inventory/products/ibu/reconciliation", "bodeguero", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := env.do(t, http.MethodGet, "/api/inventory/products/ibu/reconciliation", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report dto.ReconciliationReportDTO
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.True(t, report.Consistent)
	assert.Equal(t, 1, report.MovementCount)

	resp, _ = env.do(t, http.MethodGet, "/api/inventory/products/nada/reconciliation", "admin", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFulfillment_ValidateYTransiciones(t *testing.T) {
	env := newTestEnv(t)
	order := dto.OrderDTO{
		ID: "o-1",
		Products: []dto.OrderItemDTO{
			{ProductID: "ibu", Name: "Ibuprofeno 400mg", Quantity: 2, Price: decimal.NewFromInt(500)},
			{ProductID: "amox", Name: "Amoxicilina 500mg", Quantity: 6, Price: decimal.NewFromInt(1200)},
		},
		DeliveryStatus: entity.DeliveryStatusShipped,
		Status:         entity.OrderStatusActive,
	}

	resp, raw := env.do(t, http.MethodPost, "/api/fulfillment/validate", "bodeguero", order)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var validation dto.StockValidationDTO
	require.NoError(t, json.Unmarshal(raw, &validation))
	assert.False(t, validation.Valid)
	assert.Len(t, validation.Errors, 1)

	resp, raw = env.do(t, http.MethodPost, "/api/fulfillment/transitions", "bodeguero", dto.OrderTransitionRequest{
		Transition: "delivered", PreviousDeliveryStatus: entity.DeliveryStatusShipped, Order: order,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	ibu, _ := env.store.Products().GetByID(context.Background(), "ibu")
	amox, _ := env.store.Products().GetByID(context.Background(), "amox")
	assert.Equal(t, 10, ibu.StockQuantity)
	assert.Equal(t, 0, amox.StockQuantity, "la salida mayor al stock recorta en cero")

	resp, _ = env.do(t, http.MethodPost, "/api/fulfillment/transitions", "bodeguero", dto.OrderTransitionRequest{
		Transition: "cancelled", PreviousDeliveryStatus: entity.DeliveryStatusDelivered, Order: order,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ibu, _ = env.store.Products().GetByID(context.Background(), "ibu")
	assert.Equal(t, 12, ibu.StockQuantity)
}

func TestFulfillment_FallaParcial207(t *testing.T) {
	env := newTestEnv(t)
	order := dto.OrderDTO{
		ID: "o-2",
		Products: []dto.OrderItemDTO{
			{ProductID: "ibu", Name: "Ibuprofeno 400mg", Quantity: 1},
			{ProductID: "fantasma", Name: "Producto borrado", Quantity: 1},
		},
	}

	resp, raw := env.do(t, http.MethodPost, "/api/fulfillment/transitions", "bodeguero", dto.OrderTransitionRequest{
		Transition: "delivered", PreviousDeliveryStatus: entity.DeliveryStatusShipped, Order: order,
	})
	require.Equal(t, http.StatusMultiStatus, resp.StatusCode)

	var body dto.PartialFailureResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "PARTIAL_FAILURE", body.Code)
	require.Len(t, body.Failures, 1)
	assert.Equal(t, "fantasma", body.Failures[0].ProductID)

	ibu, _ := env.store.Products().GetByID(context.Background(), "ibu")
	assert.Equal(t, 11, ibu.StockQuantity, "la línea válida queda aplicada")
}

func TestFulfillment_TransicionDesconocida(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodPost, "/api/fulfillment/transitions", "bodeguero", dto.OrderTransitionRequest{
		Transition: "lost", Order: dto.OrderDTO{ID: "o-3"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
