package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	domaininv "github.com/jhoicas/farmacia-inventario/internal/domain/inventory"
)

// seedActor autor de los movimientos de carga inicial.
var seedActor = inventory.Actor{ID: "seed", Name: "Carga inicial"}

// CatalogRow fila del catálogo.
type CatalogRow struct {
	ID         string
	Name       string
	Stock      int
	MinStock   int
	Price      decimal.Decimal
	ExpiryDate *time.Time
}

// ReadCatalog parsea el CSV. La primera fila es el encabezado.
func ReadCatalog(r io.Reader, latin1 bool) ([]CatalogRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv vacío")
	}

	rows := make([]CatalogRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) < 5 {
			return nil, fmt.Errorf("línea %d: se esperaban al menos 5 columnas, hay %d", line, len(rec))
		}
		row := CatalogRow{ID: strings.TrimSpace(rec[0]), Name: strings.TrimSpace(rec[1])}
		if row.ID == "" || row.Name == "" {
			return nil, fmt.Errorf("línea %d: id y nombre son obligatorios", line)
		}
		if row.Stock, err = strconv.Atoi(strings.TrimSpace(rec[2])); err != nil || row.Stock < 0 {
			return nil, fmt.Errorf("línea %d: stock inválido %q", line, rec[2])
		}
		if row.MinStock, err = strconv.Atoi(strings.TrimSpace(rec[3])); err != nil || row.MinStock < 0 {
			return nil, fmt.Errorf("línea %d: stock mínimo inválido %q", line, rec[3])
		}
		if row.Price, err = decimal.NewFromString(strings.TrimSpace(rec[4])); err != nil || row.Price.IsNegative() {
			return nil, fmt.Errorf("línea %d: precio inválido %q", line, rec[4])
		}
		if len(rec) > 5 && strings.TrimSpace(rec[5]) != "" {
			exp, err := time.Parse("2006-01-02", strings.TrimSpace(rec[5]))
			if err != nil {
				return nil, fmt.Errorf("línea %d: vencimiento inválido %q", line, rec[5])
			}
			row.ExpiryDate = &exp
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ProductCreator alta de productos (lo cumple cualquier ProductRepository).
type ProductCreator interface {
	Create(ctx context.Context, p *entity.Product) error
}

// Load crea cada producto con stock cero y registra su stock inicial como entrada del kardex,
// de modo que la conciliación parta de un historial completo. Los productos que ya existen
// se omiten. Devuelve cuántos se crearon.
func Load(ctx context.Context, products ProductCreator, ledger inventory.MovementApplier, rows []CatalogRow) (int, error) {
	ctx = inventory.WithActor(ctx, seedActor)
	created := 0
	for _, row := range rows {
		now := time.Now().UTC()
		p := &entity.Product{
			ID:            row.ID,
			Name:          row.Name,
			StockQuantity: 0,
			MinStockLevel: row.MinStock,
			StockStatus:   domaininv.StockStatusFor(0, row.MinStock),
			Price:         row.Price,
			ExpiryDate:    row.ExpiryDate,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := products.Create(ctx, p); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return created, fmt.Errorf("crear %s: %w", row.ID, err)
		}
		created++
		if row.Stock == 0 {
			continue
		}
		if _, err := ledger.ApplyMovement(ctx, inventory.ApplyMovementInput{
			ProductID:  row.ID,
			Type:       entity.MovementTypeIn,
			Quantity:   row.Stock,
			ReasonCode: entity.ReasonRestock,
			Reason:     "Carga inicial de inventario",
		}); err != nil {
			return created, fmt.Errorf("stock inicial de %s: %w", row.ID, err)
		}
	}
	return created, nil
}
