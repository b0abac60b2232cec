// Package pdf genera el reporte imprimible de inventario con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre de la farmacia  │  Fecha de generación      │
//	│  RESUMEN: productos / unidades / valor / alertas            │
//	│  AGOTADOS, STOCK BAJO, POR VENCER: tablas de productos      │
//	│  REPOSICIÓN: cantidad sugerida y costo estimado             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 110, Blue: 90}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// StockReportGenerator arma el PDF del reporte de inventario.
type StockReportGenerator struct {
	title string
}

// NewStockReportGenerator construye el generador; title encabeza cada reporte.
func NewStockReportGenerator(title string) *StockReportGenerator {
	return &StockReportGenerator{title: title}
}

// Generate devuelve los bytes del PDF.
func (g *StockReportGenerator) Generate(report *dto.StockReportDTO) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de inventario", true).
		WithAuthor(g.title, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(g.headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report.Stats))

	m.AddRows(productSection("AGOTADOS", report.OutOfStock, colorAlert, false)...)
	m.AddRows(productSection("STOCK BAJO", report.LowStock, colorPrimary, false)...)
	m.AddRows(productSection(
		fmt.Sprintf("POR VENCER (%d DÍAS)", report.Stats.ExpiryWindowDays),
		report.ExpiringSoon, colorPrimary, true,
	)...)
	m.AddRows(replenishmentSection(report.Replenishment)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *StockReportGenerator) headerRow(report *dto.StockReportDTO) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(g.title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Reporte de inventario", props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

func summaryRow(s dto.InventoryStatsDTO) core.Row {
	cell := func(label, value string, color *props.Color) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Center, Color: color, Top: 6}),
		)
	}
	return row.New(16).Add(
		cell("Productos", strconv.Itoa(s.TotalProducts), colorPrimary),
		cell("Unidades", formatMoney(strconv.Itoa(s.TotalItems)), colorPrimary),
		cell("Valor", "$"+formatMoney(s.TotalValue.StringFixed(0)), colorPrimary),
		cell("Stock bajo", strconv.Itoa(s.LowStockCount), colorPrimary),
		cell("Agotados", strconv.Itoa(s.OutOfStockCount), colorAlert),
		cell("Por vencer", strconv.Itoa(s.ExpiringSoonCount), colorPrimary),
	)
}

func sectionTitle(title string, color *props.Color) core.Row {
	return row.New(9).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: color, Top: 3}),
	))
}

func headerCell(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func cell(value string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(value, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
}

// productSection tabla de productos; withExpiry agrega la columna de vencimiento.
func productSection(title string, products []dto.ProductStockResponse, color *props.Color, withExpiry bool) []core.Row {
	rows := []core.Row{sectionTitle(fmt.Sprintf("%s (%d)", title, len(products)), color)}
	if len(products) == 0 {
		return append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Sin productos", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}
	nameSize := 6
	if withExpiry {
		nameSize = 4
	}
	header := []core.Col{
		headerCell("Producto", nameSize, align.Left),
		headerCell("Stock", 2, align.Right),
		headerCell("Mínimo", 2, align.Right),
		headerCell("Precio", 2, align.Right),
	}
	if withExpiry {
		header = append(header, headerCell("Vence", 2, align.Center))
	}
	rows = append(rows, row.New(6).Add(header...))

	for _, p := range products {
		cols := []core.Col{
			cell(p.Name, nameSize, align.Left),
			cell(strconv.Itoa(p.StockQuantity), 2, align.Right),
			cell(strconv.Itoa(p.MinStockLevel), 2, align.Right),
			cell("$"+formatMoney(p.Price.StringFixed(0)), 2, align.Right),
		}
		if withExpiry {
			expiry := "-"
			if p.ExpiryDate != nil {
				expiry = p.ExpiryDate.Format("02/01/2006")
			}
			cols = append(cols, cell(expiry, 2, align.Center))
		}
		rows = append(rows, row.New(6).Add(cols...))
	}
	return rows
}

func replenishmentSection(items []dto.ReplenishmentSuggestionDTO) []core.Row {
	rows := []core.Row{sectionTitle(fmt.Sprintf("REPOSICIÓN SUGERIDA (%d)", len(items)), colorPrimary)}
	if len(items) == 0 {
		return append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Sin sugerencias", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}
	rows = append(rows, row.New(6).Add(
		headerCell("#", 1, align.Center),
		headerCell("Producto", 5, align.Left),
		headerCell("Stock", 2, align.Right),
		headerCell("Pedir", 2, align.Right),
		headerCell("Costo est.", 2, align.Right),
	))
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.EstimatedOrderCost)
		rows = append(rows, row.New(6).Add(
			cell(strconv.Itoa(it.Priority), 1, align.Center),
			cell(it.ProductName, 5, align.Left),
			cell(strconv.Itoa(it.CurrentStock), 2, align.Right),
			cell(strconv.Itoa(it.SuggestedOrderQty), 2, align.Right),
			cell("$"+formatMoney(it.EstimatedOrderCost.StringFixed(0)), 2, align.Right),
		))
	}
	rows = append(rows, row.New(8).Add(
		col.New(8),
		col.New(2).Add(text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2})),
		col.New(2).Add(text.New("$"+formatMoney(total.StringFixed(0)), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 2, Right: 1,
		})),
	))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
