package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	"github.com/jhoicas/farmacia-inventario/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, product_id, product_name, type, quantity, reason_code, reason, reference, notes,
	performed_by, performed_by_name, previous_stock, new_stock, "timestamp"`

// StockMovementRepo kardex sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append anexa un movimiento y devuelve su ID.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) (string, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.ProductName, m.Type, m.Quantity, m.ReasonCode, m.Reason,
		nullIfEmpty(m.Reference), nullIfEmpty(m.Notes),
		m.PerformedBy, m.PerformedByName, m.PreviousStock, m.NewStock, m.Timestamp,
	)
	if err != nil {
		return "", mapError("append stock movement", err)
	}
	return m.ID, nil
}

// List movimientos por fecha descendente; productID vacío = todos.
func (r *StockMovementRepo) List(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	args := []any{}
	if productID != "" {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
	}
	query += fmt.Sprintf(` ORDER BY "timestamp" DESC, seq DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)
	return r.query(ctx, query, args...)
}

// ListByProductAsc kardex completo del producto en orden cronológico.
func (r *StockMovementRepo) ListByProductAsc(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	return r.query(ctx, `SELECT `+movementColumns+` FROM stock_movements
		WHERE product_id = $1 ORDER BY "timestamp" ASC, seq ASC`, productID)
}

func (r *StockMovementRepo) query(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list stock movements", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m         entity.StockMovement
		reference *string
		notes     *string
	)
	err := row.Scan(
		&m.ID, &m.ProductID, &m.ProductName, &m.Type, &m.Quantity, &m.ReasonCode, &m.Reason,
		&reference, &notes, &m.PerformedBy, &m.PerformedByName, &m.PreviousStock, &m.NewStock, &m.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if reference != nil {
		m.Reference = *reference
	}
	if notes != nil {
		m.Notes = *notes
	}
	return &m, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
