package mongodb

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jhoicas/farmacia-inventario/internal/domain"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
)

type productDoc struct {
	ID            string               `bson:"_id"`
	Name          string               `bson:"name"`
	StockQuantity int                  `bson:"stock_quantity"`
	MinStockLevel int                  `bson:"min_stock_level"`
	Price         primitive.Decimal128 `bson:"price"`
	ExpiryDate    *time.Time           `bson:"expiry_date,omitempty"`
	StockStatus   string               `bson:"stock_status"`
	LastRestocked *time.Time           `bson:"last_restocked,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

type movementDoc struct {
	ID              string    `bson:"_id"`
	ProductID       string    `bson:"product_id"`
	ProductName     string    `bson:"product_name"`
	Type            string    `bson:"type"`
	Quantity        int       `bson:"quantity"`
	ReasonCode      string    `bson:"reason_code"`
	Reason          string    `bson:"reason"`
	Reference       string    `bson:"reference,omitempty"`
	Notes           string    `bson:"notes,omitempty"`
	PerformedBy     string    `bson:"performed_by"`
	PerformedByName string    `bson:"performed_by_name"`
	PreviousStock   int       `bson:"previous_stock"`
	NewStock        int       `bson:"new_stock"`
	Timestamp       time.Time `bson:"timestamp"`
}

func toProductDoc(p *entity.Product) (productDoc, error) {
	price, err := primitive.ParseDecimal128(p.Price.String())
	if err != nil {
		return productDoc{}, fmt.Errorf("%w: precio %s", domain.ErrInvalidInput, p.Price)
	}
	return productDoc{
		ID:            p.ID,
		Name:          p.Name,
		StockQuantity: p.StockQuantity,
		MinStockLevel: p.MinStockLevel,
		Price:         price,
		ExpiryDate:    p.ExpiryDate,
		StockStatus:   p.StockStatus,
		LastRestocked: p.LastRestocked,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

func (d productDoc) toEntity() (*entity.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return nil, fmt.Errorf("precio de %s: %w", d.ID, err)
	}
	return &entity.Product{
		ID:            d.ID,
		Name:          d.Name,
		StockQuantity: d.StockQuantity,
		MinStockLevel: d.MinStockLevel,
		Price:         price,
		ExpiryDate:    utc(d.ExpiryDate),
		StockStatus:   d.StockStatus,
		LastRestocked: utc(d.LastRestocked),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}, nil
}

func toMovementDoc(m *entity.StockMovement) movementDoc {
	return movementDoc{
		ID:              m.ID,
		ProductID:       m.ProductID,
		ProductName:     m.ProductName,
		Type:            m.Type,
		Quantity:        m.Quantity,
		ReasonCode:      m.ReasonCode,
		Reason:          m.Reason,
		Reference:       m.Reference,
		Notes:           m.Notes,
		PerformedBy:     m.PerformedBy,
		PerformedByName: m.PerformedByName,
		PreviousStock:   m.PreviousStock,
		NewStock:        m.NewStock,
		Timestamp:       m.Timestamp,
	}
}

func (d movementDoc) toEntity() *entity.StockMovement {
	return &entity.StockMovement{
		ID:              d.ID,
		ProductID:       d.ProductID,
		ProductName:     d.ProductName,
		Type:            d.Type,
		Quantity:        d.Quantity,
		ReasonCode:      d.ReasonCode,
		Reason:          d.Reason,
		Reference:       d.Reference,
		Notes:           d.Notes,
		PerformedBy:     d.PerformedBy,
		PerformedByName: d.PerformedByName,
		PreviousStock:   d.PreviousStock,
		NewStock:        d.NewStock,
		Timestamp:       d.Timestamp.UTC(),
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// mapError traduce errores del driver a errores de dominio.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	var le mongo.ServerError
	if errors.As(err, &le) && (le.HasErrorLabel("TransientTransactionError") || le.HasErrorCode(112)) {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return err
}
