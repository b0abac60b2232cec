package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/farmacia-inventario/internal/domain"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	domaininv "github.com/jhoicas/farmacia-inventario/internal/domain/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain/repository"
)

var tracer = otel.Tracer("github.com/jhoicas/farmacia-inventario/internal/application/inventory")

const (
	defaultMovementLimit = 50
	maxMovementLimit     = 500
)

// LedgerConfig parámetros del kardex.
type LedgerConfig struct {
	DefaultMinStock int           // umbral cuando el producto no define MinStockLevel
	MaxRetries      int           // intentos ante conflicto de escritura concurrente
	RetryBackoff    time.Duration // espera base entre intentos (crece linealmente)
}

func (c LedgerConfig) withDefaults() LedgerConfig {
	if c.DefaultMinStock <= 0 {
		c.DefaultMinStock = domaininv.DefaultMinStockLevel
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 10 * time.Millisecond
	}
	return c
}

// Ledger es la única vía de escritura del stock: cada cambio actualiza el producto y anexa
// un StockMovement en la misma transacción, con el producto bloqueado durante la lectura.
type Ledger struct {
	txRunner  TxRunner
	movements repository.StockMovementRepository
	cfg       LedgerConfig
	log       zerolog.Logger
	now       func() time.Time
}

// NewLedger construye el kardex. movements se usa para lecturas fuera de transacción.
func NewLedger(txRunner TxRunner, movements repository.StockMovementRepository, cfg LedgerConfig, log zerolog.Logger) *Ledger {
	return &Ledger{
		txRunner:  txRunner,
		movements: movements,
		cfg:       cfg.withDefaults(),
		log:       log.With().Str("component", "ledger").Logger(),
		now:       time.Now,
	}
}

// ApplyMovementInput entrada para registrar un movimiento.
// Para adjustment, Quantity es el nuevo stock absoluto; para el resto es una cantidad positiva.
type ApplyMovementInput struct {
	ProductID  string
	Quantity   int
	Type       string
	ReasonCode string
	Reason     string
	Reference  string
	Notes      string
	// RejectShortage hace fallar las salidas con domain.ErrInsufficientStock cuando el stock
	// no alcanza, en lugar de recortar en cero.
	RejectShortage bool
}

func (in *ApplyMovementInput) validate() error {
	if in.ProductID == "" {
		return fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if !entity.IsValidMovementType(in.Type) {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	if in.Type == entity.MovementTypeAdjustment {
		if in.Quantity < 0 {
			return fmt.Errorf("%w: el ajuste no puede dejar stock negativo", domain.ErrInvalidInput)
		}
	} else if in.Quantity <= 0 {
		return fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	if in.ReasonCode == "" {
		in.ReasonCode = defaultReasonCode(in.Type)
	}
	if !entity.IsValidReasonCode(in.ReasonCode) {
		return fmt.Errorf("%w: código de motivo %q", domain.ErrInvalidInput, in.ReasonCode)
	}
	if in.Reason == "" {
		in.Reason = in.ReasonCode
	}
	return nil
}

func defaultReasonCode(movementType string) string {
	switch movementType {
	case entity.MovementTypeIn:
		return entity.ReasonRestock
	case entity.MovementTypeAdjustment:
		return entity.ReasonCountCorrection
	case entity.MovementTypeExpired:
		return entity.ReasonExpiry
	case entity.MovementTypeDamaged:
		return entity.ReasonDamage
	case entity.MovementTypeReturned:
		return entity.ReasonCustomerReturn
	}
	return entity.ReasonManual
}

// ApplyMovement registra un movimiento de stock atribuido al actor del contexto.
// Si otra escritura concurrente gana la carrera sobre el mismo producto, reintenta
// hasta MaxRetries veces antes de devolver domain.ErrConflict.
func (l *Ledger) ApplyMovement(ctx context.Context, in ApplyMovementInput) (*entity.StockMovement, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ledger.apply_movement", trace.WithAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.String("movement.type", in.Type),
		attribute.Int("movement.quantity", in.Quantity),
		attribute.String("movement.reason_code", in.ReasonCode),
	))
	defer span.End()

	var (
		mov *entity.StockMovement
		err error
	)
	for attempt := 1; ; attempt++ {
		mov, err = l.applyOnce(ctx, in, actor)
		if !errors.Is(err, domain.ErrConflict) || attempt >= l.cfg.MaxRetries {
			break
		}
		l.log.Debug().Str("product_id", in.ProductID).Int("attempt", attempt).Msg("conflicto de stock, reintentando")
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(l.cfg.RetryBackoff * time.Duration(attempt)):
			continue
		}
		break
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("stock.previous", mov.PreviousStock),
		attribute.Int("stock.new", mov.NewStock),
	)
	l.log.Debug().
		Str("product_id", mov.ProductID).
		Str("type", mov.Type).
		Int("previous_stock", mov.PreviousStock).
		Int("new_stock", mov.NewStock).
		Msg("movimiento registrado")
	return mov, nil
}

func (l *Ledger) applyOnce(ctx context.Context, in ApplyMovementInput, actor Actor) (*entity.StockMovement, error) {
	var mov *entity.StockMovement
	err := l.txRunner.Run(ctx, func(
		ctx context.Context,
		products repository.ProductRepository,
		movements repository.StockMovementRepository,
	) error {
		product, err := products.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		previous := product.StockQuantity
		if in.RejectShortage && domaininv.IsReduction(in.Type) && previous < in.Quantity {
			return fmt.Errorf("%w: %s tiene %d, se requieren %d",
				domain.ErrInsufficientStock, product.Name, previous, in.Quantity)
		}
		newStock := domaininv.ComputeNewStock(previous, in.Type, in.Quantity)
		minStock := domaininv.EffectiveMinStock(product.MinStockLevel, l.cfg.DefaultMinStock)
		now := l.nextTimestamp(product)

		product.StockQuantity = newStock
		product.StockStatus = domaininv.StockStatusFor(newStock, minStock)
		product.UpdatedAt = now
		if in.Type == entity.MovementTypeIn {
			product.LastRestocked = &now
		}
		if err := products.UpdateStock(ctx, product, previous); err != nil {
			return err
		}

		m := &entity.StockMovement{
			ID:              uuid.New().String(),
			ProductID:       product.ID,
			ProductName:     product.Name,
			Type:            in.Type,
			Quantity:        in.Quantity,
			ReasonCode:      in.ReasonCode,
			Reason:          in.Reason,
			Reference:       in.Reference,
			Notes:           in.Notes,
			PerformedBy:     actor.ID,
			PerformedByName: actor.Name,
			PreviousStock:   previous,
			NewStock:        newStock,
			Timestamp:       now,
		}
		if _, err := movements.Append(ctx, m); err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// nextTimestamp devuelve la hora del movimiento con precisión de milisegundos y estrictamente
// posterior a la última escritura del producto, para que el orden cronológico del kardex
// de un producto no tenga empates.
func (l *Ledger) nextTimestamp(product *entity.Product) time.Time {
	now := l.now().UTC().Truncate(time.Millisecond)
	last := product.UpdatedAt.UTC().Truncate(time.Millisecond)
	if !now.After(last) {
		now = last.Add(time.Millisecond)
	}
	return now
}

// GetMovements devuelve movimientos por fecha descendente, opcionalmente de un solo producto.
func (l *Ledger) GetMovements(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}
	list, err := l.movements.List(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("listar movimientos: %w", err)
	}
	return list, nil
}
