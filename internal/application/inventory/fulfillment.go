package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/domain"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	domaininv "github.com/jhoicas/farmacia-inventario/internal/domain/inventory"
)

// Transiciones de pedido ante las que reacciona el inventario.
const (
	TransitionDelivered = "delivered"
	TransitionCancelled = "cancelled"
	TransitionReturned  = "returned"
)

// MovementApplier puerto hacia el kardex (lo implementa *Ledger).
type MovementApplier interface {
	ApplyMovement(ctx context.Context, in ApplyMovementInput) (*entity.StockMovement, error)
}

// FulfillmentConfig parámetros de la integración con pedidos.
type FulfillmentConfig struct {
	DefaultMinStock int
	// StrictDelivery hace que la entrega falle por ítem cuando no hay stock suficiente,
	// dentro de la misma operación atómica del producto, en lugar de recortar en cero.
	StrictDelivery bool
}

// Fulfillment conecta el ciclo de vida del pedido con el kardex: descuenta al entregar,
// repone al cancelar o devolver y valida stock antes de entregar.
type Fulfillment struct {
	ledger   MovementApplier
	products ProductReader
	notifier Notifier
	cfg      FulfillmentConfig
	log      zerolog.Logger
}

// NewFulfillment construye la integración. notifier puede ser nil (sin alertas).
func NewFulfillment(ledger MovementApplier, products ProductReader, notifier Notifier, cfg FulfillmentConfig, log zerolog.Logger) *Fulfillment {
	if cfg.DefaultMinStock <= 0 {
		cfg.DefaultMinStock = domaininv.DefaultMinStockLevel
	}
	return &Fulfillment{
		ledger:   ledger,
		products: products,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Str("component", "fulfillment").Logger(),
	}
}

// OrderTransition cambio de estado de un pedido informado por el módulo de pedidos.
type OrderTransition struct {
	Order                  entity.Order
	Transition             string // delivered | cancelled | returned
	PreviousDeliveryStatus string
}

// HandleTransition despacha la transición al caso de uso que corresponde.
// Cancelar o devolver solo repone stock si el pedido ya se había entregado (y por tanto descontado).
func (f *Fulfillment) HandleTransition(ctx context.Context, t OrderTransition) error {
	switch t.Transition {
	case TransitionDelivered:
		if t.PreviousDeliveryStatus == entity.DeliveryStatusDelivered {
			f.log.Info().Str("order_id", t.Order.ID).Msg("pedido ya entregado, no se descuenta de nuevo")
			return nil
		}
		return f.reduce(ctx, &t.Order, f.cfg.StrictDelivery)
	case TransitionCancelled, TransitionReturned:
		if t.PreviousDeliveryStatus != entity.DeliveryStatusDelivered {
			f.log.Info().Str("order_id", t.Order.ID).Str("transition", t.Transition).
				Msg("pedido sin entregar, no hay stock que reponer")
			return nil
		}
		order := t.Order
		if t.Transition == TransitionReturned {
			order.Status = entity.OrderStatusReturned
		} else if order.Status == "" {
			order.Status = entity.OrderStatusCancelled
		}
		return f.RestoreStockForOrder(ctx, &order)
	}
	return fmt.Errorf("%w: transición %q", domain.ErrInvalidInput, t.Transition)
}

// ReduceStockForOrder descuenta el stock de cada línea del pedido entregado.
// Cada línea es independiente: si alguna falla se siguen procesando las demás y al final se
// devuelve un *PartialFailureError; lo aplicado no se revierte. Después avisa al Notifier por
// cada producto tocado que quedó en o por debajo de su umbral.
func (f *Fulfillment) ReduceStockForOrder(ctx context.Context, order *entity.Order) error {
	return f.reduce(ctx, order, false)
}

func (f *Fulfillment) reduce(ctx context.Context, order *entity.Order, rejectShortage bool) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("%w: pedido sin ID", domain.ErrInvalidInput)
	}
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.ErrUnauthenticated
	}
	ctx, span := tracer.Start(ctx, "fulfillment.reduce_stock", trace.WithAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(order.Products)),
	))
	defer span.End()

	touched, failures := f.applyEach(ctx, order, func(item entity.OrderItem) ApplyMovementInput {
		return ApplyMovementInput{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			Type:           entity.MovementTypeOut,
			ReasonCode:     entity.ReasonOrderDelivered,
			Reason:         "Order delivered: #" + order.ID,
			Reference:      order.ID,
			Notes:          lineNotes(item),
			RejectShortage: rejectShortage,
		}
	})

	f.notifyLowStock(ctx, touched)
	return f.finish(span, "descontar stock", order, failures)
}

// RestoreStockForOrder repone el stock de un pedido cancelado o devuelto que ya había
// sido descontado. Misma política por lote que ReduceStockForOrder; no envía alertas.
func (f *Fulfillment) RestoreStockForOrder(ctx context.Context, order *entity.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("%w: pedido sin ID", domain.ErrInvalidInput)
	}
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.ErrUnauthenticated
	}
	ctx, span := tracer.Start(ctx, "fulfillment.restore_stock", trace.WithAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(order.Products)),
	))
	defer span.End()

	code := entity.ReasonOrderCancelled
	if order.Status == entity.OrderStatusReturned {
		code = entity.ReasonOrderReturned
	}
	_, failures := f.applyEach(ctx, order, func(item entity.OrderItem) ApplyMovementInput {
		return ApplyMovementInput{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Type:       entity.MovementTypeIn,
			ReasonCode: code,
			Reason:     "Order cancelled/returned: #" + order.ID,
			Reference:  order.ID,
			Notes:      lineNotes(item),
		}
	})
	return f.finish(span, "reponer stock", order, failures)
}

// applyEach aplica un movimiento por línea y devuelve los productos tocados con éxito
// (sin repetir, en orden de aparición) y las fallas.
func (f *Fulfillment) applyEach(
	ctx context.Context,
	order *entity.Order,
	build func(item entity.OrderItem) ApplyMovementInput,
) ([]string, []ItemFailure) {
	var (
		touched  []string
		seen     = make(map[string]bool, len(order.Products))
		failures []ItemFailure
	)
	for _, item := range order.Products {
		if _, err := f.ledger.ApplyMovement(ctx, build(item)); err != nil {
			f.log.Warn().Err(err).
				Str("order_id", order.ID).
				Str("product_id", item.ProductID).
				Msg("no se pudo aplicar la línea del pedido")
			failures = append(failures, ItemFailure{
				ProductID: item.ProductID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				Err:       err,
			})
			continue
		}
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			touched = append(touched, item.ProductID)
		}
	}
	return touched, failures
}

func (f *Fulfillment) finish(span trace.Span, operation string, order *entity.Order, failures []ItemFailure) error {
	if len(failures) == 0 {
		return nil
	}
	err := &PartialFailureError{
		Operation: operation,
		OrderID:   order.ID,
		Attempted: len(order.Products),
		Failures:  failures,
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// notifyLowStock relee cada producto tocado y avisa si quedó en o por debajo de su umbral.
// Las fallas de lectura o del Notifier solo se registran en el log.
func (f *Fulfillment) notifyLowStock(ctx context.Context, productIDs []string) {
	if f.notifier == nil {
		return
	}
	for _, id := range productIDs {
		product, err := f.products.GetByID(ctx, id)
		if err != nil {
			f.log.Warn().Err(err).Str("product_id", id).Msg("no se pudo releer el producto para alerta de stock")
			continue
		}
		minStock := domaininv.EffectiveMinStock(product.MinStockLevel, f.cfg.DefaultMinStock)
		if product.StockQuantity > minStock {
			continue
		}
		event := LowStockEvent{
			ProductID:     product.ID,
			ProductName:   product.Name,
			CurrentStock:  product.StockQuantity,
			MinStockLevel: minStock,
		}
		if err := f.notifier.Notify(ctx, event); err != nil {
			f.log.Error().Err(err).Str("product_id", id).Msg("falló la notificación de stock bajo")
		}
	}
}

// ValidateStockForDelivery verifica, sin escribir, que cada línea tenga stock suficiente.
// Devuelve un mensaje por línea sin producto, con cantidad no positiva o con producto
// inexistente, y uno por producto cuyo total pedido (sumando sus líneas) supera el stock.
// No es atómica con la entrega posterior: otra salida concurrente puede invalidar el resultado.
func (f *Fulfillment) ValidateStockForDelivery(ctx context.Context, order *entity.Order) (dto.StockValidationDTO, error) {
	result := dto.StockValidationDTO{Valid: true, Errors: []string{}}
	if order == nil {
		return result, fmt.Errorf("%w: pedido vacío", domain.ErrInvalidInput)
	}
	var (
		products  = make(map[string]*entity.Product, len(order.Products))
		requested = make(map[string]int, len(order.Products))
		short     = make(map[string]bool)
	)
	for _, item := range order.Products {
		if item.ProductID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("La línea %q no tiene producto asociado", item.Name))
			continue
		}
		if item.Quantity <= 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Cantidad inválida para %s (%s): %d", item.Name, item.ProductID, item.Quantity))
			continue
		}
		product, ok := products[item.ProductID]
		if !ok {
			var err error
			product, err = f.products.GetByID(ctx, item.ProductID)
			if errors.Is(err, domain.ErrNotFound) {
				result.Errors = append(result.Errors, fmt.Sprintf("Producto %s (%s) no encontrado", item.Name, item.ProductID))
				continue
			}
			if err != nil {
				return dto.StockValidationDTO{}, fmt.Errorf("validar stock del pedido #%s: %w", order.ID, err)
			}
			products[item.ProductID] = product
		}
		requested[item.ProductID] += item.Quantity
		if product.StockQuantity < requested[item.ProductID] && !short[item.ProductID] {
			short[item.ProductID] = true
			result.Errors = append(result.Errors, fmt.Sprintf("Stock insuficiente para %s: disponible %d, requerido %d",
				product.Name, product.StockQuantity, requested[item.ProductID]))
		}
	}
	result.Valid = len(result.Errors) == 0
	return result, nil
}

func lineNotes(item entity.OrderItem) string {
	return fmt.Sprintf("%s x %d @ %s", item.Name, item.Quantity, item.Price.StringFixed(2))
}
