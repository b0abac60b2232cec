// Package messaging consume los eventos de cambio de estado de pedidos desde Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain"
)

// OrderStatusChangedEvent mensaje publicado por el módulo de pedidos.
type OrderStatusChangedEvent struct {
	Order                  dto.OrderDTO `json:"order"`
	Transition             string       `json:"transition"`
	PreviousDeliveryStatus string       `json:"previous_delivery_status"`
	ActorID                string       `json:"actor_id"`
	ActorName              string       `json:"actor_name"`
}

// TransitionHandler lo que el consumidor necesita del inventario (lo cumple *inventory.Fulfillment).
type TransitionHandler interface {
	HandleTransition(ctx context.Context, t inventory.OrderTransition) error
}

// MessageReader lo que el consumidor necesita de Kafka (lo cumple *kafka.Reader).
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewOrderReader crea el lector del tópico de pedidos dentro del grupo de consumo.
func NewOrderReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// OrderConsumer aplica al inventario cada transición de pedido recibida.
type OrderConsumer struct {
	reader      MessageReader
	handler     TransitionHandler
	log         zerolog.Logger
	maxAttempts int
	backoff     time.Duration
}

// NewOrderConsumer construye el consumidor.
func NewOrderConsumer(reader MessageReader, handler TransitionHandler, log zerolog.Logger) *OrderConsumer {
	return &OrderConsumer{
		reader:      reader,
		handler:     handler,
		log:         log.With().Str("component", "order_consumer").Logger(),
		maxAttempts: 3,
		backoff:     time.Second,
	}
}

// Run lee mensajes hasta que ctx se cancele. El offset se confirma después de procesar,
// también cuando el mensaje es inválido o el lote falló en parte (lo aplicado no se repite).
// Una falla de infraestructura se reintenta sobre el mismo mensaje; si persiste, Run
// termina sin confirmar para que el grupo lo entregue de nuevo al reiniciar.
func (c *OrderConsumer) Run(ctx context.Context) error {
	c.log.Info().Msg("consumidor de pedidos iniciado")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				c.log.Info().Msg("consumidor de pedidos detenido")
				return nil
			}
			return fmt.Errorf("leer mensaje de kafka: %w", err)
		}

		if err := c.handleWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("no se pudo confirmar el offset")
		}
	}
}

func (c *OrderConsumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	for attempt := 1; ; attempt++ {
		err := c.Handle(ctx, msg)
		if err == nil || isFinal(err) {
			return nil
		}
		if attempt >= c.maxAttempts {
			return fmt.Errorf("mensaje offset %d sin procesar tras %d intentos: %w", msg.Offset, attempt, err)
		}
		c.log.Warn().Err(err).Int64("offset", msg.Offset).Int("attempt", attempt).Msg("reintentando mensaje de pedido")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
}

// Handle procesa un mensaje: decodifica, fija el actor y despacha la transición.
func (c *OrderConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	carrier := propagation.MapCarrier{}
	for _, h := range msg.Headers {
		carrier[h.Key] = string(h.Value)
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	var ev OrderStatusChangedEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("JSON inválido en evento de pedido")
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if ev.ActorID == "" {
		c.log.Warn().Str("order_id", ev.Order.ID).Msg("evento de pedido sin actor")
		return domain.ErrUnauthenticated
	}
	ctx = inventory.WithActor(ctx, inventory.Actor{ID: ev.ActorID, Name: ev.ActorName})

	err := c.handler.HandleTransition(ctx, inventory.OrderTransition{
		Order:                  ev.Order.ToEntity(),
		Transition:             ev.Transition,
		PreviousDeliveryStatus: ev.PreviousDeliveryStatus,
	})
	log := c.log.With().Str("order_id", ev.Order.ID).Str("transition", ev.Transition).Logger()
	switch {
	case err == nil:
		log.Info().Msg("transición de pedido aplicada")
	case errors.Is(err, domain.ErrPartialFailure):
		log.Warn().Err(err).Msg("transición de pedido aplicada parcialmente")
	default:
		log.Error().Err(err).Msg("falló la transición de pedido")
	}
	return err
}

// isFinal errores que no se resuelven releyendo el mensaje. Un lote que falló entero por
// causas de infraestructura sí se reintenta.
func isFinal(err error) bool {
	var partial *inventory.PartialFailureError
	if errors.As(err, &partial) {
		return !partial.Retryable()
	}
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrUnauthenticated) ||
		errors.Is(err, domain.ErrNotFound)
}
