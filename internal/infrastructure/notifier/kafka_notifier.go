package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
)

var _ inventory.Notifier = (*KafkaNotifier)(nil)

// MessageWriter lo que KafkaNotifier necesita del productor (lo cumple *kafka.Writer).
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publica la alerta en un tópico, con el ID de producto como clave.
type KafkaNotifier struct {
	writer MessageWriter
}

// NewKafkaWriter crea el productor del tópico de alertas.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaNotifier construye el notificador sobre un productor.
func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

// Notify serializa el evento y lo publica propagando el contexto de traza en las cabeceras.
func (n *KafkaNotifier) Notify(ctx context.Context, ev inventory.LowStockEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar alerta: %w", err)
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := kafka.Message{Key: []byte(ev.ProductID), Value: payload, Headers: headers}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar alerta de stock bajo: %w", err)
	}
	return nil
}

// Close cierra el productor.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
