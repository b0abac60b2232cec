// Package notifier contiene los adaptadores del puerto inventory.Notifier.
package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
)

var _ inventory.Notifier = (*LogNotifier)(nil)

// LogNotifier escribe la alerta de stock bajo en el log.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notificador de log.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "low_stock").Logger()}
}

// Notify registra la alerta como warning.
func (n *LogNotifier) Notify(_ context.Context, ev inventory.LowStockEvent) error {
	n.log.Warn().
		Str("product_id", ev.ProductID).
		Str("product_name", ev.ProductName).
		Int("current_stock", ev.CurrentStock).
		Int("min_stock_level", ev.MinStockLevel).
		Msg("stock bajo")
	return nil
}
