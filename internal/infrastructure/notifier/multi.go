package notifier

import (
	"context"
	"errors"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
)

var _ inventory.Notifier = Multi(nil)

// Multi reparte la alerta a todos los notificadores y une sus errores.
type Multi []inventory.Notifier

// Notify llama a cada notificador aunque alguno falle.
func (m Multi) Notify(ctx context.Context, ev inventory.LowStockEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
