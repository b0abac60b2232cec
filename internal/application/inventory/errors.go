package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/farmacia-inventario/internal/domain"
)

// ItemFailure línea de pedido que no se pudo aplicar y su causa.
type ItemFailure struct {
	ProductID string
	Name      string
	Quantity  int
	Err       error
}

// PartialFailureError error agregado de una operación por lote. Los ítems que no aparecen
// en Failures quedaron aplicados y no se revierten.
// errors.Is(err, domain.ErrPartialFailure) es verdadero, y errors.Is también alcanza
// la causa de cada ítem.
type PartialFailureError struct {
	Operation string
	OrderID   string
	Attempted int
	Failures  []ItemFailure
}

func (e *PartialFailureError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		label := f.ProductID
		if label == "" {
			label = "(sin product_id)"
		}
		if f.Name != "" {
			label += " " + f.Name
		}
		parts = append(parts, fmt.Sprintf("%s: %v", label, f.Err))
	}
	return fmt.Sprintf("%s del pedido #%s: fallaron %d de %d productos [%s]",
		e.Operation, e.OrderID, len(e.Failures), e.Attempted, strings.Join(parts, "; "))
}

// Is permite errors.Is(err, domain.ErrPartialFailure).
func (e *PartialFailureError) Is(target error) bool {
	return target == domain.ErrPartialFailure
}

// Unwrap expone las causas individuales.
func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Retryable es verdadero cuando no se aplicó ningún ítem y ninguna causa es de dominio
// (por ejemplo, el almacén no respondió): repetir la operación completa no duplica nada.
func (e *PartialFailureError) Retryable() bool {
	if len(e.Failures) == 0 || len(e.Failures) < e.Attempted {
		return false
	}
	for _, f := range e.Failures {
		if isDomainError(f.Err) {
			return false
		}
	}
	return true
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrUnauthenticated)
}

// FailedProductIDs IDs de producto de los ítems fallidos, en el orden del pedido.
func (e *PartialFailureError) FailedProductIDs() []string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ProductID)
	}
	return ids
}
