package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthenticated   = errors.New("no hay un usuario autenticado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrPartialFailure lo devuelven las operaciones por lote cuando algún ítem falló
	// y los demás quedaron aplicados.
	ErrPartialFailure = errors.New("falla parcial en el lote")
)
