package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/farmacia-inventario/internal/domain"
)

// Códigos SQLSTATE que indican que otra transacción ganó la carrera y conviene reintentar.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isRetryable verifica si el error es un conflicto de concurrencia (serialización, deadlock, lock).
func isRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// mapError traduce errores de PostgreSQL a errores de dominio, conservando la causa.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isRetryable(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConflict, err)
	case pgCode(err) == codeUniqueViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConflict, err)
	case pgCode(err) == codeForeignKeyViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
