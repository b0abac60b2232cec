package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain"
)

// writeError traduce un error de los casos de uso a su respuesta HTTP.
func writeError(c *fiber.Ctx, err error) error {
	var partial *inventory.PartialFailureError
	if errors.As(err, &partial) {
		failures := make([]dto.ItemFailureDTO, 0, len(partial.Failures))
		for _, f := range partial.Failures {
			failures = append(failures, dto.ItemFailureDTO{
				ProductID: f.ProductID,
				Name:      f.Name,
				Quantity:  f.Quantity,
				Error:     f.Err.Error(),
			})
		}
		return c.Status(fiber.StatusMultiStatus).JSON(dto.PartialFailureResponse{
			Code:     "PARTIAL_FAILURE",
			Message:  partial.Error(),
			Failures: failures,
		})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "usuario no autenticado"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "el stock cambió, intente de nuevo"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
