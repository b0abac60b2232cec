package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
)

// FulfillmentHandler recibe del módulo de pedidos las validaciones y transiciones (protegido).
type FulfillmentHandler struct {
	fulfillment *inventory.Fulfillment
}

// NewFulfillmentHandler construye el handler.
func NewFulfillmentHandler(fulfillment *inventory.Fulfillment) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillment: fulfillment}
}

// Validate godoc
// @Summary      Validar stock antes de entregar
// @Description  Solo lectura. No reserva stock: una salida concurrente puede invalidar el resultado.
// @Tags         fulfillment
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OrderDTO  true  "Pedido"
// @Success      200   {object}  dto.StockValidationDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/fulfillment/validate [post]
func (h *FulfillmentHandler) Validate(c *fiber.Ctx) error {
	var in dto.OrderDTO
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	order := in.ToEntity()
	result, err := h.fulfillment.ValidateStockForDelivery(c.UserContext(), &order)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// Transition godoc
// @Summary      Aplicar transición de pedido al inventario
// @Description  delivered descuenta stock; cancelled/returned lo repone si el pedido ya se había entregado.
//
//	Si alguna línea falla responde 207 con el detalle; las demás quedan aplicadas.
//
// @Tags         fulfillment
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OrderTransitionRequest  true  "transition, previous_delivery_status, order"
// @Success      200   {object}  map[string]string
// @Success      207   {object}  dto.PartialFailureResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/fulfillment/transitions [post]
func (h *FulfillmentHandler) Transition(c *fiber.Ctx) error {
	var in dto.OrderTransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.fulfillment.HandleTransition(c.UserContext(), inventory.OrderTransition{
		Order:                  in.Order.ToEntity(),
		Transition:             in.Transition,
		PreviousDeliveryStatus: in.PreviousDeliveryStatus,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "transición aplicada", "order_id": in.Order.ID})
}
