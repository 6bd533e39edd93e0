package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/checkout"
	"github.com/jhoicas/kardex-api/internal/application/dto"
)

// OrderHandler checkout: cotiza, reserva, confirma y cancela órdenes (protegido).
type OrderHandler struct {
	orch *checkout.Orchestrator
}

// NewOrderHandler construye el handler.
func NewOrderHandler(orch *checkout.Orchestrator) *OrderHandler {
	return &OrderHandler{orch: orch}
}

// PlaceOrder godoc
// @Summary      Colocar orden
// @Description  Cotiza con precios del servidor, reserva y confirma en un solo paso.
// @Description  Un conflicto de concurrencia responde 409 con Retry-After: 0.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PlaceOrderRequest  true  "Cliente y líneas"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var in dto.PlaceOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	order, err := h.orch.PlaceOrder(c.UserContext(), checkout.FromRequest(GetUserID(c), in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(checkout.ToOrderResponse(order))
}

// Reserve godoc
// @Summary      Reservar stock para una orden
// @Description  La orden queda en stock_reserved hasta commit, cancel o expiración.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PlaceOrderRequest  true  "Cliente y líneas"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/reservations [post]
func (h *OrderHandler) Reserve(c *fiber.Ctx) error {
	var in dto.PlaceOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	order, err := h.orch.Reserve(c.UserContext(), checkout.FromRequest(GetUserID(c), in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(checkout.ToOrderResponse(order))
}

// Commit godoc
// @Summary      Confirmar una reserva
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/commit [post]
func (h *OrderHandler) Commit(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	order, err := h.orch.Commit(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(checkout.ToOrderResponse(order))
}

// Cancel godoc
// @Summary      Cancelar una orden
// @Description  Una reserva libera stock; una orden confirmada genera movimientos return.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true   "ID de la orden"
// @Param        body  body  dto.CancelOrderRequest  false  "Motivo"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CancelOrderRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &in); err != nil {
			return writeError(c, err)
		}
	}
	order, err := h.orch.Cancel(c.UserContext(), id, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(checkout.ToOrderResponse(order))
}

// GetByID godoc
// @Summary      Obtener orden
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	order, err := h.orch.GetOrder(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(checkout.ToOrderResponse(order))
}
