package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP del kardex (protegido).
type InventoryHandler struct {
	register *inventory.RegisterMovementUseCase
	queries  *inventory.InventoryUseCase
	reports  *inventory.ReportUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	register *inventory.RegisterMovementUseCase,
	queries *inventory.InventoryUseCase,
	reports *inventory.ReportUseCase,
) *InventoryHandler {
	return &InventoryHandler{register: register, queries: queries, reports: reports}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  quantity debe ser entera; positiva para entradas y salidas, con signo para ajustes.
// @Description  adjustment, damage y expired exigen nota.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID del producto"
// @Param        body  body  dto.RegisterMovementRequest  true  "type, quantity, reference_number, note, cost_per_unit"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	productID, err := requireParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.RegisterMovementRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	mov, err := h.register.RegisterMovement(c.UserContext(), inventory.FromRequest(GetUserID(c), productID, in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResponse(mov))
}

// ListMovements godoc
// @Summary      Historial del kardex
// @Description  Más reciente primero (fecha y secuencia descendentes).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id         path   string  true   "ID del producto"
// @Param        page       query  int     false  "Página (1-based)"
// @Param        page_size  query  int     false  "Tamaño de página (máx. 100)"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	productID, err := requireParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	page, err := parsePage(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.queries.ListMovements(c.UserContext(), productID, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetBalance godoc
// @Summary      Saldo derivado del kardex
// @Description  available y free son null para productos con stock virtual.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/balance [get]
func (h *InventoryHandler) GetBalance(c *fiber.Ctx) error {
	productID, err := requireParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	b, err := h.queries.GetBalance(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToBalanceResponse(b))
}

// Reconcile godoc
// @Summary      Conciliar la fila de stock con el kardex
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/reconcile [post]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	productID, err := requireParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.queries.ReconcileBalance(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// KardexPDF godoc
// @Summary      Tarjeta de kardex en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/kardex.pdf [get]
func (h *InventoryHandler) KardexPDF(c *fiber.Ctx) error {
	productID, err := requireParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	doc, filename, err := h.reports.KardexPDF(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(doc)
}
