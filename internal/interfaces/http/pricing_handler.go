package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/pricing"
	"github.com/jhoicas/kardex-api/internal/domain"
)

// PricingHandler precios y evaluación de carrito (protegido).
type PricingHandler struct {
	uc  *pricing.PricingUseCase
	now func() time.Time
}

// NewPricingHandler construye el handler.
func NewPricingHandler(uc *pricing.PricingUseCase) *PricingHandler {
	return &PricingHandler{uc: uc, now: time.Now}
}

// GetPrice godoc
// @Summary      Precio unitario de un producto
// @Description  Sin quantity devuelve el precio base del nivel; con quantity aplica escalas por cantidad.
// @Tags         pricing
// @Security     Bearer
// @Produce      json
// @Param        id              path   string  true   "ID del producto"
// @Param        price_level_id  query  string  false  "Nivel de precio"
// @Param        quantity        query  int     false  "Cantidad para escalas"
// @Success      200  {object}  dto.PriceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/price [get]
func (h *PricingHandler) GetPrice(c *fiber.Ctx) error {
	productID, err := requireParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var qty int64
	if raw := c.Query("quantity"); raw != "" {
		qty, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return writeError(c, domain.Invalid("quantity debe ser un entero"))
		}
	}
	out, err := h.uc.GetPrice(c.UserContext(), productID, c.Query("price_level_id"), qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// EvaluateCart godoc
// @Summary      Evaluar carrito
// @Description  Precios del servidor, una oferta por línea, impuesto plano sobre el subtotal con descuentos.
// @Tags         pricing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EvaluateCartRequest  true  "Líneas del carrito"
// @Success      200   {object}  dto.CartEvaluationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/cart/evaluate [post]
func (h *PricingHandler) EvaluateCart(c *fiber.Ctx) error {
	var in dto.EvaluateCartRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.EvaluateCart(c.UserContext(), in, h.now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
