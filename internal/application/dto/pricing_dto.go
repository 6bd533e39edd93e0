package dto

import "github.com/shopspring/decimal"

// PriceResponse precio unitario resuelto para un producto.
type PriceResponse struct {
	ProductID    string          `json:"product_id"`
	PriceLevelID string          `json:"price_level_id,omitempty"`
	Quantity     int64           `json:"quantity,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// CartLineRequest línea de carrito. El precio nunca viene del cliente.
type CartLineRequest struct {
	ProductID    string `json:"product_id"`
	PriceLevelID string `json:"price_level_id,omitempty"`
	Quantity     int64  `json:"quantity"`
}

// EvaluateCartRequest body para POST /api/cart/evaluate.
type EvaluateCartRequest struct {
	CustomerID string            `json:"customer_id,omitempty"`
	Lines      []CartLineRequest `json:"lines"`
}

// CartLineResponse resultado por línea.
type CartLineResponse struct {
	ProductID           string          `json:"product_id"`
	Quantity            int64           `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	DiscountedUnitPrice decimal.Decimal `json:"discounted_unit_price"`
	AppliedOfferID      *string         `json:"applied_offer_id"`
	LineDiscount        decimal.Decimal `json:"line_discount"`
	LineTotal           decimal.Decimal `json:"line_total"`
}

// CartEvaluationResponse totales del carrito con descuentos aplicados.
type CartEvaluationResponse struct {
	Lines             []CartLineResponse `json:"lines"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	CartDiscountTotal decimal.Decimal    `json:"cart_discount_total"`
	TaxRate           decimal.Decimal    `json:"tax_rate"`
	Tax               decimal.Decimal    `json:"tax"`
	Total             decimal.Decimal    `json:"total"`
}
