package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceOrderRequest body para POST /api/orders y POST /api/orders/reservations.
type PlaceOrderRequest struct {
	CustomerID string            `json:"customer_id,omitempty"`
	Lines      []CartLineRequest `json:"lines"`
}

// CancelOrderRequest body opcional para POST /api/orders/:id/cancel.
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

// OrderLineResponse línea confirmada de la orden.
type OrderLineResponse struct {
	LineNo              int             `json:"line_no"`
	ProductID           string          `json:"product_id"`
	PriceLevelID        string          `json:"price_level_id,omitempty"`
	Quantity            int64           `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	DiscountedUnitPrice decimal.Decimal `json:"discounted_unit_price"`
	AppliedOfferID      *string         `json:"applied_offer_id"`
	LineDiscount        decimal.Decimal `json:"line_discount"`
}

// OrderResponse salida de una orden.
type OrderResponse struct {
	ID            string              `json:"id"`
	CustomerID    string              `json:"customer_id,omitempty"`
	Status        string              `json:"status"`
	Lines         []OrderLineResponse `json:"lines"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DiscountTotal decimal.Decimal     `json:"discount_total"`
	TaxRate       decimal.Decimal     `json:"tax_rate"`
	Tax           decimal.Decimal     `json:"tax"`
	Total         decimal.Decimal     `json:"total"`
	FailureReason string              `json:"failure_reason,omitempty"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
	CreatedBy     string              `json:"created_by"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
