package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado de la máquina de checkout.
type OrderStatus string

const (
	OrderDraft          OrderStatus = "draft"
	OrderPriceValidated OrderStatus = "price_validated"
	OrderStockReserved  OrderStatus = "stock_reserved"
	OrderCommitted      OrderStatus = "committed"
	OrderFailed         OrderStatus = "failed"
	OrderCancelled      OrderStatus = "cancelled"
	OrderExpired        OrderStatus = "expired"
)

// Order orden de venta generada por el checkout.
type Order struct {
	ID            string
	CustomerID    string
	Status        OrderStatus
	Lines         []OrderLine
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	FailureReason string
	ExpiresAt     *time.Time // solo mientras está en stock_reserved
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderLine línea de la orden con el precio resuelto por el servidor.
type OrderLine struct {
	LineNo              int
	ProductID           string
	PriceLevelID        string
	Quantity            int64
	UnitPrice           decimal.Decimal
	DiscountedUnitPrice decimal.Decimal
	AppliedOfferID      string
	LineDiscount        decimal.Decimal
}

// QuantitiesByProduct agrega las cantidades por producto (líneas repetidas se suman).
func (o *Order) QuantitiesByProduct() map[string]int64 {
	out := make(map[string]int64, len(o.Lines))
	for _, l := range o.Lines {
		out[l.ProductID] += l.Quantity
	}
	return out
}

// HasOffer indica si alguna línea aplicó la oferta.
func (o *Order) HasOffer(offerID string) bool {
	for _, l := range o.Lines {
		if l.AppliedOfferID == offerID {
			return true
		}
	}
	return false
}

// IsOpen órdenes que retienen reservas.
func (o *Order) IsOpen() bool {
	return o.Status == OrderStockReserved
}
