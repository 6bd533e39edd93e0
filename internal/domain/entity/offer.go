package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferStatus estado del ciclo de vida de una oferta.
type OfferStatus string

const (
	OfferDraft   OfferStatus = "draft"
	OfferActive  OfferStatus = "active"
	OfferExpired OfferStatus = "expired"
)

// Valid indica si el estado pertenece a la enumeración.
func (s OfferStatus) Valid() bool {
	return s == OfferDraft || s == OfferActive || s == OfferExpired
}

// DiscountType porcentaje o monto fijo por unidad (excluyentes).
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountAmount     DiscountType = "amount"
)

// RuleType condición de elegibilidad de una oferta.
type RuleType string

const (
	RuleMinItemPrice    RuleType = "min_item_price"
	RuleMaxItemPrice    RuleType = "max_item_price"
	RuleMinItemSubtotal RuleType = "min_item_subtotal"
	RuleMaxItemSubtotal RuleType = "max_item_subtotal"
	RuleMinCartTotal    RuleType = "min_cart_total"
)

// Valid indica si el tipo de regla es conocido.
func (t RuleType) Valid() bool {
	switch t {
	case RuleMinItemPrice, RuleMaxItemPrice, RuleMinItemSubtotal, RuleMaxItemSubtotal, RuleMinCartTotal:
		return true
	}
	return false
}

// Rule condición numérica; una oferta aplica solo si todas sus reglas se cumplen.
type Rule struct {
	Type  RuleType
	Value decimal.Decimal
}

// Offer definición de una promoción.
// Los topes de uso (TotalMaxUses, MaxUsesPerCustomer; 0 = sin tope) los evalúa el historial de órdenes;
// el motor solo confía en UsesExhausted, que no se persiste.
type Offer struct {
	ID                  string
	Name                string
	Status              OfferStatus
	DiscountType        DiscountType
	DiscountValue       decimal.Decimal
	ProductIDs          []string
	CategoryIDs         []string
	ExcludedProductIDs  []string
	ExcludedCategoryIDs []string
	MaxUsesPerCustomer  int
	TotalMaxUses        int
	StartDate           time.Time
	EndDate             time.Time
	Priority            int // menor valor gana
	Rules               []Rule
	UsesExhausted       bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
