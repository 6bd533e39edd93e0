package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleRequest condición de elegibilidad.
type RuleRequest struct {
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// CreateOfferRequest body para POST /api/offers. Exactamente uno de Percentage o Amount.
type CreateOfferRequest struct {
	Name                string           `json:"name"`
	Status              string           `json:"status,omitempty"`
	Percentage          *decimal.Decimal `json:"percentage,omitempty"`
	Amount              *decimal.Decimal `json:"amount,omitempty"`
	ProductIDs          []string         `json:"product_ids,omitempty"`
	CategoryIDs         []string         `json:"category_ids,omitempty"`
	ExcludedProductIDs  []string         `json:"excluded_product_ids,omitempty"`
	ExcludedCategoryIDs []string         `json:"excluded_category_ids,omitempty"`
	MaxUsesPerCustomer  int              `json:"max_uses_per_customer"`
	TotalMaxUses        int              `json:"total_max_uses"`
	StartDate           time.Time        `json:"start_date"`
	EndDate             time.Time        `json:"end_date"`
	Priority            int              `json:"priority"`
	Rules               []RuleRequest    `json:"rules,omitempty"`
}

// UpdateOfferStatusRequest body para PATCH /api/offers/:id/status.
type UpdateOfferStatusRequest struct {
	Status string `json:"status"`
}

// RuleResponse salida de una regla.
type RuleResponse struct {
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// OfferResponse salida de una oferta.
type OfferResponse struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Status              string           `json:"status"`
	Percentage          *decimal.Decimal `json:"percentage,omitempty"`
	Amount              *decimal.Decimal `json:"amount,omitempty"`
	ProductIDs          []string         `json:"product_ids"`
	CategoryIDs         []string         `json:"category_ids"`
	ExcludedProductIDs  []string         `json:"excluded_product_ids"`
	ExcludedCategoryIDs []string         `json:"excluded_category_ids"`
	MaxUsesPerCustomer  int              `json:"max_uses_per_customer"`
	TotalMaxUses        int              `json:"total_max_uses"`
	StartDate           time.Time        `json:"start_date"`
	EndDate             time.Time        `json:"end_date"`
	Priority            int              `json:"priority"`
	Rules               []RuleResponse   `json:"rules"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// OfferListResponse lista paginada de ofertas.
type OfferListResponse struct {
	Items []OfferResponse `json:"items"`
	PageResponse
}
