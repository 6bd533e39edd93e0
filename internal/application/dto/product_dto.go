package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceEntryRequest entrada de precio para un nivel y un umbral de cantidad.
type PriceEntryRequest struct {
	PriceLevelID    string          `json:"price_level_id"`
	Price           decimal.Decimal `json:"price"`
	PriceWithoutTax decimal.Decimal `json:"price_without_tax"`
	MinQuantity     int64           `json:"min_quantity"`
	Active          *bool           `json:"active,omitempty"`
}

// CreateProductRequest entrada para crear un producto. Las cantidades no se fijan aquí:
// el stock inicial se registra como movimiento initial_stock.
type CreateProductRequest struct {
	SKU             string              `json:"sku"`
	Name            string              `json:"name"`
	CategoryID      string              `json:"category_id"`
	HasVirtualStock bool                `json:"has_virtual_stock"`
	Prices          []PriceEntryRequest `json:"prices"`
}

// UpdateProductRequest entrada para actualizar un producto (sin costo ni stock).
type UpdateProductRequest struct {
	Name            *string `json:"name"`
	CategoryID      *string `json:"category_id"`
	Active          *bool   `json:"active"`
	HasVirtualStock *bool   `json:"has_virtual_stock"`
}

// UpdatePriceEntryRequest cambios parciales sobre una entrada de precio.
type UpdatePriceEntryRequest struct {
	Price           *decimal.Decimal `json:"price"`
	PriceWithoutTax *decimal.Decimal `json:"price_without_tax"`
	Active          *bool            `json:"active"`
}

// PriceEntryResponse salida de una entrada de precio.
type PriceEntryResponse struct {
	ID              string          `json:"id"`
	PriceLevelID    string          `json:"price_level_id"`
	Price           decimal.Decimal `json:"price"`
	PriceWithoutTax decimal.Decimal `json:"price_without_tax"`
	MinQuantity     int64           `json:"min_quantity"`
	Active          bool            `json:"active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string               `json:"id"`
	SKU             string               `json:"sku"`
	Name            string               `json:"name"`
	CategoryID      string               `json:"category_id,omitempty"`
	Active          bool                 `json:"active"`
	HasVirtualStock bool                 `json:"has_virtual_stock"`
	AverageCost     decimal.Decimal      `json:"average_cost"`
	Prices          []PriceEntryResponse `json:"prices"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	PageResponse
}
