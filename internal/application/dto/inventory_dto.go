package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/products/:id/movements.
// Quantity llega como decimal y debe ser entera; en ajustes puede ser negativa.
type RegisterMovementRequest struct {
	Type            string           `json:"type"`
	Quantity        decimal.Decimal  `json:"quantity"`
	ReferenceNumber string           `json:"reference_number,omitempty"`
	Note            string           `json:"note,omitempty"`
	CostPerUnit     *decimal.Decimal `json:"cost_per_unit,omitempty"`
}

// MovementResponse fila del kardex.
type MovementResponse struct {
	ID              string           `json:"id"`
	Sequence        int64            `json:"sequence"`
	ProductID       string           `json:"product_id"`
	Type            string           `json:"type"`
	Category        string           `json:"category"`
	Quantity        int64            `json:"quantity"`
	QuantityBefore  int64            `json:"quantity_before"`
	QuantityAfter   int64            `json:"quantity_after"`
	ReferenceNumber string           `json:"reference_number,omitempty"`
	OrderID         string           `json:"order_id,omitempty"`
	Note            string           `json:"note,omitempty"`
	CostPerUnit     *decimal.Decimal `json:"cost_per_unit,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	CreatedBy       string           `json:"created_by"`
}

// MovementListResponse página del kardex, más reciente primero.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	PageResponse
}

// BalanceResponse saldo derivado. Available y Free son null para productos con stock virtual.
type BalanceResponse struct {
	ProductID string `json:"product_id"`
	Available *int64 `json:"available"`
	Reserved  int64  `json:"reserved"`
	OnOrder   int64  `json:"on_order"`
	Free      *int64 `json:"free"`
	Unbounded bool   `json:"unbounded"`
}

// ReconcileResponse resultado de comparar la fila de stock con el kardex y las órdenes abiertas.
type ReconcileResponse struct {
	ProductID        string `json:"product_id"`
	LedgerAvailable  int64  `json:"ledger_available"`
	CachedAvailable  int64  `json:"cached_available"`
	OpenReservations int64  `json:"open_reservations"`
	CachedReserved   int64  `json:"cached_reserved"`
	Repaired         bool   `json:"repaired"`
	MovementsFolded  int    `json:"movements_folded"`
}
