package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType etiqueta enumerada de un movimiento de kardex. La traducción a etiquetas
// de pantalla es responsabilidad del caller.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementInitialStock MovementType = "initial_stock" // entrada
	MovementPurchase     MovementType = "purchase"      // entrada
	MovementReturn       MovementType = "return"        // entrada
	MovementTransferIn   MovementType = "transfer_in"   // entrada
	MovementSale         MovementType = "sale"          // salida
	MovementTransferOut  MovementType = "transfer_out"  // salida
	MovementDamage       MovementType = "damage"        // salida
	MovementExpired      MovementType = "expired"       // salida
	MovementAdjustment   MovementType = "adjustment"    // ajuste con signo
)

// MovementCategory agrupa los tipos por efecto sobre el saldo.
type MovementCategory string

const (
	CategoryEntry      MovementCategory = "entry"
	CategoryExit       MovementCategory = "exit"
	CategoryAdjustment MovementCategory = "adjustment"
)

// MovementTypes lista todos los tipos válidos en orden de presentación.
var MovementTypes = []MovementType{
	MovementInitialStock, MovementPurchase, MovementReturn, MovementTransferIn,
	MovementSale, MovementTransferOut, MovementDamage, MovementExpired,
	MovementAdjustment,
}

// Valid indica si el tipo pertenece a la enumeración.
func (t MovementType) Valid() bool {
	return t.Category() != ""
}

// Category devuelve entry, exit o adjustment; vacío si el tipo es desconocido.
func (t MovementType) Category() MovementCategory {
	switch t {
	case MovementInitialStock, MovementPurchase, MovementReturn, MovementTransferIn:
		return CategoryEntry
	case MovementSale, MovementTransferOut, MovementDamage, MovementExpired:
		return CategoryExit
	case MovementAdjustment:
		return CategoryAdjustment
	}
	return ""
}

// Sign polaridad forzada del tipo: +1 entradas, -1 salidas, 0 si el caller decide (ajuste).
func (t MovementType) Sign() int64 {
	switch t.Category() {
	case CategoryEntry:
		return 1
	case CategoryExit:
		return -1
	}
	return 0
}

// SignedQuantity aplica la polaridad del tipo a la cantidad recibida.
// Para ajustes la cantidad se respeta tal cual llega.
func (t MovementType) SignedQuantity(qty int64) int64 {
	if t.Sign() == 0 {
		return qty
	}
	return t.Sign() * qty
}

// RequiresNote tipos que exigen una nota de auditoría.
func (t MovementType) RequiresNote() bool {
	return t == MovementAdjustment || t == MovementDamage || t == MovementExpired
}

// Movement registro inmutable del kardex. Nunca se edita ni se borra; las correcciones son
// movimientos nuevos. Quantity ya lleva el signo aplicado.
type Movement struct {
	ID              string
	Sequence        int64 // desempate estable cuando CreatedAt coincide
	ProductID       string
	Type            MovementType
	Quantity        int64
	QuantityBefore  int64
	QuantityAfter   int64
	ReferenceNumber string
	OrderID         string
	Note            string
	CostPerUnit     *decimal.Decimal
	CreatedAt       time.Time
	CreatedBy       string
}
