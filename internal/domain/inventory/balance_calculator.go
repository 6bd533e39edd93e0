// Package inventory contiene los servicios de dominio puros del kardex: plegado de movimientos
// a saldo y costo promedio ponderado. Sin I/O ni estado oculto.
package inventory

import (
	"math"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// FoldResult resultado de plegar una secuencia de movimientos desde saldo cero.
type FoldResult struct {
	Available int64
	Entries   int64 // unidades que entraron (entradas y ajustes positivos)
	Exits     int64 // unidades que salieron, en valor absoluto
	Count     int
}

// Apply aplica un movimiento al total corrido. Es el único paso del plegado: la escritura
// incremental del ledger y Fold usan la misma función.
func Apply(running int64, m entity.Movement) int64 {
	return running + m.Quantity
}

// Fits indica si running+delta cabe en int64. Un movimiento que no cabe se rechaza antes de escribirse.
func Fits(running, delta int64) bool {
	if delta > 0 {
		return running <= math.MaxInt64-delta
	}
	return running >= math.MinInt64-delta
}

// Fold pliega los movimientos en el orden recibido. Idempotente: la misma secuencia produce
// siempre el mismo resultado.
func Fold(movements []entity.Movement) FoldResult {
	var r FoldResult
	for _, m := range movements {
		r.Available = Apply(r.Available, m)
		if m.Quantity >= 0 {
			r.Entries += m.Quantity
		} else {
			r.Exits -= m.Quantity
		}
		r.Count++
	}
	return r
}

// Calculate arma el Balance de un producto a partir de su historial completo.
// reserved viene de la fila de stock y onOrder de las órdenes abiertas.
func Calculate(product *entity.Product, movements []entity.Movement, reserved, onOrder int64) entity.Balance {
	b := entity.Balance{
		ProductID: product.ID,
		Reserved:  reserved,
		OnOrder:   onOrder,
	}
	if product.HasVirtualStock {
		b.Unbounded = true
		return b
	}
	b.Available = Fold(movements).Available
	b.Free = b.Available - reserved
	return b
}

// CanExit indica si una salida de qty unidades deja el saldo en cero o más.
// Los productos con stock virtual siempre pasan.
func CanExit(product *entity.Product, available, qty int64) bool {
	if product.HasVirtualStock {
		return true
	}
	return available-qty >= 0
}

// CanReserve indica si hay cantidad libre (disponible menos reservada) para qty unidades.
func CanReserve(product *entity.Product, stock *entity.Stock, qty int64) bool {
	if product.HasVirtualStock {
		return true
	}
	return stock.Free() >= qty
}
