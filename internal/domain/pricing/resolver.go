// Package pricing resuelve el precio unitario efectivo de un producto a partir de sus entradas de
// precio. Funciones puras: sin I/O, deterministas para la misma entrada.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// ResolvePrice devuelve el precio del nivel pedido o, si no existe entrada activa para ese nivel,
// el de la entrada activa con menor MinQuantity (tier base). Empates por orden de inserción.
// Devuelve cero cuando no hay entradas activas: el caller debe tratarlo como "sin precio".
func ResolvePrice(product *entity.Product, priceLevelID string) decimal.Decimal {
	active := product.ActivePrices()
	if priceLevelID != "" {
		if e, ok := baseTier(byLevel(active, priceLevelID)); ok {
			return e.Price
		}
	}
	if e, ok := baseTier(active); ok {
		return e.Price
	}
	return decimal.Zero
}

// ResolveTier precio por escala de cantidad: entre las entradas activas (las del nivel pedido si el
// nivel tiene alguna) toma la de mayor MinQuantity que no supere quantity. Si ninguna califica
// vuelve a ResolvePrice.
func ResolveTier(product *entity.Product, priceLevelID string, quantity int64) decimal.Decimal {
	candidates := product.ActivePrices()
	if priceLevelID != "" {
		if lvl := byLevel(candidates, priceLevelID); len(lvl) > 0 {
			candidates = lvl
		}
	}
	var (
		best  entity.PriceEntry
		found bool
	)
	for _, e := range candidates {
		if e.MinQuantity > quantity {
			continue
		}
		if !found || e.MinQuantity > best.MinQuantity {
			best, found = e, true
		}
	}
	if !found {
		return ResolvePrice(product, priceLevelID)
	}
	return best.Price
}

// ResolveEntry como ResolvePrice pero devuelve la entrada elegida.
func ResolveEntry(product *entity.Product, priceLevelID string) (entity.PriceEntry, bool) {
	active := product.ActivePrices()
	if priceLevelID != "" {
		if e, ok := baseTier(byLevel(active, priceLevelID)); ok {
			return e, true
		}
	}
	return baseTier(active)
}

func byLevel(entries []entity.PriceEntry, levelID string) []entity.PriceEntry {
	out := make([]entity.PriceEntry, 0, len(entries))
	for _, e := range entries {
		if e.PriceLevelID == levelID {
			out = append(out, e)
		}
	}
	return out
}

// baseTier primera entrada con el menor MinQuantity (comparación estricta: gana la primera).
func baseTier(entries []entity.PriceEntry) (entity.PriceEntry, bool) {
	if len(entries) == 0 {
		return entity.PriceEntry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.MinQuantity < best.MinQuantity {
			best = e
		}
	}
	return best, true
}
