package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto vendible. Las cantidades disponibles y reservadas no viven aquí:
// se derivan del kardex (Balance) y de la fila de stock.
type Product struct {
	ID              string
	SKU             string // código único
	Name            string
	CategoryID      string
	Active          bool
	HasVirtualStock bool            // true => disponibilidad ilimitada, sin control de stock
	AverageCost     decimal.Decimal // costo promedio ponderado, mantenido por entradas con costo
	Prices          []PriceEntry    // en orden de inserción (Position)
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PriceEntry precio de un producto para un nivel de precio y un umbral de cantidad.
type PriceEntry struct {
	ID              string
	ProductID       string
	PriceLevelID    string
	Price           decimal.Decimal
	PriceWithoutTax decimal.Decimal
	MinQuantity     int64
	Active          bool
	Position        int // orden de inserción, desempata niveles con igual MinQuantity
	CreatedAt       time.Time
}

// ActivePrices devuelve las entradas activas conservando el orden de inserción.
func (p *Product) ActivePrices() []PriceEntry {
	out := make([]PriceEntry, 0, len(p.Prices))
	for _, e := range p.Prices {
		if e.Active {
			out = append(out, e)
		}
	}
	return out
}

// PriceEntryByID busca una entrada por ID.
func (p *Product) PriceEntryByID(id string) (PriceEntry, bool) {
	for _, e := range p.Prices {
		if e.ID == id {
			return e, true
		}
	}
	return PriceEntry{}, false
}
