package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/pricing"
)

func entry(level string, price int64, minQty int64, active bool) entity.PriceEntry {
	return entity.PriceEntry{
		PriceLevelID: level,
		Price:        decimal.NewFromInt(price),
		MinQuantity:  minQty,
		Active:       active,
	}
}

func assertPrice(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.NewFromInt(want)), "esperado %d, obtenido %s", want, got)
}

// El tier por defecto es el de menor MinQuantity, no el más barato.
func TestResolvePrice_TierBaseNoElMasBarato(t *testing.T) {
	p := &entity.Product{Prices: []entity.PriceEntry{
		entry("retail", 10, 1, true),
		entry("retail", 8, 10, true),
	}}
	assertPrice(t, 10, pricing.ResolvePrice(p, ""))
}

// Escenario: LevelA $100 minQty 1, LevelB $90 minQty 5.
func TestResolvePrice_EscenarioNiveles(t *testing.T) {
	p := &entity.Product{Prices: []entity.PriceEntry{
		entry("LevelA", 100, 1, true),
		entry("LevelB", 90, 5, true),
	}}
	assertPrice(t, 90, pricing.ResolvePrice(p, "LevelB"))
	assertPrice(t, 100, pricing.ResolvePrice(p, ""))
}

func TestResolvePrice_NivelInexistenteCaeAlTierBase(t *testing.T) {
	p := &entity.Product{Prices: []entity.PriceEntry{
		entry("LevelA", 100, 1, true),
		entry("LevelB", 90, 5, false), // inactivo
	}}
	assertPrice(t, 100, pricing.ResolvePrice(p, "LevelB"))
	assertPrice(t, 100, pricing.ResolvePrice(p, "no-existe"))
}

func TestResolvePrice_SinEntradasActivasDevuelveCero(t *testing.T) {
	p := &entity.Product{Prices: []entity.PriceEntry{entry("LevelA", 100, 1, false)}}
	assert.True(t, pricing.ResolvePrice(p, "").IsZero())
	assert.True(t, pricing.ResolvePrice(&entity.Product{}, "LevelA").IsZero())
}

func TestResolvePrice_EmpateGanaOrdenDeInsercion(t *testing.T) {
	p := &entity.Product{Prices: []entity.PriceEntry{
		entry("mayorista", 70, 1, true),
		entry("retail", 95, 1, true),
	}}
	assertPrice(t, 70, pricing.ResolvePrice(p, ""))
}

func TestResolvePrice_Determinista(t *testing.T) {
	p := &entity.Product{Prices: []entity.PriceEntry{
		entry("a", 15, 3, true),
		entry("b", 12, 1, true),
	}}
	first := pricing.ResolvePrice(p, "a")
	second := pricing.ResolvePrice(p, "a")
	assert.True(t, first.Equal(second))
}

func TestResolveTier_EscalasPorCantidad(t *testing.T) {
	p := &entity.Product{Prices: []entity.PriceEntry{
		entry("retail", 10, 1, true),
		entry("retail", 8, 10, true),
		entry("retail", 6, 100, true),
		entry("vip", 5, 1, true),
	}}
	cases := []struct {
		name  string
		level string
		qty   int64
		want  int64
	}{
		{"una unidad", "retail", 1, 10},
		{"nueve unidades", "retail", 9, 10},
		{"diez unidades", "retail", 10, 8},
		{"ciento cincuenta", "retail", 150, 6},
		{"nivel vip", "vip", 50, 5},
		{"cantidad cero cae al tier base", "retail", 0, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertPrice(t, tc.want, pricing.ResolveTier(p, tc.level, tc.qty))
		})
	}
}

func TestResolveEntry_DevuelveLaEntradaElegida(t *testing.T) {
	p := &entity.Product{Prices: []entity.PriceEntry{
		{ID: "pe-1", PriceLevelID: "a", Price: decimal.NewFromInt(3), MinQuantity: 2, Active: true},
		{ID: "pe-2", PriceLevelID: "a", Price: decimal.NewFromInt(4), MinQuantity: 1, Active: true},
	}}
	e, ok := pricing.ResolveEntry(p, "a")
	assert.True(t, ok)
	assert.Equal(t, "pe-2", e.ID)

	_, ok = pricing.ResolveEntry(&entity.Product{}, "")
	assert.False(t, ok)
}
