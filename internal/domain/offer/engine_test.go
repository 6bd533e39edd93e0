package offer_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/offer"
)

var (
	now   = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	start = now.Add(-48 * time.Hour)
	end   = now.Add(48 * time.Hour)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pctOffer(id string, pct string, priority int) entity.Offer {
	return entity.Offer{
		ID: id, Name: id, Status: entity.OfferActive,
		DiscountType: entity.DiscountPercentage, DiscountValue: dec(pct),
		StartDate: start, EndDate: end, Priority: priority,
	}
}

func amountOffer(id string, amount string, priority int) entity.Offer {
	o := pctOffer(id, "0", priority)
	o.DiscountType = entity.DiscountAmount
	o.DiscountValue = dec(amount)
	return o
}

func line(productID, category, price string, qty int64) offer.Line {
	return offer.Line{ProductID: productID, CategoryID: category, UnitPrice: dec(price), Quantity: qty}
}

func single(t *testing.T, l offer.Line, offers ...entity.Offer) offer.Application {
	t.Helper()
	lines := []offer.Line{l}
	apps := offer.ApplicableOffers(lines, offer.CartTotal(lines), offers, now)
	require.Len(t, apps, 1)
	return apps[0]
}

func TestApplicableOffers_PrioridadMenorGana(t *testing.T) {
	app := single(t, line("p1", "", "100", 1),
		pctOffer("o-2", "20", 2),
		pctOffer("o-1", "10", 1),
	)
	require.NotNil(t, app.Offer)
	assert.Equal(t, "o-1", app.Offer.ID)
	assert.True(t, app.DiscountedUnitPrice.Equal(dec("90")))
}

func TestApplicableOffers_DesempatePorFechaYLuegoID(t *testing.T) {
	early := pctOffer("o-b", "5", 1)
	early.StartDate = start.Add(-time.Hour)
	late := pctOffer("o-a", "50", 1)

	app := single(t, line("p1", "", "10", 1), late, early)
	assert.Equal(t, "o-b", app.Offer.ID, "con igual prioridad gana la de StartDate más temprana")

	app = single(t, line("p1", "", "10", 1), pctOffer("o-z", "5", 1), pctOffer("o-y", "5", 1))
	assert.Equal(t, "o-y", app.Offer.ID, "con igual prioridad y fecha gana el menor ID")
}

func TestApplicableOffers_MontoFijoNuncaNegativo(t *testing.T) {
	app := single(t, line("p1", "", "30", 2), amountOffer("o-1", "50", 1))

	assert.True(t, app.DiscountPerUnit.Equal(dec("30")))
	assert.True(t, app.DiscountedUnitPrice.IsZero())
	assert.True(t, app.LineDiscount.Equal(dec("60")), "el descuento de línea no supera su subtotal")
}

func TestApplicableOffers_PorcentajePorUnidad(t *testing.T) {
	app := single(t, line("p1", "", "19.99", 3), pctOffer("o-1", "15", 1))

	// 19.99 * 15% = 2.9985 => 3.00 por unidad
	assert.True(t, app.DiscountPerUnit.Equal(dec("3")), "got %s", app.DiscountPerUnit)
	assert.True(t, app.DiscountedUnitPrice.Equal(dec("16.99")))
	// Se redondea por unidad y luego se multiplica: 9, no 3 * 2.9985 = 8.9955.
	assert.True(t, app.LineDiscount.Equal(dec("9")), "got %s", app.LineDiscount)
	assert.False(t, app.LineDiscount.Equal(dec("8.9955")))
}

func TestEligible_AlcanceYExclusiones(t *testing.T) {
	o := pctOffer("o-1", "10", 1)
	o.CategoryIDs = []string{"bebidas"}
	o.ExcludedProductIDs = []string{"p-excluido"}

	assert.True(t, offer.Eligible(&o, line("p1", "bebidas", "1", 1), now))
	assert.False(t, offer.Eligible(&o, line("p1", "snacks", "1", 1), now))
	assert.False(t, offer.Eligible(&o, line("p-excluido", "bebidas", "1", 1), now), "la exclusión tiene precedencia")

	o2 := pctOffer("o-2", "10", 1)
	o2.ProductIDs = []string{"p1"}
	o2.ExcludedCategoryIDs = []string{"bebidas"}
	assert.False(t, offer.Eligible(&o2, line("p1", "bebidas", "1", 1), now))

	global := pctOffer("o-3", "10", 1)
	assert.True(t, offer.Eligible(&global, line("cualquiera", "", "1", 1), now))
}

func TestEligible_EstadoVigenciaYTopes(t *testing.T) {
	l := line("p1", "", "10", 1)

	draft := pctOffer("o-1", "10", 1)
	draft.Status = entity.OfferDraft
	assert.False(t, offer.Eligible(&draft, l, now))

	future := pctOffer("o-2", "10", 1)
	future.StartDate = now.Add(time.Hour)
	assert.False(t, offer.Eligible(&future, l, now))

	past := pctOffer("o-3", "10", 1)
	past.EndDate = now.Add(-time.Second)
	assert.False(t, offer.Eligible(&past, l, now))

	exhausted := pctOffer("o-4", "10", 1)
	exhausted.UsesExhausted = true
	assert.False(t, offer.Eligible(&exhausted, l, now))

	edge := pctOffer("o-5", "10", 1)
	edge.StartDate, edge.EndDate = now, now
	assert.True(t, offer.Eligible(&edge, l, now), "la ventana es cerrada en ambos extremos")
}

func TestRulesPass_Conjuncion(t *testing.T) {
	o := pctOffer("o-1", "10", 1)
	o.Rules = []entity.Rule{
		{Type: entity.RuleMinItemPrice, Value: dec("5")},
		{Type: entity.RuleMaxItemPrice, Value: dec("50")},
		{Type: entity.RuleMinItemSubtotal, Value: dec("20")},
		{Type: entity.RuleMaxItemSubtotal, Value: dec("100")},
		{Type: entity.RuleMinCartTotal, Value: dec("200")},
	}
	cases := []struct {
		name      string
		line      offer.Line
		cartTotal string
		want      bool
	}{
		{"todas pasan", line("p1", "", "10", 3), "250", true},
		{"precio bajo", line("p1", "", "4", 10), "250", false},
		{"precio alto", line("p1", "", "60", 1), "250", false},
		{"subtotal bajo", line("p1", "", "10", 1), "250", false},
		{"subtotal alto", line("p1", "", "40", 3), "250", false},
		{"carrito bajo", line("p1", "", "10", 3), "199.99", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, offer.RulesPass(&o, tc.line, dec(tc.cartTotal)))
		})
	}
}

func TestRulesPass_ReglaDesconocidaNoSeCumple(t *testing.T) {
	o := pctOffer("o-1", "10", 1)
	o.Rules = []entity.Rule{{Type: "buy_x_get_y", Value: dec("1")}}
	assert.False(t, offer.RulesPass(&o, line("p1", "", "10", 1), dec("10")))
}

func TestApplicableOffers_ReglaDeCarritoUsaTotalBruto(t *testing.T) {
	o := pctOffer("o-1", "10", 1)
	o.Rules = []entity.Rule{{Type: entity.RuleMinCartTotal, Value: dec("100")}}
	lines := []offer.Line{line("p1", "", "60", 1), line("p2", "", "50", 1)}

	apps := offer.ApplicableOffers(lines, offer.CartTotal(lines), []entity.Offer{o}, now)
	require.Len(t, apps, 2)
	assert.NotNil(t, apps[0].Offer)
	assert.NotNil(t, apps[1].Offer)
	assert.True(t, offer.Summarize(apps).Equal(dec("11")))
}

func TestApplicableOffers_SinOfertasDevuelvePrecioOriginal(t *testing.T) {
	app := single(t, line("p1", "", "12.50", 2))
	assert.Nil(t, app.Offer)
	assert.True(t, app.DiscountedUnitPrice.Equal(dec("12.50")))
	assert.True(t, app.LineDiscount.IsZero())
}
