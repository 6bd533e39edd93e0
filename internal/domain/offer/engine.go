// Package offer evalúa promociones contra las líneas de un carrito y elige, por línea,
// una sola oferta ganadora. Solo lectura: no aplica topes de uso (los trae resueltos en
// Offer.UsesExhausted) ni persiste nada.
package offer

import (
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Line línea de carrito ya valorizada con el precio resuelto por el servidor.
type Line struct {
	ProductID  string
	CategoryID string
	UnitPrice  decimal.Decimal
	Quantity   int64
}

// Subtotal precio unitario por cantidad.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Application resultado por línea. Offer es nil si ninguna oferta calificó.
type Application struct {
	LineIndex           int
	ProductID           string
	Offer               *entity.Offer
	DiscountPerUnit     decimal.Decimal
	DiscountedUnitPrice decimal.Decimal
	LineDiscount        decimal.Decimal
}

// CartTotal total bruto del carrito (sin descuentos), usado por la regla min_cart_total.
func CartTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ApplicableOffers devuelve una Application por línea, en el orden de las líneas.
func ApplicableOffers(lines []Line, cartTotal decimal.Decimal, offers []entity.Offer, now time.Time) []Application {
	out := make([]Application, 0, len(lines))
	for i, line := range lines {
		app := Application{
			LineIndex:           i,
			ProductID:           line.ProductID,
			DiscountPerUnit:     decimal.Zero,
			DiscountedUnitPrice: line.UnitPrice,
			LineDiscount:        decimal.Zero,
		}
		if winner := pickWinner(qualifying(line, cartTotal, offers, now)); winner != nil {
			perUnit := DiscountPerUnit(winner, line.UnitPrice)
			lineDiscount := perUnit.Mul(decimal.NewFromInt(line.Quantity))
			if sub := line.Subtotal(); lineDiscount.GreaterThan(sub) {
				lineDiscount = sub
			}
			app.Offer = winner
			app.DiscountPerUnit = perUnit
			app.DiscountedUnitPrice = line.UnitPrice.Sub(perUnit)
			app.LineDiscount = lineDiscount
		}
		out = append(out, app)
	}
	return out
}

// Summarize suma los descuentos de todas las líneas.
func Summarize(apps []Application) decimal.Decimal {
	total := decimal.Zero
	for _, a := range apps {
		total = total.Add(a.LineDiscount)
	}
	return total
}

// Eligible estado, vigencia, topes y alcance. Las exclusiones tienen precedencia.
func Eligible(o *entity.Offer, line Line, now time.Time) bool {
	if o.Status != entity.OfferActive || o.UsesExhausted {
		return false
	}
	if now.Before(o.StartDate) || now.After(o.EndDate) {
		return false
	}
	if slices.Contains(o.ExcludedProductIDs, line.ProductID) {
		return false
	}
	if line.CategoryID != "" && slices.Contains(o.ExcludedCategoryIDs, line.CategoryID) {
		return false
	}
	if len(o.ProductIDs) == 0 && len(o.CategoryIDs) == 0 {
		return true // alcance global
	}
	if slices.Contains(o.ProductIDs, line.ProductID) {
		return true
	}
	return line.CategoryID != "" && slices.Contains(o.CategoryIDs, line.CategoryID)
}

// RulesPass conjunción de todas las reglas. Un tipo de regla desconocido no se cumple.
func RulesPass(o *entity.Offer, line Line, cartTotal decimal.Decimal) bool {
	for _, r := range o.Rules {
		if !rulePasses(r, line, cartTotal) {
			return false
		}
	}
	return true
}

func rulePasses(r entity.Rule, line Line, cartTotal decimal.Decimal) bool {
	switch r.Type {
	case entity.RuleMinItemPrice:
		return line.UnitPrice.GreaterThanOrEqual(r.Value)
	case entity.RuleMaxItemPrice:
		return line.UnitPrice.LessThanOrEqual(r.Value)
	case entity.RuleMinItemSubtotal:
		return line.Subtotal().GreaterThanOrEqual(r.Value)
	case entity.RuleMaxItemSubtotal:
		return line.Subtotal().LessThanOrEqual(r.Value)
	case entity.RuleMinCartTotal:
		return cartTotal.GreaterThanOrEqual(r.Value)
	}
	return false
}

// DiscountPerUnit descuento unitario, nunca mayor que el precio unitario ni negativo.
func DiscountPerUnit(o *entity.Offer, unitPrice decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch o.DiscountType {
	case entity.DiscountPercentage:
		d = unitPrice.Mul(o.DiscountValue).Div(hundred).Round(2)
	case entity.DiscountAmount:
		d = o.DiscountValue
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(unitPrice) {
		return unitPrice
	}
	return d
}

func qualifying(line Line, cartTotal decimal.Decimal, offers []entity.Offer, now time.Time) []*entity.Offer {
	var out []*entity.Offer
	for i := range offers {
		o := &offers[i]
		if Eligible(o, line, now) && RulesPass(o, line, cartTotal) {
			out = append(out, o)
		}
	}
	return out
}

// pickWinner menor prioridad, luego StartDate más temprana, luego ID.
func pickWinner(candidates []*entity.Offer) *entity.Offer {
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.ID < b.ID
	})
	return candidates[0]
}
