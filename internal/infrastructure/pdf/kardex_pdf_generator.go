// Package pdf genera la tarjeta de kardex de un producto en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre + SKU        │  Fecha de corte               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDO: Disponible / Reservado / En órdenes / Libre          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | Ref. | Entrada | Salida | Saldo       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: costo promedio + leyenda                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

var _ inventory.KardexRenderer = (*KardexGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorExit    = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// movementLabels etiquetas de pantalla de cada tipo de movimiento.
var movementLabels = map[entity.MovementType]string{
	entity.MovementInitialStock: "Saldo inicial",
	entity.MovementPurchase:     "Compra",
	entity.MovementReturn:       "Devolución",
	entity.MovementTransferIn:   "Traslado entrada",
	entity.MovementSale:         "Venta",
	entity.MovementTransferOut:  "Traslado salida",
	entity.MovementDamage:       "Avería",
	entity.MovementExpired:      "Vencimiento",
	entity.MovementAdjustment:   "Ajuste",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// KardexGenerator implementa inventory.KardexRenderer usando Maroto v2.
type KardexGenerator struct {
	printer *message.Printer
	now     func() time.Time
}

// NewKardexGenerator construye el generador con formato numérico en español.
func NewKardexGenerator() *KardexGenerator {
	return &KardexGenerator{
		printer: message.NewPrinter(language.Spanish),
		now:     time.Now,
	}
}

// RenderKardex genera el PDF y devuelve sus bytes. Los movimientos llegan en orden ascendente.
func (g *KardexGenerator) RenderKardex(
	_ context.Context,
	product *entity.Product,
	movements []entity.Movement,
	balance entity.Balance,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kardex "+product.SKU, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(product))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(g.balanceRow(balance))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(movements) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos registrados", props.Text{
				Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}
	for _, r := range g.movementRows(movements) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.footerRow(product, len(movements)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kardex: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *KardexGenerator) headerRow(p *entity.Product) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(p.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("SKU: "+p.SKU, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("TARJETA DE KARDEX", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Corte: "+g.now().Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func (g *KardexGenerator) balanceRow(b entity.Balance) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1, Align: align.Center,
			}),
			text.New(value, props.Text{Size: 11, Top: 6, Align: align.Center}),
		)
	}
	available, free := g.qty(b.Available), g.qty(b.Free)
	if b.Unbounded {
		available, free = "Ilimitado", "Ilimitado"
	}
	return row.New(14).Add(
		cell("Disponible", available),
		cell("Reservado", g.qty(b.Reserved)),
		cell("En órdenes", g.qty(b.OnOrder)),
		cell("Libre", free),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Referencia / Nota", 3, align.Left),
		h("Entrada", 1, align.Right),
		h("Salida", 1, align.Right),
		h("Saldo", 1, align.Right),
		h("Costo unit.", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func (g *KardexGenerator) movementRows(movements []entity.Movement) []core.Row {
	out := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		in, outQty := "", ""
		if mv.Quantity >= 0 {
			in = g.qty(mv.Quantity)
		} else {
			outQty = g.qty(-mv.Quantity)
		}
		cost := "-"
		if mv.CostPerUnit != nil {
			cost = "$" + g.money(*mv.CostPerUnit)
		}
		ref := mv.ReferenceNumber
		if mv.Note != "" {
			ref = joinNonEmpty(ref, mv.Note)
		}

		out = append(out, row.New(7).Add(
			col.New(2).Add(text.New(mv.CreatedAt.Format("02/01/2006 15:04"), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(2).Add(text.New(label(mv.Type), props.Text{Size: 7, Top: 1})),
			col.New(3).Add(text.New(ref, props.Text{Size: 7, Top: 1, Color: colorGray})),
			col.New(1).Add(text.New(in, props.Text{Size: 7, Top: 1, Align: align.Right})),
			col.New(1).Add(text.New(outQty, props.Text{Size: 7, Top: 1, Align: align.Right, Color: colorExit})),
			col.New(1).Add(text.New(g.qty(mv.QuantityAfter), props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1, Align: align.Right,
			})),
			col.New(2).Add(text.New(cost, props.Text{Size: 7, Top: 1, Align: align.Right, Right: 1})),
		))
	}
	return out
}

func (g *KardexGenerator) footerRow(p *entity.Product, count int) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New(g.printer.Sprintf("%d movimientos. El kardex es de solo adición: "+
				"las correcciones se registran como movimientos nuevos.", count), props.Text{
				Size: 7, Top: 2, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Costo promedio: $"+g.money(p.AverageCost), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 2,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (g *KardexGenerator) qty(n int64) string {
	return g.printer.Sprintf("%d", n)
}

// money formatea con separador de miles y dos decimales según el locale.
func (g *KardexGenerator) money(d decimal.Decimal) string {
	return g.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func label(t entity.MovementType) string {
	if l, ok := movementLabels[t]; ok {
		return l
	}
	return string(t)
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " · " + b
}
