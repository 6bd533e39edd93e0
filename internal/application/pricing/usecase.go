// Package pricing expone la resolución de precios y la evaluación de carritos sobre los
// repositorios. Todo precio sale del servidor: el cliente solo envía producto, nivel y cantidad.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/offer"
	"github.com/jhoicas/kardex-api/internal/domain/pricing"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// OfferUsageCounter historial de órdenes que consumieron una oferta.
type OfferUsageCounter interface {
	CountOfferUses(ctx context.Context, offerID, customerID string) (total, perCustomer int, err error)
}

// PricingUseCase precios unitarios y cotización de carritos con ofertas.
type PricingUseCase struct {
	productRepo repository.ProductRepository
	offerRepo   repository.OfferRepository
	usage       OfferUsageCounter
	taxRate     decimal.Decimal
}

// NewPricingUseCase construye el caso de uso. taxRate es la tasa plana (0.19 = 19%).
func NewPricingUseCase(
	productRepo repository.ProductRepository,
	offerRepo repository.OfferRepository,
	usage OfferUsageCounter,
	taxRate decimal.Decimal,
) *PricingUseCase {
	return &PricingUseCase{
		productRepo: productRepo,
		offerRepo:   offerRepo,
		usage:       usage,
		taxRate:     taxRate,
	}
}

// TaxRate tasa configurada.
func (uc *PricingUseCase) TaxRate() decimal.Decimal { return uc.taxRate }

// CartLine línea de entrada de una cotización.
type CartLine struct {
	ProductID    string
	PriceLevelID string
	Quantity     int64
}

// QuotedLine línea valorizada por el servidor.
type QuotedLine struct {
	Product             *entity.Product
	PriceLevelID        string
	Quantity            int64
	UnitPrice           decimal.Decimal
	Offer               *entity.Offer
	DiscountedUnitPrice decimal.Decimal
	LineDiscount        decimal.Decimal
}

// Total de la línea después de descuento.
func (l QuotedLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)).Sub(l.LineDiscount)
}

// Quote carrito valorizado: subtotal bruto, descuento, impuesto sobre el subtotal con descuento y total.
type Quote struct {
	Lines         []QuotedLine
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
}

// OffersApplied número de líneas con oferta.
func (q *Quote) OffersApplied() int {
	n := 0
	for _, l := range q.Lines {
		if l.Offer != nil {
			n++
		}
	}
	return n
}

// GetPrice precio unitario de un producto. Con quantity > 0 aplica escalas por cantidad.
// Un precio cero es ErrPriceNotConfigured.
func (uc *PricingUseCase) GetPrice(ctx context.Context, productID, priceLevelID string, quantity int64) (*dto.PriceResponse, error) {
	if quantity < 0 {
		return nil, domain.Invalid("quantity no puede ser negativa")
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	var price decimal.Decimal
	if quantity == 0 {
		price = pricing.ResolvePrice(product, priceLevelID)
	} else {
		price = pricing.ResolveTier(product, priceLevelID, quantity)
	}
	if price.IsZero() {
		return nil, fmt.Errorf("%w: %s", domain.ErrPriceNotConfigured, product.SKU)
	}
	return &dto.PriceResponse{
		ProductID:    product.ID,
		PriceLevelID: priceLevelID,
		Quantity:     quantity,
		UnitPrice:    price,
	}, nil
}

// EvaluateCart cotiza el carrito en el instante now.
func (uc *PricingUseCase) EvaluateCart(ctx context.Context, in dto.EvaluateCartRequest, now time.Time) (*dto.CartEvaluationResponse, error) {
	lines := make([]CartLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, CartLine{ProductID: l.ProductID, PriceLevelID: l.PriceLevelID, Quantity: l.Quantity})
	}
	q, err := uc.Quote(ctx, in.CustomerID, lines, now)
	if err != nil {
		return nil, err
	}
	resp := &dto.CartEvaluationResponse{
		Lines:             make([]dto.CartLineResponse, 0, len(q.Lines)),
		Subtotal:          q.Subtotal,
		CartDiscountTotal: q.DiscountTotal,
		TaxRate:           q.TaxRate,
		Tax:               q.Tax,
		Total:             q.Total,
	}
	for _, l := range q.Lines {
		var offerID *string
		if l.Offer != nil {
			id := l.Offer.ID
			offerID = &id
		}
		resp.Lines = append(resp.Lines, dto.CartLineResponse{
			ProductID:           l.Product.ID,
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			DiscountedUnitPrice: l.DiscountedUnitPrice,
			AppliedOfferID:      offerID,
			LineDiscount:        l.LineDiscount,
			LineTotal:           l.Total(),
		})
	}
	return resp, nil
}

// Quote valida las líneas, resuelve precios base, marca ofertas agotadas según el historial y
// aplica el motor de ofertas.
func (uc *PricingUseCase) Quote(ctx context.Context, customerID string, lines []CartLine, now time.Time) (*Quote, error) {
	if len(lines) == 0 {
		return nil, domain.Invalid("el carrito no tiene líneas")
	}
	quoted := make([]QuotedLine, 0, len(lines))
	engineLines := make([]offer.Line, 0, len(lines))
	for i, l := range lines {
		if l.ProductID == "" {
			return nil, domain.Invalid("línea %d: product_id es obligatorio", i+1)
		}
		if l.Quantity <= 0 {
			return nil, domain.Invalid("línea %d: la cantidad debe ser mayor que cero", i+1)
		}
		product, err := uc.productRepo.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, l.ProductID)
		}
		if !product.Active {
			return nil, domain.Invalid("línea %d: el producto %s está inactivo", i+1, product.SKU)
		}
		price := pricing.ResolvePrice(product, l.PriceLevelID)
		if price.IsZero() {
			return nil, fmt.Errorf("%w: %s", domain.ErrPriceNotConfigured, product.SKU)
		}
		quoted = append(quoted, QuotedLine{
			Product:      product,
			PriceLevelID: l.PriceLevelID,
			Quantity:     l.Quantity,
			UnitPrice:    price,
		})
		engineLines = append(engineLines, offer.Line{
			ProductID:  product.ID,
			CategoryID: product.CategoryID,
			UnitPrice:  price,
			Quantity:   l.Quantity,
		})
	}

	offers, err := uc.offerRepo.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	if err := uc.markExhausted(ctx, offers, customerID); err != nil {
		return nil, err
	}

	cartTotal := offer.CartTotal(engineLines)
	apps := offer.ApplicableOffers(engineLines, cartTotal, offers, now)
	for i, app := range apps {
		if app.Offer != nil {
			o := *app.Offer
			quoted[i].Offer = &o
		}
		quoted[i].DiscountedUnitPrice = app.DiscountedUnitPrice
		quoted[i].LineDiscount = app.LineDiscount
	}

	discount := offer.Summarize(apps)
	taxable := cartTotal.Sub(discount)
	tax := taxable.Mul(uc.taxRate).Round(2)
	return &Quote{
		Lines:         quoted,
		Subtotal:      cartTotal,
		DiscountTotal: discount,
		TaxRate:       uc.taxRate,
		Tax:           tax,
		Total:         taxable.Add(tax),
	}, nil
}

// markExhausted fija UsesExhausted en las ofertas con tope. El tope por cliente solo aplica
// si hay cliente identificado.
func (uc *PricingUseCase) markExhausted(ctx context.Context, offers []entity.Offer, customerID string) error {
	for i := range offers {
		o := &offers[i]
		if o.TotalMaxUses <= 0 && o.MaxUsesPerCustomer <= 0 {
			continue
		}
		total, perCustomer, err := uc.usage.CountOfferUses(ctx, o.ID, customerID)
		if err != nil {
			return err
		}
		if o.TotalMaxUses > 0 && total >= o.TotalMaxUses {
			o.UsesExhausted = true
		}
		if o.MaxUsesPerCustomer > 0 && customerID != "" && perCustomer >= o.MaxUsesPerCustomer {
			o.UsesExhausted = true
		}
	}
	return nil
}
