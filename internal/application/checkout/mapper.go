package checkout

import (
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/pricing"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// FromRequest adapta el body HTTP al input del orquestador.
func FromRequest(userID string, in dto.PlaceOrderRequest) PlaceOrderInput {
	lines := make([]pricing.CartLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, pricing.CartLine{ProductID: l.ProductID, PriceLevelID: l.PriceLevelID, Quantity: l.Quantity})
	}
	return PlaceOrderInput{UserID: userID, CustomerID: in.CustomerID, Lines: lines}
}

// ToOrderResponse mapea una orden a su salida HTTP.
func ToOrderResponse(o *entity.Order) dto.OrderResponse {
	lines := make([]dto.OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		var offerID *string
		if l.AppliedOfferID != "" {
			id := l.AppliedOfferID
			offerID = &id
		}
		lines = append(lines, dto.OrderLineResponse{
			LineNo:              l.LineNo,
			ProductID:           l.ProductID,
			PriceLevelID:        l.PriceLevelID,
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			DiscountedUnitPrice: l.DiscountedUnitPrice,
			AppliedOfferID:      offerID,
			LineDiscount:        l.LineDiscount,
		})
	}
	return dto.OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Status:        string(o.Status),
		Lines:         lines,
		Subtotal:      o.Subtotal,
		DiscountTotal: o.DiscountTotal,
		TaxRate:       o.TaxRate,
		Tax:           o.Tax,
		Total:         o.Total,
		FailureReason: o.FailureReason,
		ExpiresAt:     o.ExpiresAt,
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
