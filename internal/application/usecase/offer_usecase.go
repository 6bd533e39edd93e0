package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var hundred = decimal.NewFromInt(100)

// OfferUseCase administración de ofertas. La evaluación contra carritos vive en pricing.
type OfferUseCase struct {
	repo repository.OfferRepository
}

// NewOfferUseCase construye el caso de uso.
func NewOfferUseCase(repo repository.OfferRepository) *OfferUseCase {
	return &OfferUseCase{repo: repo}
}

// Create valida y persiste una oferta. Sin estado explícito queda en draft.
func (uc *OfferUseCase) Create(ctx context.Context, in dto.CreateOfferRequest) (*dto.OfferResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name es obligatorio")
	}
	status := entity.OfferStatus(in.Status)
	if status == "" {
		status = entity.OfferDraft
	}
	if !status.Valid() {
		return nil, domain.Invalid("estado de oferta desconocido %q", in.Status)
	}

	var (
		discountType  entity.DiscountType
		discountValue decimal.Decimal
	)
	switch {
	case in.Percentage != nil && in.Amount != nil:
		return nil, domain.Invalid("percentage y amount son excluyentes")
	case in.Percentage != nil:
		if !in.Percentage.IsPositive() || in.Percentage.GreaterThan(hundred) {
			return nil, domain.Invalid("percentage debe estar en (0, 100]")
		}
		discountType, discountValue = entity.DiscountPercentage, *in.Percentage
	case in.Amount != nil:
		if !in.Amount.IsPositive() {
			return nil, domain.Invalid("amount debe ser mayor que cero")
		}
		discountType, discountValue = entity.DiscountAmount, *in.Amount
	default:
		return nil, domain.Invalid("se requiere percentage o amount")
	}

	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.EndDate.Before(in.StartDate) {
		return nil, domain.Invalid("la vigencia requiere start_date <= end_date")
	}
	if in.MaxUsesPerCustomer < 0 || in.TotalMaxUses < 0 {
		return nil, domain.Invalid("los topes de uso no pueden ser negativos")
	}
	rules := make([]entity.Rule, 0, len(in.Rules))
	for _, r := range in.Rules {
		rt := entity.RuleType(r.Type)
		if !rt.Valid() {
			return nil, domain.Invalid("tipo de regla desconocido %q", r.Type)
		}
		if r.Value.IsNegative() {
			return nil, domain.Invalid("el valor de la regla %s no puede ser negativo", r.Type)
		}
		rules = append(rules, entity.Rule{Type: rt, Value: r.Value})
	}

	now := time.Now()
	o := &entity.Offer{
		ID:                  uuid.New().String(),
		Name:                name,
		Status:              status,
		DiscountType:        discountType,
		DiscountValue:       discountValue,
		ProductIDs:          in.ProductIDs,
		CategoryIDs:         in.CategoryIDs,
		ExcludedProductIDs:  in.ExcludedProductIDs,
		ExcludedCategoryIDs: in.ExcludedCategoryIDs,
		MaxUsesPerCustomer:  in.MaxUsesPerCustomer,
		TotalMaxUses:        in.TotalMaxUses,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		Priority:            in.Priority,
		Rules:               rules,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := uc.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return ToOfferResponse(o), nil
}

// GetByID obtiene una oferta.
func (uc *OfferUseCase) GetByID(ctx context.Context, id string) (*dto.OfferResponse, error) {
	o, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOfferResponse(o), nil
}

// List ofertas filtradas por estado (vacío = todas).
func (uc *OfferUseCase) List(ctx context.Context, status string, page dto.PageRequest) (*dto.OfferListResponse, error) {
	st := entity.OfferStatus(status)
	if st != "" && !st.Valid() {
		return nil, domain.Invalid("estado de oferta desconocido %q", status)
	}
	if !page.Valid() {
		return nil, domain.Invalid("page debe ser >= 1 y page_size entre 1 y %d", dto.MaxPageSize)
	}
	list, total, err := uc.repo.List(ctx, st, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.OfferResponse, 0, len(list))
	for _, o := range list {
		items = append(items, *ToOfferResponse(o))
	}
	return &dto.OfferListResponse{Items: items, PageResponse: dto.NewPageResponse(page, total)}, nil
}

// UpdateStatus activa, expira o devuelve a borrador una oferta. Una oferta expirada no se reactiva.
func (uc *OfferUseCase) UpdateStatus(ctx context.Context, id, status string) (*dto.OfferResponse, error) {
	st := entity.OfferStatus(status)
	if !st.Valid() {
		return nil, domain.Invalid("estado de oferta desconocido %q", status)
	}
	o, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == entity.OfferExpired && st != entity.OfferExpired {
		return nil, domain.ErrInvalidTransition
	}
	o.Status = st
	o.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return ToOfferResponse(o), nil
}

func (uc *OfferUseCase) get(ctx context.Context, id string) (*entity.Offer, error) {
	o, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// ToOfferResponse mapea la oferta al DTO de salida.
func ToOfferResponse(o *entity.Offer) *dto.OfferResponse {
	resp := &dto.OfferResponse{
		ID:                  o.ID,
		Name:                o.Name,
		Status:              string(o.Status),
		ProductIDs:          nonNil(o.ProductIDs),
		CategoryIDs:         nonNil(o.CategoryIDs),
		ExcludedProductIDs:  nonNil(o.ExcludedProductIDs),
		ExcludedCategoryIDs: nonNil(o.ExcludedCategoryIDs),
		MaxUsesPerCustomer:  o.MaxUsesPerCustomer,
		TotalMaxUses:        o.TotalMaxUses,
		StartDate:           o.StartDate,
		EndDate:             o.EndDate,
		Priority:            o.Priority,
		Rules:               make([]dto.RuleResponse, 0, len(o.Rules)),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	value := o.DiscountValue
	switch o.DiscountType {
	case entity.DiscountPercentage:
		resp.Percentage = &value
	case entity.DiscountAmount:
		resp.Amount = &value
	}
	for _, r := range o.Rules {
		resp.Rules = append(resp.Rules, dto.RuleResponse{Type: string(r.Type), Value: r.Value})
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
