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

// ProductUseCase casos de uso CRUD para productos y sus entradas de precio.
// Costo y stock se manejan vía movimientos del kardex.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un nuevo producto con sus precios. AverageCost inicia en 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" {
		return nil, domain.Invalid("sku y name son obligatorios")
	}
	existing, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:              uuid.New().String(),
		SKU:             sku,
		Name:            name,
		CategoryID:      in.CategoryID,
		Active:          true,
		HasVirtualStock: in.HasVirtualStock,
		AverageCost:     decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i, p := range in.Prices {
		entry, err := newPriceEntry(product.ID, p, now)
		if err != nil {
			return nil, err
		}
		entry.Position = i
		product.Prices = append(product.Prices, *entry)
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto. No permite modificar costo ni cantidades.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("name no puede quedar vacío")
		}
		product.Name = name
	}
	if in.CategoryID != nil {
		product.CategoryID = *in.CategoryID
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	if in.HasVirtualStock != nil {
		product.HasVirtualStock = *in.HasVirtualStock
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	if !page.Valid() {
		return nil, domain.Invalid("page debe ser >= 1 y page_size entre 1 y %d", dto.MaxPageSize)
	}
	list, total, err := uc.repo.List(ctx, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{Items: items, PageResponse: dto.NewPageResponse(page, total)}, nil
}

// AddPriceEntry agrega una entrada de precio al final (el orden de inserción desempata niveles).
func (uc *ProductUseCase) AddPriceEntry(ctx context.Context, productID string, in dto.PriceEntryRequest) (*dto.ProductResponse, error) {
	if _, err := uc.get(ctx, productID); err != nil {
		return nil, err
	}
	entry, err := newPriceEntry(productID, in, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.repo.AddPriceEntry(ctx, entry); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, productID)
}

// UpdatePriceEntry cambia precio o estado de una entrada existente; nivel y umbral son inmutables.
func (uc *ProductUseCase) UpdatePriceEntry(ctx context.Context, productID, entryID string, in dto.UpdatePriceEntryRequest) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, productID)
	if err != nil {
		return nil, err
	}
	entry, ok := product.PriceEntryByID(entryID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.Invalid("price no puede ser negativo")
		}
		entry.Price = *in.Price
	}
	if in.PriceWithoutTax != nil {
		if in.PriceWithoutTax.IsNegative() {
			return nil, domain.Invalid("price_without_tax no puede ser negativo")
		}
		entry.PriceWithoutTax = *in.PriceWithoutTax
	}
	if in.Active != nil {
		entry.Active = *in.Active
	}
	if err := uc.repo.UpdatePriceEntry(ctx, &entry); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, productID)
}

func (uc *ProductUseCase) get(ctx context.Context, id string) (*entity.Product, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func newPriceEntry(productID string, in dto.PriceEntryRequest, now time.Time) (*entity.PriceEntry, error) {
	if strings.TrimSpace(in.PriceLevelID) == "" {
		return nil, domain.Invalid("price_level_id es obligatorio")
	}
	if in.Price.IsNegative() || in.PriceWithoutTax.IsNegative() {
		return nil, domain.Invalid("los precios no pueden ser negativos")
	}
	minQty := in.MinQuantity
	if minQty == 0 {
		minQty = 1
	}
	if minQty < 1 {
		return nil, domain.Invalid("min_quantity debe ser >= 1")
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return &entity.PriceEntry{
		ID:              uuid.New().String(),
		ProductID:       productID,
		PriceLevelID:    strings.TrimSpace(in.PriceLevelID),
		Price:           in.Price,
		PriceWithoutTax: in.PriceWithoutTax,
		MinQuantity:     minQty,
		Active:          active,
		CreatedAt:       now,
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	prices := make([]dto.PriceEntryResponse, 0, len(p.Prices))
	for _, e := range p.Prices {
		prices = append(prices, dto.PriceEntryResponse{
			ID:              e.ID,
			PriceLevelID:    e.PriceLevelID,
			Price:           e.Price,
			PriceWithoutTax: e.PriceWithoutTax,
			MinQuantity:     e.MinQuantity,
			Active:          e.Active,
		})
	}
	return &dto.ProductResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		CategoryID:      p.CategoryID,
		Active:          p.Active,
		HasVirtualStock: p.HasVirtualStock,
		AverageCost:     p.AverageCost,
		Prices:          prices,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
