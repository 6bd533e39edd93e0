package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
)

func ptr[T any](v T) *T { return &v }

func newProductUseCase() *usecase.ProductUseCase {
	return usecase.NewProductUseCase(memory.NewStore().Products())
}

func createReq(sku string) dto.CreateProductRequest {
	return dto.CreateProductRequest{
		SKU:  sku,
		Name: "Producto " + sku,
		Prices: []dto.PriceEntryRequest{
			{PriceLevelID: "retail", Price: decimal.NewFromInt(100)},
			{PriceLevelID: "retail", Price: decimal.NewFromInt(90), MinQuantity: 10},
		},
	}
}

func TestProductUseCase_CreateAplicaDefaults(t *testing.T) {
	uc := newProductUseCase()

	resp, err := uc.Create(context.Background(), createReq(" CAF-01 "))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "CAF-01", resp.SKU)
	assert.True(t, resp.Active)
	assert.True(t, resp.AverageCost.IsZero())
	require.Len(t, resp.Prices, 2)
	assert.Equal(t, int64(1), resp.Prices[0].MinQuantity, "min_quantity por defecto es 1")
	assert.True(t, resp.Prices[0].Active)
	assert.Equal(t, int64(10), resp.Prices[1].MinQuantity)
}

func TestProductUseCase_CreateValidaciones(t *testing.T) {
	uc := newProductUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "sin sku"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "X", Name: "x", Prices: []dto.PriceEntryRequest{{Price: decimal.NewFromInt(1)}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "nivel de precio obligatorio")

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "X", Name: "x", Prices: []dto.PriceEntryRequest{{PriceLevelID: "r", Price: decimal.NewFromInt(-1)}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "X", Name: "x", Prices: []dto.PriceEntryRequest{
		{PriceLevelID: "r", Price: decimal.NewFromInt(1)},
		{PriceLevelID: "r", Price: decimal.NewFromInt(2), MinQuantity: 1},
	}})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "nivel y umbral repetidos")

	_, err = uc.Create(ctx, createReq("DUP"))
	require.NoError(t, err)
	_, err = uc.Create(ctx, createReq("DUP"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUseCase_UpdateParcial(t *testing.T) {
	uc := newProductUseCase()
	ctx := context.Background()
	created, err := uc.Create(ctx, createReq("P-1"))
	require.NoError(t, err)

	updated, err := uc.Update(ctx, created.ID, dto.UpdateProductRequest{Active: ptr(false), HasVirtualStock: ptr(true)})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.True(t, updated.HasVirtualStock)
	assert.Equal(t, created.Name, updated.Name)
	assert.Len(t, updated.Prices, 2, "los precios no se tocan al actualizar")

	_, err = uc.Update(ctx, created.ID, dto.UpdateProductRequest{Name: ptr("  ")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Update(ctx, "no-existe", dto.UpdateProductRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_EntradasDePrecio(t *testing.T) {
	uc := newProductUseCase()
	ctx := context.Background()
	created, err := uc.Create(ctx, createReq("P-1"))
	require.NoError(t, err)

	withVIP, err := uc.AddPriceEntry(ctx, created.ID, dto.PriceEntryRequest{PriceLevelID: "vip", Price: decimal.NewFromInt(70)})
	require.NoError(t, err)
	require.Len(t, withVIP.Prices, 3)
	assert.Equal(t, "vip", withVIP.Prices[2].PriceLevelID, "se agrega al final")

	_, err = uc.AddPriceEntry(ctx, created.ID, dto.PriceEntryRequest{PriceLevelID: "vip", Price: decimal.NewFromInt(60)})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	entryID := withVIP.Prices[2].ID
	off, err := uc.UpdatePriceEntry(ctx, created.ID, entryID, dto.UpdatePriceEntryRequest{Price: ptr(decimal.NewFromInt(65)), Active: ptr(false)})
	require.NoError(t, err)
	assert.True(t, off.Prices[2].Price.Equal(decimal.NewFromInt(65)))
	assert.False(t, off.Prices[2].Active)

	_, err = uc.UpdatePriceEntry(ctx, created.ID, "otra", dto.UpdatePriceEntryRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.UpdatePriceEntry(ctx, created.ID, entryID, dto.UpdatePriceEntryRequest{Price: ptr(decimal.NewFromInt(-5))})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductUseCase_ListPagina(t *testing.T) {
	uc := newProductUseCase()
	ctx := context.Background()
	for _, sku := range []string{"A", "B", "C"} {
		_, err := uc.Create(ctx, createReq(sku))
		require.NoError(t, err)
	}

	resp, err := uc.List(ctx, dto.PageRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "C", resp.Items[0].SKU)
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, 2, resp.TotalPages)

	_, err = uc.List(ctx, dto.PageRequest{Page: 1, PageSize: 500})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
