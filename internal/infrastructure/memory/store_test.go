package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

func seedProduct(t *testing.T, s *Store, id string) {
	t.Helper()
	require.NoError(t, s.Products().Create(context.Background(), &entity.Product{ID: id, SKU: "SKU-" + id, Name: id, Active: true}))
}

func TestRun_ErrorDescartaTodosLosCambios(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p")
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository, _ repository.ProductRepository) error {
		require.NoError(t, movRepo.Create(ctx, &entity.Movement{ID: "m1", ProductID: "p", Type: entity.MovementPurchase, Quantity: 5}))
		require.NoError(t, stockRepo.Upsert(ctx, &entity.Stock{ProductID: "p", Available: 5}))

		// Dentro de la transacción se ven los cambios propios.
		n, err := movRepo.CountByProduct(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.Movements().CountByProduct(ctx, "p")
	require.NoError(t, err)
	assert.Zero(t, n)
	stock, err := s.Stock().Get(ctx, "p")
	require.NoError(t, err)
	assert.Zero(t, stock.Available)
}

func TestRun_LecturasFueraDeTransaccionVenSoloLoConfirmado(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p")
	ctx := context.Background()

	err := s.Run(ctx, func(_ repository.MovementRepository, stockRepo repository.StockRepository, _ repository.ProductRepository) error {
		require.NoError(t, stockRepo.Upsert(ctx, &entity.Stock{ProductID: "p", Available: 9}))
		outside, err := s.Stock().Get(ctx, "p")
		require.NoError(t, err)
		assert.Zero(t, outside.Available)
		return nil
	})
	require.NoError(t, err)

	after, err := s.Stock().Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, int64(9), after.Available)
}

func TestRun_ContextoCanceladoNoEjecuta(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Run(ctx, func(repository.MovementRepository, repository.StockRepository, repository.ProductRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestProductRepository_CopiasAisladas(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p", SKU: "S", Prices: []entity.PriceEntry{{ID: "e1", PriceLevelID: "r", MinQuantity: 1}}}))

	got, err := s.Products().GetByID(ctx, "p")
	require.NoError(t, err)
	got.Name = "mutado"
	got.Prices[0].PriceLevelID = "mutado"

	again, err := s.Products().GetByID(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, again.Name)
	assert.Equal(t, "r", again.Prices[0].PriceLevelID)
	assert.Equal(t, "p", again.Prices[0].ProductID)

	missing, err := s.Products().GetBySKU(ctx, "otro")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMovementRepository_OrdenYSecuencia(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p")
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	for i, created := range []time.Time{at, at.Add(time.Minute), at} {
		m := &entity.Movement{ID: string(rune('a' + i)), ProductID: "p", Type: entity.MovementPurchase, Quantity: 1, CreatedAt: created}
		require.NoError(t, s.Movements().Create(ctx, m))
		assert.Equal(t, int64(i+1), m.Sequence)
	}

	asc, err := s.Movements().ListAllByProduct(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(asc), "misma fecha desempata por secuencia")

	desc, err := s.Movements().ListByProduct(ctx, "p", 2, 0)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "b", desc[0].ID)
	assert.Equal(t, "c", desc[1].ID)

	err = s.Movements().Create(ctx, &entity.Movement{ID: "x", ProductID: "otro"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepository_ReservasVencidasYUsos(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	past := func(d time.Duration) *time.Time { ts := now.Add(-d); return &ts }

	orders := []*entity.Order{
		{ID: "o-2", Status: entity.OrderStockReserved, ExpiresAt: past(time.Minute), CustomerID: "c1",
			Lines: []entity.OrderLine{{ProductID: "p", Quantity: 2, AppliedOfferID: "of"}}},
		{ID: "o-1", Status: entity.OrderStockReserved, ExpiresAt: past(time.Hour), CustomerID: "c2",
			Lines: []entity.OrderLine{{ProductID: "p", Quantity: 3}}},
		{ID: "o-3", Status: entity.OrderStockReserved, ExpiresAt: past(-time.Hour),
			Lines: []entity.OrderLine{{ProductID: "p", Quantity: 1}}},
		{ID: "o-4", Status: entity.OrderCommitted, CustomerID: "c1",
			Lines: []entity.OrderLine{{ProductID: "p", Quantity: 7, AppliedOfferID: "of"}}},
		{ID: "o-5", Status: entity.OrderFailed, CustomerID: "c1",
			Lines: []entity.OrderLine{{ProductID: "p", Quantity: 7, AppliedOfferID: "of"}}},
	}
	for _, o := range orders {
		require.NoError(t, s.Orders().Create(ctx, o))
	}

	expired, err := s.Orders().ListExpiredReservations(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"o-1", "o-2"}, expired, "la más antigua primero")

	limited, err := s.Orders().ListExpiredReservations(ctx, now, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"o-1"}, limited)

	open, err := s.Orders().SumOpenReservations(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, int64(6), open)

	total, perCustomer, err := s.Orders().CountOfferUses(ctx, "of", "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, total, "las fallidas no consumen la oferta")
	assert.Equal(t, 2, perCustomer)
}

func ids(movs []entity.Movement) []string {
	out := make([]string, 0, len(movs))
	for _, m := range movs {
		out = append(out, m.ID)
	}
	return out
}
