package checkout_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/checkout"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/pricing"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
)

const ttl = 15 * time.Minute

type fixture struct {
	store   *memory.Store
	ledger  *inventory.RegisterMovementUseCase
	orch    *checkout.Orchestrator
	start   time.Time
	clock   time.Time
	clockMu sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	// El reloj del orquestador va por delante del reloj real con que se siembra el stock inicial.
	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	f := &fixture{store: store, start: start, clock: start}
	f.ledger = inventory.NewRegisterMovementUseCase(store, nil, nil, nil)
	quoter := pricing.NewPricingUseCase(store.Products(), store.Offers(), store.Orders(), decimal.Zero)
	f.orch = checkout.NewOrchestrator(store, store.Orders(), quoter, f.ledger, ttl, nil, nil).WithClock(f.now)
	return f
}

func (f *fixture) now() time.Time {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	return f.clock
}

func (f *fixture) advance(d time.Duration) {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	f.clock = f.clock.Add(d)
}

func (f *fixture) product(t *testing.T, id, unitPrice string, stock int64) {
	t.Helper()
	ctx := context.Background()
	p := &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: id, CategoryID: "general", Active: true,
		Prices: []entity.PriceEntry{{ID: id + "-retail", PriceLevelID: "retail", Price: decimal.RequireFromString(unitPrice), MinQuantity: 1, Active: true}},
	}
	require.NoError(t, f.store.Products().Create(ctx, p))
	if stock > 0 {
		_, err := f.ledger.RegisterMovement(ctx, inventory.MovementInputDTO{
			UserID: "u-admin", ProductID: id, Type: string(entity.MovementInitialStock), Quantity: decimal.NewFromInt(stock),
		})
		require.NoError(t, err)
	}
}

func (f *fixture) stock(t *testing.T, id string) entity.Stock {
	t.Helper()
	s, err := f.store.Stock().Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return *s
}

func input(lines ...pricing.CartLine) checkout.PlaceOrderInput {
	return checkout.PlaceOrderInput{UserID: "u-caja", CustomerID: "c-1", Lines: lines}
}

func line(productID string, qty int64) pricing.CartLine {
	return pricing.CartLine{ProductID: productID, PriceLevelID: "retail", Quantity: qty}
}

// ── PlaceOrder ────────────────────────────────────────────────────────────────

func TestPlaceOrder_ConfirmaYEscribeVentas(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	f.product(t, "b", "4.50", 3)
	ctx := context.Background()

	order, err := f.orch.PlaceOrder(ctx, input(line("a", 2), line("b", 3)))
	require.NoError(t, err)

	assert.Equal(t, entity.OrderCommitted, order.Status)
	assert.Nil(t, order.ExpiresAt)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("33.5")), "got %s", order.Total)

	assert.Equal(t, entity.Stock{ProductID: "a", Available: 3}, withoutTime(f.stock(t, "a")))
	assert.Equal(t, entity.Stock{ProductID: "b", Available: 0}, withoutTime(f.stock(t, "b")))

	movs, err := f.store.Movements().ListAllByProduct(ctx, "a")
	require.NoError(t, err)
	require.Len(t, movs, 2)
	sale := movs[1]
	assert.Equal(t, entity.MovementSale, sale.Type)
	assert.Equal(t, int64(-2), sale.Quantity)
	assert.Equal(t, order.ID, sale.OrderID)
	assert.Equal(t, "u-caja", sale.CreatedBy)
	require.NotNil(t, sale.CostPerUnit)
	assert.True(t, sale.CostPerUnit.Equal(decimal.NewFromInt(10)))

	stored, err := f.orch.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCommitted, stored.Status)
}

func TestPlaceOrder_LineasRepetidasSeSuman(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "1", 3)

	_, err := f.orch.PlaceOrder(context.Background(), input(line("a", 2), line("a", 2)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Zero(t, f.stock(t, "a").Reserved)
}

func TestPlaceOrder_StockInsuficienteDejaOrdenFallida(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	f.product(t, "b", "10", 1)

	_, err := f.orch.PlaceOrder(context.Background(), input(line("a", 2), line("b", 2)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Zero(t, f.stock(t, "a").Reserved, "la reserva parcial se revierte con la transacción")
	assert.Equal(t, int64(5), f.stock(t, "a").Available)
}

func TestPlaceOrder_ErroresDeCotizacionNoPersisten(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	ctx := context.Background()

	_, err := f.orch.PlaceOrder(ctx, input(line("a", 0)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orch.PlaceOrder(ctx, checkout.PlaceOrderInput{Lines: []pricing.CartLine{line("a", 1)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin usuario responsable")

	ids, err := f.store.Orders().ListExpiredReservations(ctx, f.start.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPlaceOrder_StockVirtualNoSeAgota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := &entity.Product{
		ID: "servicio", SKU: "SRV", Name: "Servicio", Active: true, HasVirtualStock: true,
		Prices: []entity.PriceEntry{{ID: "srv-1", PriceLevelID: "retail", Price: decimal.NewFromInt(30), MinQuantity: 1, Active: true}},
	}
	require.NoError(t, f.store.Products().Create(ctx, p))

	order, err := f.orch.PlaceOrder(ctx, input(line("servicio", 40)))
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCommitted, order.Status)
	assert.Zero(t, f.stock(t, "servicio").Reserved)
}

// Dos checkouts concurrentes por la última unidad: exactamente uno confirma.
func TestPlaceOrder_UltimaUnidadConcurrente(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 1)

	const buyers = 8
	results := make([]error, buyers)
	var wg sync.WaitGroup
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.orch.PlaceOrder(context.Background(), input(line("a", 1)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConcurrencyConflict):
		default:
			t.Errorf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, entity.Stock{ProductID: "a"}, withoutTime(f.stock(t, "a")))
}

// canceledAfterFirstCheck contexto que se cancela después de la primera consulta: la reserva
// se confirma y la transacción de Commit ya no arranca.
type canceledAfterFirstCheck struct {
	context.Context
	checks atomic.Int32
}

func (c *canceledAfterFirstCheck) Err() error {
	if c.checks.Add(1) > 1 {
		return context.Canceled
	}
	return nil
}

func TestPlaceOrder_FalloEnConfirmacionLiberaReserva(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 1)

	ctx := &canceledAfterFirstCheck{Context: context.Background()}
	_, err := f.orch.PlaceOrder(ctx, input(line("a", 1)))
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, entity.Stock{ProductID: "a", Available: 1}, withoutTime(f.stock(t, "a")))
	open, err := f.store.Orders().SumOpenReservations(context.Background(), "a")
	require.NoError(t, err)
	assert.Zero(t, open)

	// La unidad queda libre para el siguiente comprador sin esperar al barrido.
	order, err := f.orch.PlaceOrder(context.Background(), input(line("a", 1)))
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCommitted, order.Status)
	assert.Equal(t, entity.Stock{ProductID: "a"}, withoutTime(f.stock(t, "a")))
}

func TestPlaceOrder_CantidadesQueDesbordanNoReservan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := &entity.Product{
		ID: "v", SKU: "SRV-V", Name: "Servicio", Active: true, HasVirtualStock: true,
		Prices: []entity.PriceEntry{{ID: "v-1", PriceLevelID: "retail", Price: decimal.NewFromInt(1), MinQuantity: 1, Active: true}},
	}
	require.NoError(t, f.store.Products().Create(ctx, p))

	_, err := f.orch.PlaceOrder(ctx, input(line("v", math.MaxInt64), line("v", 1)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.stock(t, "v").Reserved)
}

// ── Reserve / Commit ──────────────────────────────────────────────────────────

func TestReserve_RetieneStockLibre(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	ctx := context.Background()

	order, err := f.orch.Reserve(ctx, input(line("a", 4)))
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStockReserved, order.Status)
	require.NotNil(t, order.ExpiresAt)
	assert.Equal(t, f.start.Add(ttl), *order.ExpiresAt)

	s := f.stock(t, "a")
	assert.Equal(t, int64(5), s.Available)
	assert.Equal(t, int64(4), s.Reserved)

	_, err = f.orch.Reserve(ctx, input(line("a", 2)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "solo queda 1 libre")

	open, err := f.store.Orders().SumOpenReservations(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(4), open)
}

func TestCommit_ConflictoTrasMovimientoConcurrente(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	ctx := context.Background()

	order, err := f.orch.Reserve(ctx, input(line("a", 5)))
	require.NoError(t, err)

	// Una merma consume stock físico entre la reserva y la confirmación.
	_, err = f.ledger.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: "u-bodega", ProductID: "a", Type: string(entity.MovementDamage), Quantity: decimal.NewFromInt(3), Note: "caja rota",
	})
	require.NoError(t, err)

	_, err = f.orch.Commit(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.True(t, domain.IsRetryable(err))

	stored, err := f.orch.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderFailed, stored.Status)
	assert.NotEmpty(t, stored.FailureReason)

	s := f.stock(t, "a")
	assert.Equal(t, int64(2), s.Available, "ninguna venta se escribió")
	assert.Zero(t, s.Reserved)
}

func TestCommit_ConflictoNoTocaOtrosProductos(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	f.product(t, "b", "10", 5)
	ctx := context.Background()

	order, err := f.orch.Reserve(ctx, input(line("a", 2), line("b", 5)))
	require.NoError(t, err)
	_, err = f.ledger.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: "u", ProductID: "b", Type: string(entity.MovementAdjustment), Quantity: decimal.NewFromInt(-1), Note: "conteo",
	})
	require.NoError(t, err)

	_, err = f.orch.Commit(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	assert.Equal(t, entity.Stock{ProductID: "a", Available: 5}, withoutTime(f.stock(t, "a")))
	assert.Equal(t, entity.Stock{ProductID: "b", Available: 4}, withoutTime(f.stock(t, "b")))
}

func TestCommit_EstadoInvalido(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	ctx := context.Background()

	order, err := f.orch.PlaceOrder(ctx, input(line("a", 1)))
	require.NoError(t, err)

	_, err = f.orch.Commit(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "una orden confirmada no se confirma dos veces")

	_, err = f.orch.Commit(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommit_ReservaVencidaSinBarrer(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	ctx := context.Background()

	order, err := f.orch.Reserve(ctx, input(line("a", 3)))
	require.NoError(t, err)
	f.advance(ttl + time.Second)

	_, err = f.orch.Commit(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := f.orch.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderExpired, stored.Status)
	assert.Zero(t, f.stock(t, "a").Reserved)
}

// ── Cancel ────────────────────────────────────────────────────────────────────

func TestCancel_ReservaLiberaStock(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	ctx := context.Background()

	order, err := f.orch.Reserve(ctx, input(line("a", 5)))
	require.NoError(t, err)

	cancelled, err := f.orch.Cancel(ctx, order.ID, "cliente desistió")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, cancelled.Status)
	assert.Equal(t, "cliente desistió", cancelled.FailureReason)
	assert.Equal(t, entity.Stock{ProductID: "a", Available: 5}, withoutTime(f.stock(t, "a")))

	_, err = f.orch.Cancel(ctx, order.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancel_ConfirmadaEscribeDevoluciones(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	ctx := context.Background()

	order, err := f.orch.PlaceOrder(ctx, input(line("a", 2)))
	require.NoError(t, err)
	require.Equal(t, int64(3), f.stock(t, "a").Available)

	_, err = f.orch.Cancel(ctx, order.ID, "producto defectuoso")
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.stock(t, "a").Available)

	movs, err := f.store.Movements().ListAllByProduct(ctx, "a")
	require.NoError(t, err)
	require.Len(t, movs, 3)
	ret := movs[2]
	assert.Equal(t, entity.MovementReturn, ret.Type)
	assert.Equal(t, int64(2), ret.Quantity)
	assert.Equal(t, order.ID, ret.OrderID)
	assert.Equal(t, "cancelación de orden: producto defectuoso", ret.Note)
}

func TestCancel_OrdenFallidaNoSeCancela(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 5)
	ctx := context.Background()

	order, err := f.orch.Reserve(ctx, input(line("a", 5)))
	require.NoError(t, err)
	_, err = f.ledger.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: "u", ProductID: "a", Type: string(entity.MovementExpired), Quantity: decimal.NewFromInt(1), Note: "vencido",
	})
	require.NoError(t, err)
	_, err = f.orch.Commit(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	_, err = f.orch.Cancel(ctx, order.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ── ExpireReservations ────────────────────────────────────────────────────────

func TestExpireReservations_LiberaSoloVencidas(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "10", 10)
	ctx := context.Background()

	old, err := f.orch.Reserve(ctx, input(line("a", 3)))
	require.NoError(t, err)
	f.advance(10 * time.Minute)
	fresh, err := f.orch.Reserve(ctx, input(line("a", 2)))
	require.NoError(t, err)

	n, err := f.orch.ExpireReservations(ctx, f.start.Add(ttl+time.Minute), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired, err := f.orch.GetOrder(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderExpired, expired.Status)

	kept, err := f.orch.GetOrder(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStockReserved, kept.Status)

	assert.Equal(t, int64(2), f.stock(t, "a").Reserved)

	_, err = f.orch.Commit(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	n, err = f.orch.ExpireReservations(ctx, f.start.Add(ttl+time.Minute), 100)
	require.NoError(t, err)
	assert.Zero(t, n, "el barrido es idempotente")
}

// ── Ofertas con tope ──────────────────────────────────────────────────────────

func TestPlaceOrder_OfertaConTopeTotal(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "100", 10)
	ctx := context.Background()
	require.NoError(t, f.store.Offers().Create(ctx, &entity.Offer{
		ID: "lanzamiento", Name: "Lanzamiento", Status: entity.OfferActive,
		DiscountType: entity.DiscountAmount, DiscountValue: decimal.NewFromInt(25),
		StartDate: f.start.Add(-time.Hour), EndDate: f.start.Add(time.Hour), Priority: 1, TotalMaxUses: 1,
	}))

	first, err := f.orch.PlaceOrder(ctx, input(line("a", 1)))
	require.NoError(t, err)
	assert.Equal(t, "lanzamiento", first.Lines[0].AppliedOfferID)
	assert.True(t, first.Total.Equal(decimal.NewFromInt(75)))

	second, err := f.orch.PlaceOrder(ctx, input(line("a", 1)))
	require.NoError(t, err)
	assert.Empty(t, second.Lines[0].AppliedOfferID, "la oferta ya agotó sus usos")
	assert.True(t, second.Total.Equal(decimal.NewFromInt(100)))
}

func withoutTime(s entity.Stock) entity.Stock {
	s.UpdatedAt = time.Time{}
	return s
}
