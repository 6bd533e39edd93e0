// Package checkout orquesta la máquina de estados de una orden:
// draft → price_validated → stock_reserved → committed | failed, más cancelled y expired.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/pricing"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	domaininv "github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
	"github.com/jhoicas/kardex-api/pkg/metrics"
)

// Orchestrator coordina precios, reservas y confirmación en el kardex.
type Orchestrator struct {
	txRunner  TxRunner
	orderRepo repository.OrderRepository
	quoter    Quoter
	ledger    Ledger
	ttl       time.Duration
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// NewOrchestrator construye el orquestador. ttl es la vida de una reserva sin confirmar.
func NewOrchestrator(
	txRunner TxRunner,
	orderRepo repository.OrderRepository,
	quoter Quoter,
	ledger Ledger,
	ttl time.Duration,
	m *metrics.Metrics,
	log *logger.Logger,
) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		txRunner:  txRunner,
		orderRepo: orderRepo,
		quoter:    quoter,
		ledger:    ledger,
		ttl:       ttl,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// PlaceOrderInput pedido de checkout. Los precios nunca vienen del cliente.
type PlaceOrderInput struct {
	UserID     string
	CustomerID string
	Lines      []pricing.CartLine
}

// PlaceOrder recorre la máquina completa: cotiza, reserva y confirma. Si la confirmación falla
// la reserva se libera antes de volver, aunque ctx ya esté cancelado.
func (o *Orchestrator) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*entity.Order, error) {
	order, err := o.Reserve(ctx, in)
	if err != nil {
		return nil, err
	}
	committed, err := o.Commit(ctx, order.ID)
	if err != nil {
		o.abandon(context.WithoutCancel(ctx), order.ID, err)
		return nil, err
	}
	return committed, nil
}

// abandon libera la reserva de una orden que no llegó a committed y la deja en failed. Si Commit
// ya la cerró (conflicto o expiración) no hace nada; si falla, el barrido la expira con el TTL.
func (o *Orchestrator) abandon(ctx context.Context, orderID string, cause error) {
	released := false
	err := o.txRunner.RunCheckout(ctx, func(
		_ repository.MovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
		orderRepo repository.OrderRepository,
	) error {
		order, err := loadForUpdate(ctx, orderRepo, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStockReserved {
			return nil
		}
		now := o.now()
		if err := releaseReservations(ctx, stockRepo, order, now); err != nil {
			return err
		}
		released = true
		return finish(ctx, orderRepo, order, entity.OrderFailed, cause.Error(), now)
	})
	if err != nil {
		o.log.Error().Err(err).Str("order_id", orderID).Msg("no se pudo liberar la reserva tras fallar la confirmación")
		return
	}
	if released {
		o.metrics.OrderFinished(string(entity.OrderFailed))
		o.log.Warn().Err(cause).Str("order_id", orderID).Msg("confirmación fallida, reserva liberada")
	}
}

// Reserve valida precios y reserva stock; la orden queda en stock_reserved hasta Commit,
// Cancel o expiración.
func (o *Orchestrator) Reserve(ctx context.Context, in PlaceOrderInput) (*entity.Order, error) {
	if in.UserID == "" {
		return nil, domain.Invalid("la orden requiere un usuario responsable")
	}
	now := o.now()
	order := &entity.Order{
		ID:         uuid.New().String(),
		CustomerID: in.CustomerID,
		Status:     entity.OrderDraft,
		CreatedBy:  in.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// draft → price_validated: el precio del servidor siempre gana.
	quote, err := o.quoter.Quote(ctx, in.CustomerID, in.Lines, now)
	if err != nil {
		return nil, err
	}
	applyQuote(order, quote)
	order.Status = entity.OrderPriceValidated

	// price_validated → stock_reserved
	err = o.txRunner.RunCheckout(ctx, func(
		_ repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.OrderRepository,
	) error {
		qtys := order.QuantitiesByProduct()
		for _, productID := range sortedKeys(qtys) {
			qty := qtys[productID]
			if qty <= 0 {
				return domain.Invalid("producto %s: cantidad total fuera de rango", productID)
			}
			stock, err := stockRepo.GetForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			if stock == nil {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
			}
			if !domaininv.Fits(stock.Reserved, qty) {
				return domain.Invalid("producto %s: la reserva desborda la cantidad reservada", productID)
			}
			product, err := productRepo.GetByID(ctx, productID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
			}
			if !domaininv.CanReserve(product, stock, qty) {
				return fmt.Errorf("%w: %s libre %d, solicitado %d", domain.ErrInsufficientStock, product.SKU, stock.Free(), qty)
			}
			stock.Reserved += qty
			stock.UpdatedAt = now
			if err := stockRepo.Upsert(ctx, stock); err != nil {
				return err
			}
		}
		expires := now.Add(o.ttl)
		order.Status = entity.OrderStockReserved
		order.ExpiresAt = &expires
		return orderRepo.Create(ctx, order)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			o.recordFailure(ctx, order, err)
		}
		return nil, err
	}

	o.log.Info().
		Str("order_id", order.ID).
		Str("customer_id", order.CustomerID).
		Int("lines", len(order.Lines)).
		Time("expires_at", *order.ExpiresAt).
		Msg("stock reservado")
	return order, nil
}

// Commit re-valida la reserva bajo bloqueo y escribe una venta por línea. Si otra operación
// consumió el stock entre la reserva y la confirmación la orden falla con ErrConcurrencyConflict
// y sus reservas se liberan.
func (o *Orchestrator) Commit(ctx context.Context, orderID string) (*entity.Order, error) {
	now := o.now()
	var (
		order   *entity.Order
		movs    []*entity.Movement
		outcome error
	)
	err := o.txRunner.RunCheckout(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.OrderRepository,
	) error {
		var err error
		order, err = loadForUpdate(ctx, orderRepo, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStockReserved {
			return fmt.Errorf("%w: no se puede confirmar una orden en estado %s", domain.ErrInvalidTransition, order.Status)
		}
		if order.ExpiresAt != nil && order.ExpiresAt.Before(now) {
			if err := releaseReservations(ctx, stockRepo, order, now); err != nil {
				return err
			}
			outcome = fmt.Errorf("%w: la reserva expiró", domain.ErrInvalidTransition)
			return finish(ctx, orderRepo, order, entity.OrderExpired, "reserva expirada", now)
		}

		// Re-validación completa antes de escribir: si un producto falla no se toca ninguna fila.
		products := make(map[string]*entity.Product, len(order.Lines))
		stocks := make(map[string]*entity.Stock, len(order.Lines))
		qtys := order.QuantitiesByProduct()
		productIDs := sortedKeys(qtys)
		for _, productID := range productIDs {
			qty := qtys[productID]
			stock, err := stockRepo.GetForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			product, err := productRepo.GetByID(ctx, productID)
			if err != nil {
				return err
			}
			if stock == nil || product == nil {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
			}
			if stock.Reserved < qty || !domaininv.CanExit(product, stock.Available, qty) {
				if err := releaseReservations(ctx, stockRepo, order, now); err != nil {
					return err
				}
				outcome = fmt.Errorf("%w: %s disponible %d, reservado %d, requerido %d",
					domain.ErrConcurrencyConflict, product.SKU, stock.Available, stock.Reserved, qty)
				return finish(ctx, orderRepo, order, entity.OrderFailed, outcome.Error(), now)
			}
			products[productID] = product
			stocks[productID] = stock
		}
		for _, productID := range productIDs {
			stock := stocks[productID]
			stock.Reserved -= qtys[productID]
			stock.UpdatedAt = now
			if err := stockRepo.Upsert(ctx, stock); err != nil {
				return err
			}
		}

		for _, line := range order.Lines {
			cost := line.UnitPrice
			mov, err := o.ledger.RecordInTx(ctx, movRepo, stockRepo, productRepo, products[line.ProductID], inventory.MovementRecord{
				Type:            entity.MovementSale,
				Quantity:        line.Quantity,
				ReferenceNumber: order.ID,
				OrderID:         order.ID,
				CostPerUnit:     &cost,
				UserID:          order.CreatedBy,
				Now:             now,
			})
			if err != nil {
				return err
			}
			movs = append(movs, mov)
		}
		return finish(ctx, orderRepo, order, entity.OrderCommitted, "", now)
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		o.metrics.OrderFinished(string(order.Status))
		o.log.Warn().Err(outcome).Str("order_id", order.ID).Str("status", string(order.Status)).Msg("confirmación rechazada")
		return nil, outcome
	}

	o.ledger.AfterCommit(ctx, movs...)
	o.metrics.OrderFinished(string(entity.OrderCommitted))
	o.metrics.OffersApplied(countOffers(order))
	o.log.Info().
		Str("order_id", order.ID).
		Str("total", order.Total.String()).
		Int("movements", len(movs)).
		Msg("orden confirmada")
	return order, nil
}

// Cancel libera la reserva de una orden stock_reserved o revierte con devoluciones una orden
// committed. Cualquier otro estado es ErrInvalidTransition.
func (o *Orchestrator) Cancel(ctx context.Context, orderID, reason string) (*entity.Order, error) {
	now := o.now()
	var (
		order *entity.Order
		movs  []*entity.Movement
	)
	err := o.txRunner.RunCheckout(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.OrderRepository,
	) error {
		var err error
		order, err = loadForUpdate(ctx, orderRepo, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case entity.OrderStockReserved:
			if err := releaseReservations(ctx, stockRepo, order, now); err != nil {
				return err
			}
		case entity.OrderCommitted:
			for _, line := range order.Lines {
				product, err := productRepo.GetByID(ctx, line.ProductID)
				if err != nil {
					return err
				}
				if product == nil {
					return fmt.Errorf("%w: producto %s", domain.ErrNotFound, line.ProductID)
				}
				mov, err := o.ledger.RecordInTx(ctx, movRepo, stockRepo, productRepo, product, inventory.MovementRecord{
					Type:            entity.MovementReturn,
					Quantity:        line.Quantity,
					ReferenceNumber: order.ID,
					OrderID:         order.ID,
					Note:            cancelNote(reason),
					UserID:          order.CreatedBy,
					Now:             now,
				})
				if err != nil {
					return err
				}
				movs = append(movs, mov)
			}
		default:
			return fmt.Errorf("%w: no se puede cancelar una orden en estado %s", domain.ErrInvalidTransition, order.Status)
		}
		return finish(ctx, orderRepo, order, entity.OrderCancelled, reason, now)
	})
	if err != nil {
		return nil, err
	}
	o.ledger.AfterCommit(ctx, movs...)
	o.metrics.OrderFinished(string(entity.OrderCancelled))
	o.log.Info().Str("order_id", order.ID).Int("returns", len(movs)).Str("reason", reason).Msg("orden cancelada")
	return order, nil
}

// ExpireReservations libera hasta limit órdenes stock_reserved vencidas. Lo invoca el barrido
// periódico; cada orden va en su propia transacción y un fallo no detiene a las demás.
func (o *Orchestrator) ExpireReservations(ctx context.Context, now time.Time, limit int) (int, error) {
	ids, err := o.orderRepo.ListExpiredReservations(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	var errs []error
	for _, id := range ids {
		done := false
		err := o.txRunner.RunCheckout(ctx, func(
			_ repository.MovementRepository,
			stockRepo repository.StockRepository,
			_ repository.ProductRepository,
			orderRepo repository.OrderRepository,
		) error {
			order, err := loadForUpdate(ctx, orderRepo, id)
			if err != nil {
				return err
			}
			// Confirmada o cancelada desde el listado.
			if order.Status != entity.OrderStockReserved || order.ExpiresAt == nil || !order.ExpiresAt.Before(now) {
				return nil
			}
			if err := releaseReservations(ctx, stockRepo, order, now); err != nil {
				return err
			}
			done = true
			return finish(ctx, orderRepo, order, entity.OrderExpired, "reserva expirada", now)
		})
		if err != nil {
			o.log.Error().Err(err).Str("order_id", id).Msg("no se pudo expirar la reserva")
			errs = append(errs, fmt.Errorf("orden %s: %w", id, err))
			continue
		}
		if done {
			expired++
		}
	}
	o.metrics.ReservationsExpired(expired)
	if expired > 0 {
		o.log.Info().Int("expired", expired).Msg("reservas expiradas liberadas")
	}
	return expired, errors.Join(errs...)
}

// GetOrder obtiene una orden por ID.
func (o *Orchestrator) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	order, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// recordFailure deja constancia de la orden fallida; la reserva ya se revirtió con la transacción.
func (o *Orchestrator) recordFailure(ctx context.Context, order *entity.Order, cause error) {
	order.Status = entity.OrderFailed
	order.FailureReason = cause.Error()
	order.ExpiresAt = nil
	order.UpdatedAt = o.now()
	if err := o.orderRepo.Create(ctx, order); err != nil {
		o.log.Error().Err(err).Str("order_id", order.ID).Msg("no se pudo registrar la orden fallida")
	}
	o.metrics.OrderFinished(string(entity.OrderFailed))
	o.log.Warn().Err(cause).Str("order_id", order.ID).Msg("checkout fallido")
}

func applyQuote(order *entity.Order, q *pricing.Quote) {
	order.Lines = make([]entity.OrderLine, 0, len(q.Lines))
	for i, l := range q.Lines {
		line := entity.OrderLine{
			LineNo:              i + 1,
			ProductID:           l.Product.ID,
			PriceLevelID:        l.PriceLevelID,
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			DiscountedUnitPrice: l.DiscountedUnitPrice,
			LineDiscount:        l.LineDiscount,
		}
		if l.Offer != nil {
			line.AppliedOfferID = l.Offer.ID
		}
		order.Lines = append(order.Lines, line)
	}
	order.Subtotal = q.Subtotal
	order.DiscountTotal = q.DiscountTotal
	order.TaxRate = q.TaxRate
	order.Tax = q.Tax
	order.Total = q.Total
}

func loadForUpdate(ctx context.Context, orderRepo repository.OrderRepository, id string) (*entity.Order, error) {
	order, err := orderRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// releaseReservations descuenta de la fila de stock lo que la orden tenía reservado.
func releaseReservations(ctx context.Context, stockRepo repository.StockRepository, order *entity.Order, now time.Time) error {
	qtys := order.QuantitiesByProduct()
	for _, productID := range sortedKeys(qtys) {
		stock, err := stockRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if stock == nil {
			continue
		}
		stock.Reserved -= qtys[productID]
		if stock.Reserved < 0 {
			stock.Reserved = 0
		}
		stock.UpdatedAt = now
		if err := stockRepo.Upsert(ctx, stock); err != nil {
			return err
		}
	}
	return nil
}

func finish(ctx context.Context, orderRepo repository.OrderRepository, order *entity.Order, status entity.OrderStatus, reason string, now time.Time) error {
	order.Status = status
	order.FailureReason = reason
	order.ExpiresAt = nil
	order.UpdatedAt = now
	return orderRepo.Update(ctx, order)
}

// sortedKeys orden fijo de bloqueo por producto para evitar interbloqueos.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func countOffers(order *entity.Order) int {
	n := 0
	for _, l := range order.Lines {
		if l.AppliedOfferID != "" {
			n++
		}
	}
	return n
}

func cancelNote(reason string) string {
	if reason == "" {
		return "cancelación de orden"
	}
	return "cancelación de orden: " + reason
}
