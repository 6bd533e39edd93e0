package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// ReservationReader cantidad retenida por órdenes abiertas de un producto.
type ReservationReader interface {
	SumOpenReservations(ctx context.Context, productID string) (int64, error)
}

// InventoryUseCase consultas sobre el kardex: historial paginado, saldo derivado y conciliación
// de la fila de stock contra el plegado del historial.
type InventoryUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	movRepo      repository.MovementRepository
	stockRepo    repository.StockRepository
	reservations ReservationReader
	log          *logger.Logger
}

// NewInventoryUseCase construye el caso de uso.
func NewInventoryUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	reservations ReservationReader,
	log *logger.Logger,
) *InventoryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &InventoryUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		movRepo:      movRepo,
		stockRepo:    stockRepo,
		reservations: reservations,
		log:          log,
	}
}

// ListMovements página del kardex de un producto, más reciente primero (fecha y secuencia desc).
func (uc *InventoryUseCase) ListMovements(ctx context.Context, productID string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	if !page.Valid() {
		return nil, domain.Invalid("page debe ser >= 1 y page_size entre 1 y %d", dto.MaxPageSize)
	}
	if _, err := uc.mustProduct(ctx, productID); err != nil {
		return nil, err
	}
	total, err := uc.movRepo.CountByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	list, err := uc.movRepo.ListByProduct(ctx, productID, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{Items: items, PageResponse: dto.NewPageResponse(page, total)}, nil
}

// GetBalance pliega el historial completo del producto. Reserved sale de la fila de stock y
// OnOrder de las órdenes abiertas.
func (uc *InventoryUseCase) GetBalance(ctx context.Context, productID string) (*entity.Balance, error) {
	product, err := uc.mustProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movRepo.ListAllByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	stock, err := uc.stockRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	var reserved int64
	if stock != nil {
		reserved = stock.Reserved
	}
	onOrder, err := uc.reservations.SumOpenReservations(ctx, productID)
	if err != nil {
		return nil, err
	}
	b := inventory.Calculate(product, movs, reserved, onOrder)
	return &b, nil
}

// ReconcileBalance compara la fila de stock con el plegado del kardex y con las reservas abiertas;
// si divergen la repara bajo bloqueo.
func (uc *InventoryUseCase) ReconcileBalance(ctx context.Context, productID string) (*dto.ReconcileResponse, error) {
	if _, err := uc.mustProduct(ctx, productID); err != nil {
		return nil, err
	}
	var resp dto.ReconcileResponse
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		stock, err := stockRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrNotFound
		}
		movs, err := movRepo.ListAllByProduct(ctx, productID)
		if err != nil {
			return err
		}
		open, err := uc.reservations.SumOpenReservations(ctx, productID)
		if err != nil {
			return err
		}
		fold := inventory.Fold(movs)
		resp = dto.ReconcileResponse{
			ProductID:        productID,
			LedgerAvailable:  fold.Available,
			CachedAvailable:  stock.Available,
			OpenReservations: open,
			CachedReserved:   stock.Reserved,
			MovementsFolded:  fold.Count,
		}
		if stock.Available == fold.Available && stock.Reserved == open {
			return nil
		}
		stock.Available = fold.Available
		stock.Reserved = open
		stock.UpdatedAt = time.Now()
		if err := stockRepo.Upsert(ctx, stock); err != nil {
			return err
		}
		resp.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if resp.Repaired {
		uc.log.Warn().
			Str("product_id", productID).
			Int64("ledger_available", resp.LedgerAvailable).
			Int64("cached_available", resp.CachedAvailable).
			Int64("open_reservations", resp.OpenReservations).
			Int64("cached_reserved", resp.CachedReserved).
			Msg("fila de stock reparada desde el kardex")
	}
	return &resp, nil
}

func (uc *InventoryUseCase) mustProduct(ctx context.Context, productID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// ToMovementResponse mapea un movimiento al DTO de salida.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		Sequence:        m.Sequence,
		ProductID:       m.ProductID,
		Type:            string(m.Type),
		Category:        string(m.Type.Category()),
		Quantity:        m.Quantity,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		ReferenceNumber: m.ReferenceNumber,
		OrderID:         m.OrderID,
		Note:            m.Note,
		CostPerUnit:     m.CostPerUnit,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
	}
}

// ToBalanceResponse mapea el saldo; Available y Free quedan en null para stock virtual.
func ToBalanceResponse(b *entity.Balance) dto.BalanceResponse {
	resp := dto.BalanceResponse{
		ProductID: b.ProductID,
		Reserved:  b.Reserved,
		OnOrder:   b.OnOrder,
		Unbounded: b.Unbounded,
	}
	if !b.Unbounded {
		available, free := b.Available, b.Free
		resp.Available = &available
		resp.Free = &free
	}
	return resp
}
