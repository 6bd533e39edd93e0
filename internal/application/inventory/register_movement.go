package inventory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
	"github.com/jhoicas/kardex-api/pkg/metrics"
)

// RegisterMovementUseCase registra movimientos de kardex de forma transaccional con bloqueo de la
// fila de stock (SELECT FOR UPDATE) y Commit/Rollback.
type RegisterMovementUseCase struct {
	txRunner  TxRunner
	publisher MovementPublisher
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewRegisterMovementUseCase construye el caso de uso. publisher y m pueden ser nil.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	publisher MovementPublisher,
	m *metrics.Metrics,
	log *logger.Logger,
) *RegisterMovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterMovementUseCase{
		txRunner:  txRunner,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// MovementInputDTO entrada para registrar un movimiento. Quantity debe ser entera:
// positiva para entradas y salidas, distinta de cero (con signo) para ajustes.
type MovementInputDTO struct {
	UserID          string
	ProductID       string
	Type            string
	Quantity        decimal.Decimal
	ReferenceNumber string
	Note            string
	CostPerUnit     *decimal.Decimal
}

// MovementRecord movimiento ya validado, para escribir dentro de una transacción existente.
type MovementRecord struct {
	Type            entity.MovementType
	Quantity        int64 // sin signo salvo en ajustes
	ReferenceNumber string
	OrderID         string
	Note            string
	CostPerUnit     *decimal.Decimal
	UserID          string
	Now             time.Time
}

// FromRequest adapta el request HTTP al caso de uso.
func FromRequest(userID, productID string, in dto.RegisterMovementRequest) MovementInputDTO {
	return MovementInputDTO{
		UserID:          userID,
		ProductID:       productID,
		Type:            in.Type,
		Quantity:        in.Quantity,
		ReferenceNumber: in.ReferenceNumber,
		Note:            in.Note,
		CostPerUnit:     in.CostPerUnit,
	}
}

// RegisterMovement valida la entrada, abre la transacción, bloquea la fila de stock, verifica que una
// salida no deje el saldo negativo y persiste el movimiento junto con el nuevo total corrido.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*entity.Movement, error) {
	rec, err := validateMovement(input)
	if err != nil {
		return nil, err
	}

	var mov *entity.Movement
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := productRepo.GetByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		mov, err = uc.RecordInTx(ctx, movRepo, stockRepo, productRepo, product, rec)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.AfterCommit(ctx, mov)
	return mov, nil
}

// RecordInTx escribe un movimiento usando los repositorios de la transacción del caller.
// Bloquea la fila de stock del producto; si el caller ya la tiene bloqueada el bloqueo es reentrante.
func (uc *RegisterMovementUseCase) RecordInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	product *entity.Product,
	rec MovementRecord,
) (*entity.Movement, error) {
	stock, err := stockRepo.GetForUpdate(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, domain.ErrNotFound
	}

	signed := rec.Type.SignedQuantity(rec.Quantity)
	if !inventory.Fits(stock.Available, signed) {
		return nil, domain.Invalid("la cantidad %d desborda el saldo actual %d", signed, stock.Available)
	}
	if signed < 0 && !inventory.CanExit(product, stock.Available, -signed) {
		return nil, fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, stock.Available, -signed)
	}

	// Costo promedio ponderado: solo entradas que traen costo. Se relee el producto bajo el bloqueo.
	if rec.Type.Category() == entity.CategoryEntry && rec.CostPerUnit != nil {
		current, err := productRepo.GetByID(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		if current != nil {
			newCost := inventory.CostCalculator(stock.Available, current.AverageCost, signed, *rec.CostPerUnit)
			if err := productRepo.UpdateCost(ctx, product.ID, newCost); err != nil {
				return nil, err
			}
		}
	}

	now := rec.Now
	if now.IsZero() {
		now = time.Now()
	}
	mov := &entity.Movement{
		ID:              uuid.New().String(),
		ProductID:       product.ID,
		Type:            rec.Type,
		Quantity:        signed,
		QuantityBefore:  stock.Available,
		QuantityAfter:   inventory.Apply(stock.Available, entity.Movement{Quantity: signed}),
		ReferenceNumber: rec.ReferenceNumber,
		OrderID:         rec.OrderID,
		Note:            rec.Note,
		CostPerUnit:     rec.CostPerUnit,
		CreatedAt:       now,
		CreatedBy:       rec.UserID,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}

	stock.Available = mov.QuantityAfter
	stock.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, stock); err != nil {
		return nil, err
	}
	return mov, nil
}

// AfterCommit log, métricas y publicación de movimientos ya confirmados. Un fallo al publicar
// no deshace nada: se registra y se sigue.
func (uc *RegisterMovementUseCase) AfterCommit(ctx context.Context, movements ...*entity.Movement) {
	for _, m := range movements {
		uc.metrics.MovementRecorded(string(m.Type))
		uc.log.Info().
			Str("movement_id", m.ID).
			Str("product_id", m.ProductID).
			Str("type", string(m.Type)).
			Int64("quantity", m.Quantity).
			Int64("quantity_after", m.QuantityAfter).
			Str("order_id", m.OrderID).
			Str("user_id", m.CreatedBy).
			Msg("movimiento registrado")
	}
	if uc.publisher == nil || len(movements) == 0 {
		return
	}
	if err := uc.publisher.Publish(ctx, movements...); err != nil {
		uc.log.Error().Err(err).Int("movements", len(movements)).Msg("no se pudo publicar el evento de movimiento")
	}
}

func validateMovement(in MovementInputDTO) (MovementRecord, error) {
	typ := entity.MovementType(in.Type)
	if !typ.Valid() {
		return MovementRecord{}, domain.Invalid("tipo de movimiento desconocido %q", in.Type)
	}
	if in.ProductID == "" {
		return MovementRecord{}, domain.Invalid("product_id es obligatorio")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return MovementRecord{}, domain.Invalid("el movimiento requiere un usuario responsable")
	}
	if !in.Quantity.IsInteger() {
		return MovementRecord{}, domain.Invalid("la cantidad debe ser un número entero")
	}
	qty := in.Quantity.IntPart()
	if !decimal.NewFromInt(qty).Equal(in.Quantity) {
		return MovementRecord{}, domain.Invalid("cantidad fuera de rango")
	}
	if typ == entity.MovementAdjustment {
		if qty == 0 {
			return MovementRecord{}, domain.Invalid("un ajuste no puede ser cero")
		}
		if qty == math.MinInt64 {
			return MovementRecord{}, domain.Invalid("cantidad fuera de rango")
		}
	} else if qty <= 0 {
		return MovementRecord{}, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if typ.RequiresNote() && strings.TrimSpace(in.Note) == "" {
		return MovementRecord{}, domain.Invalid("el tipo %s requiere una nota", typ)
	}
	if in.CostPerUnit != nil && in.CostPerUnit.IsNegative() {
		return MovementRecord{}, domain.Invalid("cost_per_unit no puede ser negativo")
	}
	return MovementRecord{
		Type:            typ,
		Quantity:        qty,
		ReferenceNumber: in.ReferenceNumber,
		Note:            strings.TrimSpace(in.Note),
		CostPerUnit:     in.CostPerUnit,
		UserID:          in.UserID,
	}, nil
}
