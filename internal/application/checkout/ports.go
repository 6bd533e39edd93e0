package checkout

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/pricing"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// TxRunner transacción con repositorios de inventario y órdenes (reserva y confirmación atómicas).
type TxRunner interface {
	RunCheckout(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.OrderRepository,
	) error) error
}

// Quoter valoriza el carrito en el servidor.
type Quoter interface {
	Quote(ctx context.Context, customerID string, lines []pricing.CartLine, now time.Time) (*pricing.Quote, error)
}

// Ledger escritura del kardex dentro de la transacción del checkout.
type Ledger interface {
	RecordInTx(
		ctx context.Context,
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		product *entity.Product,
		rec inventory.MovementRecord,
	) (*entity.Movement, error)
	AfterCommit(ctx context.Context, movements ...*entity.Movement)
}
