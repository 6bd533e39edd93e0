package inventory

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// MovementPublisher notifica movimientos ya confirmados a sistemas externos.
type MovementPublisher interface {
	Publish(ctx context.Context, movements ...*entity.Movement) error
}

// KardexRenderer genera la tarjeta de kardex de un producto.
type KardexRenderer interface {
	RenderKardex(ctx context.Context, product *entity.Product, movements []entity.Movement, balance entity.Balance) ([]byte, error)
}
