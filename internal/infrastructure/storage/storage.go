// Package storage elige la implementación de persistencia según STORAGE_DRIVER y expone los
// repositorios y el runner transaccional que consumen los casos de uso.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/kardex-api/internal/application/checkout"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/postgres"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// TxRunner transacciones del kardex y del checkout.
type TxRunner interface {
	inventory.TxRunner
	checkout.TxRunner
}

// Backend repositorios fuera de transacción más el runner para escrituras atómicas.
type Backend struct {
	Driver    string
	Products  repository.ProductRepository
	Stock     repository.StockRepository
	Movements repository.MovementRepository
	Offers    repository.OfferRepository
	Orders    repository.OrderRepository
	Tx        TxRunner

	close func()
}

// Close libera el pool de conexiones (no-op en memoria).
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open conecta el driver configurado. Con postgres y DB_MIGRATE aplica el esquema.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Backend, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch cfg.App.StorageDriver {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return Memory(memory.NewStore()), nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("storage: conexión a PostgreSQL: %w", err)
		}
		if cfg.DB.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("storage: migración: %w", err)
			}
			log.Info().Msg("esquema aplicado")
		}
		return &Backend{
			Driver:    "postgres",
			Products:  postgres.NewProductRepository(pool),
			Stock:     postgres.NewStockRepository(pool),
			Movements: postgres.NewMovementRepository(pool),
			Offers:    postgres.NewOfferRepository(pool),
			Orders:    postgres.NewOrderRepository(pool),
			Tx:        postgres.NewTxRunner(pool),
			close:     pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("storage: driver desconocido %q", cfg.App.StorageDriver)
}

// Memory envuelve un store en memoria existente.
func Memory(store *memory.Store) *Backend {
	return &Backend{
		Driver:    "memory",
		Products:  store.Products(),
		Stock:     store.Stock(),
		Movements: store.Movements(),
		Offers:    store.Offers(),
		Orders:    store.Orders(),
		Tx:        store,
	}
}
