package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene la fila de stock de un producto; (nil, nil) si el producto no existe.
func (r *StockRepo) Get(ctx context.Context, productID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, `
		SELECT product_id, available, reserved, updated_at
		FROM stock WHERE product_id = $1`, productID,
	).Scan(&s.ProductID, &s.Available, &s.Reserved, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE). Si el producto existe pero
// aún no tiene fila, la crea primero para que siempre haya algo que bloquear.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (product_id)
		SELECT id FROM products WHERE id = $1
		ON CONFLICT (product_id) DO NOTHING`, productID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", mapError(err))
	}
	var s entity.Stock
	err = r.q.QueryRow(ctx, `
		SELECT product_id, available, reserved, updated_at
		FROM stock WHERE product_id = $1
		FOR UPDATE`, productID,
	).Scan(&s.ProductID, &s.Available, &s.Reserved, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock for update: %w", mapError(err))
	}
	return &s, nil
}

// Upsert inserta o actualiza la fila de stock del producto.
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (product_id, available, reserved, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id)
		DO UPDATE SET available = EXCLUDED.available, reserved = EXCLUDED.reserved, updated_at = now()`,
		stock.ProductID, stock.Available, stock.Reserved,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return mapError(err)
		}
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}
