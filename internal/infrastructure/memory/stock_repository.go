package memory

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepository)(nil)

// StockRepository filas de stock en memoria. El bloqueo de GetForUpdate lo da la serialización
// de transacciones del Store.
type StockRepository struct {
	b binding
}

func (r *StockRepository) Get(_ context.Context, productID string) (*entity.Stock, error) {
	st := r.b.read()
	if _, ok := st.products[productID]; !ok {
		return nil, nil
	}
	s := st.stock[productID]
	s.ProductID = productID
	return &s, nil
}

func (r *StockRepository) GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error) {
	return r.Get(ctx, productID)
}

func (r *StockRepository) Upsert(ctx context.Context, s *entity.Stock) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.products[s.ProductID]; !ok {
			return domain.ErrNotFound
		}
		st.stock[s.ProductID] = *s
		return nil
	})
}
