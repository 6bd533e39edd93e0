package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepository)(nil)

// MovementRepository kardex en memoria, solo inserción.
type MovementRepository struct {
	b binding
}

func (r *MovementRepository) Create(ctx context.Context, m *entity.Movement) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.products[m.ProductID]; !ok {
			return domain.ErrNotFound
		}
		st.seq++
		m.Sequence = st.seq
		// Clip obliga a append a copiar: el slice anterior puede seguir visible en otro snapshot.
		st.movements[m.ProductID] = append(slices.Clip(st.movements[m.ProductID]), *m)
		return nil
	})
}

func (r *MovementRepository) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	all := sorted(r.b.read().movements[productID])
	slices.Reverse(all)
	items := page(all, limit, offset)
	out := make([]*entity.Movement, 0, len(items))
	for i := range items {
		m := items[i]
		out = append(out, &m)
	}
	return out, nil
}

func (r *MovementRepository) CountByProduct(_ context.Context, productID string) (int, error) {
	return len(r.b.read().movements[productID]), nil
}

func (r *MovementRepository) ListAllByProduct(_ context.Context, productID string) ([]entity.Movement, error) {
	return sorted(r.b.read().movements[productID]), nil
}

// sorted copia ordenada por fecha y secuencia ascendentes.
func sorted(movs []entity.Movement) []entity.Movement {
	out := slices.Clone(movs)
	slices.SortStableFunc(out, func(a, b entity.Movement) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.Sequence < b.Sequence:
			return -1
		case a.Sequence > b.Sequence:
			return 1
		}
		return 0
	})
	return out
}
