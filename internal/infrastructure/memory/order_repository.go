package memory

import (
	"context"
	"slices"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepository)(nil)

// OrderRepository órdenes de checkout en memoria.
type OrderRepository struct {
	b binding
}

func copyOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Lines = slices.Clone(o.Lines)
	if o.ExpiresAt != nil {
		t := *o.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return domain.ErrDuplicate
		}
		st.orders[o.ID] = copyOrder(o)
		return nil
	})
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*entity.Order, error) {
	o, ok := r.b.read().orders[id]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) Update(ctx context.Context, o *entity.Order) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.orders[o.ID]; !ok {
			return domain.ErrNotFound
		}
		st.orders[o.ID] = copyOrder(o)
		return nil
	})
}

func (r *OrderRepository) ListExpiredReservations(_ context.Context, now time.Time, limit int) ([]string, error) {
	var expired []*entity.Order
	for _, o := range r.b.read().orders {
		if o.Status == entity.OrderStockReserved && o.ExpiresAt != nil && o.ExpiresAt.Before(now) {
			expired = append(expired, o)
		}
	}
	slices.SortFunc(expired, func(a, b *entity.Order) int {
		if c := a.ExpiresAt.Compare(*b.ExpiresAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	ids := make([]string, 0, len(expired))
	for _, o := range page(expired, limit, 0) {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func (r *OrderRepository) SumOpenReservations(_ context.Context, productID string) (int64, error) {
	var total int64
	for _, o := range r.b.read().orders {
		if !o.IsOpen() {
			continue
		}
		for _, l := range o.Lines {
			if l.ProductID == productID {
				total += l.Quantity
			}
		}
	}
	return total, nil
}

func (r *OrderRepository) CountOfferUses(_ context.Context, offerID, customerID string) (int, int, error) {
	var total, perCustomer int
	for _, o := range r.b.read().orders {
		if o.Status != entity.OrderStockReserved && o.Status != entity.OrderCommitted {
			continue
		}
		if !o.HasOffer(offerID) {
			continue
		}
		total++
		if customerID != "" && o.CustomerID == customerID {
			perCustomer++
		}
	}
	return total, perCustomer, nil
}
