package memory

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository productos y entradas de precio en memoria.
type ProductRepository struct {
	b binding
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	c.Prices = slices.Clone(p.Prices)
	return &c
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := st.skus[p.SKU]; ok {
			return domain.ErrDuplicate
		}
		c := copyProduct(p)
		for i := range c.Prices {
			c.Prices[i].ProductID = p.ID
			c.Prices[i].Position = i
		}
		if err := checkPriceUniqueness(c.Prices); err != nil {
			return err
		}
		st.products[p.ID] = c
		st.productOrder = append(st.productOrder, p.ID)
		st.skus[p.SKU] = p.ID
		st.stock[p.ID] = entity.Stock{ProductID: p.ID, UpdatedAt: p.CreatedAt}
		return nil
	})
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.b.read().products[id]
	if !ok {
		return nil, nil
	}
	return copyProduct(p), nil
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	id, ok := r.b.read().skus[sku]
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// Update reemplaza los datos del producto; las entradas de precio se gestionan aparte.
func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.b.write(ctx, func(st *state) error {
		old, ok := st.products[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if old.SKU != p.SKU {
			if _, taken := st.skus[p.SKU]; taken {
				return domain.ErrDuplicate
			}
			delete(st.skus, old.SKU)
			st.skus[p.SKU] = p.ID
		}
		c := copyProduct(p)
		c.Prices = old.Prices
		c.AverageCost = old.AverageCost
		st.products[p.ID] = c
		return nil
	})
}

func (r *ProductRepository) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	return r.b.write(ctx, func(st *state) error {
		old, ok := st.products[productID]
		if !ok {
			return domain.ErrNotFound
		}
		c := copyProduct(old)
		c.AverageCost = cost
		st.products[productID] = c
		return nil
	})
}

func (r *ProductRepository) List(_ context.Context, limit, offset int) ([]*entity.Product, int, error) {
	st := r.b.read()
	ids := page(st.productOrder, limit, offset)
	out := make([]*entity.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyProduct(st.products[id]))
	}
	return out, len(st.productOrder), nil
}

func (r *ProductRepository) AddPriceEntry(ctx context.Context, e *entity.PriceEntry) error {
	return r.b.write(ctx, func(st *state) error {
		old, ok := st.products[e.ProductID]
		if !ok {
			return domain.ErrNotFound
		}
		c := copyProduct(old)
		entry := *e
		entry.Position = len(c.Prices)
		c.Prices = append(c.Prices, entry)
		if err := checkPriceUniqueness(c.Prices); err != nil {
			return err
		}
		e.Position = entry.Position
		st.products[e.ProductID] = c
		return nil
	})
}

func (r *ProductRepository) UpdatePriceEntry(ctx context.Context, e *entity.PriceEntry) error {
	return r.b.write(ctx, func(st *state) error {
		old, ok := st.products[e.ProductID]
		if !ok {
			return domain.ErrNotFound
		}
		c := copyProduct(old)
		i := slices.IndexFunc(c.Prices, func(p entity.PriceEntry) bool { return p.ID == e.ID })
		if i < 0 {
			return domain.ErrNotFound
		}
		c.Prices[i].Price = e.Price
		c.Prices[i].PriceWithoutTax = e.PriceWithoutTax
		c.Prices[i].Active = e.Active
		st.products[e.ProductID] = c
		return nil
	})
}

func checkPriceUniqueness(prices []entity.PriceEntry) error {
	type key struct {
		level string
		min   int64
	}
	seen := make(map[key]struct{}, len(prices))
	for _, p := range prices {
		k := key{p.PriceLevelID, p.MinQuantity}
		if _, dup := seen[k]; dup {
			return domain.ErrDuplicate
		}
		seen[k] = struct{}{}
	}
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
