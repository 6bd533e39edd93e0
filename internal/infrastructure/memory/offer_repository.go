package memory

import (
	"context"
	"slices"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.OfferRepository = (*OfferRepository)(nil)

// OfferRepository ofertas en memoria.
type OfferRepository struct {
	b binding
}

func copyOffer(o *entity.Offer) *entity.Offer {
	c := *o
	c.ProductIDs = slices.Clone(o.ProductIDs)
	c.CategoryIDs = slices.Clone(o.CategoryIDs)
	c.ExcludedProductIDs = slices.Clone(o.ExcludedProductIDs)
	c.ExcludedCategoryIDs = slices.Clone(o.ExcludedCategoryIDs)
	c.Rules = slices.Clone(o.Rules)
	c.UsesExhausted = false
	return &c
}

func (r *OfferRepository) Create(ctx context.Context, o *entity.Offer) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.offers[o.ID]; ok {
			return domain.ErrDuplicate
		}
		st.offers[o.ID] = copyOffer(o)
		st.offerOrder = append(st.offerOrder, o.ID)
		return nil
	})
}

func (r *OfferRepository) GetByID(_ context.Context, id string) (*entity.Offer, error) {
	o, ok := r.b.read().offers[id]
	if !ok {
		return nil, nil
	}
	return copyOffer(o), nil
}

func (r *OfferRepository) Update(ctx context.Context, o *entity.Offer) error {
	return r.b.write(ctx, func(st *state) error {
		if _, ok := st.offers[o.ID]; !ok {
			return domain.ErrNotFound
		}
		st.offers[o.ID] = copyOffer(o)
		return nil
	})
}

func (r *OfferRepository) List(_ context.Context, status entity.OfferStatus, limit, offset int) ([]*entity.Offer, int, error) {
	st := r.b.read()
	var matched []*entity.Offer
	for _, id := range st.offerOrder {
		o := st.offers[id]
		if status == "" || o.Status == status {
			matched = append(matched, o)
		}
	}
	items := page(matched, limit, offset)
	out := make([]*entity.Offer, 0, len(items))
	for _, o := range items {
		out = append(out, copyOffer(o))
	}
	return out, len(matched), nil
}

func (r *OfferRepository) ListActive(_ context.Context, now time.Time) ([]entity.Offer, error) {
	st := r.b.read()
	var out []entity.Offer
	for _, id := range st.offerOrder {
		o := st.offers[id]
		if o.Status != entity.OfferActive || now.Before(o.StartDate) || now.After(o.EndDate) {
			continue
		}
		out = append(out, *copyOffer(o))
	}
	return out, nil
}
