package repository

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// OfferRepository define el puerto de persistencia para ofertas y sus reglas.
type OfferRepository interface {
	Create(ctx context.Context, offer *entity.Offer) error
	GetByID(ctx context.Context, id string) (*entity.Offer, error)
	Update(ctx context.Context, offer *entity.Offer) error
	// List filtra por estado si status no es vacío.
	List(ctx context.Context, status entity.OfferStatus, limit, offset int) ([]*entity.Offer, int, error)
	// ListActive ofertas en estado active cuya ventana contiene now.
	ListActive(ctx context.Context, now time.Time) ([]entity.Offer, error)
}
