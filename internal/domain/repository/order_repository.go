package repository

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para órdenes de checkout.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetForUpdate bloquea la orden dentro de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	// ListExpiredReservations órdenes stock_reserved con ExpiresAt anterior a now.
	ListExpiredReservations(ctx context.Context, now time.Time, limit int) ([]string, error)
	// SumOpenReservations cantidad retenida por órdenes stock_reserved para el producto.
	SumOpenReservations(ctx context.Context, productID string) (int64, error)
	// CountOfferUses órdenes reservadas o confirmadas que aplicaron la oferta: total y del cliente.
	CountOfferUses(ctx context.Context, offerID, customerID string) (total, perCustomer int, err error)
}
