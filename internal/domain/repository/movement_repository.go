package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// MovementRepository define el puerto del kardex. Solo inserción: no hay Update ni Delete.
type MovementRepository interface {
	// Create persiste el movimiento y le asigna Sequence.
	Create(ctx context.Context, movement *entity.Movement) error
	// ListByProduct página ordenada por fecha y secuencia descendentes.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
	// ListAllByProduct historial completo en orden de escritura (ascendente), para el plegado.
	ListAllByProduct(ctx context.Context, productID string) ([]entity.Movement, error)
}
