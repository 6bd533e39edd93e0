package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, sequence, product_id, type, quantity, quantity_before, quantity_after,
	reference_number, order_id, note, cost_per_unit, created_at, created_by`

// MovementRepo kardex sobre PostgreSQL. La tabla rechaza UPDATE y DELETE por trigger.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta el movimiento y devuelve la secuencia asignada por la base.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO movements (id, product_id, type, quantity, quantity_before, quantity_after,
			reference_number, order_id, note, cost_per_unit, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING sequence`,
		m.ID, m.ProductID, string(m.Type), m.Quantity, m.QuantityBefore, m.QuantityAfter,
		m.ReferenceNumber, nullable(m.OrderID), m.Note, m.CostPerUnit, m.CreatedAt, m.CreatedBy,
	).Scan(&m.Sequence)
	if err != nil {
		if isForeignKeyViolation(err) {
			return mapError(err)
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByProduct página del kardex, más reciente primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE product_id = $1
		ORDER BY created_at DESC, sequence DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// CountByProduct total de movimientos del producto.
func (r *MovementRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM movements WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

// ListAllByProduct historial completo en orden ascendente.
func (r *MovementRepo) ListAllByProduct(ctx context.Context, productID string) ([]entity.Movement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE product_id = $1
		ORDER BY created_at, sequence`, productID)
	if err != nil {
		return nil, fmt.Errorf("list all movements: %w", err)
	}
	defer rows.Close()
	var list []entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (entity.Movement, error) {
	var (
		m       entity.Movement
		typ     string
		orderID *string
	)
	err := row.Scan(&m.ID, &m.Sequence, &m.ProductID, &typ, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
		&m.ReferenceNumber, &orderID, &m.Note, &m.CostPerUnit, &m.CreatedAt, &m.CreatedBy)
	if err != nil {
		return entity.Movement{}, fmt.Errorf("scan movement: %w", err)
	}
	m.Type = entity.MovementType(typ)
	m.OrderID = deref(orderID)
	return m, nil
}
