package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, customer_id, status, subtotal, discount_total, tax_rate, tax, total,
	failure_reason, expires_at, created_by, created_at, updated_at`

// OrderRepo órdenes de checkout y sus líneas sobre PostgreSQL.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create inserta la orden con sus líneas.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	return inTx(ctx, r.q, func(q Querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			o.ID, o.CustomerID, string(o.Status), o.Subtotal, o.DiscountTotal, o.TaxRate, o.Tax, o.Total,
			o.FailureReason, o.ExpiresAt, o.CreatedBy, o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert order: %w", err)
		}
		for _, l := range o.Lines {
			_, err := q.Exec(ctx, `
				INSERT INTO order_lines (order_id, line_no, product_id, price_level_id, quantity,
					unit_price, discounted_unit_price, applied_offer_id, line_discount)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				o.ID, l.LineNo, l.ProductID, l.PriceLevelID, l.Quantity,
				l.UnitPrice, l.DiscountedUnitPrice, l.AppliedOfferID, l.LineDiscount,
			)
			if err != nil {
				if isForeignKeyViolation(err) {
					return mapError(err)
				}
				return fmt.Errorf("insert order line: %w", err)
			}
		}
		return nil
	})
}

// GetByID orden con líneas; (nil, nil) si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate como GetByID, bloqueando la fila de la orden.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) get(ctx context.Context, query, id string) (*entity.Order, error) {
	var (
		o      entity.Order
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&o.ID, &o.CustomerID, &status, &o.Subtotal, &o.DiscountTotal,
		&o.TaxRate, &o.Tax, &o.Total, &o.FailureReason, &o.ExpiresAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", mapError(err))
	}
	o.Status = entity.OrderStatus(status)

	rows, err := r.q.Query(ctx, `
		SELECT line_no, product_id, price_level_id, quantity, unit_price, discounted_unit_price,
			applied_offer_id, line_discount
		FROM order_lines WHERE order_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.LineNo, &l.ProductID, &l.PriceLevelID, &l.Quantity, &l.UnitPrice,
			&l.DiscountedUnitPrice, &l.AppliedOfferID, &l.LineDiscount); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Update persiste estado, motivo, expiración y totales. Las líneas no cambian tras la creación.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $2, failure_reason = $3, expires_at = $4, subtotal = $5,
			discount_total = $6, tax_rate = $7, tax = $8, total = $9, updated_at = $10
		WHERE id = $1`,
		o.ID, string(o.Status), o.FailureReason, o.ExpiresAt, o.Subtotal,
		o.DiscountTotal, o.TaxRate, o.Tax, o.Total, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListExpiredReservations IDs de órdenes stock_reserved vencidas, la más antigua primero.
func (r *OrderRepo) ListExpiredReservations(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id FROM orders
		WHERE status = 'stock_reserved' AND expires_at < $1
		ORDER BY expires_at, id LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// SumOpenReservations unidades retenidas por órdenes stock_reserved.
func (r *OrderRepo) SumOpenReservations(ctx context.Context, productID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.quantity), 0)::BIGINT
		FROM order_lines l JOIN orders o ON o.id = l.order_id
		WHERE o.status = 'stock_reserved' AND l.product_id = $1`, productID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum open reservations: %w", err)
	}
	return total, nil
}

// CountOfferUses órdenes reservadas o confirmadas con la oferta: total y del cliente.
func (r *OrderRepo) CountOfferUses(ctx context.Context, offerID, customerID string) (int, int, error) {
	var total, perCustomer int
	err := r.q.QueryRow(ctx, `
		SELECT count(DISTINCT o.id),
			count(DISTINCT o.id) FILTER (WHERE $2::TEXT <> '' AND o.customer_id = $2::TEXT)
		FROM orders o JOIN order_lines l ON l.order_id = o.id
		WHERE l.applied_offer_id = $1 AND o.status IN ('stock_reserved', 'committed')`,
		offerID, customerID,
	).Scan(&total, &perCustomer)
	if err != nil {
		return 0, 0, fmt.Errorf("count offer uses: %w", err)
	}
	return total, perCustomer, nil
}
