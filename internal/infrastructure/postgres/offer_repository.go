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

var _ repository.OfferRepository = (*OfferRepo)(nil)

const offerColumns = `id, name, status, discount_type, discount_value, product_ids, category_ids,
	excluded_product_ids, excluded_category_ids, max_uses_per_customer, total_max_uses,
	start_date, end_date, priority, created_at, updated_at`

// OfferRepo ofertas y reglas sobre PostgreSQL.
type OfferRepo struct {
	q Querier
}

// NewOfferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOfferRepository(q Querier) *OfferRepo {
	return &OfferRepo{q: q}
}

// Create inserta la oferta con sus reglas.
func (r *OfferRepo) Create(ctx context.Context, o *entity.Offer) error {
	return inTx(ctx, r.q, func(q Querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO offers (`+offerColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			o.ID, o.Name, string(o.Status), string(o.DiscountType), o.DiscountValue,
			nonNil(o.ProductIDs), nonNil(o.CategoryIDs), nonNil(o.ExcludedProductIDs), nonNil(o.ExcludedCategoryIDs),
			o.MaxUsesPerCustomer, o.TotalMaxUses, o.StartDate, o.EndDate, o.Priority, o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert offer: %w", err)
		}
		return insertRules(ctx, q, o)
	})
}

// GetByID oferta con reglas; (nil, nil) si no existe.
func (r *OfferRepo) GetByID(ctx context.Context, id string) (*entity.Offer, error) {
	o, err := scanOffer(r.q.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if err := r.attachRules(ctx, []*entity.Offer{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// Update reemplaza la oferta y sus reglas.
func (r *OfferRepo) Update(ctx context.Context, o *entity.Offer) error {
	return inTx(ctx, r.q, func(q Querier) error {
		cmd, err := q.Exec(ctx, `
			UPDATE offers SET name = $2, status = $3, discount_type = $4, discount_value = $5,
				product_ids = $6, category_ids = $7, excluded_product_ids = $8, excluded_category_ids = $9,
				max_uses_per_customer = $10, total_max_uses = $11, start_date = $12, end_date = $13,
				priority = $14, updated_at = $15
			WHERE id = $1`,
			o.ID, o.Name, string(o.Status), string(o.DiscountType), o.DiscountValue,
			nonNil(o.ProductIDs), nonNil(o.CategoryIDs), nonNil(o.ExcludedProductIDs), nonNil(o.ExcludedCategoryIDs),
			o.MaxUsesPerCustomer, o.TotalMaxUses, o.StartDate, o.EndDate, o.Priority, o.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update offer: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if _, err := q.Exec(ctx, `DELETE FROM offer_rules WHERE offer_id = $1`, o.ID); err != nil {
			return fmt.Errorf("delete offer rules: %w", err)
		}
		return insertRules(ctx, q, o)
	})
}

// List ofertas en orden de creación, filtradas por estado si status no es vacío.
func (r *OfferRepo) List(ctx context.Context, status entity.OfferStatus, limit, offset int) ([]*entity.Offer, int, error) {
	var total int
	if err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM offers WHERE ($1::TEXT = '' OR status = $1::TEXT)`, string(status),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count offers: %w", err)
	}
	list, err := r.query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE ($1::TEXT = '' OR status = $1::TEXT)
		ORDER BY created_at, id LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListActive ofertas activas cuya ventana contiene now.
func (r *OfferRepo) ListActive(ctx context.Context, now time.Time) ([]entity.Offer, error) {
	list, err := r.query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE status = 'active' AND start_date <= $1 AND end_date >= $1
		ORDER BY priority, start_date, id`, now)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Offer, 0, len(list))
	for _, o := range list {
		out = append(out, *o)
	}
	return out, nil
}

func (r *OfferRepo) query(ctx context.Context, sql string, args ...any) ([]*entity.Offer, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachRules(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OfferRepo) attachRules(ctx context.Context, offers []*entity.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Offer, len(offers))
	ids := make([]string, 0, len(offers))
	for _, o := range offers {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT offer_id, type, value FROM offer_rules
		WHERE offer_id = ANY($1) ORDER BY offer_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list offer rules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			offerID, typ string
			rule         entity.Rule
		)
		if err := rows.Scan(&offerID, &typ, &rule.Value); err != nil {
			return fmt.Errorf("scan offer rule: %w", err)
		}
		rule.Type = entity.RuleType(typ)
		if o := byID[offerID]; o != nil {
			o.Rules = append(o.Rules, rule)
		}
	}
	return rows.Err()
}

func insertRules(ctx context.Context, q Querier, o *entity.Offer) error {
	for i, rule := range o.Rules {
		if _, err := q.Exec(ctx,
			`INSERT INTO offer_rules (offer_id, position, type, value) VALUES ($1, $2, $3, $4)`,
			o.ID, i, string(rule.Type), rule.Value,
		); err != nil {
			return fmt.Errorf("insert offer rule: %w", err)
		}
	}
	return nil
}

func scanOffer(row pgx.Row) (*entity.Offer, error) {
	var (
		o             entity.Offer
		status, dtype string
	)
	err := row.Scan(&o.ID, &o.Name, &status, &dtype, &o.DiscountValue,
		&o.ProductIDs, &o.CategoryIDs, &o.ExcludedProductIDs, &o.ExcludedCategoryIDs,
		&o.MaxUsesPerCustomer, &o.TotalMaxUses, &o.StartDate, &o.EndDate, &o.Priority,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = entity.OfferStatus(status)
	o.DiscountType = entity.DiscountType(dtype)
	return &o, nil
}
