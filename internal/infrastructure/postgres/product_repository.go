package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, category_id, active, has_virtual_stock, average_cost, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste el producto, sus entradas de precio y su fila de stock en cero.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	return inTx(ctx, r.q, func(q Querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			product.ID, product.SKU, product.Name, product.CategoryID, product.Active,
			product.HasVirtualStock, product.AverageCost, product.CreatedAt, product.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert product: %w", err)
		}
		for i := range product.Prices {
			e := &product.Prices[i]
			e.ProductID = product.ID
			e.Position = i
			if err := insertPriceEntry(ctx, q, e); err != nil {
				return err
			}
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO stock (product_id, updated_at) VALUES ($1, $2)`,
			product.ID, product.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert stock: %w", err)
		}
		return nil
	})
}

// GetByID obtiene un producto con sus precios; (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetBySKU obtiene un producto por código.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

func (r *ProductRepo) getOne(ctx context.Context, query string, arg string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if err := r.attachPrices(ctx, []*entity.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// Update actualiza datos descriptivos. No toca costo, precios ni stock.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET sku = $2, name = $3, category_id = $4, active = $5, has_virtual_stock = $6, updated_at = $7
		WHERE id = $1`,
		product.ID, product.SKU, product.Name, product.CategoryID, product.Active,
		product.HasVirtualStock, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCost actualiza solo el costo promedio (usado por el motor de inventario).
func (r *ProductRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET average_cost = $2, updated_at = now() WHERE id = $1`,
		productID, cost,
	)
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List productos en orden de creación con el total para paginar.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachPrices(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// AddPriceEntry agrega la entrada al final del orden de inserción.
func (r *ProductRepo) AddPriceEntry(ctx context.Context, e *entity.PriceEntry) error {
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM price_entries WHERE product_id = $1`, e.ProductID,
	).Scan(&e.Position)
	if err != nil {
		return fmt.Errorf("next price position: %w", err)
	}
	return insertPriceEntry(ctx, r.q, e)
}

// UpdatePriceEntry cambia precio y estado; nivel y umbral no se modifican.
func (r *ProductRepo) UpdatePriceEntry(ctx context.Context, e *entity.PriceEntry) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE price_entries SET price = $3, price_without_tax = $4, active = $5
		WHERE id = $1 AND product_id = $2`,
		e.ID, e.ProductID, e.Price, e.PriceWithoutTax, e.Active,
	)
	if err != nil {
		return fmt.Errorf("update price entry: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func insertPriceEntry(ctx context.Context, q Querier, e *entity.PriceEntry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO price_entries (id, product_id, price_level_id, price, price_without_tax, min_quantity, active, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ProductID, e.PriceLevelID, e.Price, e.PriceWithoutTax, e.MinQuantity, e.Active, e.Position, e.CreatedAt,
	)
	if err != nil {
		if mapped := mapError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert price entry: %w", err)
	}
	return nil
}

// attachPrices carga las entradas de precio de varios productos en una sola consulta.
func (r *ProductRepo) attachPrices(ctx context.Context, products []*entity.Product) error {
	if len(products) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, price_level_id, price, price_without_tax, min_quantity, active, position, created_at
		FROM price_entries WHERE product_id = ANY($1)
		ORDER BY product_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list price entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entity.PriceEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.PriceLevelID, &e.Price, &e.PriceWithoutTax,
			&e.MinQuantity, &e.Active, &e.Position, &e.CreatedAt); err != nil {
			return fmt.Errorf("scan price entry: %w", err)
		}
		if p := byID[e.ProductID]; p != nil {
			p.Prices = append(p.Prices, e)
		}
	}
	return rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.Active, &p.HasVirtualStock,
		&p.AverageCost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
