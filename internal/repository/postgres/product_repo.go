// internal/repository/postgres/product_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fashionsphere-service/internal/domain/product"
	xerrors "fashionsphere-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
)

const productColumns = `id, name, description, price, discount_price, count_in_stock,
	category, brand, sizes, colors, sku, is_published, created_at, updated_at`

type ProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice, &p.CountInStock,
		&p.Category, &p.Brand, &p.Sizes, &p.Colors, &p.SKU, &p.IsPublished,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// nonNil keeps a missing list from being written as NULL.
func nonNil(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}

// Create inserts a product
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	if p.ID == "" {
		p.ID = ulid.Make().String()
	}
	p.Sizes, p.Colors = nonNil(p.Sizes), nonNil(p.Colors)
	query := `
		INSERT INTO products (
			id, name, description, price, discount_price, count_in_stock,
			category, brand, sizes, colors, sku, is_published
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.DiscountPrice, p.CountInStock,
		p.Category, p.Brand, p.Sizes, p.Colors, p.SKU, p.IsPublished,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

// ListAll returns the whole catalog, newest first
func (r *ProductRepository) ListAll(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []product.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// Update locks the row, applies fn and writes the result back. It returns the row as it
// was before the change so callers can detect stock transitions without racing.
func (r *ProductRepository) Update(ctx context.Context, id string, fn func(p *product.Product) error) (product.Product, *product.Product, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return product.Product{}, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, nil, xerrors.ErrNotFound
	}
	if err != nil {
		return product.Product{}, nil, fmt.Errorf("failed to load product: %w", err)
	}

	before := *current
	if err := fn(current); err != nil {
		return product.Product{}, nil, err
	}
	current.Sizes, current.Colors = nonNil(current.Sizes), nonNil(current.Colors)

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, discount_price = $4, count_in_stock = $5,
		    category = $6, brand = $7, sizes = $8, colors = $9, sku = $10, is_published = $11,
		    updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, query,
		current.Name, current.Description, current.Price, current.DiscountPrice, current.CountInStock,
		current.Category, current.Brand, current.Sizes, current.Colors, current.SKU, current.IsPublished,
		id,
	).Scan(&current.UpdatedAt)
	if err != nil {
		return product.Product{}, nil, fmt.Errorf("failed to update product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return product.Product{}, nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	current.ID = before.ID
	return before, current, nil
}

// ApplyDiscount derives discount_price from the row's current price inside the
// statement, so a price edited after the caller read the catalog is still priced right.
// It reports whether the stored value changed.
func (r *ProductRepository) ApplyDiscount(ctx context.Context, id string, percentage float64) (bool, error) {
	query := `
		WITH target AS (
			SELECT id,
			       CASE WHEN $1::numeric <= 0 THEN 0
			            ELSE ROUND(price * (100 - $1::numeric) / 100, 2)
			       END AS discount_price
			FROM products
			WHERE id = $2
			FOR UPDATE
		), changed AS (
			UPDATE products p
			SET discount_price = t.discount_price, updated_at = NOW()
			FROM target t
			WHERE p.id = t.id AND p.discount_price <> t.discount_price
			RETURNING p.id
		)
		SELECT EXISTS (SELECT 1 FROM target), EXISTS (SELECT 1 FROM changed)
	`
	var found, changed bool
	if err := r.db.QueryRow(ctx, query, percentage, id).Scan(&found, &changed); err != nil {
		return false, fmt.Errorf("failed to apply discount: %w", err)
	}
	if !found {
		return false, xerrors.ErrNotFound
	}
	return changed, nil
}

// Delete removes a product. Waiting-list rows referencing it are left for the restock path.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
