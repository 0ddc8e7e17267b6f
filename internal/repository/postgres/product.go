package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukahub/pos-api/internal/domain"
)

// ProductRepository implements domain.ProductRepository for PostgreSQL
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product and fills in generated fields
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (barcode, name, description, category_id, brand_id,
			unit_price, stock_quantity, reorder_level, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $9)
		RETURNING product_id, is_active, created_at, updated_at
	`

	now := time.Now()

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Barcode,
		product.Name,
		product.Description,
		product.CategoryID,
		product.BrandID,
		product.UnitPrice,
		product.StockQuantity,
		product.ReorderLevel,
		now,
	).Scan(
		&product.ID,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// GetByID retrieves a product by ID (active products only)
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT product_id, barcode, name, description, category_id, brand_id,
			unit_price, stock_quantity, reorder_level, is_active, created_at, updated_at
		FROM products
		WHERE product_id = $1 AND is_active = TRUE
	`

	var product domain.Product
	err := r.db.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

// List retrieves active products ordered by name
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	query := `
		SELECT product_id, barcode, name, description, category_id, brand_id,
			unit_price, stock_quantity, reorder_level, is_active, created_at, updated_at
		FROM products
		WHERE is_active = TRUE
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`

	var products []*domain.Product
	if err := r.db.SelectContext(ctx, &products, query, limit, offset); err != nil {
		return nil, err
	}

	return products, nil
}

// ListInventory retrieves active products with category and brand names joined
func (r *ProductRepository) ListInventory(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT p.product_id, p.barcode, p.name, p.description, p.category_id, p.brand_id,
			c.name AS category, b.name AS brand,
			p.unit_price, p.stock_quantity, p.reorder_level, p.is_active,
			p.created_at, p.updated_at
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.category_id
		LEFT JOIN brands b ON p.brand_id = b.brand_id
		WHERE p.is_active = TRUE
		ORDER BY p.name ASC
	`

	var products []*domain.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}

	return products, nil
}

// Update updates product attributes. Stock changes go through AdjustStock.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET barcode = $1, name = $2, description = $3, category_id = $4,
			brand_id = $5, unit_price = $6, reorder_level = $7, updated_at = $8
		WHERE product_id = $9 AND is_active = TRUE
		RETURNING updated_at
	`

	product.UpdatedAt = time.Now()

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Barcode,
		product.Name,
		product.Description,
		product.CategoryID,
		product.BrandID,
		product.UnitPrice,
		product.ReorderLevel,
		product.UpdatedAt,
		product.ID,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// AdjustStock atomically applies stock_quantity += delta with a floor guard.
// Manual stock edits and the sale commit path both funnel through this shape
// of write so the counter can never go negative.
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, delta int) (bool, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $1, updated_at = $2
		WHERE product_id = $3 AND is_active = TRUE AND stock_quantity + $1 >= 0
	`

	result, err := r.db.ExecContext(ctx, query, delta, time.Now(), id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rows > 0 {
		return true, nil
	}

	// Distinguish a rejected guard from a missing product
	if _, err := r.GetStock(ctx, id); err != nil {
		return false, err
	}

	return false, nil
}

// GetStock returns the current stock count for a product
func (r *ProductRepository) GetStock(ctx context.Context, id int64) (int, error) {
	query := `SELECT stock_quantity FROM products WHERE product_id = $1 AND is_active = TRUE`

	var stock int
	err := r.db.GetContext(ctx, &stock, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	return stock, nil
}

// Deactivate soft-deletes a product via the is_active flag
func (r *ProductRepository) Deactivate(ctx context.Context, id int64) error {
	query := `
		UPDATE products
		SET is_active = FALSE, updated_at = $1
		WHERE product_id = $2 AND is_active = TRUE
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete hard-deletes a product. sale_items carries no cascading foreign key
// to products, so historical line items keep their captured values.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE product_id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Count returns the number of active products
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM products WHERE is_active = TRUE`

	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}

	return count, nil
}

// ListBelowReorderLevel returns products at or below their reorder level,
// lowest stock first
func (r *ProductRepository) ListBelowReorderLevel(ctx context.Context, limit int) ([]*domain.Product, error) {
	query := `
		SELECT product_id, barcode, name, description, category_id, brand_id,
			unit_price, stock_quantity, reorder_level, is_active, created_at, updated_at
		FROM products
		WHERE is_active = TRUE AND stock_quantity <= reorder_level
		ORDER BY stock_quantity ASC
		LIMIT $1
	`

	var products []*domain.Product
	if err := r.db.SelectContext(ctx, &products, query, limit); err != nil {
		return nil, err
	}

	return products, nil
}

// Categories lists all product categories
func (r *ProductRepository) Categories(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT category_id, name FROM categories ORDER BY name ASC`

	var categories []*domain.Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}

	return categories, nil
}

// Brands lists all product brands
func (r *ProductRepository) Brands(ctx context.Context) ([]*domain.Brand, error) {
	query := `SELECT brand_id, name FROM brands ORDER BY name ASC`

	var brands []*domain.Brand
	if err := r.db.SelectContext(ctx, &brands, query); err != nil {
		return nil, err
	}

	return brands, nil
}
