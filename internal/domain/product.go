package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item held in inventory
type Product struct {
	ID            int64           `json:"product_id" db:"product_id"`
	Barcode       *string         `json:"barcode,omitempty" db:"barcode"`
	Name          string          `json:"name" db:"name" validate:"required,min=1,max=255"`
	Description   *string         `json:"description,omitempty" db:"description"`
	CategoryID    *int64          `json:"category_id,omitempty" db:"category_id"`
	BrandID       *int64          `json:"brand_id,omitempty" db:"brand_id"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity" validate:"gte=0"`
	ReorderLevel  int             `json:"reorder_level" db:"reorder_level" validate:"gte=0"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	// Category and Brand names are populated only by the inventory listing join
	Category *string `json:"category,omitempty" db:"category"`
	Brand    *string `json:"brand,omitempty" db:"brand"`
}

// Category groups products for the dashboard and inventory screens
type Category struct {
	ID   int64  `json:"category_id" db:"category_id"`
	Name string `json:"name" db:"name"`
}

// Brand identifies a product manufacturer
type Brand struct {
	ID   int64  `json:"brand_id" db:"brand_id"`
	Name string `json:"name" db:"name"`
}

// ProductRepository defines the interface for product data access.
//
// Stock counters are mutated through AdjustStock only. Sales apply negative
// deltas, manual edits apply either sign; both share the same guarded write
// so stock can never go below zero.
type ProductRepository interface {
	// Create inserts a new product and fills in generated fields
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID (active products only)
	GetByID(ctx context.Context, id int64) (*Product, error)

	// List retrieves active products ordered by name
	List(ctx context.Context, limit, offset int) ([]*Product, error)

	// ListInventory retrieves active products with category and brand names joined
	ListInventory(ctx context.Context) ([]*Product, error)

	// Update updates product attributes (not stock; see AdjustStock)
	Update(ctx context.Context, product *Product) error

	// AdjustStock atomically applies stock_quantity += delta, guarded so the
	// result cannot go negative. Returns false when the guard rejects the write.
	AdjustStock(ctx context.Context, id int64, delta int) (bool, error)

	// GetStock returns the current stock count for a product
	GetStock(ctx context.Context, id int64) (int, error)

	// Deactivate soft-deletes a product via the is_active flag
	Deactivate(ctx context.Context, id int64) error

	// Delete hard-deletes a product. Historical sale line items keep their
	// captured product_id, quantity and price.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of active products
	Count(ctx context.Context) (int, error)

	// ListBelowReorderLevel returns products at or below their reorder level,
	// lowest stock first
	ListBelowReorderLevel(ctx context.Context, limit int) ([]*Product, error)

	// Categories lists all product categories
	Categories(ctx context.Context) ([]*Category, error)

	// Brands lists all product brands
	Brands(ctx context.Context) ([]*Brand, error)
}
