package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/dukahub/pos-api/internal/domain"
)

// SaleRepository implements domain.SaleRepository for PostgreSQL
type SaleRepository struct {
	db *sqlx.DB
}

// NewSaleRepository creates a new PostgreSQL sale repository
func NewSaleRepository(db *sqlx.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// WithinTx runs fn inside a single database transaction. The deferred
// rollback is a no-op after a successful commit.
func (r *SaleRepository) WithinTx(ctx context.Context, fn func(tx domain.SaleTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&saleTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetSaleWithItems retrieves a committed sale with its items in insertion order
func (r *SaleRepository) GetSaleWithItems(ctx context.Context, saleID int64) (*domain.Sale, error) {
	return getSaleWithItems(ctx, r.db, saleID)
}

// ListRecent retrieves committed sales newest first, items embedded.
// The line items are fetched in one query and grouped in memory rather than
// relying on store-side JSON aggregation.
func (r *SaleRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Sale, error) {
	headerQuery := `
		SELECT sale_id, total, payment_method, created_at
		FROM sales
		ORDER BY created_at DESC, sale_id DESC
		LIMIT $1
	`

	var sales []*domain.Sale
	if err := r.db.SelectContext(ctx, &sales, headerQuery, limit); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	ids := make([]int64, len(sales))
	byID := make(map[int64]*domain.Sale, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		s.Items = []*domain.SaleItem{}
		byID[s.ID] = s
	}

	itemQuery := `
		SELECT item_id, sale_id, product_id, quantity, unit_price, subtotal
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY item_id ASC
	`

	var items []*domain.SaleItem
	if err := r.db.SelectContext(ctx, &items, itemQuery, pq.Array(ids)); err != nil {
		return nil, err
	}

	for _, item := range items {
		if sale, ok := byID[item.SaleID]; ok {
			sale.Items = append(sale.Items, item)
		}
	}

	return sales, nil
}

// saleTx implements domain.SaleTx over an open transaction
type saleTx struct {
	tx *sqlx.Tx
}

// InsertSale writes the sale header and returns the generated sale ID
func (t *saleTx) InsertSale(ctx context.Context, total decimal.Decimal, method domain.PaymentMethod) (int64, error) {
	query := `
		INSERT INTO sales (total, payment_method)
		VALUES ($1, $2)
		RETURNING sale_id
	`

	var saleID int64
	if err := t.tx.QueryRowxContext(ctx, query, total, method).Scan(&saleID); err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}

	return saleID, nil
}

// InsertLineItem writes one line item and returns its generated ID
func (t *saleTx) InsertLineItem(ctx context.Context, saleID, productID int64, quantity int, unitPrice decimal.Decimal) (int64, error) {
	query := `
		INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING item_id
	`

	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	var itemID int64
	if err := t.tx.QueryRowxContext(ctx, query, saleID, productID, quantity, unitPrice, subtotal).Scan(&itemID); err != nil {
		return 0, fmt.Errorf("insert line item: %w", err)
	}

	return itemID, nil
}

// DecrementStockIfAvailable applies the guarded decrement. The guard is part
// of the UPDATE itself: under concurrent commits the row lock serializes the
// two writes and the loser sees the already-reduced count, so both can never
// take the same unit.
func (t *saleTx) DecrementStockIfAvailable(ctx context.Context, productID int64, quantity int) (bool, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE product_id = $2 AND is_active = TRUE AND stock_quantity >= $1
	`

	result, err := t.tx.ExecContext(ctx, query, quantity, productID)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement stock rows affected: %w", err)
	}

	return rows > 0, nil
}

// ProductActive reports whether the product exists and is active
func (t *saleTx) ProductActive(ctx context.Context, productID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE product_id = $1 AND is_active = TRUE)`

	var exists bool
	if err := t.tx.GetContext(ctx, &exists, query, productID); err != nil {
		return false, fmt.Errorf("check product: %w", err)
	}

	return exists, nil
}

// GetSaleWithItems reads a sale and its items within the transaction, so the
// caller can return the committed sale without a second round trip
func (t *saleTx) GetSaleWithItems(ctx context.Context, saleID int64) (*domain.Sale, error) {
	return getSaleWithItems(ctx, t.tx, saleID)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.QueryerContext
}

func getSaleWithItems(ctx context.Context, q queryer, saleID int64) (*domain.Sale, error) {
	headerQuery := `
		SELECT sale_id, total, payment_method, created_at
		FROM sales
		WHERE sale_id = $1
	`

	var sale domain.Sale
	if err := sqlx.GetContext(ctx, q, &sale, headerQuery, saleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	itemQuery := `
		SELECT item_id, sale_id, product_id, quantity, unit_price, subtotal
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY item_id ASC
	`

	sale.Items = []*domain.SaleItem{}
	if err := sqlx.SelectContext(ctx, q, &sale.Items, itemQuery, saleID); err != nil {
		return nil, err
	}

	return &sale, nil
}
