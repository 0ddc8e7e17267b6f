package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dukahub/pos-api/internal/pkg/logger"
)

// Evaluator checks a product's stock against its reorder level after a sale
type Evaluator struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewEvaluator creates a new stock evaluator
func NewEvaluator(db *sqlx.DB, logger *logger.Logger) *Evaluator {
	return &Evaluator{
		db:     db,
		logger: logger,
	}
}

type stockLevel struct {
	Name          string `db:"name"`
	StockQuantity int    `db:"stock_quantity"`
	ReorderLevel  int    `db:"reorder_level"`
}

// Evaluate reads the product's current stock and emits a structured alert if
// it sits at or below the reorder level. Reading fresh state keeps the check
// idempotent under event redelivery.
func (e *Evaluator) Evaluate(ctx context.Context, productID int64) error {
	var level stockLevel
	query := `
		SELECT name, stock_quantity, reorder_level
		FROM products
		WHERE product_id = $1 AND is_active = TRUE
	`

	err := e.db.GetContext(ctx, &level, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		// Product removed or deactivated since the sale - nothing to alert on
		e.logger.WithFields(map[string]any{
			"product_id": productID,
		}).Info("Product not found or inactive, skipping stock check")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read stock level: %w", err)
	}

	if level.StockQuantity > level.ReorderLevel {
		e.logger.WithFields(map[string]any{
			"product_id": productID,
			"stock":      level.StockQuantity,
		}).Debug("Stock above reorder level")
		return nil
	}

	e.logger.WithFields(map[string]any{
		"product_id":    productID,
		"name":          level.Name,
		"stock":         level.StockQuantity,
		"reorder_level": level.ReorderLevel,
	}).Warn("Product at or below reorder level")

	return nil
}

// CurrentStock retrieves the current stock count for verification (used in tests)
func (e *Evaluator) CurrentStock(ctx context.Context, productID int64) (int, error) {
	var stock int
	query := `SELECT stock_quantity FROM products WHERE product_id = $1`

	if err := e.db.GetContext(ctx, &stock, query, productID); err != nil {
		return 0, fmt.Errorf("failed to get current stock: %w", err)
	}

	return stock, nil
}
