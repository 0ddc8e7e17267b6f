package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/dukahub/pos-api/internal/domain"
)

// ReportRepository implements domain.ReportRepository for PostgreSQL
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// DailySalesTotal sums committed sale totals for today
func (r *ReportRepository) DailySalesTotal(ctx context.Context) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total), 0)
		FROM sales
		WHERE created_at::date = CURRENT_DATE
	`

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

// MonthlySalesTotal sums committed sale totals for the month at the given offset
func (r *ReportRepository) MonthlySalesTotal(ctx context.Context, monthsAgo int) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total), 0)
		FROM sales
		WHERE date_trunc('month', created_at) =
			date_trunc('month', CURRENT_DATE) - ($1 * INTERVAL '1 month')
	`

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, monthsAgo); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

// SalesChart returns per-day, per-payment-method buckets for the last days
func (r *ReportRepository) SalesChart(ctx context.Context, days int) ([]*domain.SalesChartPoint, error) {
	query := `
		SELECT created_at::date AS date,
			COALESCE(SUM(total), 0) AS sales,
			COUNT(*) AS transactions,
			payment_method
		FROM sales
		WHERE created_at >= CURRENT_DATE - ($1 * INTERVAL '1 day')
		GROUP BY created_at::date, payment_method
		ORDER BY date ASC, payment_method ASC
	`

	var points []*domain.SalesChartPoint
	if err := r.db.SelectContext(ctx, &points, query, days); err != nil {
		return nil, err
	}

	return points, nil
}

// StockAlerts returns the lowest-stock products at or below reorder level
func (r *ReportRepository) StockAlerts(ctx context.Context, limit int) ([]*domain.StockAlert, error) {
	query := `
		SELECT product_id, name, stock_quantity
		FROM products
		WHERE is_active = TRUE AND stock_quantity <= reorder_level
		ORDER BY stock_quantity ASC
		LIMIT $1
	`

	var alerts []*domain.StockAlert
	if err := r.db.SelectContext(ctx, &alerts, query, limit); err != nil {
		return nil, err
	}

	return alerts, nil
}

// PaymentMethodSummary aggregates today's sales per payment method
func (r *ReportRepository) PaymentMethodSummary(ctx context.Context) ([]*domain.PaymentMethodSummary, error) {
	query := `
		SELECT payment_method,
			COUNT(*) AS count,
			COALESCE(SUM(total), 0) AS total_amount
		FROM sales
		WHERE created_at::date = CURRENT_DATE
		GROUP BY payment_method
		ORDER BY total_amount DESC
	`

	var summary []*domain.PaymentMethodSummary
	if err := r.db.SelectContext(ctx, &summary, query); err != nil {
		return nil, err
	}

	return summary, nil
}
