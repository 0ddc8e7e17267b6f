package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DashboardMetrics is the headline summary shown on the dashboard
type DashboardMetrics struct {
	DailySales    decimal.Decimal `json:"dailySales"`
	TotalProducts int             `json:"totalProducts"`
	LowStock      int             `json:"lowStock"`
	Growth        float64         `json:"growth"`
}

// SalesChartPoint is one day/payment-method bucket of the sales chart
type SalesChartPoint struct {
	Date          time.Time       `json:"date" db:"date"`
	Sales         decimal.Decimal `json:"sales" db:"sales"`
	Transactions  int             `json:"transactions" db:"transactions"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
}

// StockAlert flags a product at or below its reorder level
type StockAlert struct {
	ProductID    int64  `json:"id" db:"product_id"`
	Product      string `json:"product" db:"name"`
	CurrentStock int    `json:"currentStock" db:"stock_quantity"`
}

// PaymentMethodSummary aggregates today's sales per payment method
type PaymentMethodSummary struct {
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	Count         int             `json:"count" db:"count"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
}

// ReportRepository defines read-only aggregation queries for the dashboard
type ReportRepository interface {
	// DailySalesTotal sums committed sale totals for today
	DailySalesTotal(ctx context.Context) (decimal.Decimal, error)

	// MonthlySalesTotal sums committed sale totals for the month at the given offset
	// (0 = current month, 1 = previous month)
	MonthlySalesTotal(ctx context.Context, monthsAgo int) (decimal.Decimal, error)

	// SalesChart returns per-day, per-payment-method buckets for the last days
	SalesChart(ctx context.Context, days int) ([]*SalesChartPoint, error)

	// StockAlerts returns the lowest-stock products at or below reorder level
	StockAlerts(ctx context.Context, limit int) ([]*StockAlert, error)

	// PaymentMethodSummary aggregates today's sales per payment method
	PaymentMethodSummary(ctx context.Context) ([]*PaymentMethodSummary, error)
}
