package report

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
)

// MetricsCache caches the dashboard metrics payload
type MetricsCache interface {
	GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error)
	SetDashboardMetrics(ctx context.Context, metrics *domain.DashboardMetrics) error
}

// ProductCounter is the slice of the product repository the dashboard needs
type ProductCounter interface {
	Count(ctx context.Context) (int, error)
}

// Service assembles dashboard aggregates. Metrics are cached briefly; sale
// commits invalidate the cache.
type Service struct {
	reports  domain.ReportRepository
	products ProductCounter
	cache    MetricsCache
	logger   *logger.Logger
}

// NewService creates a new report service
func NewService(
	reports domain.ReportRepository,
	products ProductCounter,
	cache MetricsCache,
	log *logger.Logger,
) *Service {
	return &Service{
		reports:  reports,
		products: products,
		cache:    cache,
		logger:   log,
	}
}

// Metrics returns the dashboard headline numbers with read-through caching
func (s *Service) Metrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	metrics, err := s.cache.GetDashboardMetrics(ctx)
	if err == nil {
		s.logger.Debug("Cache hit for dashboard metrics")
		return metrics, nil
	}

	daily, err := s.reports.DailySalesTotal(ctx)
	if err != nil {
		s.logger.Error("Failed to get daily sales total", err)
		return nil, err
	}

	totalProducts, err := s.products.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count products", err)
		return nil, err
	}

	lowStock, err := s.reports.StockAlerts(ctx, 100)
	if err != nil {
		s.logger.Error("Failed to count low-stock products", err)
		return nil, err
	}

	growth, err := s.monthOverMonthGrowth(ctx)
	if err != nil {
		s.logger.Error("Failed to compute growth", err)
		return nil, err
	}

	metrics = &domain.DashboardMetrics{
		DailySales:    daily,
		TotalProducts: totalProducts,
		LowStock:      len(lowStock),
		Growth:        growth,
	}

	if err := s.cache.SetDashboardMetrics(ctx, metrics); err != nil {
		s.logger.Warnf("Failed to cache dashboard metrics: %v", err)
	}

	return metrics, nil
}

// SalesChart returns the last seven days of sales grouped by day and
// payment method
func (s *Service) SalesChart(ctx context.Context) ([]*domain.SalesChartPoint, error) {
	points, err := s.reports.SalesChart(ctx, 7)
	if err != nil {
		s.logger.Error("Failed to get sales chart", err)
		return nil, err
	}

	return points, nil
}

// StockAlerts returns the five lowest-stock products at or below reorder level
func (s *Service) StockAlerts(ctx context.Context) ([]*domain.StockAlert, error) {
	alerts, err := s.reports.StockAlerts(ctx, 5)
	if err != nil {
		s.logger.Error("Failed to get stock alerts", err)
		return nil, err
	}

	return alerts, nil
}

// PaymentMethods returns today's per-method sales summary
func (s *Service) PaymentMethods(ctx context.Context) ([]*domain.PaymentMethodSummary, error) {
	summary, err := s.reports.PaymentMethodSummary(ctx)
	if err != nil {
		s.logger.Error("Failed to get payment method summary", err)
		return nil, err
	}

	return summary, nil
}

// monthOverMonthGrowth compares this month's sales with the previous month's,
// as a percentage. Zero previous-month sales yield zero growth rather than a
// division by zero.
func (s *Service) monthOverMonthGrowth(ctx context.Context) (float64, error) {
	current, err := s.reports.MonthlySalesTotal(ctx, 0)
	if err != nil {
		return 0, err
	}

	previous, err := s.reports.MonthlySalesTotal(ctx, 1)
	if err != nil {
		return 0, err
	}

	if previous.IsZero() {
		return 0, nil
	}

	growth := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
	f, _ := growth.Round(2).Float64()
	return f, nil
}
