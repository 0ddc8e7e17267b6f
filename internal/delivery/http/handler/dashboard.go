package handler

import (
	"net/http"

	"github.com/dukahub/pos-api/internal/delivery/http/response"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/usecase/report"
)

// DashboardHandler handles HTTP requests for dashboard aggregates
type DashboardHandler struct {
	service *report.Service
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *report.Service, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  log,
	}
}

// Metrics handles GET /api/v1/dashboard/metrics
// @Summary Dashboard headline metrics
// @Description Today's sales total, product count, low-stock count and month-over-month growth
// @Tags Dashboard
// @Produce json
// @Success 200 {object} map[string]interface{} "Dashboard metrics"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Metrics(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, metrics)
}

// SalesChart handles GET /api/v1/dashboard/sales-chart
// @Summary Seven-day sales chart
// @Description Daily sales totals for the last seven days, split by payment method
// @Tags Dashboard
// @Produce json
// @Success 200 {object} map[string]interface{} "Chart points"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /dashboard/sales-chart [get]
func (h *DashboardHandler) SalesChart(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.SalesChart(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, points)
}

// StockAlerts handles GET /api/v1/dashboard/stock-alerts
// @Summary Low-stock alerts
// @Description Products at or below their reorder level, lowest stock first
// @Tags Dashboard
// @Produce json
// @Success 200 {object} map[string]interface{} "Stock alerts"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /dashboard/stock-alerts [get]
func (h *DashboardHandler) StockAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.StockAlerts(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, alerts)
}

// PaymentMethods handles GET /api/v1/dashboard/payment-methods
// @Summary Today's payment method breakdown
// @Description Per-method transaction count and total for today's sales
// @Tags Dashboard
// @Produce json
// @Success 200 {object} map[string]interface{} "Payment method summary"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /dashboard/payment-methods [get]
func (h *DashboardHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.PaymentMethods(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, summary)
}

func (h *DashboardHandler) handleError(w http.ResponseWriter, err error) {
	h.logger.Error("Internal error in dashboard handler", err)
	response.Error(w, http.StatusInternalServerError, "Internal server error")
}
