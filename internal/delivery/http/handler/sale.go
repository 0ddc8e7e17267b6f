package handler

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dukahub/pos-api/internal/delivery/http/request"
	"github.com/dukahub/pos-api/internal/delivery/http/response"
	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/usecase/checkout"
)

// SaleHandler handles HTTP requests for sale transactions
type SaleHandler struct {
	service *checkout.Service
	logger  *logger.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(service *checkout.Service, log *logger.Logger) *SaleHandler {
	return &SaleHandler{
		service: service,
		logger:  log,
	}
}

// CreateSaleRequest represents the request body for committing a sale
type CreateSaleRequest struct {
	Items         []domain.CartItem `json:"items"`
	Total         *decimal.Decimal  `json:"total,omitempty"`
	PaymentMethod string            `json:"paymentMethod"`
}

// Create handles POST /api/v1/sales
// @Summary Commit a sale
// @Description Atomically record a sale with its line items and decrement stock. Fails without any stock change if any line cannot be covered.
// @Tags Sales
// @Accept json
// @Produce json
// @Param sale body CreateSaleRequest true "Cart contents"
// @Success 201 {object} map[string]interface{} "Sale committed"
// @Failure 400 {object} map[string]string "Invalid cart"
// @Failure 409 {object} map[string]string "Insufficient stock"
// @Failure 503 {object} map[string]string "Store unavailable"
// @Router /sales [post]
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := h.service.CommitSale(r.Context(), req.Items, domain.PaymentMethod(req.PaymentMethod), req.Total)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, sale)
}

// GetByID handles GET /api/v1/sales/:id
// @Summary Get a sale by ID
// @Description Get a sale header with its line items
// @Tags Sales
// @Produce json
// @Param id path int true "Sale ID"
// @Success 200 {object} map[string]interface{} "Sale with line items"
// @Failure 400 {object} map[string]string "Invalid sale ID"
// @Failure 404 {object} map[string]string "Sale not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /sales/{id} [get]
func (h *SaleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid sale ID")
		return
	}

	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, sale)
}

// List handles GET /api/v1/sales
// @Summary List recent sales
// @Description Get recent sales with their line items, newest first
// @Tags Sales
// @Produce json
// @Param limit query int false "Number of sales to return (max 100)" default(50)
// @Success 200 {object} map[string]interface{} "Recent sales"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /sales [get]
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := request.GetIntQuery(r, "limit", 50)

	sales, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, sales)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *SaleHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCart):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		response.Error(w, http.StatusConflict, "Insufficient stock for one or more items")
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Sale not found")
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.logger.Error("Store unavailable during sale", err)
		response.Error(w, http.StatusServiceUnavailable, "Store temporarily unavailable, sale not recorded")
	default:
		h.logger.Error("Internal error in sale handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
