package handler

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dukahub/pos-api/internal/delivery/http/request"
	"github.com/dukahub/pos-api/internal/delivery/http/response"
	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/usecase/inventory"
)

// ProductHandler handles HTTP requests for products and inventory
type ProductHandler struct {
	service *inventory.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *inventory.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Barcode       *string         `json:"barcode,omitempty"`
	Name          string          `json:"name" validate:"required,min=1,max=255"`
	Description   *string         `json:"description,omitempty"`
	CategoryID    *int64          `json:"categoryId,omitempty"`
	BrandID       *int64          `json:"brandId,omitempty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
	ReorderLevel  int             `json:"reorderLevel" validate:"gte=0"`
}

// UpdateProductRequest represents the request body for updating a product.
// Stock is intentionally absent; it moves through the stock endpoint only.
type UpdateProductRequest struct {
	Barcode      *string         `json:"barcode,omitempty"`
	Name         string          `json:"name" validate:"required,min=1,max=255"`
	Description  *string         `json:"description,omitempty"`
	CategoryID   *int64          `json:"categoryId,omitempty"`
	BrandID      *int64          `json:"brandId,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ReorderLevel int             `json:"reorderLevel" validate:"gte=0"`
	IsActive     *bool           `json:"isActive,omitempty"`
}

// UpdateStockRequest represents the request body for setting stock
type UpdateStockRequest struct {
	StockQuantity int `json:"stockQuantity" validate:"gte=0"`
}

// Create handles POST /api/v1/products
// @Summary Create a new product
// @Description Create a new product with pricing and initial stock
// @Tags Products
// @Accept json
// @Produce json
// @Param product body CreateProductRequest true "Product details"
// @Success 201 {object} map[string]interface{} "Product created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 409 {object} map[string]string "Barcode already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product := &domain.Product{
		Barcode:       req.Barcode,
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		BrandID:       req.BrandID,
		UnitPrice:     req.UnitPrice,
		StockQuantity: req.StockQuantity,
		ReorderLevel:  req.ReorderLevel,
		IsActive:      true,
	}

	if err := h.service.Create(r.Context(), product); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, product)
}

// GetByID handles GET /api/v1/products/:id
// @Summary Get a product by ID
// @Description Get detailed information about a product
// @Tags Products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]interface{} "Product details"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, product)
}

// List handles GET /api/v1/products
// @Summary List active products
// @Description Get a paginated list of active products
// @Tags Products
// @Accept json
// @Produce json
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of products"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)

	products, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, products, total, limit, offset)
}

// Inventory handles GET /api/v1/products/inventory
// @Summary Full inventory listing
// @Description Get all products with category and brand names for stock management
// @Tags Products
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Inventory listing"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/inventory [get]
func (h *ProductHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListInventory(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, products)
}

// Update handles PUT /api/v1/products/:id
// @Summary Update a product
// @Description Update product attributes. Stock cannot be changed here.
// @Tags Products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param product body UpdateProductRequest true "Updated product details"
// @Success 200 {object} map[string]interface{} "Product updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	product := &domain.Product{
		ID:           id,
		Barcode:      req.Barcode,
		Name:         req.Name,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		BrandID:      req.BrandID,
		UnitPrice:    req.UnitPrice,
		ReorderLevel: req.ReorderLevel,
		IsActive:     existing.IsActive,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.service.Update(r.Context(), product); err != nil {
		h.handleError(w, err)
		return
	}

	updated, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, updated)
}

// UpdateStock handles PATCH /api/v1/products/:id/stock
// @Summary Set product stock
// @Description Set a product's stock to an absolute count. Rejected if a concurrent sale would make the count stale.
// @Tags Products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param stock body UpdateStockRequest true "Target stock count"
// @Success 200 {object} map[string]interface{} "Stock updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 409 {object} map[string]string "Stock changed concurrently"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/stock [patch]
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req UpdateStockRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.SetStock(r.Context(), id, req.StockQuantity)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, product)
}

// Deactivate handles POST /api/v1/products/:id/deactivate
// @Summary Deactivate a product
// @Description Soft-delete a product so it no longer appears at the point of sale
// @Tags Products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Success 204 "Product deactivated"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/deactivate [post]
func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /api/v1/products/:id
// @Summary Delete a product
// @Description Permanently remove a product. Historical sale records keep their line items.
// @Tags Products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Success 204 "Product deleted successfully"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// Categories handles GET /api/v1/categories
// @Summary List categories
// @Tags Catalog
// @Produce json
// @Success 200 {object} map[string]interface{} "Category list"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /categories [get]
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, categories)
}

// Brands handles GET /api/v1/brands
// @Summary List brands
// @Tags Catalog
// @Produce json
// @Success 200 {object} map[string]interface{} "Brand list"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brands [get]
func (h *ProductHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.Brands(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, brands)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ProductHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "Barcode already exists")
	case errors.Is(err, domain.ErrInsufficientStock):
		response.Error(w, http.StatusConflict, "Stock changed concurrently, retry the update")
	default:
		h.logger.Error("Internal error in product handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
