package handler

import (
	"errors"
	"net/http"

	"github.com/dukahub/pos-api/internal/delivery/http/request"
	"github.com/dukahub/pos-api/internal/delivery/http/response"
	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/usecase/settings"
)

// SettingsHandler handles HTTP requests for store configuration
type SettingsHandler struct {
	service *settings.Service
	logger  *logger.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(service *settings.Service, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  log,
	}
}

// GetAll handles GET /api/v1/settings
// @Summary Get all settings
// @Description Store profile, receipt preferences and system preferences in one payload. Admin only.
// @Tags Settings
// @Produce json
// @Success 200 {object} map[string]interface{} "All settings"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /settings [get]
func (h *SettingsHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.GetAll(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, all)
}

// UpdateStore handles POST /api/v1/settings/store
// @Summary Update store settings
// @Description Save the store profile (name, contacts, currency, tax rate). Admin only.
// @Tags Settings
// @Accept json
// @Produce json
// @Param settings body domain.StoreSettings true "Store settings"
// @Success 200 {object} map[string]interface{} "Settings saved"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /settings/store [post]
func (h *SettingsHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	var req domain.StoreSettings
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdateStoreSettings(r.Context(), &req); err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, &req)
}

// UpdateReceipt handles POST /api/v1/settings/receipt
// @Summary Update receipt settings
// @Description Save receipt header, footer and print preferences. Admin only.
// @Tags Settings
// @Accept json
// @Produce json
// @Param settings body domain.ReceiptSettings true "Receipt settings"
// @Success 200 {object} map[string]interface{} "Settings saved"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /settings/receipt [post]
func (h *SettingsHandler) UpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var req domain.ReceiptSettings
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdateReceiptSettings(r.Context(), &req); err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, &req)
}

// RunBackup handles POST /api/v1/settings/backup
// @Summary Record a manual backup
// @Description Record a manual backup run in the backup log. Admin only.
// @Tags Settings
// @Produce json
// @Success 200 {object} map[string]interface{} "Backup recorded"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /settings/backup [post]
func (h *SettingsHandler) RunBackup(w http.ResponseWriter, r *http.Request) {
	log, err := h.service.RunBackup(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, log)
}

func (h *SettingsHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in settings handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
