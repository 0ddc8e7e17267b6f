package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dukahub/pos-api/internal/delivery/http/request"
	"github.com/dukahub/pos-api/internal/delivery/http/response"
	"github.com/dukahub/pos-api/internal/gateway/mpesa"
	"github.com/dukahub/pos-api/internal/pkg/logger"
)

// PaymentHandler handles HTTP requests for mobile money payments
type PaymentHandler struct {
	mpesa  *mpesa.Client
	logger *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(client *mpesa.Client, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		mpesa:  client,
		logger: log,
	}
}

// STKPushRequest represents the request body for initiating an STK push
type STKPushRequest struct {
	PhoneNumber string          `json:"phoneNumber"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference,omitempty"`
}

// STKPush handles POST /api/v1/payments/stkpush
// @Summary Initiate an M-Pesa STK push
// @Description Send a payment prompt to the customer's phone. The sale is committed separately once the cashier confirms payment.
// @Tags Payments
// @Accept json
// @Produce json
// @Param push body STKPushRequest true "Phone number and amount"
// @Success 200 {object} map[string]interface{} "Push initiated"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 502 {object} map[string]string "Payment gateway error"
// @Router /payments/stkpush [post]
func (h *PaymentHandler) STKPush(w http.ResponseWriter, r *http.Request) {
	var req STKPushRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		response.Error(w, http.StatusBadRequest, "Amount must be positive")
		return
	}

	if _, err := mpesa.NormalizePhone(req.PhoneNumber); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid phone number")
		return
	}

	resp, err := h.mpesa.InitiateSTKPush(r.Context(), req.PhoneNumber, req.Amount, req.Reference)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, resp)
}

func (h *PaymentHandler) handleError(w http.ResponseWriter, err error) {
	h.logger.Error("Payment gateway error", err)
	response.Error(w, http.StatusBadGateway, "Payment gateway error, try again")
}
