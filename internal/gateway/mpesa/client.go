package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukahub/pos-api/internal/config"
	"github.com/dukahub/pos-api/internal/pkg/logger"
)

// Client talks to the Safaricom Daraja API. It is a black-box payment
// collaborator: an STK push is fire-and-forget ahead of the sale commit and
// callback handling lives outside this service.
type Client struct {
	cfg        config.MpesaConfig
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a Daraja client for the configured environment
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		cfg:     cfg.Mpesa,
		baseURL: cfg.MpesaBaseURL(),
		httpClient: &http.Client{
			Timeout: cfg.Mpesa.Timeout,
		},
		logger: log,
	}
}

// STKPushResponse is the Daraja acknowledgement for an initiated push
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// InitiateSTKPush sends a CustomerBuyGoodsOnline push to the customer's
// phone and returns the pending-payment acknowledgement. The amount is
// rounded to whole shillings as Daraja requires.
func (c *Client) InitiateSTKPush(ctx context.Context, phoneNumber string, amount decimal.Decimal, reference string) (*STKPushResponse, error) {
	phone, err := NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString(
		[]byte(c.cfg.Shortcode + c.cfg.Passkey + timestamp),
	)

	if reference == "" {
		reference = "DukaPOS"
	}

	reqBody := stkPushRequest{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerBuyGoodsOnline",
		Amount:            amount.Round(0).IntPart(),
		PartyA:            phone,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  reference,
		TransactionDesc:   "Store Purchase",
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal STK push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("STK push request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read STK push response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(respBody),
		}).Warn("STK push rejected by gateway")
		return nil, fmt.Errorf("STK push failed with status %d", resp.StatusCode)
	}

	var pushResp STKPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		return nil, fmt.Errorf("decode STK push response: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"merchant_request_id": pushResp.MerchantRequestID,
		"checkout_request_id": pushResp.CheckoutRequestID,
		"phone":               phone,
	}).Info("STK push initiated")

	return &pushResp, nil
}

// accessToken fetches an OAuth client-credentials token
func (c *Client) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty token")
	}

	return tokenResp.AccessToken, nil
}

// NormalizePhone converts a Kenyan phone number to the 2547XXXXXXXX form
// Daraja expects: digits only, no leading zeros, 254 country code, 12 digits.
func NormalizePhone(phoneNumber string) (string, error) {
	var digits strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	cleaned := strings.TrimLeft(digits.String(), "0")
	cleaned = strings.TrimPrefix(cleaned, "254")
	cleaned = "254" + cleaned

	if len(cleaned) != 12 {
		return "", fmt.Errorf("phone number must be 9 digits after country code")
	}

	return cleaned, nil
}
