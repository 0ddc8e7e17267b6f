package mpesa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/pos-api/internal/config"
	"github.com/dukahub/pos-api/internal/pkg/logger"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "local format", input: "0712345678", want: "254712345678"},
		{name: "international format", input: "254712345678", want: "254712345678"},
		{name: "plus prefix", input: "+254712345678", want: "254712345678"},
		{name: "spaces and dashes", input: "0712 345-678", want: "254712345678"},
		{name: "too short", input: "07123", wantErr: true},
		{name: "too long", input: "07123456789012", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestClient(serverURL string) *Client {
	return &Client{
		cfg: config.MpesaConfig{
			ConsumerKey:    "key",
			ConsumerSecret: "secret",
			Shortcode:      "174379",
			Passkey:        "passkey",
			CallbackURL:    "https://example.com/callback",
			Timeout:        5 * time.Second,
		},
		baseURL:    serverURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger.New("test"),
	}
}

func TestInitiateSTKPush_Success(t *testing.T) {
	var pushReq stkPushRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "key", user)
			assert.Equal(t, "secret", pass)
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "test-token", ExpiresIn: "3599"})
		case "/mpesa/stkpush/v1/processrequest":
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&pushReq))
			_ = json.NewEncoder(w).Encode(STKPushResponse{
				MerchantRequestID:   "29115-34620561-1",
				CheckoutRequestID:   "ws_CO_191220191020363925",
				ResponseCode:        "0",
				ResponseDescription: "Success. Request accepted for processing",
				CustomerMessage:     "Success. Request accepted for processing",
			})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	resp, err := client.InitiateSTKPush(context.Background(), "0712345678", decimal.RequireFromString("149.50"), "Till 42")

	require.NoError(t, err)
	assert.Equal(t, "0", resp.ResponseCode)
	assert.Equal(t, "ws_CO_191220191020363925", resp.CheckoutRequestID)

	assert.Equal(t, "174379", pushReq.BusinessShortCode)
	assert.Equal(t, "CustomerBuyGoodsOnline", pushReq.TransactionType)
	assert.Equal(t, int64(150), pushReq.Amount, "amount is rounded to whole shillings")
	assert.Equal(t, "254712345678", pushReq.PhoneNumber)
	assert.Equal(t, "254712345678", pushReq.PartyA)
	assert.Equal(t, "Till 42", pushReq.AccountReference)
	assert.NotEmpty(t, pushReq.Password)
	assert.NotEmpty(t, pushReq.Timestamp)
}

func TestInitiateSTKPush_DefaultReference(t *testing.T) {
	var pushReq stkPushRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "test-token"})
		case "/mpesa/stkpush/v1/processrequest":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&pushReq))
			_ = json.NewEncoder(w).Encode(STKPushResponse{ResponseCode: "0"})
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.InitiateSTKPush(context.Background(), "0712345678", decimal.RequireFromString("10"), "")

	require.NoError(t, err)
	assert.Equal(t, "DukaPOS", pushReq.AccountReference)
}

func TestInitiateSTKPush_InvalidPhoneSkipsGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway must not be called for an invalid phone number")
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.InitiateSTKPush(context.Background(), "12345", decimal.RequireFromString("10"), "")

	assert.Error(t, err)
}

func TestInitiateSTKPush_TokenFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.InitiateSTKPush(context.Background(), "0712345678", decimal.RequireFromString("10"), "")

	assert.ErrorContains(t, err, "generate access token")
}

func TestInitiateSTKPush_GatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "test-token"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessage":"Invalid Amount"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.InitiateSTKPush(context.Background(), "0712345678", decimal.RequireFromString("10"), "")

	assert.ErrorContains(t, err, "400")
}
