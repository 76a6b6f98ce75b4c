package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTossClient(serverURL string) *TossClient {
	return &TossClient{
		SecretKey: "test_sk_abc",
		APIURL:    serverURL,
		HTTP:      &http.Client{Timeout: 2 * time.Second},
	}
}

func TestTossConfirmSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payments/confirm", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"paymentKey":  "tk_abc123",
			"orderId":     "ORD-20240101-ABCDEF",
			"orderName":   "스니커즈 외 1건",
			"totalAmount": 23000,
			"status":      "DONE",
			"method":      "카드",
			"approvedAt":  "2024-01-01T12:00:00+09:00",
			"receipt":     map[string]string{"url": "https://dashboard.tosspayments.com/receipt/abc"},
		})
	}))
	defer server.Close()

	client := newTestTossClient(server.URL)

	record, err := client.Confirm(context.Background(), "tk_abc123", "ORD-20240101-ABCDEF", 23000)
	require.NoError(t, err)

	// Basic base64("<secret>:"), mot de passe vide
	expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("test_sk_abc:"))
	assert.Equal(t, expectedAuth, gotAuth)

	assert.Equal(t, "tk_abc123", gotBody["paymentKey"])
	assert.Equal(t, "ORD-20240101-ABCDEF", gotBody["orderId"])
	assert.Equal(t, float64(23000), gotBody["amount"])

	assert.Equal(t, "tk_abc123", record.PaymentKey)
	assert.Equal(t, int64(23000), record.Amount)
	assert.Equal(t, "DONE", record.Status)
	assert.Equal(t, "카드", record.Method)
	assert.Equal(t, "https://dashboard.tosspayments.com/receipt/abc", record.ReceiptURL)
}

func TestTossConfirmRejectionPassesCodeVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "ALREADY_PROCESSED_PAYMENT",
			"message": "이미 처리된 결제 입니다.",
		})
	}))
	defer server.Close()

	client := newTestTossClient(server.URL)

	_, err := client.Confirm(context.Background(), "tk_dup", "ORD-20240101-ABCDEF", 23000)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "toss", provErr.Provider)
	assert.Equal(t, "ALREADY_PROCESSED_PAYMENT", provErr.Code)
	assert.Equal(t, "이미 처리된 결제 입니다.", provErr.Message)
	assert.Equal(t, http.StatusBadRequest, provErr.HTTPStatus)
}

func TestTossConfirmRequiresSecretKey(t *testing.T) {
	client := &TossClient{APIURL: "http://unused", HTTP: http.DefaultClient}

	_, err := client.Confirm(context.Background(), "tk", "ORD-X", 1000)
	assert.Error(t, err)
}

func TestTossConfirmNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // serveur fermé = erreur réseau

	client := newTestTossClient(server.URL)

	_, err := client.Confirm(context.Background(), "tk", "ORD-X", 1000)

	// Issue inconnue : pas de ProviderError, juste une erreur transport
	require.Error(t, err)
	var provErr *ProviderError
	assert.False(t, errors.As(err, &provErr))
}
