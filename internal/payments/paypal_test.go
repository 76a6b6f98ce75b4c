package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paypalTestServer répond au token OAuth et délègue le reste au handler
func paypalTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
			return
		}
		handler(w, r)
	}))
}

func newTestPayPalClient(serverURL string) *PayPalClient {
	return &PayPalClient{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		APIURL:       serverURL,
		BaseURL:      "http://localhost:3000",
		KRWToUSD:     0.00075,
		HTTP:         &http.Client{Timeout: 2 * time.Second},
	}
}

func TestPayPalPrepareSendsIdempotencyKeyAndUSDAmount(t *testing.T) {
	var gotRequestID string
	var gotBody map[string]interface{}

	server := paypalTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/checkout/orders", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		gotRequestID = r.Header.Get("PayPal-Request-Id")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "PAYPAL-ORDER-1", "status": "CREATED"})
	})
	defer server.Close()

	client := newTestPayPalClient(server.URL)

	ref, err := client.Prepare(context.Background(), "ORD-20240101-ABCDEF", 23000)
	require.NoError(t, err)

	assert.Equal(t, "PAYPAL-ORDER-1", ref.ID)
	assert.Equal(t, "CREATED", ref.Status)

	// L'order id interne sert de clé d'idempotence provider
	assert.Equal(t, "ORD-20240101-ABCDEF", gotRequestID)

	// 23000₩ × 0.00075 = 17.25$, converti une seule fois à la création
	units := gotBody["purchase_units"].([]interface{})
	unit := units[0].(map[string]interface{})
	amount := unit["amount"].(map[string]interface{})
	assert.Equal(t, "USD", amount["currency_code"])
	assert.Equal(t, "17.25", amount["value"])
	assert.Equal(t, "ORD-20240101-ABCDEF", unit["reference_id"])
}

func TestPayPalConfirmCaptureCompleted(t *testing.T) {
	server := paypalTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/checkout/orders/PAYPAL-ORDER-1/capture", r.URL.Path)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "PAYPAL-ORDER-1",
			"status": "COMPLETED",
			"purchase_units": []map[string]interface{}{
				{
					"payments": map[string]interface{}{
						"captures": []map[string]string{
							{"id": "CAPTURE-99", "status": "COMPLETED", "create_time": "2024-01-01T03:00:00Z"},
						},
					},
				},
			},
		})
	})
	defer server.Close()

	client := newTestPayPalClient(server.URL)

	record, err := client.Confirm(context.Background(), "PAYPAL-ORDER-1", "ORD-20240101-ABCDEF", 23000)
	require.NoError(t, err)

	// L'id de capture remplace l'id d'ordre comme référence de transaction
	assert.Equal(t, "CAPTURE-99", record.PaymentKey)
	assert.Equal(t, "COMPLETED", record.Status)
	assert.Equal(t, "PayPal", record.Method)
	assert.Equal(t, int64(23000), record.Amount)
	assert.Equal(t, "2024-01-01T03:00:00Z", record.ApprovedAt)
}

func TestPayPalConfirmNotCompletedIsFailure(t *testing.T) {
	server := paypalTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "PAYPAL-ORDER-1",
			"status": "PENDING",
		})
	})
	defer server.Close()

	client := newTestPayPalClient(server.URL)

	_, err := client.Confirm(context.Background(), "PAYPAL-ORDER-1", "ORD-X", 23000)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "NOT_COMPLETED", provErr.Code)
}

func TestPayPalConfirmCaptureRejected(t *testing.T) {
	server := paypalTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"name":    "ORDER_NOT_APPROVED",
			"message": "Payer has not yet approved the Order for payment.",
		})
	})
	defer server.Close()

	client := newTestPayPalClient(server.URL)

	_, err := client.Confirm(context.Background(), "PAYPAL-ORDER-1", "ORD-X", 23000)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "ORDER_NOT_APPROVED", provErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, provErr.HTTPStatus)
}

func TestPayPalAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestPayPalClient(server.URL)

	_, err := client.Prepare(context.Background(), "ORD-X", 1000)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "AUTH_FAILED", provErr.Code)
}

func TestConvertKRWRoundsToCents(t *testing.T) {
	client := &PayPalClient{KRWToUSD: 0.00075}

	assert.Equal(t, "17.25", client.convertKRW(23000))
	assert.Equal(t, "0.75", client.convertKRW(1000))
	assert.Equal(t, "0.01", client.convertKRW(10)) // 0.0075 arrondi au cent
}
