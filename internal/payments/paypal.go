package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	paypalSandboxAPIURL = "https://api-m.sandbox.paypal.com"
	paypalLiveAPIURL    = "https://api-m.paypal.com"

	// Taux de repli KRW→USD (PayPal ne règle pas en wons)
	paypalDefaultKRWRate = 0.00075
)

// PayPalClient — flux en deux temps : création d'un ordre provider
// (Prepare) puis capture (Confirm). Token OAuth client-credentials
// obtenu à chaque requête, pas de cache longue durée.
type PayPalClient struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	BaseURL      string // URL publique du shop, pour les URLs de retour
	KRWToUSD     float64
	HTTP         *http.Client
}

func NewPayPalClient() *PayPalClient {
	apiURL := paypalLiveAPIURL
	if strings.ToLower(os.Getenv("PAYPAL_SANDBOX")) == "true" {
		apiURL = paypalSandboxAPIURL
	}

	rate := paypalDefaultKRWRate
	if v := os.Getenv("PAYPAL_KRW_USD_RATE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			rate = parsed
		}
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	return &PayPalClient{
		ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
		ClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
		APIURL:       apiURL,
		BaseURL:      baseURL,
		KRWToUSD:     rate,
		HTTP:         &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *PayPalClient) Name() string { return "paypal" }

// accessToken fait l'échange client-credentials
func (p *PayPalClient) accessToken(ctx context.Context) (string, error) {
	if p.ClientID == "" || p.ClientSecret == "" {
		return "", fmt.Errorf("identifiants PayPal non configurés")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}

	auth := base64.StdEncoding.EncodeToString([]byte(p.ClientID + ":" + p.ClientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("authentification PayPal échouée: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			Provider:   "paypal",
			Code:       "AUTH_FAILED",
			Message:    "authentification PayPal refusée",
			HTTPStatus: resp.StatusCode,
		}
	}

	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	return data.AccessToken, nil
}

// convertKRW convertit les wons en dollars, arrondi au cent.
// La conversion est faite une seule fois, à la création de l'ordre.
func (p *PayPalClient) convertKRW(amount int64) string {
	usd := math.Round(float64(amount)*p.KRWToUSD*100) / 100
	return fmt.Sprintf("%.2f", usd)
}

// Prepare crée l'ordre côté PayPal. PayPal-Request-Id = order id interne,
// un create rejoué ne crée donc pas de doublon provider.
func (p *PayPalClient) Prepare(ctx context.Context, orderID string, amount int64) (*OrderRef, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": orderID,
				"description":  "Commande " + orderID,
				"amount": map[string]string{
					"currency_code": "USD",
					"value":         p.convertKRW(amount),
				},
			},
		},
		"application_context": map[string]string{
			"brand_name":   "Modoo Shop",
			"landing_page": "NO_PREFERENCE",
			"user_action":  "PAY_NOW",
			"return_url":   p.BaseURL + "/checkout/success",
			"cancel_url":   p.BaseURL + "/checkout/fail",
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL+"/v2/checkout/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PayPal-Request-Id", orderID) // clé d'idempotence

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("création ordre PayPal échouée: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, paypalError(resp, "CREATE_ORDER_FAILED", "création de l'ordre PayPal refusée")
	}

	var order OrderRef
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}

	log.Printf("💳 Ordre PayPal créé: %s pour %s", order.ID, orderID)
	return &order, nil
}

type paypalCaptureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID         string `json:"id"`
				Status     string `json:"status"`
				CreateTime string `json:"create_time"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// Confirm capture l'ordre PayPal (token = id de l'ordre provider).
// Un capture dont le statut n'est pas COMPLETED est un échec, même si
// l'appel HTTPS a réussi.
func (p *PayPalClient) Confirm(ctx context.Context, paypalOrderID, orderID string, amount int64) (*Record, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.APIURL+"/v2/checkout/orders/"+paypalOrderID+"/capture", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capture PayPal échouée: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, paypalError(resp, "CAPTURE_FAILED", "capture PayPal refusée")
	}

	var data paypalCaptureResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	if data.Status != "COMPLETED" {
		log.Printf("❌ Capture PayPal non complétée pour %s: %s", orderID, data.Status)
		return nil, &ProviderError{
			Provider:   "paypal",
			Code:       "NOT_COMPLETED",
			Message:    "paiement non complété: " + data.Status,
			HTTPStatus: http.StatusBadRequest,
		}
	}

	record := &Record{
		PaymentKey: data.ID,
		OrderID:    orderID,
		Amount:     amount,
		Status:     data.Status,
		Method:     "PayPal",
		ApprovedAt: time.Now().UTC().Format(time.RFC3339),
	}

	// L'id de capture est la vraie référence de transaction
	if len(data.PurchaseUnits) > 0 && len(data.PurchaseUnits[0].Payments.Captures) > 0 {
		capture := data.PurchaseUnits[0].Payments.Captures[0]
		record.PaymentKey = capture.ID
		if capture.CreateTime != "" {
			record.ApprovedAt = capture.CreateTime
		}
	}

	log.Printf("💳 Paiement PayPal capturé: %s pour %s", record.PaymentKey, orderID)
	return record, nil
}

// paypalError extrait le code/message d'erreur de l'API PayPal
func paypalError(resp *http.Response, fallbackCode, fallbackMsg string) error {
	var body struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	code := body.Name
	if code == "" {
		code = fallbackCode
	}
	message := body.Message
	if message == "" {
		message = fallbackMsg
	}

	return &ProviderError{
		Provider:   "paypal",
		Code:       code,
		Message:    message,
		HTTPStatus: resp.StatusCode,
	}
}
