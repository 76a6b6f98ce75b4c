package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

const tossDefaultAPIURL = "https://api.tosspayments.com"

// TossClient — processeur domestique coréen. Confirmation en un seul
// appel authentifié en Basic avec la clé secrète serveur.
type TossClient struct {
	SecretKey string
	APIURL    string
	HTTP      *http.Client
}

func NewTossClient() *TossClient {
	apiURL := os.Getenv("TOSS_API_URL")
	if apiURL == "" {
		apiURL = tossDefaultAPIURL
	}

	return &TossClient{
		SecretKey: os.Getenv("TOSS_SECRET_KEY"),
		APIURL:    apiURL,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TossClient) Name() string { return "toss" }

type tossConfirmResponse struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	OrderName   string `json:"orderName"`
	TotalAmount int64  `json:"totalAmount"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	ApprovedAt  string `json:"approvedAt"`
	Receipt     *struct {
		URL string `json:"url"`
	} `json:"receipt"`
	// Champs d'erreur (réponse non-2xx)
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Confirm échange le paymentKey contre un paiement capturé.
// Toss vérifie lui-même la cohérence (orderId, amount) et rejette en cas
// d'écart ; on remonte son code/message tels quels.
func (t *TossClient) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*Record, error) {
	if t.SecretKey == "" {
		return nil, fmt.Errorf("TOSS_SECRET_KEY manquant")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"paymentKey": paymentKey,
		"orderId":    orderID,
		"amount":     amount,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.APIURL+"/v1/payments/confirm", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	// Basic base64("<secret>:"), le mot de passe est vide
	auth := base64.StdEncoding.EncodeToString([]byte(t.SecretKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.HTTP.Do(req)
	if err != nil {
		// Timeout ou erreur réseau : issue inconnue, aucun état local à changer
		return nil, fmt.Errorf("appel Toss échoué: %w", err)
	}
	defer resp.Body.Close()

	var data tossConfirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("réponse Toss illisible: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ Confirmation Toss refusée pour %s: %s (%s)", orderID, data.Message, data.Code)
		return nil, &ProviderError{
			Provider:   "toss",
			Code:       data.Code,
			Message:    data.Message,
			HTTPStatus: resp.StatusCode,
		}
	}

	record := &Record{
		PaymentKey: data.PaymentKey,
		OrderID:    data.OrderID,
		OrderName:  data.OrderName,
		Amount:     data.TotalAmount,
		Status:     data.Status,
		Method:     data.Method,
		ApprovedAt: data.ApprovedAt,
	}
	if data.Receipt != nil {
		record.ReceiptURL = data.Receipt.URL
	}

	log.Printf("💳 Paiement Toss confirmé: %s (%d₩) pour %s", record.PaymentKey, record.Amount, orderID)
	return record, nil
}
