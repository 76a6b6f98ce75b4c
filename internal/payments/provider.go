package payments

import (
	"context"
	"fmt"
)

// Record — paiement confirmé côté provider
type Record struct {
	PaymentKey string `json:"paymentKey"` // référence transaction du provider
	OrderID    string `json:"orderId"`
	OrderName  string `json:"orderName"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
	Method     string `json:"method"`
	ApprovedAt string `json:"approvedAt"`
	ReceiptURL string `json:"receipt,omitempty"`
}

// OrderRef — référence d'un ordre créé côté provider (étape "prepare" de PayPal)
type OrderRef struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Provider échange un token de transaction contre un paiement confirmé.
// L'appel est unique, sans retry : un échec remonte tel quel au caller.
type Provider interface {
	Name() string
	Confirm(ctx context.Context, token, orderID string, amount int64) (*Record, error)
}

// Preparer — étape optionnelle de création d'un ordre côté provider
// avant le paiement (PayPal). Les providers sans cette étape ne
// l'implémentent simplement pas.
type Preparer interface {
	Prepare(ctx context.Context, orderID string, amount int64) (*OrderRef, error)
}

// ProviderError porte le code et le message du provider, verbatim
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	HTTPStatus int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
}
