package models

import "time"

// Statuts de paiement
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Statuts de traitement (fulfillment)
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Moyens de paiement supportés
const (
	MethodToss   = "toss"
	MethodPayPal = "paypal"
)

type Order struct {
	ID              string      `json:"id"` // généré côté client, ex: ORD-20240101-ABCDEF
	UserID          *string     `json:"user_id,omitempty"`
	OrderName       string      `json:"order_name"`
	Total           int64       `json:"total"` // en wons, unité minimale
	PaymentMethod   string      `json:"payment_method"`
	PaymentStatus   string      `json:"payment_status"`
	Status          string      `json:"status"`
	PaymentKey      *string     `json:"payment_key,omitempty"` // référence provider, null tant que non confirmé
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	ShippingStreet  string      `json:"shipping_street"`
	ShippingCity    string      `json:"shipping_city"`
	ShippingState   string      `json:"shipping_state"`
	ShippingZipCode string      `json:"shipping_zip_code"`
	ShippingCountry string      `json:"shipping_country"`
	Items           []OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type OrderItem struct {
	OrderID     string  `json:"order_id"`
	ProductID   string  `json:"product_id"`
	VariantID   *string `json:"variant_id,omitempty"`
	Quantity    int     `json:"quantity"`
	PriceAtTime int64   `json:"price_at_time"` // prix copié à la commande, insensible aux changements de prix ultérieurs
	Size        *string `json:"size,omitempty"`
	ProductName string  `json:"product_name,omitempty"` // enrichi à la lecture, pas stocké
}

// ValidStatuses — transitions autorisées côté admin
var ValidStatuses = map[string]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}
