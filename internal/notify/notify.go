package notify

import (
	"context"
	"encoding/json"
	"log"

	"modoo_back_end/internal/database"
	"modoo_back_end/internal/models"
	"modoo_back_end/internal/payments"
)

// Canal Redis des événements commande (consommé par le WebSocket admin)
const OrdersChannel = "orders:events"

// Dispatcher déclenche les notifications post-confirmation : email client,
// alerte Discord interne, événement pour le flux admin. Chaque envoi part
// dans sa goroutine : un sender lent ne retarde jamais la réponse client,
// un sender en erreur ne la change jamais.
type Dispatcher struct{}

func NewDispatcher() *Dispatcher { return &Dispatcher{} }

func (d *Dispatcher) OrderConfirmed(order *models.Order, items []models.OrderItem, record *payments.Record) {
	go func() {
		html := GenerateOrderConfirmationHTML(order, items, record.ReceiptURL)
		if err := SendEmail(order.CustomerEmail, "✅ Confirmation de votre commande - Modoo Shop", html); err != nil {
			log.Printf("❌ Erreur envoi e-mail confirmation pour %s: %v", order.ID, err)
		} else {
			log.Println("📧 E-mail de confirmation envoyé à", order.CustomerEmail)
		}
	}()

	go func() {
		if err := SendDiscordOrderAlert(order, items); err != nil {
			log.Printf("❌ Erreur webhook Discord pour %s: %v", order.ID, err)
		}
	}()

	go d.publishOrderEvent(order, record)
}

// publishOrderEvent pousse l'événement sur Redis pour le flux temps réel
func (d *Dispatcher) publishOrderEvent(order *models.Order, record *payments.Record) {
	if database.Redis == nil {
		return
	}

	event, err := json.Marshal(map[string]interface{}{
		"type":           "order_confirmed",
		"order_id":       order.ID,
		"order_name":     order.OrderName,
		"total":          order.Total,
		"payment_method": order.PaymentMethod,
		"payment_key":    record.PaymentKey,
		"customer_name":  order.CustomerName,
		"approved_at":    record.ApprovedAt,
	})
	if err != nil {
		return
	}

	if err := database.Redis.Publish(context.Background(), OrdersChannel, event).Err(); err != nil {
		log.Printf("❌ Erreur publication événement commande %s: %v", order.ID, err)
	}
}
